package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIssuesInInputOrder(t *testing.T) {
	var mu sync.Mutex
	var issued []int

	items := []int{1, 2, 3, 4, 5}
	outcomes := Run(context.Background(), 1, items, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		issued = append(issued, n)
		mu.Unlock()
		return n * 10, nil
	})

	assert.Equal(t, items, issued)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, items[i]*10, o.Value)
	}
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 20)

	Run(context.Background(), 3, items, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunContinuesAfterFailureAndCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := Run(ctx, 2, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		assert.NoError(t, ctx.Err())
		if n == 2 {
			return 0, errors.New("boom")
		}
		return n, nil
	})

	fulfilled, rejected := Split(outcomes)
	assert.Len(t, fulfilled, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
}

func TestSplitKeepsInputOrder(t *testing.T) {
	outcomes := Run(context.Background(), 0, []string{"a", "b", "c", "d"}, func(_ context.Context, s string) (string, error) {
		if s == "b" || s == "d" {
			time.Sleep(5 * time.Millisecond)
			return "", errors.New("rechazado " + s)
		}
		return s + s, nil
	})

	fulfilled, rejected := Split(outcomes)
	require.Len(t, fulfilled, 2)
	require.Len(t, rejected, 2)
	assert.Equal(t, []int{0, 2}, []int{fulfilled[0].Index, fulfilled[1].Index})
	assert.Equal(t, "aa", fulfilled[0].Value)
	assert.Equal(t, "rechazado b", rejected[0].Err.Error())
	assert.Equal(t, 3, rejected[1].Index)
}
