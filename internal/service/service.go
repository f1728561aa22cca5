// Package service implements the school entity workflows on top of the backend
// REST API: payload shaping, client-side validation, normalization of responses
// and the multi-request operations (transfers, bulk captures).
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/noah-isme/sicali-client/internal/normalize"
	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
	"github.com/noah-isme/sicali-client/pkg/fanout"
	"github.com/noah-isme/sicali-client/pkg/httpclient"
	"github.com/noah-isme/sicali-client/pkg/metrics"
	"github.com/noah-isme/sicali-client/pkg/validation"
)

// transport is the subset of *httpclient.Client the services rely on.
type transport interface {
	Get(ctx context.Context, path string, query url.Values) (*httpclient.Result, error)
	Post(ctx context.Context, path string, body any) (*httpclient.Result, error)
	Put(ctx context.Context, path string, body any) (*httpclient.Result, error)
	Delete(ctx context.Context, path string) (*httpclient.Result, error)
}

func defaults(validate *validation.Validator, logger *zap.Logger) (*validation.Validator, *zap.Logger) {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return validate, logger
}

// unwrap returns the payload of a successful result or the error describing the failure.
func unwrap(res *httpclient.Result, err error) (json.RawMessage, error) {
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, res.Err()
	}
	return res.Data, nil
}

func validationFailed(errs []string) error {
	return appErrors.Clone(appErrors.ErrValidation, validation.Join(errs))
}

func invalid(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func isDecodeError(err error) bool {
	return errors.Is(err, appErrors.ErrDecode)
}

func fetchList[T any](ctx context.Context, client transport, path string, fn func(json.RawMessage) (*T, error), keys ...string) ([]T, error) {
	data, err := unwrap(client.Get(ctx, path, nil))
	if err != nil {
		return nil, err
	}
	return normalize.List(data, fn, keys...)
}

func fetchOne[T any](ctx context.Context, client transport, path string, fn func(json.RawMessage) (*T, error)) (*T, error) {
	data, err := unwrap(client.Get(ctx, path, nil))
	if err != nil {
		return nil, err
	}
	item, err := normalize.One(data, fn)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}
	return item, nil
}

// send posts or puts payload and normalizes the echoed record. Backends that
// answer 204 or with an empty body yield nil without error.
func send[T any](res *httpclient.Result, err error, fn func(json.RawMessage) (*T, error)) (*T, error) {
	data, err := unwrap(res, err)
	if err != nil {
		return nil, err
	}
	return normalize.One(data, fn)
}

// remove reports whether the backend accepted a DELETE. HTTP failures are
// returned alongside false so callers can show the reason.
func remove(ctx context.Context, client transport, path string) (bool, error) {
	res, err := client.Delete(ctx, path)
	if err != nil {
		return false, err
	}
	if !res.Success {
		return false, res.Err()
	}
	return true, nil
}

// degrade swallows transport and HTTP failures of list views so read-heavy
// screens keep rendering. Decode failures still surface.
func degrade[T any](logger *zap.Logger, op string, items []T, err error) ([]T, error) {
	if err == nil {
		return items, nil
	}
	if isDecodeError(err) {
		return nil, err
	}
	logger.Warn("returning empty list after backend failure", zap.String("operation", op), zap.Error(err))
	return []T{}, nil
}

// runBulk fans fn out over items and returns the values in input order together
// with the first failure by position. Items that succeeded stay applied.
func runBulk[T, R any](ctx context.Context, m *metrics.Metrics, op string, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	outcomes := fanout.Run(ctx, limit, items, fn)
	fulfilled, rejected := fanout.Split(outcomes)
	m.ObserveBulk(op, len(fulfilled), len(rejected))

	out := make([]R, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Value
	}
	if len(rejected) > 0 {
		return out, rejected[0].Err
	}
	return out, nil
}
