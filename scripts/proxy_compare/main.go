package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sicali-client/pkg/fanout"
)

type target struct {
	Method   string `yaml:"method"`
	Path     string `yaml:"path"`
	Critical bool   `yaml:"critical"`
}

type targetFile struct {
	Targets []target `yaml:"targets"`
}

var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/ciclos", Critical: true},
	{Method: http.MethodGet, Path: "/usuarios", Critical: true},
	{Method: http.MethodGet, Path: "/grupos", Critical: true},
	{Method: http.MethodGet, Path: "/asignaturas", Critical: true},
	{Method: http.MethodGet, Path: "/tutores"},
	{Method: http.MethodGet, Path: "/asistencias"},
	{Method: http.MethodGet, Path: "/calificaciones"},
}

type comparison struct {
	Target          target
	BackendStatus   int
	GatewayStatus   int
	StatusMatch     bool
	BodyMatch       bool
	Error           error
	DurationBackend time.Duration
	DurationGateway time.Duration
}

type fetched struct {
	status   int
	body     []byte
	duration time.Duration
}

// proxy_compare replays read-only requests against the backend and through the
// dev gateway's /api prefix and reports any difference in status or body.
func main() {
	var (
		backendBase string
		gatewayBase string
		targetsPath string
		timeout     time.Duration
	)

	pflag.StringVar(&backendBase, "backend", "http://localhost:8080", "SICALI backend base URL")
	pflag.StringVar(&gatewayBase, "gateway", "http://localhost:8081/api", "Dev gateway proxy base URL")
	pflag.StringVar(&targetsPath, "targets", "", "Optional YAML targets file")
	pflag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	pflag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	outcomes := fanout.Run(context.Background(), 4, targets, func(ctx context.Context, t target) (comparison, error) {
		return compareTarget(ctx, client, backendBase, gatewayBase, t), nil
	})

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, o := range outcomes {
		comp := o.Value
		switch {
		case comp.Error != nil:
			if comp.Target.Critical {
				breaking++
			}
		case !comp.StatusMatch || !comp.BodyMatch:
			if comp.Target.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	if path == "" {
		return defaultTargets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func compareTarget(ctx context.Context, client *http.Client, backendBase, gatewayBase string, tgt target) comparison {
	comp := comparison{Target: tgt}

	direct, err := performRequest(ctx, client, backendBase, tgt)
	if err != nil {
		comp.Error = fmt.Errorf("backend request failed: %w", err)
		return comp
	}
	proxied, err := performRequest(ctx, client, gatewayBase, tgt)
	if err != nil {
		comp.Error = fmt.Errorf("gateway request failed: %w", err)
		return comp
	}

	comp.BackendStatus, comp.DurationBackend = direct.status, direct.duration
	comp.GatewayStatus, comp.DurationGateway = proxied.status, proxied.duration
	comp.StatusMatch = comp.BackendStatus == comp.GatewayStatus
	comp.BodyMatch = bodiesEqual(direct.body, proxied.body)
	return comp
}

func performRequest(ctx context.Context, client *http.Client, base string, tgt target) (*fetched, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &fetched{status: resp.StatusCode, body: body, duration: time.Since(start)}, nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj any
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	return reflect.DeepEqual(aj, bj)
}

func printReport(results []comparison) {
	fmt.Println("Gateway Proxy Compare")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Backend: %d (%s)  Gateway: %d (%s)\n", res.BackendStatus, res.DurationBackend, res.GatewayStatus, res.DurationGateway)
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
