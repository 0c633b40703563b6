// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// Readiness defaults.
const (
	DefaultAttempts = 20
	DefaultInterval = time.Second
	DefaultTimeout  = 5 * time.Second

	readyPath = "/papers"
)

// ErrNotReady is returned when the server never answered the readiness probe.
var ErrNotReady = errors.New("server not ready")

var varPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Result is the outcome of one check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Report collects the results of a plan run.
type Report struct {
	Results []Result
}

// Failed counts failed checks.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Failed() == 0 }

// Runner runs smoke checks against BaseURL.
type Runner struct {
	BaseURL string
	Client  *http.Client

	// Attempts and Interval bound WaitReady.
	Attempts int
	Interval time.Duration

	// Out receives one line per check. Nil discards them.
	Out io.Writer
}

// NewRunner returns a Runner for baseURL configured from cfg.
func NewRunner(baseURL string, cfg types.SmokeConfig, out io.Writer) *Runner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Client:   &http.Client{Timeout: timeout},
		Attempts: cfg.Attempts,
		Interval: cfg.Interval,
		Out:      out,
	}
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}
	return r.Client
}

// WaitReady polls GET /papers until it returns 200, at most Attempts times
// with Interval between attempts. It returns the number of attempts made.
func (r *Runner) WaitReady(ctx context.Context) (int, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for i := 1; i <= attempts; i++ {
		status, _, err := r.get(ctx, readyPath)
		if err == nil && status == http.StatusOK {
			logger.Debug(ctx, "server ready", zap.Int("attempt", i))
			return i, nil
		}
		logger.Debug(ctx, "server not ready",
			zap.Int("attempt", i),
			zap.Int("status", status),
			zap.Error(err),
		)
		if i == attempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return i, ctx.Err()
		case <-timer.C:
		}
	}
	return attempts, fmt.Errorf("%w after %d attempts", ErrNotReady, attempts)
}

// Run executes the checks of plan in order and prints a line per check.
func (r *Runner) Run(ctx context.Context, plan Plan) Report {
	vars := map[string]string{}
	var report Report
	for _, c := range plan.Checks {
		res := r.runCheck(ctx, c, vars)
		report.Results = append(report.Results, res)
		if res.Passed {
			fmt.Fprintf(r.out(), "[PASS] %s\n", res.Name)
		} else {
			fmt.Fprintf(r.out(), "[FAIL] %s: %s\n", res.Name, res.Detail)
		}
	}
	return report
}

func (r *Runner) runCheck(ctx context.Context, c Check, vars map[string]string) Result {
	res := Result{Name: c.Name}

	path, err := expand(c.Path, vars)
	if err != nil {
		res.Detail = err.Error()
		return res
	}

	status, body, err := r.get(ctx, path)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	if want := c.wantStatus(); status != want {
		res.Detail = fmt.Sprintf("expected status %d, got %d", want, status)
		return res
	}

	if c.needsJSON() {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			res.Detail = "response body is not valid JSON"
			return res
		}
		for _, expr := range c.Exists {
			if err := checkExists(expr, doc); err != nil {
				res.Detail = err.Error()
				return res
			}
		}
		for expr, want := range c.Equals {
			if err := checkEquals(expr, want, doc); err != nil {
				res.Detail = err.Error()
				return res
			}
		}
		for name, expr := range c.Capture {
			v, err := capture(expr, doc)
			if err != nil {
				logger.Debug(ctx, "capture failed", zap.String("var", name), zap.Error(err))
				continue
			}
			vars[name] = v
		}
	}

	res.Passed = true
	res.Detail = fmt.Sprintf("status %d", status)
	return res
}

// expand substitutes {{var}} references in path with URL-escaped values.
func expand(path string, vars map[string]string) (string, error) {
	var missing []string
	out := varPattern.ReplaceAllStringFunc(path, func(m string) string {
		name := varPattern.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("variable %s was not captured", strings.Join(missing, ", "))
	}
	return out, nil
}

func (r *Runner) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading body: %w", err)
	}
	return resp.StatusCode, body, nil
}
