// Package health exposes a readiness endpoint over the process's backing
// services.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"membership/pkg/platform/httputil"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Checker runs every registered check in parallel with a shared timeout.
type Checker struct {
	timeout time.Duration
	names   []string
	checks  map[string]Pinger
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{timeout: timeout, checks: make(map[string]Pinger)}
}

// Add registers a named check. A nil pinger is ignored.
func (c *Checker) Add(name string, p Pinger) *Checker {
	if p == nil {
		return c
	}
	if _, exists := c.checks[name]; !exists {
		c.names = append(c.names, name)
		sort.Strings(c.names)
	}
	c.checks[name] = p
	return c
}

// Report is the health endpoint's response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Run pings every dependency and reports "ok" or the error per check.
func (c *Checker) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = Report{Status: "ok", Checks: make(map[string]string, len(c.names))}
	)
	for _, name := range c.names {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			result := "ok"
			if err := p.Ping(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = result
			if result != "ok" {
				report.Status = "degraded"
			}
		}(name, c.checks[name])
	}
	wg.Wait()
	return report
}

// Handler serves the report: 200 when every check passes, 503 otherwise.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, report)
	}
}
