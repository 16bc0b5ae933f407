package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

const readyTimeout = 2 * time.Second

// CheckAll runs every check concurrently and returns the failures keyed by name.
func CheckAll(ctx context.Context, checks ...ReadyCheck) map[string]string {
	var (
		mu       sync.Mutex
		failures = map[string]string{}
	)
	var g errgroup.Group
	for _, check := range checks {
		if check.Check == nil {
			continue
		}
		check := check
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, readyTimeout)
			defer cancel()
			if err := check.Check(cctx); err != nil {
				name := check.Name
				if name == "" {
					name = "dependency"
				}
				mu.Lock()
				failures[name] = err.Error()
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		failures := CheckAll(r.Context(), checks...)
		if len(failures) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		names := make([]string, 0, len(failures))
		for name := range failures {
			names = append(names, name)
		}
		sort.Strings(names)
		type failure struct {
			Name  string `json:"name"`
			Error string `json:"error"`
		}
		body := make([]failure, 0, len(names))
		for _, name := range names {
			body = append(body, failure{Name: name, Error: failures[name]})
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "unavailable", "failures": body})
	})
	return mux
}
