// Package dashboard loads the lists behind each role's overview. Sources are
// fetched concurrently; a source that fails falls back to its last cached
// snapshot without holding back the others.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"roombook/api"
	"roombook/logging"
	"roombook/storage"
)

const DefaultSourceTimeout = 10 * time.Second

// Result is one source's outcome. Err is kept even when cached items were
// substituted so callers can tell fresh data from stale.
type Result[T any] struct {
	Items     []T       `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
	Notice    string    `json:"notice,omitempty"`
	Err       error     `json:"-"`
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Loader holds what every source shares. DB may be nil, which disables
// both snapshot writes and the fallback. Without a Logger the one carried
// by the context is used.
type Loader struct {
	DB      *sql.DB
	Scope   string
	Timeout time.Duration
	Now     func() time.Time
	Logger  *slog.Logger
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) logger(ctx context.Context) *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return logging.FromContext(ctx)
}

// Fetch runs one source under its own timeout. On success the items are
// written to the cache; on failure the cached snapshot, if any, is returned
// with a notice.
func Fetch[T any](ctx context.Context, l *Loader, kind string, fetch func(context.Context) ([]T, error)) Result[T] {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	items, err := fetch(fetchCtx)
	if err == nil {
		if items == nil {
			items = []T{}
		}
		fetchedAt := l.now()
		if l.DB != nil {
			if serr := storage.SaveSnapshot(l.DB, kind, l.Scope, items, fetchedAt); serr != nil {
				l.logger(ctx).Warn("cache write failed", "kind", kind, "error", serr)
			}
		}
		return Result[T]{Items: items, FetchedAt: fetchedAt}
	}

	l.logger(ctx).Warn("fetch failed", "kind", kind, "kind_of_error", api.ErrorKind(err), "error", err)
	res := Result[T]{Items: []T{}, Err: err, Notice: fmt.Sprintf("%s unavailable: %v", kind, err)}
	if l.DB == nil {
		return res
	}

	cached, fetchedAt, found, cerr := storage.LoadSnapshot[T](l.DB, kind, l.Scope)
	if cerr != nil {
		l.logger(ctx).Warn("cache read failed", "kind", kind, "error", cerr)
		return res
	}
	if !found {
		return res
	}
	if cached == nil {
		cached = []T{}
	}
	res.Items = cached
	res.FetchedAt = fetchedAt
	res.Cached = true
	res.Notice = fmt.Sprintf("%s unavailable, showing data cached at %s (%s ago)",
		kind, fetchedAt.Local().Format("2006-01-02 15:04"), Age(res, l.now()).Round(time.Minute))
	return res
}

// Notices collects the non-empty notices in order.
func Notices(notices ...string) []string {
	out := []string{}
	for _, n := range notices {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
