// Package clock supplies "now" and "today" to the lease and notification
// engines. Calendar dates are represented as time.Time values at UTC midnight
// so that equality and ordering compare whole days only.
package clock

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Clock is the injectable time source.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location. The location decides which
// calendar day "today" is, so it should match the zone the daily job runs in.
type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock in loc; a nil loc means UTC.
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{loc: loc}
}

func (s System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// Day truncates t to its calendar date, read in t's own location, and returns
// that date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a calendar date by n days.
func AddDays(day time.Time, n int) time.Time {
	return Day(day).AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

type contextKeyNow struct{}

// WithTime pins "now" for everything downstream of ctx. Workers use it to keep
// one timestamp for a whole batch; tests use it to skip the middleware.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyNow{}, t)
}

// Now returns the time pinned on ctx, falling back to c.
func Now(ctx context.Context, c Clock) time.Time {
	if t, ok := ctx.Value(contextKeyNow{}).(time.Time); ok {
		return t
	}
	return c.Now()
}

// Today returns the calendar date for Now(ctx, c).
func Today(ctx context.Context, c Clock) time.Time {
	return Day(Now(ctx, c))
}

// Middleware captures c.Now() once per request so that every comparison made
// while serving it sees the same instant.
func Middleware(c Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithTime(r.Context(), c.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
