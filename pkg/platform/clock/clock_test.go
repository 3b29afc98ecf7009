package clock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay_DiscardsTimeOfDay(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	t.Run("late evening keeps local calendar date", func(t *testing.T) {
		// 23:30 local is 20:30 UTC; the local calendar date is what counts.
		local := time.Date(2024, 6, 30, 23, 30, 0, 0, jerusalem)
		assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), Day(local))
	})

	t.Run("same date different times are equal", func(t *testing.T) {
		a := Day(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC))
		b := Day(time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC))
		assert.True(t, a.Equal(b))
	})
}

func TestAddDays_CrossesMonthAndLeapDay(t *testing.T) {
	start := time.Date(2024, 2, 28, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-29", FormatDate(AddDays(start, 1)))
	assert.Equal(t, "2024-03-30", FormatDate(AddDays(start, 31)))
	assert.Equal(t, "2024-02-27", FormatDate(AddDays(start, -1)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("30/06/2024")
	assert.Error(t, err)
}

func TestNow_PrefersPinnedTime(t *testing.T) {
	fixed := NewFixed(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	pinned := time.Date(2030, 5, 5, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, fixed.Now(), Now(context.Background(), fixed))
	assert.Equal(t, pinned, Now(WithTime(context.Background(), pinned), fixed))
	assert.Equal(t, Day(pinned), Today(WithTime(context.Background(), pinned), fixed))
}

func TestFixed_SetAndAdvance(t *testing.T) {
	fixed := NewFixed(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fixed.Advance(48 * time.Hour)
	assert.Equal(t, "2024-01-03", FormatDate(fixed.Now()))
	fixed.Set(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-07-01", FormatDate(fixed.Now()))
}

func TestMiddleware_TimeIsConsistentWithinRequest(t *testing.T) {
	fixed := NewFixed(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	var first, second time.Time
	handler := Middleware(fixed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context(), fixed)
		fixed.Advance(time.Hour)
		second = Now(r.Context(), fixed)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, first, second)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), first)
}
