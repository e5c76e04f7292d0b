package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonths(t *testing.T) {
	t.Parallel()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{
			name: "clamps into leap february",
			in:   time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "clamps into common february",
			in:   time.Date(2023, time.January, 31, 9, 0, 0, 0, time.UTC),
			n:    1,
			want: time.Date(2023, time.February, 28, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "crosses year",
			in:   time.Date(2024, time.November, 15, 8, 30, 0, 0, time.UTC),
			n:    3,
			want: time.Date(2025, time.February, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "negative",
			in:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			n:    -1,
			want: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "keeps wall clock across dst",
			in:   time.Date(2024, time.February, 10, 9, 0, 0, 0, ny),
			n:    1,
			want: time.Date(2024, time.March, 10, 9, 0, 0, 0, ny),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AddMonths(tt.in, tt.n)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestAddMonthsTwelveTimesEqualsOneYear(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, time.May, 15, 7, 45, 0, 0, time.UTC)
	cur := start
	for i := 0; i < 12; i++ {
		cur = AddMonths(cur, 1)
	}
	assert.Equal(t, AddYears(start, 1), cur)
	assert.Equal(t, time.Date(2025, time.May, 15, 7, 45, 0, 0, time.UTC), cur)
}

func TestAddYearsLeapDay(t *testing.T) {
	t.Parallel()
	got := AddYears(time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), 1)
	assert.Equal(t, time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC), got)
}

func TestNextWeekday(t *testing.T) {
	t.Parallel()
	// 2024-06-01 is a Saturday.
	sat := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC), NextWeekday(sat, time.Monday))
	assert.Equal(t, time.Date(2024, time.June, 8, 10, 0, 0, 0, time.UTC), NextWeekday(sat, time.Saturday))
	assert.Equal(t, 1, DaysUntil(sat, time.Sunday))
	assert.Equal(t, 7, DaysUntil(sat, time.Saturday))
}

func TestStartOfDayAndClock(t *testing.T) {
	t.Parallel()
	in := time.Date(2024, time.June, 1, 10, 11, 12, 13, time.UTC)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), StartOfDay(in))
	assert.Equal(t, time.Date(2024, time.June, 1, 15, 30, 0, 0, time.UTC), AtClock(in, 15, 30))
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	wd, ok := ParseWeekday("thurs")
	assert.True(t, ok)
	assert.Equal(t, time.Thursday, wd)

	_, ok = ParseWeekday("someday")
	assert.False(t, ok)
}
