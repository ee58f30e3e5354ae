package funnel_test

import (
	"testing"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/funnel"
)

func TestResolvePeriod(t *testing.T) {
	// A mid-month Wednesday, so every named period is exercised without
	// month-boundary clipping.
	now := time.Date(2026, time.March, 18, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		period    string
		wantStart string
		wantEnd   string
	}{
		{funnel.PeriodToday, "2026-03-18", "2026-03-18"},
		{funnel.PeriodYesterday, "2026-03-17", "2026-03-17"},
		{funnel.PeriodLast7Days, "2026-03-12", "2026-03-18"},
		{funnel.PeriodThisMonth, "2026-03-01", "2026-03-31"},
		{funnel.PeriodLastMonth, "2026-02-01", "2026-02-28"},
		{funnel.PeriodAll, "", ""},
		{"", "", ""},
		{"garbage", "", ""},
	}
	for _, tc := range cases {
		start, end := funnel.ResolvePeriod(tc.period, "", "", now)
		if start != tc.wantStart || end != tc.wantEnd {
			t.Errorf("ResolvePeriod(%q) = (%q, %q), want (%q, %q)",
				tc.period, start, end, tc.wantStart, tc.wantEnd)
		}
	}
}

func TestResolvePeriod_NamedPeriodsAreOrdered(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	named := []string{
		funnel.PeriodToday, funnel.PeriodYesterday, funnel.PeriodLast7Days,
		funnel.PeriodThisMonth, funnel.PeriodLastMonth,
	}
	for _, period := range named {
		start, end := funnel.ResolvePeriod(period, "", "", now)
		if start == "" || end == "" {
			t.Errorf("ResolvePeriod(%q) returned unbounded range", period)
		}
		if start > end {
			t.Errorf("ResolvePeriod(%q) start %q after end %q", period, start, end)
		}
	}
}

func TestResolvePeriod_CustomPassthrough(t *testing.T) {
	now := time.Date(2026, time.March, 18, 0, 0, 0, 0, time.UTC)
	start, end := funnel.ResolvePeriod(funnel.PeriodCustom, "2025-12-01", "2025-12-15", now)
	if start != "2025-12-01" || end != "2025-12-15" {
		t.Errorf("custom period = (%q, %q), want bounds passed through", start, end)
	}
}
