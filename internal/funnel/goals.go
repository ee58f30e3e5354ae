package funnel

import (
	"math"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// weeksPerMonth is the average used to derive weekly goals from monthly
// ones. A deliberate approximation, not a calendar-accurate apportionment.
const weeksPerMonth = 4.33

// WeeklyGoal derives a weekly target from a monthly one, ceiling-rounded.
func WeeklyGoal(monthly int) int {
	if monthly <= 0 {
		return 0
	}
	return int(math.Ceil(float64(monthly) / weeksPerMonth))
}

// WeeklyGoals applies WeeklyGoal to every key of a monthly goal map.
func WeeklyGoals(monthly map[string]int) map[string]int {
	weekly := make(map[string]int, len(monthly))
	for key, goal := range monthly {
		weekly[key] = WeeklyGoal(goal)
	}
	return weekly
}

// WeekStart returns the Monday anchoring now's week. Sunday counts as day
// seven of the previous week, so a Sunday anchors six days back.
func WeekStart(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := int(today.Weekday()) - int(time.Monday)
	if today.Weekday() == time.Sunday {
		offset = 6
	}
	return today.AddDate(0, 0, -offset)
}

// Progress sums the given metric keys over rows, returning a total for
// every key even when no row contributes.
func Progress(rows []domain.DailyEntry, keys []string) map[string]int {
	totals := make(map[string]int, len(keys))
	for _, key := range keys {
		totals[key] = 0
	}
	for _, row := range rows {
		for _, key := range keys {
			totals[key] += row.Metrics[key]
		}
	}
	return totals
}

// WeekRows filters rows to those on or after the Monday of now's week.
// Row dates are fixed-width ISO, so string comparison is chronological.
func WeekRows(rows []domain.DailyEntry, now time.Time) []domain.DailyEntry {
	monday := WeekStart(now).Format(dateLayout)
	week := make([]domain.DailyEntry, 0, len(rows))
	for _, row := range rows {
		if row.Data >= monday {
			week = append(week, row)
		}
	}
	return week
}

// MonthBounds returns the first and last day of (year, month) as ISO dates.
func MonthBounds(year, month int) (start, end string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}
