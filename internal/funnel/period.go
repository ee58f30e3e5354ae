package funnel

import "time"

const dateLayout = "2006-01-02"

// Named period tokens accepted by ResolvePeriod.
const (
	PeriodToday     = "hoje"
	PeriodYesterday = "ontem"
	PeriodLast7Days = "ultimos_7_dias"
	PeriodThisMonth = "este_mes"
	PeriodLastMonth = "mes_passado"
	PeriodCustom    = "personalizado"
	PeriodAll       = "maximo"
)

// ResolvePeriod turns a named period token into a concrete inclusive
// [start, end] date range relative to now. "personalizado" passes the
// supplied bounds through; "maximo" and any unrecognized token yield an
// unbounded range (empty strings).
func ResolvePeriod(period, customStart, customEnd string, now time.Time) (start, end string) {
	if period == PeriodCustom {
		return customStart, customEnd
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from, to := today, today

	switch period {
	case PeriodToday:
	case PeriodYesterday:
		from = today.AddDate(0, 0, -1)
		to = from
	case PeriodLast7Days:
		from = today.AddDate(0, 0, -6)
	case PeriodThisMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		to = from.AddDate(0, 1, -1)
	case PeriodLastMonth:
		from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -1, 0)
		to = from.AddDate(0, 1, -1)
	default:
		return "", ""
	}

	return from.Format(dateLayout), to.Format(dateLayout)
}
