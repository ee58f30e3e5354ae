package funnel

import (
	"fmt"
	"sort"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// UnknownBDR groups rows whose bdr_nome is missing.
const UnknownBDR = "N/A"

// defaultRankingKey drives the leaderboard when a company has no
// ranking_metric_key configured.
const defaultRankingKey = "reunioes_marcadas"

// topSeriesCount is how many leading stages the per-BDR bar comparison shows.
const topSeriesCount = 3

// SumMetrics folds daily rows into a running total per metric key. The
// merge is associative and order-independent; keys absent from a row
// contribute zero, keys absent from the schema are still summed (callers
// decide what to render).
func SumMetrics(rows []domain.DailyEntry) map[string]int {
	totals := make(map[string]int)
	for _, row := range rows {
		for key, count := range row.Metrics {
			totals[key] += count
		}
	}
	return totals
}

// FoldProposals partitions proposals by status in a single pass.
func FoldProposals(rows []domain.Proposal) domain.ProposalTotals {
	var t domain.ProposalTotals
	for _, p := range rows {
		switch p.Status {
		case domain.ProposalWon:
			t.WonCount++
			t.WonValue += p.Valor
		case domain.ProposalLost:
			t.LostCount++
		case domain.ProposalOpen:
			t.OpenCount++
			t.OpenValue += p.Valor
		}
	}
	return t
}

// FormatRate renders numerator/denominator as a percentage with one decimal
// place. A zero denominator yields "0.0%", never NaN.
func FormatRate(numerator, denominator int) string {
	if denominator <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(numerator)/float64(denominator)*100)
}

// ConversionRates computes the rate between each adjacent pair of stages in
// display order, with the protected proposals stage excluded. A schema with
// one stage or fewer yields no rates.
func ConversionRates(stages []domain.Stage, kpis map[string]int) map[string]domain.Rate {
	rates := make(map[string]domain.Rate)
	filtered := make([]domain.Stage, 0, len(stages))
	for _, s := range stages {
		if s.Key == ProtectedKey {
			continue
		}
		filtered = append(filtered, s)
	}
	for i := 0; i+1 < len(filtered); i++ {
		from, to := filtered[i], filtered[i+1]
		rates[from.Key+"_"+to.Key] = domain.Rate{
			Label: from.Name + " → " + to.Name,
			Value: FormatRate(kpis[to.Key], kpis[from.Key]),
		}
	}
	return rates
}

// BDRGroup is one BDR's summed metrics. Groups preserve first-appearance
// order so that ranking ties stay stable.
type BDRGroup struct {
	Name   string
	Totals map[string]int
}

// GroupByBDR sums each metric key per BDR name, grouping unnamed rows under
// the UnknownBDR sentinel.
func GroupByBDR(rows []domain.DailyEntry) []BDRGroup {
	index := make(map[string]int)
	groups := make([]BDRGroup, 0)
	for _, row := range rows {
		name := row.BdrNome
		if name == "" {
			name = UnknownBDR
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, BDRGroup{Name: name, Totals: make(map[string]int)})
		}
		for key, count := range row.Metrics {
			groups[i].Totals[key] += count
		}
	}
	return groups
}

// PerBDRChart builds the multi-series bar comparison over the first stages
// of the schema, one series per stage, one category per BDR.
func PerBDRChart(stages []domain.Stage, groups []BDRGroup) domain.PerBDRChart {
	chart := domain.PerBDRChart{Categories: make([]string, 0, len(groups))}
	for _, g := range groups {
		chart.Categories = append(chart.Categories, g.Name)
	}
	n := topSeriesCount
	if len(stages) < n {
		n = len(stages)
	}
	for _, s := range stages[:n] {
		series := domain.BDRSeries{Name: s.Name, Data: make([]int, 0, len(groups))}
		for _, g := range groups {
			series.Data = append(series.Data, g.Totals[s.Key])
		}
		chart.Series = append(chart.Series, series)
	}
	return chart
}

// TrendSeries sums one metric per day, days sorted ascending. Fixed-width
// ISO dates make the lexical sort chronological.
func TrendSeries(rows []domain.DailyEntry, metricKey string) domain.TrendChart {
	byDay := make(map[string]int)
	for _, row := range rows {
		byDay[row.Data] += row.Metrics[metricKey]
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	chart := domain.TrendChart{Categories: days, Series: make([]int, 0, len(days))}
	for _, d := range days {
		chart.Series = append(chart.Series, byDay[d])
	}
	return chart
}

// Ranking orders BDR groups by one metric's summed value, descending.
// The sort is stable: equal counts keep first-appearance order.
func Ranking(groups []BDRGroup, metricKey string) []domain.RankEntry {
	entries := make([]domain.RankEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, domain.RankEntry{Name: g.Name, Count: g.Totals[metricKey]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// PodiumOrder arranges the top three of a ranking as [2nd, 1st, 3rd],
// the left-to-right layout of the podium visualization.
func PodiumOrder(ranking []domain.RankEntry) []domain.RankEntry {
	switch {
	case len(ranking) == 0:
		return nil
	case len(ranking) == 1:
		return []domain.RankEntry{ranking[0]}
	case len(ranking) == 2:
		return []domain.RankEntry{ranking[1], ranking[0]}
	default:
		return []domain.RankEntry{ranking[1], ranking[0], ranking[2]}
	}
}

// BuildDashboard folds raw rows into the complete dashboard view-model for
// one tenant. rankingKey falls back to the company default, then to the
// schema's first stage. Idempotent and side-effect-free for identical
// inputs.
func BuildDashboard(stages []domain.Stage, rankingKey string, entries []domain.DailyEntry, proposals []domain.Proposal) domain.Dashboard {
	if rankingKey == "" {
		rankingKey = defaultRankingKey
	}

	kpis := SumMetrics(entries)
	groups := GroupByBDR(entries)
	totals := FoldProposals(proposals)

	rates := ConversionRates(stages, kpis)
	// Proposals → closed-won sits outside the stage chain: the numerator
	// comes from the proposal fold, not from a metric key.
	rates["propostas_vendas"] = domain.Rate{
		Label: "Propostas → Vendas",
		Value: FormatRate(totals.WonCount, kpis[ProtectedKey]),
	}

	trendKey := ""
	if len(stages) > 0 {
		trendKey = stages[0].Key
	}

	ranking := Ranking(groups, rankingKey)

	return domain.Dashboard{
		KPIs:          kpis,
		Proposals:     totals,
		Rates:         rates,
		PerBDR:        PerBDRChart(stages, groups),
		Trend:         TrendSeries(entries, trendKey),
		RankingMetric: rankingKey,
		Ranking:       ranking,
		Podium:        PodiumOrder(ranking),
	}
}
