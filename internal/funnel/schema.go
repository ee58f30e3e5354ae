// Package funnel implements the tenant-configurable funnel schema and the
// aggregation engine that folds raw daily rows into dashboard view-models.
// Everything here is pure: no I/O, no clocks other than injected ones.
package funnel

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"

	"golang.org/x/text/unicode/norm"
)

// ProtectedKey is the one stage whose key never changes and which can never
// be deleted. Proposals created on entry submission join on this key.
const ProtectedKey = "propostas"

// TempIDPrefix marks schema entries that have not been persisted yet.
// Saving assigns them real ids.
const TempIDPrefix = "temp-"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\w-]+`)
	dashesRe     = regexp.MustCompile(`--+`)
)

// GenerateKey derives a stable metric key from a display name: diacritics
// stripped, lowercased, whitespace collapsed to underscores, everything
// else dropped. "Conexões c/ Decisor" → "conexoes_c_decisor".
func GenerateKey(name string) string {
	if name == "" {
		return ""
	}
	decomposed := norm.NFD.String(name)
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	key := strings.ToLower(strings.TrimSpace(b.String()))
	key = whitespaceRe.ReplaceAllString(key, "_")
	key = nonWordRe.ReplaceAllString(key, "")
	key = dashesRe.ReplaceAllString(key, "-")
	return key
}

// DefaultStages returns the fixed template every new company starts with.
func DefaultStages() []domain.Stage {
	return []domain.Stage{
		{Name: "Ligações", Key: "ligacoes", DisplayOrder: 0},
		{Name: "Conexões", Key: "conexoes", DisplayOrder: 1},
		{Name: "Conexões c/ Decisor", Key: "conexoes_decisor", DisplayOrder: 2},
		{Name: "Reuniões Marcadas", Key: "reunioes_marcadas", DisplayOrder: 3},
		{Name: "Reuniões Realizadas", Key: "reunioes_realizadas", DisplayOrder: 4},
		{Name: "Reuniões Qualificadas", Key: "reunioes_qualificadas", DisplayOrder: 5},
		{Name: "Propostas", Key: "propostas", DisplayOrder: 6},
	}
}

// NormalizeStages recomputes keys and display order for a desired schema:
// key follows the (possibly renamed) name, display_order follows array
// position, and the protected stage keeps its key no matter what it was
// renamed to. If the protected stage was dropped from the desired set it is
// re-appended, preserving the previously persisted entry.
func NormalizeStages(desired, persisted []domain.Stage) []domain.Stage {
	out := make([]domain.Stage, 0, len(desired)+1)
	hasProtected := false
	for _, s := range desired {
		key := GenerateKey(s.Name)
		if isProtected(s, persisted) {
			key = ProtectedKey
			hasProtected = true
		}
		out = append(out, domain.Stage{
			ID:           s.ID,
			CompanyID:    s.CompanyID,
			Name:         s.Name,
			Key:          key,
			DisplayOrder: len(out),
		})
	}
	if !hasProtected {
		restored := domain.Stage{Name: "Propostas", Key: ProtectedKey}
		for _, p := range persisted {
			if p.Key == ProtectedKey {
				restored = p
				break
			}
		}
		restored.DisplayOrder = len(out)
		out = append(out, restored)
	}
	return out
}

// isProtected reports whether a desired stage is the protected one: either
// its key already is the protected key, or its id matches the persisted
// protected row (covers renames, which recompute the key from the name).
func isProtected(s domain.Stage, persisted []domain.Stage) bool {
	if s.Key == ProtectedKey {
		return true
	}
	if s.ID == "" || strings.HasPrefix(s.ID, TempIDPrefix) {
		return false
	}
	for _, p := range persisted {
		if p.ID == s.ID {
			return p.Key == ProtectedKey
		}
	}
	return false
}

// StageKeys returns the schema's keys in display order.
func StageKeys(stages []domain.Stage) []string {
	keys := make([]string, 0, len(stages))
	for _, s := range stages {
		keys = append(keys, s.Key)
	}
	return keys
}
