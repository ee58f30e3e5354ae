package funnel

import (
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/domain"
)

// narrowingPairs are the predecessor→successor constraints of the entry
// form: a prospecting funnel narrows, so each successor's count may not
// exceed its predecessor's. Meetings scheduled start a fresh sub-chain
// (they are not bounded by decision-maker connections), which is why this
// is an explicit table rather than every adjacent schema pair.
var narrowingPairs = [][2]string{
	{"ligacoes", "conexoes"},
	{"conexoes", "conexoes_decisor"},
	{"reunioes_marcadas", "reunioes_realizadas"},
	{"reunioes_realizadas", "reunioes_qualificadas"},
}

// ValidateEntry checks a daily-entry submission against the funnel
// invariants before any remote call: narrowing constraints between stages
// present in the schema, no future dates, no negative counts, and exactly
// one filled proposal detail per unit of the proposals count. Returns the
// first violation as an ErrValidation.
func ValidateEntry(stages []domain.Stage, req *domain.EntryRequest, now time.Time) error {
	if req.Data == "" {
		return &domain.ErrValidation{Field: "data", Message: "obrigatória"}
	}
	if _, err := time.Parse(dateLayout, req.Data); err != nil {
		return &domain.ErrValidation{Field: "data", Message: "formato inválido, use YYYY-MM-DD"}
	}
	if req.Data > now.Format(dateLayout) {
		return &domain.ErrValidation{Field: "data", Message: "não pode lançar no futuro"}
	}

	for key, count := range req.Metrics {
		if count < 0 {
			return &domain.ErrValidation{Field: key, Message: "não pode ser negativo"}
		}
	}

	present := make(map[string]bool, len(stages))
	for _, s := range stages {
		present[s.Key] = true
	}
	for _, pair := range narrowingPairs {
		from, to := pair[0], pair[1]
		if !present[from] || !present[to] {
			continue
		}
		if req.Metrics[to] > req.Metrics[from] {
			return &domain.ErrValidation{Field: to, Message: "deve ser ≤ " + from}
		}
	}

	proposals := req.Metrics[ProtectedKey]
	if len(req.Proposals) != proposals {
		return &domain.ErrValidation{Field: "proposals", Message: "informe um detalhe por proposta criada"}
	}
	for _, p := range req.Proposals {
		if p.NomeCliente == "" {
			return &domain.ErrValidation{Field: "proposals", Message: "nome do cliente obrigatório"}
		}
		if p.Valor <= 0 {
			return &domain.ErrValidation{Field: "proposals", Message: "valor deve ser positivo"}
		}
	}
	return nil
}
