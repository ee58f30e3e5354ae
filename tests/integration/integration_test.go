package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ffaraujo/funil-bfa-go/internal/config"
	"github.com/ffaraujo/funil-bfa-go/internal/domain"
	"github.com/ffaraujo/funil-bfa-go/internal/handler"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/cache"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/draft"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/observability"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/resilience"
	"github.com/ffaraujo/funil-bfa-go/internal/infra/supabase"
	"github.com/ffaraujo/funil-bfa-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const jwtSecret = "integration-secret"

// mockSupabase is a stateful stand-in for PostgREST: profiles, the company
// and the funnel schema are fixed, entries and proposals accumulate writes.
type mockSupabase struct {
	entries   []map[string]any
	proposals []map[string]any
}

func (m *mockSupabase) handler() http.HandlerFunc {
	writeRows := func(w http.ResponseWriter, rows any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/rest/v1/")

		switch {
		case path == "profiles" && r.Method == http.MethodGet:
			writeRows(w, []map[string]any{{
				"id":         "user-1",
				"full_name":  "Ana",
				"email":      "ana@acme.com",
				"role":       "admin",
				"company_id": "comp-1",
				"status":     "ativo",
			}})

		case path == "companies" && r.Method == http.MethodGet:
			writeRows(w, []map[string]any{{
				"id":                 "comp-1",
				"name":               "Acme",
				"ranking_metric_key": "ligacoes",
			}})

		case path == "metricas_funil" && r.Method == http.MethodGet:
			writeRows(w, []map[string]any{
				{"id": "st-1", "company_id": "comp-1", "name": "Ligações", "key": "ligacoes", "display_order": 0},
				{"id": "st-2", "company_id": "comp-1", "name": "Conexões", "key": "conexoes", "display_order": 1},
				{"id": "st-3", "company_id": "comp-1", "name": "Propostas", "key": "propostas", "display_order": 2},
			})

		case path == "prospeccao_diaria" && r.Method == http.MethodGet:
			// GetEntryByDate filters on data=eq.<date>; serve only matches.
			q := r.URL.Query()
			matched := []map[string]any{}
			for _, e := range m.entries {
				if date := q.Get("data"); date != "" && strings.HasPrefix(date, "eq.") {
					if e["data"] != strings.TrimPrefix(date, "eq.") {
						continue
					}
				}
				matched = append(matched, e)
			}
			writeRows(w, matched)

		case path == "prospeccao_diaria" && r.Method == http.MethodPost:
			var row map[string]any
			json.NewDecoder(r.Body).Decode(&row)
			if _, ok := row["id"]; !ok {
				row["id"] = "entry-1"
			}
			m.entries = append(m.entries, row)
			w.WriteHeader(http.StatusCreated)
			writeRows(w, []map[string]any{row})

		case path == "propostas" && r.Method == http.MethodGet:
			writeRows(w, m.proposals)

		case path == "propostas" && r.Method == http.MethodPost:
			var rows []map[string]any
			json.NewDecoder(r.Body).Decode(&rows)
			for i, row := range rows {
				row["id"] = "prop-" + string(rune('1'+i))
				m.proposals = append(m.proposals, row)
			}
			w.WriteHeader(http.StatusCreated)
			writeRows(w, rows)

		default:
			writeRows(w, []map[string]any{})
		}
	}
}

func buildRouter(t *testing.T, supabaseURL string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	resilienceCfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	cb := resilience.NewCircuitBreaker("integration")
	httpClient := &http.Client{Timeout: 5 * time.Second}

	sb := supabase.NewClient(httpClient, supabaseURL, "anon", "service-role", cb, resilienceCfg, logger)

	bootstrapSvc := service.NewBootstrapService(sb, sb, sb, cache.New[*domain.Snapshot](time.Minute), nil, metrics, logger)

	return handler.NewRouter(handler.Services{
		Bootstrap: bootstrapSvc,
		Dashboard: service.NewDashboardService(sb, sb, sb, sb, metrics, logger, nil),
		Entries:   service.NewEntryService(sb, sb, sb, draft.NewStore(time.Minute), metrics, logger, nil),
		Proposals: service.NewProposalService(sb, logger, nil),
		Goals:     service.NewGoalService(sb, sb, sb, sb, logger, nil),
		Funnel:    service.NewFunnelService(sb, logger),
		Companies: service.NewCompanyService(sb, sb, logger),
		Admin:     service.NewAdminService(sb, sb, sb, sb, metrics, logger),
		Verifier:  sb,
	}, &config.Config{SupabaseJWTSecret: jwtSecret}, metrics, logger)
}

func accessToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ana@acme.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

// TestIntegration_EntryToDashboard drives the main loop end to end against
// a mock Supabase: bootstrap, submit a day of activity with a proposal,
// then read it back aggregated on the dashboard.
func TestIntegration_EntryToDashboard(t *testing.T) {
	mock := &mockSupabase{}
	server := httptest.NewServer(mock.handler())
	defer server.Close()

	router := buildRouter(t, server.URL)
	token := accessToken(t)

	// --- Bootstrap ---
	req := httptest.NewRequest(http.MethodGet, "/v1/bootstrap", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("bootstrap: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var snap domain.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if snap.State != domain.StateResolved {
		t.Fatalf("expected RESOLVED, got %s", snap.State)
	}
	if len(snap.Stages) != 3 {
		t.Fatalf("expected 3 stages in the snapshot, got %d", len(snap.Stages))
	}

	// --- Submit an entry with one proposal ---
	today := time.Now().Format("2006-01-02")
	body := `{
		"data": "` + today + `",
		"metrics": {"ligacoes": 20, "conexoes": 5, "propostas": 1},
		"proposals": [{"nome_cliente": "Cliente Integração", "valor": 5000}]
	}`
	req = httptest.NewRequest(http.MethodPost, "/v1/entries", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("save entry: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if len(mock.entries) != 1 {
		t.Fatalf("expected 1 entry persisted, got %d", len(mock.entries))
	}
	if len(mock.proposals) != 1 {
		t.Fatalf("expected 1 proposal persisted, got %d", len(mock.proposals))
	}
	if mock.proposals[0]["status"] != "Pendente" {
		t.Errorf("expected new proposal Pendente, got %v", mock.proposals[0]["status"])
	}
	if mock.proposals[0]["prospeccao_diaria_id"] != "entry-1" {
		t.Errorf("expected proposal bound to the entry, got %v", mock.proposals[0]["prospeccao_diaria_id"])
	}

	// --- Dashboard ---
	req = httptest.NewRequest(http.MethodGet, "/v1/dashboard?period=maximo", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var dash domain.Dashboard
	if err := json.NewDecoder(rec.Body).Decode(&dash); err != nil {
		t.Fatalf("decoding dashboard: %v", err)
	}
	if dash.KPIs["ligacoes"] != 20 {
		t.Errorf("expected 20 calls on the dashboard, got %d", dash.KPIs["ligacoes"])
	}
	if dash.Proposals.OpenCount != 1 || dash.Proposals.OpenValue != 5000 {
		t.Errorf("unexpected proposal totals %+v", dash.Proposals)
	}
	if dash.RankingMetric != "ligacoes" {
		t.Errorf("expected the company ranking metric, got %s", dash.RankingMetric)
	}
}

// TestIntegration_RejectsInvalidEntry exercises the validation path over
// HTTP: a narrowing violation must come back as 400 without touching the
// store.
func TestIntegration_RejectsInvalidEntry(t *testing.T) {
	mock := &mockSupabase{}
	server := httptest.NewServer(mock.handler())
	defer server.Close()

	router := buildRouter(t, server.URL)
	token := accessToken(t)

	today := time.Now().Format("2006-01-02")
	body := `{
		"data": "` + today + `",
		"metrics": {"ligacoes": 2, "conexoes": 10}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if len(mock.entries) != 0 {
		t.Error("expected nothing persisted")
	}
}
