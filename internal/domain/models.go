// Package domain holds the core data model of the prospecting funnel BFF:
// tenant companies, user profiles, the dynamic funnel schema, daily
// prospecting entries, proposals and monthly goals.
package domain

// Profile roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile statuses. Deactivated profiles stay in the table (soft delete)
// but are excluded from every user-facing listing.
const (
	StatusActive      = "ativo"
	StatusInvited     = "convidado"
	StatusDeactivated = "inativo"
)

// Proposal statuses. Pendente transitions to Ganha or Perdida, which sets
// DataFechamento.
const (
	ProposalOpen = "Pendente"
	ProposalWon  = "Ganha"
	ProposalLost = "Perdida"
)

// Session is the identity resolved from a GoTrue access token.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Profile is one row of the profiles table, one per identity.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id"`
	Status    string `json:"status"`
}

// Company is a tenant. RankingMetricKey selects which funnel stage drives
// the leaderboard.
type Company struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	LogoURL          string `json:"logo_url"`
	RankingMetricKey string `json:"ranking_metric_key"`
}

// Stage is one named, keyed counter of a company's funnel schema.
// Key is derived from Name; DisplayOrder reflects array position at save
// time. The "propostas" stage is protected: renameable, key immutable,
// never deleted.
type Stage struct {
	ID           string `json:"id,omitempty"`
	CompanyID    string `json:"company_id,omitempty"`
	Name         string `json:"name"`
	Key          string `json:"key"`
	DisplayOrder int    `json:"display_order"`
}

// DailyEntry is one day of prospecting activity for one BDR. Metrics is a
// sparse map whose valid keys are defined by the company's current funnel
// schema; unknown keys are tolerated and missing keys count as zero.
// Conceptually unique per (UserID, Data).
type DailyEntry struct {
	ID          string         `json:"id,omitempty"`
	CompanyID   string         `json:"company_id"`
	UserID      string         `json:"user_id"`
	BdrNome     string         `json:"bdr_nome"`
	Data        string         `json:"data"` // YYYY-MM-DD
	Metrics     map[string]int `json:"metrics"`
	Observacoes string         `json:"observacoes,omitempty"`
}

// Proposal is a child of a DailyEntry, one per unit of that entry's
// "propostas" count.
type Proposal struct {
	ID             string  `json:"id,omitempty"`
	CompanyID      string  `json:"company_id"`
	UserID         string  `json:"user_id"`
	BdrNome        string  `json:"bdr_nome"`
	NomeCliente    string  `json:"nome_cliente"`
	Valor          float64 `json:"valor"`
	DataProposta   string  `json:"data_proposta"`
	DataFechamento string  `json:"data_fechamento,omitempty"`
	Status         string  `json:"status"`
	DailyEntryID   string  `json:"prospeccao_diaria_id"`
}

// ProposalDetail is the user-supplied piece of a proposal on entry
// submission: client name plus value.
type ProposalDetail struct {
	ID          string  `json:"id,omitempty"`
	NomeCliente string  `json:"nome_cliente"`
	Valor       float64 `json:"valor"`
}

// Goal holds one user's monthly targets, keyed by funnel metric so it
// mirrors the dynamic schema rather than fixed columns. One per
// (UserID, Ano, Mes).
type Goal struct {
	ID          string         `json:"id,omitempty"`
	UserID      string         `json:"user_id"`
	CompanyID   string         `json:"company_id"`
	Ano         int            `json:"ano"`
	Mes         int            `json:"mes"`
	MetricGoals map[string]int `json:"metric_goals"`
}

// ============================================================
// Bootstrap snapshot
// ============================================================

// BootstrapState names the session/profile resolution states.
type BootstrapState string

const (
	StateInit           BootstrapState = "INIT"
	StateAnonymous      BootstrapState = "ANONYMOUS"
	StateAuthenticating BootstrapState = "AUTHENTICATING"
	StateProfileError   BootstrapState = "PROFILE_ERROR"
	StateResolved       BootstrapState = "RESOLVED"
)

// Snapshot is the atomic bootstrap result consumed by the whole UI:
// session, profile, company and funnel schema always belong to the same
// identity, never a mix.
type Snapshot struct {
	State      BootstrapState `json:"state"`
	Session    *Session       `json:"session"`
	Profile    *Profile       `json:"profile"`
	Company    *Company       `json:"company"`
	Stages     []Stage        `json:"funnel_metrics"`
	SuperAdmin bool           `json:"super_admin"`
	Loading    bool           `json:"loading"`
}

// CompanyID returns the tenant the snapshot is scoped to. The company row
// itself is best effort and may be nil on a degraded resolution, so tenant
// scoping falls back to the profile's own company.
func (s *Snapshot) CompanyID() string {
	if s.Company != nil {
		return s.Company.ID
	}
	if s.Profile != nil {
		return s.Profile.CompanyID
	}
	return ""
}

// ============================================================
// Request / response payloads
// ============================================================

// EntryRequest is the daily-entry submission: the sparse metric counts plus
// one detail row per unit of the "propostas" count.
type EntryRequest struct {
	Data        string           `json:"data"`
	Metrics     map[string]int   `json:"metrics"`
	Observacoes string           `json:"observacoes"`
	Proposals   []ProposalDetail `json:"proposals"`
}

// Draft is a per-date autosaved copy of an in-progress entry form.
type Draft struct {
	Data        string           `json:"data"`
	Metrics     map[string]int   `json:"metrics"`
	Observacoes string           `json:"observacoes"`
	Proposals   []ProposalDetail `json:"proposals"`
}

// InviteRequest creates a pending identity + profile.
type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RoleUpdateRequest mutates a user's role on both the identity metadata and
// the profile row.
type RoleUpdateRequest struct {
	UserIDToUpdate string `json:"userIdToUpdate"`
	NewRole        string `json:"newRole"`
}

// DeactivateRequest soft-deletes a user and revokes their credentials.
type DeactivateRequest struct {
	UserIDToDeactivate string `json:"userIdToDeactivate"`
}

// SignUpRequest creates identity + company + admin profile + default funnel.
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
}

// SignUpResponse reports the created tenant.
type SignUpResponse struct {
	OK        bool   `json:"ok"`
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
}

// MessageResponse is the uniform {message} success payload of the admin
// operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// CompanyUpdateRequest patches mutable tenant fields. Nil pointers are left
// untouched.
type CompanyUpdateRequest struct {
	Name             *string `json:"name,omitempty"`
	LogoURL          *string `json:"logo_url,omitempty"`
	RankingMetricKey *string `json:"ranking_metric_key,omitempty"`
}

// ProfileUpdateRequest completes an invited profile (or renames an active
// one). Completing a convidado profile flips its status to ativo.
type ProfileUpdateRequest struct {
	FullName string `json:"full_name"`
}

// ============================================================
// Dashboard view-model
// ============================================================

// Rate is one conversion rate between two adjacent funnel stages.
type Rate struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RankEntry is one leaderboard row.
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BDRSeries is one named series of a per-BDR bar comparison.
type BDRSeries struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// PerBDRChart compares the top funnel stages across BDRs.
type PerBDRChart struct {
	Categories []string    `json:"categories"`
	Series     []BDRSeries `json:"series"`
}

// TrendChart is a per-day time series of a single metric.
type TrendChart struct {
	Categories []string `json:"categories"`
	Series     []int    `json:"series"`
}

// ProposalTotals aggregates proposals by status over a period.
type ProposalTotals struct {
	WonCount  int     `json:"vendas_ganhas"`
	WonValue  float64 `json:"valor_ganho"`
	LostCount int     `json:"propostas_perdidas"`
	OpenCount int     `json:"propostas_abertas"`
	OpenValue float64 `json:"valor_aberto"`
}

// Dashboard is the full aggregated view for one tenant and filter. It is a
// pure function of (schema, filter, raw rows).
type Dashboard struct {
	KPIs          map[string]int  `json:"kpis"`
	Proposals     ProposalTotals  `json:"proposals"`
	Rates         map[string]Rate `json:"rates"`
	PerBDR        PerBDRChart     `json:"per_bdr"`
	Trend         TrendChart      `json:"trend"`
	RankingMetric string          `json:"ranking_metric"`
	Ranking       []RankEntry     `json:"ranking"`
	Podium        []RankEntry     `json:"podium"`
	PeriodStart   string          `json:"period_start,omitempty"`
	PeriodEnd     string          `json:"period_end,omitempty"`
}

// GoalProgress pairs one user's monthly goals with their month- and
// week-to-date totals.
type GoalProgress struct {
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Goals       map[string]int `json:"goals"`
	WeeklyGoals map[string]int `json:"weekly_goals"`
	Monthly     map[string]int `json:"monthly"`
	Weekly      map[string]int `json:"weekly"`
}

// ============================================================
// Health
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}
