package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/certpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeBackendError translates a monitor-API failure for the browser.
// Backend 401/403/404 keep their status and message so the operator sees why
// an action was refused; anything else is an opaque 502.
func writeBackendError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var apiErr *driven.APIError
	if errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, driven.ErrUnauthorized):
			writeError(w, apiErr.StatusCode, apiErr.Message)
		case errors.Is(err, driven.ErrNotFound):
			writeError(w, http.StatusNotFound, apiErr.Message)
		default:
			logger.Error("monitor api error", "status", apiErr.StatusCode, "message", apiErr.Message)
			writeError(w, http.StatusBadGateway, "monitor backend error")
		}
		return
	}

	logger.Error("monitor api unreachable", "error", err)
	writeError(w, http.StatusBadGateway, "monitor backend unreachable")
}

// IdentityResponse is the JSON representation of a console user.
type IdentityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toIdentityResponse(user *model.Identity) IdentityResponse {
	if user == nil {
		return IdentityResponse{}
	}
	return IdentityResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

// ApplicationResponse is the JSON representation of a monitored application.
// DescriptionHTML carries the markdown description rendered and sanitized.
type ApplicationResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	Description     string `json:"description,omitempty"`
	DescriptionHTML string `json:"description_html,omitempty"`
	Environment     string `json:"environment"`
	Responsible     struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"responsible"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func toApplicationResponse(app model.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:              app.ID,
		Name:            app.Name,
		URL:             app.URL,
		Description:     app.Description,
		DescriptionHTML: web.RenderMarkdown(app.Description),
		Environment:     string(app.Environment),
		CreatedAt:       formatTime(app.CreatedAt),
		UpdatedAt:       formatTime(app.UpdatedAt),
	}
	resp.Responsible.Name = app.Responsible.Name
	resp.Responsible.Email = app.Responsible.Email
	return resp
}

// ApplicationPageResponse is one page of the application listing.
type ApplicationPageResponse struct {
	Applications      []ApplicationResponse `json:"applications"`
	TotalPages        int                   `json:"total_pages"`
	CurrentPage       int                   `json:"current_page"`
	TotalApplications int                   `json:"total_applications"`
}

// DomainStatusResponse is the JSON representation of one domain observation.
type DomainStatusResponse struct {
	Domain          string                `json:"domain"`
	ApplicationID   string                `json:"application_id,omitempty"`
	ApplicationName string                `json:"application_name,omitempty"`
	Status          string                `json:"status"`
	DaysUntilExpiry int                   `json:"days_until_expiry"`
	LastChecked     string                `json:"last_checked,omitempty"`
	TLSVersion      string                `json:"tls_version,omitempty"`
	CipherName      string                `json:"cipher_name,omitempty"`
	HealthScore     *HealthScoreResponse  `json:"health_score,omitempty"`
	History         []CheckResultResponse `json:"history,omitempty"`
}

// HealthScoreResponse is the backend-computed TLS score.
type HealthScoreResponse struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// CheckResultResponse is one historical observation.
type CheckResultResponse struct {
	Status          string `json:"status"`
	CheckedAt       string `json:"checked_at"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

func toDomainStatusResponse(d model.DomainStatus) DomainStatusResponse {
	resp := DomainStatusResponse{
		Domain:          d.Domain,
		ApplicationID:   d.ApplicationID,
		ApplicationName: d.ApplicationName,
		Status:          string(d.Status),
		DaysUntilExpiry: d.DaysUntilExpiry,
		LastChecked:     formatTime(d.LastChecked),
		TLSVersion:      d.TLSVersion,
		CipherName:      d.CipherName,
	}
	if d.HealthScore != nil {
		resp.HealthScore = &HealthScoreResponse{Score: d.HealthScore.Score, Grade: d.HealthScore.Grade}
	}
	for _, h := range d.History {
		resp.History = append(resp.History, CheckResultResponse{
			Status:          string(h.Status),
			CheckedAt:       formatTime(h.CheckedAt),
			DaysUntilExpiry: h.DaysUntilExpiry,
			ErrorMessage:    h.ErrorMessage,
		})
	}
	return resp
}

// CertificateListResponse is the certificates view: raw rows plus the
// console-side aggregate for the page header.
type CertificateListResponse struct {
	Certificates []DomainStatusResponse `json:"certificates"`
	Overall      string                 `json:"overall"`
}

// ChainEntryResponse is one certificate in a trust chain.
type ChainEntryResponse struct {
	SubjectCN string `json:"subject_cn"`
	SubjectO  string `json:"subject_o,omitempty"`
	IssuerCN  string `json:"issuer_cn"`
	IssuerO   string `json:"issuer_o,omitempty"`
	ValidTo   string `json:"valid_to"`
}

// DashboardResponse is the dashboard rollup.
type DashboardResponse struct {
	TotalApplications int                     `json:"total_applications"`
	CountsByStatus    map[string]int          `json:"counts_by_status"`
	ExpiringSoon      []ExpiringEntryResponse `json:"expiring_soon"`
}

// ExpiringEntryResponse is one watchlist row.
type ExpiringEntryResponse struct {
	Domain          string `json:"domain"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	ApplicationName string `json:"application_name"`
}

func toDashboardResponse(snap *model.DashboardSnapshot) DashboardResponse {
	counts := make(map[string]int, len(snap.CountsByStatus))
	for status, n := range snap.CountsByStatus {
		counts[string(status)] = n
	}

	entries := make([]ExpiringEntryResponse, 0, len(snap.ExpiringSoon))
	for _, e := range snap.ExpiringSoon {
		entries = append(entries, ExpiringEntryResponse{
			Domain:          e.Domain,
			DaysUntilExpiry: e.DaysUntilExpiry,
			ApplicationName: e.ApplicationName,
		})
	}

	return DashboardResponse{
		TotalApplications: snap.TotalApplications,
		CountsByStatus:    counts,
		ExpiringSoon:      entries,
	}
}

// ConnectorResponse is the JSON representation of a notification connector.
type ConnectorResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

func toConnectorResponse(c model.Connector) ConnectorResponse {
	return ConnectorResponse{ID: c.ID, Name: c.Name, Type: string(c.Type), URL: c.URL}
}

// ConnectorRequest is the JSON body for connector create/update.
type ConnectorRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ApplicationRequest is the JSON body for application create/update.
type ApplicationRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Environment string `json:"environment"`
	Responsible struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"responsible"`
}

// UpdateRoleRequest is the JSON body for the role update endpoint.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// AuditLogResponse is one audit trail row.
type AuditLogResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	Details   string `json:"details"`
}

// AuditPageResponse is one page of the audit trail.
type AuditPageResponse struct {
	Logs        []AuditLogResponse `json:"logs"`
	Total       int                `json:"total"`
	CurrentPage int                `json:"current_page"`
	TotalPages  int                `json:"total_pages"`
}

// PublicDomainResponse is one domain row on the public status page.
type PublicDomainResponse struct {
	Domain          string `json:"domain"`
	Status          string `json:"status"`
	DaysUntilExpiry *int   `json:"days_until_expiry,omitempty"`
}

// PublicServiceResponse is one public service with its console-side aggregate.
type PublicServiceResponse struct {
	ApplicationName string                 `json:"application_name"`
	Status          string                 `json:"status"`
	Domains         []PublicDomainResponse `json:"domains"`
}

// PublicStatusResponse is the public status page payload.
type PublicStatusResponse struct {
	AllOperational bool                    `json:"all_operational"`
	Services       []PublicServiceResponse `json:"services"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
