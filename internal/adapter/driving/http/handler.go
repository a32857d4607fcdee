// Package httphandler implements the console's HTTP driving adapter: the
// JSON API served to staff browsers plus the auth endpoints that drive the
// identity provider's redirect flow.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/certpanel/internal/application"
	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the console API.
type Handler struct {
	monitor     driven.MonitorClient
	statusSvc   *application.StatusService
	sessions    *application.SessionService
	creds       *application.CredentialStore
	gate        *application.RouteGate
	horizonDays int
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	monitor driven.MonitorClient,
	statusSvc *application.StatusService,
	sessions *application.SessionService,
	creds *application.CredentialStore,
	gate *application.RouteGate,
	horizonDays int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		monitor:     monitor,
		statusSvc:   statusSvc,
		sessions:    sessions,
		creds:       creds,
		gate:        gate,
		horizonDays: horizonDays,
		logger:      logger,
	}
}

// RegisterAPIRoutes registers the console API and auth routes on the mux.
// Everything except the health probe, the public status endpoint and the
// auth transitions sits behind the route gate.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	protected := func(fn http.HandlerFunc) http.Handler {
		return requireSession(h.gate, fn)
	}

	// Unauthenticated surface.
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/public/status", h.PublicStatus)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/logout", h.Logout)

	mux.Handle("GET /api/auth/me", protected(h.Me))

	mux.Handle("GET /api/applications", protected(h.ListApplications))
	mux.Handle("POST /api/applications", protected(h.CreateApplication))
	mux.Handle("GET /api/applications/{id}", protected(h.GetApplication))
	mux.Handle("PUT /api/applications/{id}", protected(h.UpdateApplication))
	mux.Handle("DELETE /api/applications/{id}", protected(h.DeleteApplication))
	mux.Handle("GET /api/applications/{id}/certificates", protected(h.ApplicationCertificates))

	mux.Handle("GET /api/certificates", protected(h.ListCertificates))
	mux.Handle("POST /api/certificates/check/{domain}", protected(h.CheckDomain))
	mux.Handle("GET /api/certificates/{domain}/chain", protected(h.CertificateChain))

	mux.Handle("GET /api/dashboard/stats", protected(h.DashboardStats))

	mux.Handle("GET /api/users", protected(h.ListUsers))
	mux.Handle("PUT /api/users/{id}/role", protected(h.UpdateUserRole))

	mux.Handle("GET /api/connectors", protected(h.ListConnectors))
	mux.Handle("POST /api/connectors", protected(h.CreateConnector))
	mux.Handle("PUT /api/connectors/{id}", protected(h.UpdateConnector))
	mux.Handle("DELETE /api/connectors/{id}", protected(h.DeleteConnector))

	mux.Handle("GET /api/audit", protected(h.AuditLogs))
}

// Health reports liveness for the container healthcheck.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Applications ---

// ListApplications returns one page of registered applications.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.monitor.ListApplications(r.Context(), driven.ApplicationListOptions{
		Page:        page,
		Search:      r.URL.Query().Get("search"),
		Environment: r.URL.Query().Get("environment"),
	})
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	apps := make([]ApplicationResponse, 0, len(result.Applications))
	for _, app := range result.Applications {
		apps = append(apps, toApplicationResponse(app))
	}
	writeJSON(w, http.StatusOK, ApplicationPageResponse{
		Applications:      apps,
		TotalPages:        result.TotalPages,
		CurrentPage:       result.CurrentPage,
		TotalApplications: result.TotalApplications,
	})
}

// GetApplication returns a single application by ID.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.monitor.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(*app))
}

// CreateApplication registers a new application.
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := decodeApplication(w, r)
	if !ok {
		return
	}

	created, err := h.monitor.CreateApplication(r.Context(), app)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationResponse(*created))
}

// UpdateApplication replaces an application's mutable fields.
func (h *Handler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	app, ok := decodeApplication(w, r)
	if !ok {
		return
	}

	updated, err := h.monitor.UpdateApplication(r.Context(), r.PathValue("id"), app)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponse(*updated))
}

// DeleteApplication removes an application.
func (h *Handler) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.DeleteApplication(r.Context(), r.PathValue("id")); err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplicationCertificates returns one application's domain statuses with the
// console-side aggregate.
func (h *Handler) ApplicationCertificates(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.monitor.DomainStatusesByApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCertificateList(statuses))
}

func decodeApplication(w http.ResponseWriter, r *http.Request) (model.Application, bool) {
	var req ApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return model.Application{}, false
	}
	if req.Name == "" || req.URL == "" || req.Responsible.Name == "" || req.Responsible.Email == "" {
		writeError(w, http.StatusBadRequest, "name, url and responsible contact are required")
		return model.Application{}, false
	}

	switch model.Environment(req.Environment) {
	case model.EnvironmentProduction, model.EnvironmentStaging, model.EnvironmentDevelopment:
	default:
		writeError(w, http.StatusBadRequest, "environment must be production, staging or development")
		return model.Application{}, false
	}

	return model.Application{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		Environment: model.Environment(req.Environment),
		Responsible: model.Responsible{Name: req.Responsible.Name, Email: req.Responsible.Email},
	}, true
}

// --- Certificates ---

// ListCertificates returns every monitored domain's latest observation with
// the console-side aggregate for the page header.
func (h *Handler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.monitor.ListDomainStatuses(r.Context())
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCertificateList(statuses))
}

// toCertificateList builds the list payload, guarding the empty collection:
// aggregate is computed only when there is data to aggregate.
func (h *Handler) toCertificateList(statuses []model.DomainStatus) CertificateListResponse {
	rows := make([]DomainStatusResponse, 0, len(statuses))
	for _, d := range statuses {
		rows = append(rows, toDomainStatusResponse(d))
	}

	resp := CertificateListResponse{Certificates: rows}
	if len(statuses) > 0 {
		resp.Overall = string(h.statusSvc.AggregateDomains(statuses))
	}
	return resp
}

// CheckDomain triggers a fresh observation and returns the updated status.
func (h *Handler) CheckDomain(w http.ResponseWriter, r *http.Request) {
	status, err := h.monitor.CheckDomain(r.Context(), r.PathValue("domain"))
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toDomainStatusResponse(*status))
}

// CertificateChain returns the trust chain for a domain, leaf first.
func (h *Handler) CertificateChain(w http.ResponseWriter, r *http.Request) {
	chain, err := h.monitor.CertificateChain(r.Context(), r.PathValue("domain"))
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	resp := make([]ChainEntryResponse, 0, len(chain))
	for _, entry := range chain {
		resp = append(resp, ChainEntryResponse{
			SubjectCN: entry.SubjectCN,
			SubjectO:  entry.SubjectO,
			IssuerCN:  entry.IssuerCN,
			IssuerO:   entry.IssuerO,
			ValidTo:   formatTime(entry.ValidTo),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Dashboard ---

// DashboardStats returns the dashboard rollup. The backend aggregates for
// this endpoint; if it cannot, the console rebuilds the snapshot from the raw
// domain list with the same precedence rules.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.monitor.DashboardStats(r.Context())
	if err != nil {
		statuses, listErr := h.monitor.ListDomainStatuses(r.Context())
		if listErr != nil {
			writeBackendError(w, h.logger, err)
			return
		}
		h.logger.Warn("dashboard stats unavailable, rebuilding client-side", "error", err)
		snap = h.statusSvc.BuildSnapshot(statuses, h.horizonDays)
	}
	writeJSON(w, http.StatusOK, toDashboardResponse(snap))
}

// --- Users ---

// ListUsers returns all console users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	users, err := h.monitor.ListUsers(r.Context())
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	resp := make([]IdentityResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toIdentityResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateUserRole changes a user's console role. Admin only.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role := model.Role(req.Role)
	if role != model.RoleAdmin && role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	user, err := h.monitor.UpdateUserRole(r.Context(), r.PathValue("id"), role)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(user))
}

// requireAdmin enforces the admin role on management endpoints.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user := identityFrom(r.Context())
	if user == nil || user.Role != model.RoleAdmin {
		writeError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

// --- Connectors ---

// ListConnectors returns all notification connectors.
func (h *Handler) ListConnectors(w http.ResponseWriter, r *http.Request) {
	connectors, err := h.monitor.ListConnectors(r.Context())
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	resp := make([]ConnectorResponse, 0, len(connectors))
	for _, c := range connectors {
		resp = append(resp, toConnectorResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateConnector registers a new notification connector.
func (h *Handler) CreateConnector(w http.ResponseWriter, r *http.Request) {
	conn, ok := decodeConnector(w, r)
	if !ok {
		return
	}

	created, err := h.monitor.CreateConnector(r.Context(), conn)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConnectorResponse(*created))
}

// UpdateConnector replaces a connector's configuration.
func (h *Handler) UpdateConnector(w http.ResponseWriter, r *http.Request) {
	conn, ok := decodeConnector(w, r)
	if !ok {
		return
	}

	updated, err := h.monitor.UpdateConnector(r.Context(), r.PathValue("id"), conn)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toConnectorResponse(*updated))
}

// DeleteConnector removes a connector.
func (h *Handler) DeleteConnector(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.DeleteConnector(r.Context(), r.PathValue("id")); err != nil {
		writeBackendError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeConnector(w http.ResponseWriter, r *http.Request) (model.Connector, bool) {
	var req ConnectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return model.Connector{}, false
	}
	if req.Name == "" || req.URL == "" {
		writeError(w, http.StatusBadRequest, "name and url are required")
		return model.Connector{}, false
	}

	switch model.ConnectorType(req.Type) {
	case model.ConnectorSlack, model.ConnectorTeams, model.ConnectorWebhook:
	default:
		writeError(w, http.StatusBadRequest, "type must be slack, teams or webhook")
		return model.Connector{}, false
	}

	return model.Connector{
		Name: req.Name,
		Type: model.ConnectorType(req.Type),
		URL:  req.URL,
	}, true
}

// --- Audit ---

// AuditLogs returns one page of the audit trail.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.monitor.AuditLogs(r.Context(), page)
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	logs := make([]AuditLogResponse, 0, len(result.Logs))
	for _, l := range result.Logs {
		logs = append(logs, AuditLogResponse{
			ID:        l.ID,
			Timestamp: formatTime(l.Timestamp),
			UserName:  l.UserName,
			UserEmail: l.UserEmail,
			Action:    l.Action,
			Entity:    l.Entity,
			Details:   l.Details,
		})
	}
	writeJSON(w, http.StatusOK, AuditPageResponse{
		Logs:        logs,
		Total:       result.Total,
		CurrentPage: result.CurrentPage,
		TotalPages:  result.TotalPages,
	})
}

// --- Public status ---

// PublicStatus returns the public status page payload with per-service
// aggregates and the overall banner flag. No session is required.
func (h *Handler) PublicStatus(w http.ResponseWriter, r *http.Request) {
	services, err := h.monitor.PublicStatus(r.Context())
	if err != nil {
		writeBackendError(w, h.logger, err)
		return
	}

	resp := PublicStatusResponse{
		AllOperational: len(services) > 0 && !h.statusSvc.AnyDegraded(services),
		Services:       make([]PublicServiceResponse, 0, len(services)),
	}
	for _, svc := range services {
		domains := make([]PublicDomainResponse, 0, len(svc.Domains))
		for _, d := range svc.Domains {
			domains = append(domains, PublicDomainResponse{
				Domain:          d.Domain,
				Status:          string(d.Status),
				DaysUntilExpiry: d.DaysUntilExpiry,
			})
		}

		serviceStatus := model.StatusUnknown
		if len(svc.Domains) > 0 {
			serviceStatus = h.statusSvc.ServiceStatus(svc.Domains)
		}
		resp.Services = append(resp.Services, PublicServiceResponse{
			ApplicationName: svc.ApplicationName,
			Status:          string(serviceStatus),
			Domains:         domains,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
