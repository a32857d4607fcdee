// Package monitorapi implements the MonitorClient port against the
// certificate-monitor backend's REST API.
package monitorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
	"github.com/ericfisherdev/certpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MonitorClient = (*Client)(nil)

// Client implements the driven.MonitorClient port over HTTP with the
// following transport stack:
//  1. bearer gate (attaches the session credential when present and valid)
//  2. httpcache (ETag-based conditional request caching; stores only what
//     the backend marks cacheable)
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a monitor API client rooted at baseURL. Credentials are
// pulled per request from source; a nil credential sends the request
// unauthenticated.
func NewClient(baseURL string, source CredentialSource) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	transport := &bearerTransport{
		source: source,
		base:   httpcache.NewMemoryCacheTransport(),
		now:    time.Now,
	}

	return &Client{
		http:    &http.Client{Transport: transport, Timeout: 15 * time.Second},
		baseURL: u,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

// do issues one request and decodes the JSON response into out (when non-nil).
// Non-2xx responses become *driven.APIError carrying the backend's message.
func (c *Client) do(ctx context.Context, method string, query url.Values, body any, out any, pathSegments ...string) error {
	u := c.baseURL.JoinPath(pathSegments...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &driven.APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.StatusCode, resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, u.Path, err)
	}
	return nil
}

// readErrorMessage extracts a human-readable message from an error body.
// The backend uses "message"; "error" is accepted as a fallback.
func readErrorMessage(statusCode int, r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(statusCode)
}

// WhoAmI returns the identity bound to the request context's credential.
func (c *Client) WhoAmI(ctx context.Context) (*model.Identity, error) {
	var body identityJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "auth", "me"); err != nil {
		return nil, err
	}
	id := body.toModel()
	return &id, nil
}

// ListApplications retrieves one page of registered applications.
func (c *Client) ListApplications(ctx context.Context, opts driven.ApplicationListOptions) (*model.ApplicationPage, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Environment != "" {
		query.Set("environment", opts.Environment)
	}

	var body struct {
		Applications      []applicationJSON `json:"applications"`
		TotalPages        int               `json:"totalPages"`
		CurrentPage       int               `json:"currentPage"`
		TotalApplications int               `json:"totalApplications"`
	}
	if err := c.do(ctx, http.MethodGet, query, nil, &body, "api", "applications"); err != nil {
		return nil, err
	}

	apps := make([]model.Application, 0, len(body.Applications))
	for _, a := range body.Applications {
		apps = append(apps, a.toModel())
	}
	return &model.ApplicationPage{
		Applications:      apps,
		TotalPages:        body.TotalPages,
		CurrentPage:       body.CurrentPage,
		TotalApplications: body.TotalApplications,
	}, nil
}

// GetApplication retrieves a single application by ID.
func (c *Client) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	var body applicationJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "applications", id); err != nil {
		return nil, err
	}
	app := body.toModel()
	return &app, nil
}

// CreateApplication registers a new application.
func (c *Client) CreateApplication(ctx context.Context, app model.Application) (*model.Application, error) {
	var body applicationJSON
	if err := c.do(ctx, http.MethodPost, nil, toApplicationJSON(app), &body, "api", "applications"); err != nil {
		return nil, err
	}
	created := body.toModel()
	return &created, nil
}

// UpdateApplication replaces the mutable fields of an application.
func (c *Client) UpdateApplication(ctx context.Context, id string, app model.Application) (*model.Application, error) {
	var body applicationJSON
	if err := c.do(ctx, http.MethodPut, nil, toApplicationJSON(app), &body, "api", "applications", id); err != nil {
		return nil, err
	}
	updated := body.toModel()
	return &updated, nil
}

// DeleteApplication removes an application and its monitored domains.
func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "api", "applications", id)
}

// ListDomainStatuses retrieves the latest observation for every monitored domain.
func (c *Client) ListDomainStatuses(ctx context.Context) ([]model.DomainStatus, error) {
	var body []domainStatusJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "certificates"); err != nil {
		return nil, err
	}
	return toDomainStatuses(body), nil
}

// DomainStatusesByApplication retrieves observations for one application's domains.
func (c *Client) DomainStatusesByApplication(ctx context.Context, appID string) ([]model.DomainStatus, error) {
	var body []domainStatusJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "certificates", "application", appID); err != nil {
		return nil, err
	}
	return toDomainStatuses(body), nil
}

// CheckDomain triggers a fresh observation of the domain and returns the
// updated status record.
func (c *Client) CheckDomain(ctx context.Context, domain string) (*model.DomainStatus, error) {
	var body domainStatusJSON
	if err := c.do(ctx, http.MethodPost, nil, nil, &body, "api", "certificates", "check", domain); err != nil {
		return nil, err
	}
	status := body.toModel()
	return &status, nil
}

// CertificateChain retrieves the trust chain for a domain, leaf first.
func (c *Client) CertificateChain(ctx context.Context, domain string) ([]model.ChainEntry, error) {
	var body []struct {
		Subject struct {
			CN string `json:"CN"`
			O  string `json:"O"`
		} `json:"subject"`
		Issuer struct {
			CN string `json:"CN"`
			O  string `json:"O"`
		} `json:"issuer"`
		ValidTo string `json:"validTo"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "certificates", domain, "chain"); err != nil {
		return nil, err
	}

	chain := make([]model.ChainEntry, 0, len(body))
	for _, entry := range body {
		chain = append(chain, model.ChainEntry{
			SubjectCN: entry.Subject.CN,
			SubjectO:  entry.Subject.O,
			IssuerCN:  entry.Issuer.CN,
			IssuerO:   entry.Issuer.O,
			ValidTo:   parseTime(entry.ValidTo),
		})
	}
	return chain, nil
}

// DashboardStats retrieves the backend-aggregated dashboard rollup.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardSnapshot, error) {
	var body struct {
		TotalApplications int `json:"totalApplications"`
		CertificateCounts struct {
			Valid    int `json:"valid"`
			Expiring int `json:"expiring"`
			Expired  int `json:"expired"`
			Invalid  int `json:"invalid"`
			Insecure int `json:"insecure"`
		} `json:"certificateCounts"`
		ExpiringSoonList []struct {
			ID              string `json:"_id"`
			DaysUntilExpiry int    `json:"daysUntilExpiry"`
			ApplicationName string `json:"applicationName"`
		} `json:"expiringSoonList"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "dashboard", "stats"); err != nil {
		return nil, err
	}

	snapshot := &model.DashboardSnapshot{
		TotalApplications: body.TotalApplications,
		CountsByStatus: map[model.CertificateStatus]int{
			model.StatusValid:    body.CertificateCounts.Valid,
			model.StatusExpiring: body.CertificateCounts.Expiring,
			model.StatusExpired:  body.CertificateCounts.Expired,
			model.StatusInvalid:  body.CertificateCounts.Invalid,
			model.StatusInsecure: body.CertificateCounts.Insecure,
		},
		ExpiringSoon: make([]model.ExpiringEntry, 0, len(body.ExpiringSoonList)),
	}
	for _, entry := range body.ExpiringSoonList {
		snapshot.ExpiringSoon = append(snapshot.ExpiringSoon, model.ExpiringEntry{
			Domain:          entry.ID,
			DaysUntilExpiry: entry.DaysUntilExpiry,
			ApplicationName: entry.ApplicationName,
		})
	}
	return snapshot, nil
}

// ListUsers retrieves all console users.
func (c *Client) ListUsers(ctx context.Context) ([]model.Identity, error) {
	var body []userJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "users"); err != nil {
		return nil, err
	}

	users := make([]model.Identity, 0, len(body))
	for _, u := range body {
		users = append(users, u.toModel())
	}
	return users, nil
}

// UpdateUserRole changes a user's console role.
func (c *Client) UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.Identity, error) {
	req := struct {
		Role string `json:"role"`
	}{Role: string(role)}

	var body userJSON
	if err := c.do(ctx, http.MethodPut, nil, req, &body, "api", "users", id, "role"); err != nil {
		return nil, err
	}
	user := body.toModel()
	return &user, nil
}

// ListConnectors retrieves all notification connectors.
func (c *Client) ListConnectors(ctx context.Context) ([]model.Connector, error) {
	var body []connectorJSON
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "connectors"); err != nil {
		return nil, err
	}

	connectors := make([]model.Connector, 0, len(body))
	for _, conn := range body {
		connectors = append(connectors, conn.toModel())
	}
	return connectors, nil
}

// CreateConnector registers a new notification connector.
func (c *Client) CreateConnector(ctx context.Context, conn model.Connector) (*model.Connector, error) {
	var body connectorJSON
	if err := c.do(ctx, http.MethodPost, nil, toConnectorJSON(conn), &body, "api", "connectors"); err != nil {
		return nil, err
	}
	created := body.toModel()
	return &created, nil
}

// UpdateConnector replaces a connector's configuration.
func (c *Client) UpdateConnector(ctx context.Context, id string, conn model.Connector) (*model.Connector, error) {
	var body connectorJSON
	if err := c.do(ctx, http.MethodPut, nil, toConnectorJSON(conn), &body, "api", "connectors", id); err != nil {
		return nil, err
	}
	updated := body.toModel()
	return &updated, nil
}

// DeleteConnector removes a connector.
func (c *Client) DeleteConnector(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "api", "connectors", id)
}

// AuditLogs retrieves one page of the audit trail.
func (c *Client) AuditLogs(ctx context.Context, page int) (*model.AuditLogPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	var body struct {
		Logs []struct {
			ID        string `json:"_id"`
			Timestamp string `json:"timestamp"`
			User      struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"user"`
			Action  string `json:"action"`
			Entity  string `json:"entity"`
			Details string `json:"details"`
		} `json:"logs"`
		Total       int `json:"total"`
		CurrentPage int `json:"currentPage"`
		TotalPages  int `json:"totalPages"`
	}
	if err := c.do(ctx, http.MethodGet, query, nil, &body, "api", "audit"); err != nil {
		return nil, err
	}

	logs := make([]model.AuditLog, 0, len(body.Logs))
	for _, l := range body.Logs {
		logs = append(logs, model.AuditLog{
			ID:        l.ID,
			Timestamp: parseTime(l.Timestamp),
			UserName:  l.User.Name,
			UserEmail: l.User.Email,
			Action:    l.Action,
			Entity:    l.Entity,
			Details:   l.Details,
		})
	}
	return &model.AuditLogPage{
		Logs:        logs,
		Total:       body.Total,
		CurrentPage: body.CurrentPage,
		TotalPages:  body.TotalPages,
	}, nil
}

// PublicStatus retrieves the public status page data. No credential is needed;
// the gate simply finds none to attach for anonymous sessions.
func (c *Client) PublicStatus(ctx context.Context) ([]model.PublicService, error) {
	var body []struct {
		ApplicationName string `json:"applicationName"`
		Domains         []struct {
			Domain          string `json:"domain"`
			Status          string `json:"status"`
			DaysUntilExpiry *int   `json:"daysUntilExpiry"`
		} `json:"domains"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &body, "api", "public", "status"); err != nil {
		return nil, err
	}

	services := make([]model.PublicService, 0, len(body))
	for _, svc := range body {
		domains := make([]model.PublicDomain, 0, len(svc.Domains))
		for _, d := range svc.Domains {
			domains = append(domains, model.PublicDomain{
				Domain:          d.Domain,
				Status:          model.ParseCertificateStatus(d.Status),
				DaysUntilExpiry: d.DaysUntilExpiry,
			})
		}
		services = append(services, model.PublicService{
			ApplicationName: svc.ApplicationName,
			Domains:         domains,
		})
	}
	return services, nil
}
