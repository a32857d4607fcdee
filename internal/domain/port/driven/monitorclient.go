package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// ErrUnauthorized is returned when the monitor backend rejects a call with
// 401 or 403. It is propagated unchanged: callers must not retry, and the
// session layer maps it to an unauthenticated session.
var ErrUnauthorized = errors.New("monitor api: unauthorized")

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("monitor api: not found")

// APIError carries a non-2xx backend response. It wraps ErrUnauthorized for
// 401/403 and ErrNotFound for 404 so callers can match with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("monitor api: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps well-known status codes onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return nil
}

// ApplicationListOptions filters and pages the application listing.
type ApplicationListOptions struct {
	Page        int
	Search      string
	Environment string
}

// MonitorClient defines the driven port for the certificate-monitor backend.
// All domain work (TLS handshakes, parsing, expiry computation, aggregation
// for the dashboard endpoint) happens behind this port.
type MonitorClient interface {
	// WhoAmI returns the identity bound to the request's credential.
	// Returns ErrUnauthorized (wrapped) when no backend session exists.
	WhoAmI(ctx context.Context) (*model.Identity, error)

	// Applications
	ListApplications(ctx context.Context, opts ApplicationListOptions) (*model.ApplicationPage, error)
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	CreateApplication(ctx context.Context, app model.Application) (*model.Application, error)
	UpdateApplication(ctx context.Context, id string, app model.Application) (*model.Application, error)
	DeleteApplication(ctx context.Context, id string) error

	// Certificates / domain statuses
	ListDomainStatuses(ctx context.Context) ([]model.DomainStatus, error)
	DomainStatusesByApplication(ctx context.Context, appID string) ([]model.DomainStatus, error)
	// CheckDomain triggers a fresh observation and returns the updated status.
	CheckDomain(ctx context.Context, domain string) (*model.DomainStatus, error)
	CertificateChain(ctx context.Context, domain string) ([]model.ChainEntry, error)

	// Dashboard (backend-side aggregation)
	DashboardStats(ctx context.Context) (*model.DashboardSnapshot, error)

	// Users
	ListUsers(ctx context.Context) ([]model.Identity, error)
	UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.Identity, error)

	// Connectors
	ListConnectors(ctx context.Context) ([]model.Connector, error)
	CreateConnector(ctx context.Context, c model.Connector) (*model.Connector, error)
	UpdateConnector(ctx context.Context, id string, c model.Connector) (*model.Connector, error)
	DeleteConnector(ctx context.Context, id string) error

	// Audit
	AuditLogs(ctx context.Context, page int) (*model.AuditLogPage, error)

	// Public status (no credential required)
	PublicStatus(ctx context.Context) ([]model.PublicService, error)
}
