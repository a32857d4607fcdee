package monitorapi

import (
	"time"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// identityJSON is the wire shape of GET /api/auth/me.
type identityJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (j identityJSON) toModel() model.Identity {
	return model.Identity{
		ID:    j.ID,
		Name:  j.Name,
		Email: j.Email,
		Role:  model.Role(j.Role),
	}
}

// userJSON is the wire shape of user records on the admin endpoints, which
// expose the storage _id rather than the identity-provider subject.
type userJSON struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (j userJSON) toModel() model.Identity {
	return model.Identity{
		ID:    j.ID,
		Name:  j.Name,
		Email: j.Email,
		Role:  model.Role(j.Role),
	}
}

type responsibleJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type applicationJSON struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Description string          `json:"description,omitempty"`
	Environment string          `json:"environment"`
	Responsible responsibleJSON `json:"responsible"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

func (j applicationJSON) toModel() model.Application {
	return model.Application{
		ID:          j.ID,
		Name:        j.Name,
		URL:         j.URL,
		Description: j.Description,
		Environment: model.Environment(j.Environment),
		Responsible: model.Responsible{Name: j.Responsible.Name, Email: j.Responsible.Email},
		CreatedAt:   parseTime(j.CreatedAt),
		UpdatedAt:   parseTime(j.UpdatedAt),
	}
}

func toApplicationJSON(app model.Application) applicationJSON {
	return applicationJSON{
		Name:        app.Name,
		URL:         app.URL,
		Description: app.Description,
		Environment: string(app.Environment),
		Responsible: responsibleJSON{Name: app.Responsible.Name, Email: app.Responsible.Email},
	}
}

type healthScoreJSON struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

type checkResultJSON struct {
	Status          string `json:"status"`
	CheckedAt       string `json:"checkedAt"`
	DaysUntilExpiry int    `json:"daysUntilExpiry"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// domainStatusJSON is the wire shape of a DomainStatus record. _id carries
// the domain name; applicationId is a populated reference.
type domainStatusJSON struct {
	ID            string `json:"_id"`
	ApplicationID struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"applicationId"`
	Status          string            `json:"status"`
	DaysUntilExpiry int               `json:"daysUntilExpiry"`
	LastChecked     string            `json:"lastChecked"`
	TLSVersion      string            `json:"tlsVersion"`
	CipherName      string            `json:"cipherName"`
	HealthScore     *healthScoreJSON  `json:"healthScore"`
	History         []checkResultJSON `json:"history"`
}

func (j domainStatusJSON) toModel() model.DomainStatus {
	status := model.DomainStatus{
		Domain:          j.ID,
		ApplicationID:   j.ApplicationID.ID,
		ApplicationName: j.ApplicationID.Name,
		Status:          model.ParseCertificateStatus(j.Status),
		DaysUntilExpiry: j.DaysUntilExpiry,
		LastChecked:     parseTime(j.LastChecked),
		TLSVersion:      j.TLSVersion,
		CipherName:      j.CipherName,
	}
	if j.HealthScore != nil {
		status.HealthScore = &model.HealthScore{Score: j.HealthScore.Score, Grade: j.HealthScore.Grade}
	}
	for _, h := range j.History {
		status.History = append(status.History, model.CheckResult{
			Status:          model.ParseCertificateStatus(h.Status),
			CheckedAt:       parseTime(h.CheckedAt),
			DaysUntilExpiry: h.DaysUntilExpiry,
			ErrorMessage:    h.ErrorMessage,
		})
	}
	return status
}

func toDomainStatuses(body []domainStatusJSON) []model.DomainStatus {
	statuses := make([]model.DomainStatus, 0, len(body))
	for _, j := range body {
		statuses = append(statuses, j.toModel())
	}
	return statuses
}

type connectorJSON struct {
	ID     string `json:"_id,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Config struct {
		URL string `json:"url"`
	} `json:"config"`
}

func (j connectorJSON) toModel() model.Connector {
	return model.Connector{
		ID:   j.ID,
		Name: j.Name,
		Type: model.ConnectorType(j.Type),
		URL:  j.Config.URL,
	}
}

func toConnectorJSON(conn model.Connector) connectorJSON {
	j := connectorJSON{Name: conn.Name, Type: string(conn.Type)}
	j.Config.URL = conn.URL
	return j
}

// parseTime parses an RFC 3339 timestamp, returning the zero time for empty
// or malformed input. The backend emits ISO 8601 with milliseconds.
func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
