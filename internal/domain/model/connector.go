package model

// ConnectorType identifies the notification channel kind.
type ConnectorType string

const (
	ConnectorSlack   ConnectorType = "slack"
	ConnectorTeams   ConnectorType = "teams"
	ConnectorWebhook ConnectorType = "webhook"
)

// Connector is a notification channel the backend alerts through.
type Connector struct {
	ID   string
	Name string
	Type ConnectorType
	URL  string
}
