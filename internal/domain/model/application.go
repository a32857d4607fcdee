package model

import "time"

// Environment labels where a monitored application runs.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
)

// Responsible is the contact accountable for an application's certificates.
type Responsible struct {
	Name  string
	Email string
}

// Application is a registered application whose domains are monitored.
type Application struct {
	ID          string
	Name        string
	URL         string
	Description string
	Environment Environment
	Responsible Responsible
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationPage is one page of a paginated application listing.
type ApplicationPage struct {
	Applications      []Application
	TotalPages        int
	CurrentPage       int
	TotalApplications int
}
