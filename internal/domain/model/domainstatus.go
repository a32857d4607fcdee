package model

import "time"

// HealthScore is the backend-computed TLS configuration score for a domain.
type HealthScore struct {
	Score int
	Grade string
}

// CheckResult is one historical observation of a domain's certificate.
type CheckResult struct {
	Status          CertificateStatus
	CheckedAt       time.Time
	DaysUntilExpiry int
	ErrorMessage    string
}

// DomainStatus is the monitor backend's latest observation for one domain.
// The Status field has already been classified through ParseCertificateStatus
// by the adapter; everything else is carried through as reported.
type DomainStatus struct {
	Domain          string
	ApplicationID   string
	ApplicationName string
	Status          CertificateStatus
	DaysUntilExpiry int
	LastChecked     time.Time
	TLSVersion      string
	CipherName      string
	HealthScore     *HealthScore
	History         []CheckResult
}

// ChainEntry is one certificate in a domain's trust chain, leaf first.
type ChainEntry struct {
	SubjectCN string
	SubjectO  string
	IssuerCN  string
	IssuerO   string
	ValidTo   time.Time
}
