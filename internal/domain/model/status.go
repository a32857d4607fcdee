package model

// CertificateStatus represents the health of one domain's certificate at the
// time it was last observed by the monitor backend.
type CertificateStatus string

const (
	StatusValid    CertificateStatus = "valid"
	StatusExpiring CertificateStatus = "expiring"
	StatusExpired  CertificateStatus = "expired"
	StatusInvalid  CertificateStatus = "invalid"
	StatusInsecure CertificateStatus = "insecure"
	StatusUnknown  CertificateStatus = "unknown"
)

// Rank returns the severity rank of a status. Lower is more severe.
// expired and invalid share rank 1; expiring and insecure share rank 2.
// Aggregation compares ranks, never individual statuses.
func (s CertificateStatus) Rank() int {
	switch s {
	case StatusExpired, StatusInvalid:
		return 1
	case StatusExpiring, StatusInsecure:
		return 2
	case StatusValid:
		return 3
	default:
		return 4
	}
}

// ParseCertificateStatus maps a raw status string from the backend to a known
// CertificateStatus. Unrecognized values degrade to StatusUnknown so that new
// backend-introduced statuses never break the console.
func ParseCertificateStatus(raw string) CertificateStatus {
	switch CertificateStatus(raw) {
	case StatusValid, StatusExpiring, StatusExpired, StatusInvalid, StatusInsecure, StatusUnknown:
		return CertificateStatus(raw)
	default:
		return StatusUnknown
	}
}
