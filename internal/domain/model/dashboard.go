package model

// ExpiringEntry is one watchlist row: a domain approaching expiry.
type ExpiringEntry struct {
	Domain          string
	DaysUntilExpiry int
	ApplicationName string
}

// DashboardSnapshot is the dashboard-wide rollup. It is derived read-only
// data, rebuilt wholesale on every fetch and never mutated incrementally.
type DashboardSnapshot struct {
	TotalApplications int
	CountsByStatus    map[CertificateStatus]int
	ExpiringSoon      []ExpiringEntry
}
