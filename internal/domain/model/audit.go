package model

import "time"

// AuditLog is one recorded change made through the console.
type AuditLog struct {
	ID        string
	Timestamp time.Time
	UserName  string
	UserEmail string
	Action    string
	Entity    string
	Details   string
}

// AuditLogPage is one page of the audit trail.
type AuditLogPage struct {
	Logs        []AuditLog
	Total       int
	CurrentPage int
	TotalPages  int
}
