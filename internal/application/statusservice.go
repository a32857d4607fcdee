package application

import (
	"sort"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// StatusService collapses per-domain certificate statuses into aggregate
// views. The backend performs this rollup for the dashboard endpoint; this
// service is the client-side equivalent for every view that receives raw
// per-domain lists (application detail, certificates list, public status).
type StatusService struct{}

// NewStatusService creates a StatusService.
func NewStatusService() *StatusService {
	return &StatusService{}
}

// Aggregate returns the most severe status present in the input, comparing by
// rank. Statuses within a rank are presentation-equivalent, so which member
// of the winning rank comes back is not significant. Callers must guard empty
// input with a "no data" branch; an empty input yields StatusUnknown.
func (s *StatusService) Aggregate(statuses []model.CertificateStatus) model.CertificateStatus {
	worst := model.StatusUnknown
	worstRank := worst.Rank() + 1
	for _, status := range statuses {
		if rank := status.Rank(); rank < worstRank {
			worst = status
			worstRank = rank
		}
	}
	return worst
}

// AggregateDomains is Aggregate over the statuses of a domain-status list.
func (s *StatusService) AggregateDomains(domains []model.DomainStatus) model.CertificateStatus {
	statuses := make([]model.CertificateStatus, 0, len(domains))
	for _, d := range domains {
		statuses = append(statuses, d.Status)
	}
	return s.Aggregate(statuses)
}

// ServiceStatus is the aggregate shown next to one public service's name.
func (s *StatusService) ServiceStatus(domains []model.PublicDomain) model.CertificateStatus {
	statuses := make([]model.CertificateStatus, 0, len(domains))
	for _, d := range domains {
		statuses = append(statuses, d.Status)
	}
	return s.Aggregate(statuses)
}

// AnyDegraded reports whether any listed domain is not plainly valid, which
// drives the public page's overall banner.
func (s *StatusService) AnyDegraded(services []model.PublicService) bool {
	for _, svc := range services {
		for _, d := range svc.Domains {
			if d.Status != model.StatusValid {
				return true
			}
		}
	}
	return false
}

// Summarize counts domains per status. Counts are exact multiset
// cardinalities, independent of aggregation.
func (s *StatusService) Summarize(statuses []model.CertificateStatus) map[model.CertificateStatus]int {
	counts := make(map[model.CertificateStatus]int)
	for _, status := range statuses {
		counts[status]++
	}
	return counts
}

// ExpiringSoon selects the watchlist: domains whose status is expiring or
// whose daysUntilExpiry is within the horizon, ordered ascending by days
// until expiry. The sort is stable so unchanged inputs render identically
// across refreshes.
func (s *StatusService) ExpiringSoon(domains []model.DomainStatus, horizonDays int) []model.ExpiringEntry {
	entries := make([]model.ExpiringEntry, 0)
	for _, d := range domains {
		if d.Status == model.StatusExpiring || d.DaysUntilExpiry <= horizonDays {
			entries = append(entries, model.ExpiringEntry{
				Domain:          d.Domain,
				DaysUntilExpiry: d.DaysUntilExpiry,
				ApplicationName: d.ApplicationName,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DaysUntilExpiry < entries[j].DaysUntilExpiry
	})
	return entries
}

// BuildSnapshot rebuilds a dashboard rollup wholesale from a raw domain list.
func (s *StatusService) BuildSnapshot(domains []model.DomainStatus, horizonDays int) *model.DashboardSnapshot {
	statuses := make([]model.CertificateStatus, 0, len(domains))
	apps := make(map[string]struct{})
	for _, d := range domains {
		statuses = append(statuses, d.Status)
		if d.ApplicationID != "" {
			apps[d.ApplicationID] = struct{}{}
		}
	}

	return &model.DashboardSnapshot{
		TotalApplications: len(apps),
		CountsByStatus:    s.Summarize(statuses),
		ExpiringSoon:      s.ExpiringSoon(domains, horizonDays),
	}
}
