package model

// PublicDomain is one domain row on the public status page. DaysUntilExpiry
// is nil when the backend withholds it for a public view.
type PublicDomain struct {
	Domain          string
	Status          CertificateStatus
	DaysUntilExpiry *int
}

// PublicService is one publicly listed application and its domains.
type PublicService struct {
	ApplicationName string
	Domains         []PublicDomain
}
