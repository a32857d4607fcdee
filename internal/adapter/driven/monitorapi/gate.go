package monitorapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ericfisherdev/certpanel/internal/domain/model"
)

// CredentialSource yields the credential for an outbound request, or nil when
// the calling context has no live session. Implementations read, never mutate.
type CredentialSource interface {
	CurrentCredential(ctx context.Context) *model.Credential
}

// bearerTransport attaches the current credential as a bearer token to every
// outbound request. A credential is attached iff the source returns one that
// is still valid at call time; otherwise the request goes out unauthenticated.
// Responses pass through untouched: a 401/403 is surfaced to the caller, never
// absorbed by a refresh or retry here.
type bearerTransport struct {
	source CredentialSource
	base   http.RoundTripper
	now    func() time.Time
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if cred := t.source.CurrentCredential(req.Context()); cred.Valid(t.now()) {
		// Per http.RoundTripper contract the request must not be mutated.
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+cred.AccessToken)
		req = clone
	}
	return t.base.RoundTrip(req)
}
