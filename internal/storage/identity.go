package storage

// IdentityProvider authenticates a user name against whatever account
// system sits outside this module. User accounts are explicitly out of
// scope here; AllowAllIdentityProvider is the stand-in the HTTP ticket
// issuer authenticates against. Room joins and game tickets do not
// consult it.
type IdentityProvider interface {
	Authenticate(userName string) bool
}

// AllowAllIdentityProvider accepts any non-empty user name.
type AllowAllIdentityProvider struct{}

func (AllowAllIdentityProvider) Authenticate(userName string) bool {
	return userName != ""
}
