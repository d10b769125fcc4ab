package credstore

import "context"

// Persisted key names, shared by every backend. userData holds the
// JSON-encoded profile.
const (
	KeyAuthToken = "authToken"
	KeySessionID = "sessionId"
	KeyUserData  = "userData"
)

// Profile is the minimal user profile persisted alongside the token.
type Profile struct {
	Username  string `json:"username"`
	StoreCode string `json:"storecode"`
}

// Complete reports whether the profile carries both required fields.
func (p *Profile) Complete() bool {
	return p != nil && p.Username != "" && p.StoreCode != ""
}

// Credentials is the full persisted auth state. A token without a profile is
// invalid and callers must treat it as signed out.
type Credentials struct {
	Token     string
	SessionID string
	Profile   *Profile
}

// HasToken reports whether a token is stored.
func (c Credentials) HasToken() bool {
	return c.Token != ""
}

// Store persists auth credentials in a key-value backend.
//
// Load never fails: read or decode errors degrade to empty Credentials so
// callers see "not authenticated" instead of an error. Clear is idempotent.
type Store interface {
	Save(ctx context.Context, creds Credentials) error
	Load(ctx context.Context) Credentials
	Clear(ctx context.Context) error
}
