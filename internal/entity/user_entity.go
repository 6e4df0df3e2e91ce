package entity

// AuthUser is the identity carried by a verified access token. Users are
// issued and managed elsewhere; the gateway only ever sees these claims.
type AuthUser struct {
	Id    string
	Email string
}
