package types

const (
	ContextUserKey  = "user"
	RequestIDHeader = "X-Request-ID"
	TokenCookie     = "token"
)
