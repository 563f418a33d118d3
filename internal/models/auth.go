package models

// Principal is the authenticated identity record returned by the server.
type Principal struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasPermission reports whether the principal carries the named permission.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	for _, perm := range p.Permissions {
		if perm == name {
			return true
		}
	}
	return false
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the server's answer to a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// APIError is the error body the server attaches to non-2xx responses.
// Older deployments use "detail" (FastAPI default), newer ones "error".
type APIError struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Message returns the server-supplied message, preferring the "error" field.
func (e APIError) Message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}

// HealthStatus is the response from GET /health.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
