package auth

const (
	defaultLoginMessage  = "Login failed"
	defaultLogoutMessage = "Logout failed"
)

// LoginError carries the server's message for a rejected login, or a
// generic one when the server gave none.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

// LogoutError reports a failed logout. When the request itself failed the
// cache is left as it was.
type LogoutError struct {
	Err error
}

func (e *LogoutError) Error() string { return defaultLogoutMessage }

func (e *LogoutError) Unwrap() error { return e.Err }
