package errors

import "fmt"

var (
	ErrInvalidCredentials = fmt.Errorf("username/password is incorrect")
	ErrUnknownUser        = fmt.Errorf("unknown user")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrNotAuthenticated   = fmt.Errorf("session is not authenticated")
	ErrAdminOnly          = fmt.Errorf("operation restricted to the admin identity")
	ErrStoreFull          = fmt.Errorf("message store size limit exceeded")
	ErrStoreUnavailable   = fmt.Errorf("message store unavailable")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)
