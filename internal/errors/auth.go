package errors

var (
	ErrUnauthorized = &DomainError{
		Code:    "UNAUTHORIZED",
		Message: "missing or invalid credentials",
	}
	ErrForbidden = &DomainError{
		Code:    "FORBIDDEN",
		Message: "insufficient permissions",
	}
	ErrInvalidCredentials = &DomainError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid email or password",
	}
	ErrEmailTaken = &DomainError{
		Code:    "EMAIL_TAKEN",
		Message: "email already registered",
	}
)
