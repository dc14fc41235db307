package errors

var (
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be a positive number of minor currency units",
	}
	ErrInvalidQuery = &DomainError{
		Code:    "INVALID_QUERY",
		Message: "latitude and longitude are required and must be in range",
	}
	ErrOrderNotFound = &DomainError{
		Code:    "ORDER_NOT_FOUND",
		Message: "order not found",
	}
	ErrOrderNotPaid = &DomainError{
		Code:    "ORDER_NOT_PAID",
		Message: "order has not been paid",
	}
	ErrOrderFailed = &DomainError{
		Code:    "ORDER_FAILED",
		Message: "order was abandoned and can no longer be paid",
	}
	ErrSignatureMismatch = &DomainError{
		Code:    "SIGNATURE_MISMATCH",
		Message: "payment signature does not match",
	}
	ErrReceiptNotFound = &DomainError{
		Code:    "RECEIPT_NOT_FOUND",
		Message: "receipt not found",
	}
	ErrMalformedPayload = &DomainError{
		Code:    "MALFORMED_PAYLOAD",
		Message: "receipt payload is missing receiptId, amount or paidAt",
	}
	ErrAlreadyUsed = &DomainError{
		Code:    "ALREADY_USED",
		Message: "receipt has already been used",
	}
	ErrTimeout = &DomainError{
		Code:    "TIMEOUT",
		Message: "upstream did not respond in time",
	}
	ErrInvalidRequest = &DomainError{
		Code:    "INVALID_REQUEST",
		Message: "invalid request",
	}
	ErrStoreNotFound = &DomainError{
		Code:    "STORE_NOT_FOUND",
		Message: "store not found",
	}
)
