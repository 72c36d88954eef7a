package boarddto

// DomainError is the error body returned by the board API.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "board service error"
}

// ErrorEnvelope wraps DomainError on the wire.
type ErrorEnvelope struct {
	Error DomainError `json:"error"`
}
