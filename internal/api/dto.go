package api

type ErrorDetail struct {
	Reason       string            `json:"reason,omitempty"`
	RetryAfterMs int64             `json:"retry_after_ms,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Code    int          `json:"code"`
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Detail  *ErrorDetail `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}
