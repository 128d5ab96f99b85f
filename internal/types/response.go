package types

// Response is the error envelope written by api.ErrorResponse.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}
