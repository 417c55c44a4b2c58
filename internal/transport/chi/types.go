package chi

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LinkRequest is the body of POST /link/{productID}.
type LinkRequest struct {
	APIKey string `json:"api_key"`
}

// LinkResponse carries the resolved download URL.
type LinkResponse struct {
	URL string `json:"url"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SyncAcceptedResponse acknowledges a manual sync trigger.
type SyncAcceptedResponse struct {
	Status string `json:"status"`
}
