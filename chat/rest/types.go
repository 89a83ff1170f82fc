package rest

// UploadResponse contains the durable URL of a stored attachment.
type UploadResponse struct {
	URL string `json:"url"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
