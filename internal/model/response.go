package model

// APIResponse is the envelope written on both success and error paths.
type APIResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

func NewAPIResponse(status int, data any, message string) APIResponse {
	return APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	}
}
