package dto

type ErrorResponse struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type ScreenRequest struct {
	Text string `json:"text"`
}
