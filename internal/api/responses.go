package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type GenerateResponse struct {
	Created int    `json:"created" example:"14"`
	Message string `json:"message" example:"Created 14 sessions from templates"`
}
