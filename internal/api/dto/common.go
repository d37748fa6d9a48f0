package dto

// SuccessResponse is returned by endpoints without a resource body
type SuccessResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status string `json:"status"`
}
