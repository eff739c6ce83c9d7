package dto

type SubmitRequestResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
