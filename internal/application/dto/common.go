package dto

// ErrorResponse cuerpo de error HTTP. La clave "error" se conserva por compatibilidad con el frontend.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// MessageResponse confirmación simple de una operación.
type MessageResponse struct {
	Mensaje string `json:"mensaje"`
}
