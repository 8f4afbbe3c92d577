package dto

// ErrorResponse cuerpo de error HTTP. Para errores de dominio Code es el nombre de la regla violada.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
