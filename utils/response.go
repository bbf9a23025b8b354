package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// Success writes data as the JSON body with status 200.
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, data)
}

// Done writes the {success: true} acknowledgement.
func Done(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// Error writes a {message} body with the given status.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{Message: message})
}

// ValidationError writes a 400 with the binding errors attached.
func ValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request payload", Errors: err.Error()})
}
