package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the body of every 4xx and 5xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success writes a 200 reply with data as the body
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

// Error writes {"error": msg} with the given status
func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, ErrorResponse{Error: msg})
}

// AbortWithError writes {"error": msg} and stops the handler chain
func AbortWithError(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: msg})
}
