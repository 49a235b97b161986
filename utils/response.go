package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the shape every endpoint returns: a numeric application
// code (0 on success), a short message and the optional payload.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes an Envelope with the given HTTP status.
func Respond(ctx *gin.Context, status, code int, message string, data interface{}) {
	ctx.JSON(status, Envelope{Code: code, Message: message, Data: data})
}

// Success writes a 200 envelope with code 0.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error writes an error envelope without a payload.
func Error(ctx *gin.Context, status, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// SuccessEnvelope builds the success Envelope without writing it, for
// handlers that cache the serialized response body.
func SuccessEnvelope(data interface{}) Envelope {
	return Envelope{Code: 0, Message: "success", Data: data}
}
