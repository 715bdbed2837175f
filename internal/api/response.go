package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the error part of every response envelope.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response wraps every JSON body the API returns.
type Response struct {
	Data  interface{}    `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *APIError      `json:"error,omitempty"`
}

func handleError(c *gin.Context, log *zap.SugaredLogger, err error, status int, msg string) {
	requestID := c.GetString(requestIDKey)
	if status >= http.StatusInternalServerError {
		log.Errorw(msg, "request_id", requestID, "error", err)
	} else {
		log.Infow(msg, "request_id", requestID, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, Response{Error: &APIError{Code: status, Message: msg + ": " + err.Error()}})
}

func handleSuccess(c *gin.Context, status int, data interface{}, meta map[string]any) {
	c.JSON(status, Response{Data: data, Meta: meta})
}
