package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    model.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

type envelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error,omitempty"`
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Data: data})
}

// statusFor переводит код ошибки ядра в HTTP-статус
func statusFor(code model.ErrorCode) int {
	switch code {
	case model.CodeValidation:
		return http.StatusBadRequest
	case model.CodeConflict:
		return http.StatusConflict
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case model.CodeNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	code := model.CodeOf(err)
	status := statusFor(code)

	body := &errorBody{Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		// детали внутренних ошибок только в лог
		_ = c.Error(err)
		body = &errorBody{Code: "INTERNAL", Message: "internal error"}
	}

	c.AbortWithStatusJSON(status, envelope{Error: body})
}

func badRequest(c *gin.Context, err error) {
	if model.CodeOf(err) == "" {
		err = model.Validationf("invalid request body: %v", err)
	}
	fail(c, err)
}
