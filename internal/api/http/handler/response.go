// internal/api/http/handler/response.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openeeap/replytune/internal/api/http/middleware"
	"github.com/openeeap/replytune/internal/app/dto"
	"github.com/openeeap/replytune/pkg/errors"
)

// respondBindError writes a 400 for a request that failed binding
func respondBindError(c *gin.Context, err error) {
	respondError(c, errors.WrapFromCode(err, errors.ErrAPIInvalidRequest, err.Error()))
}

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, err error) {
	c.Error(err)

	status := errors.GetHTTPStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	resp := dto.NewErrorResponse(status, http.StatusText(status), message).
		WithErrorCode(errors.GetCode(err)).
		WithRequestID(middleware.GetRequestID(c))
	c.JSON(status, resp)
}

//Personal.AI order the ending
