package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API endpoint returns.
type Response struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Data      any     `json:"data"`
	ErrorCode *string `json:"errorCode"`
}

const (
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeOperationFailed = "OPERATION_FAILED"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInternal        = "INTERNAL_ERROR"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
)

func OK(c *gin.Context, data any) {
	OKMsg(c, "操作成功", data)
}

func OKMsg(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

func Fail(c *gin.Context, httpStatus int, code string, msg string) {
	c.AbortWithStatusJSON(httpStatus, Response{Success: false, Message: msg, ErrorCode: &code})
}

// FailErr maps domain errors onto status codes.
func FailErr(c *gin.Context, err error) {
	var (
		nf *NotFoundError
		ve *ValidationError
		of *OperationFailedError
	)
	switch {
	case errors.As(err, &nf):
		Fail(c, http.StatusNotFound, CodeNotFound, nf.Error())
	case errors.As(err, &ve):
		Fail(c, http.StatusBadRequest, CodeValidation, ve.Error())
	case errors.As(err, &of):
		Fail(c, http.StatusInternalServerError, CodeOperationFailed, of.Error())
	case errors.Is(err, ErrUnavailable):
		Fail(c, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		Fail(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
