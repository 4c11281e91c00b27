package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is a domain error that maps onto an HTTP status.
// Services return it for NotFound, Forbidden, Conflict, InvalidArgument,
// InvalidState and Unauthorized outcomes.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(status int, format string, args ...interface{}) *AppError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

// NewBadRequest reports malformed or self-referential input (InvalidArgument).
func NewBadRequest(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusBadRequest, format, args...)
}

func NewUnauthorized(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusUnauthorized, format, args...)
}

func NewForbidden(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusForbidden, format, args...)
}

func NewNotFound(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusNotFound, format, args...)
}

func NewConflict(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusConflict, format, args...)
}

// NewInvalidState reports an action that is not valid for the entity's
// current lifecycle state, e.g. answering a friend request twice.
func NewInvalidState(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusUnprocessableEntity, format, args...)
}

func NewServerError(format string, args ...interface{}) *AppError {
	return newAppError(http.StatusInternalServerError, format, args...)
}

// StatusOf returns the HTTP status carried by err, 500 for foreign errors
// and 200 for nil.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. AppErrors keep their status and message;
// anything else is logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Message: "internal server error",
	})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: 403, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: msg})
}
