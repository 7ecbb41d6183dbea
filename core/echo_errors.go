/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"schneider.vip/problem"
)

// Keys of the echo context values that tell the error handler how to report a failed operation.
const (
	// StatusCodeResolverContextKey holds the ErrorStatusCodeResolver of the operation.
	StatusCodeResolverContextKey = "!!StatusCodeResolver"
	// ErrorWriterContextKey holds the ErrorWriter of the operation, RFC 7807 problems are written if not set.
	ErrorWriterContextKey = "!!ErrorWriter"
	// OperationIDContextKey holds the name of the operation, used in logging and problem titles.
	OperationIDContextKey = "!!OperationId"
	// ModuleNameContextKey holds the name of the module the operation belongs to.
	ModuleNameContextKey = "!!ModuleName"
)

const unmappedStatusCode = 0

// Operation describes an API operation for the HTTP error handler.
type Operation struct {
	// ID is the name of the operation, e.g. RequestCredential.
	ID string
	// Module is the module serving the operation.
	Module string
	// Resolver maps errors of the operation to HTTP status codes. Optional.
	Resolver ErrorStatusCodeResolver
	// Writer writes errors of the operation. Optional.
	Writer ErrorWriter
}

// Middleware stores the operation in the echo context, so the error handler can report its errors.
func (o Operation) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Set(OperationIDContextKey, o.ID)
			ctx.Set(ModuleNameContextKey, o.Module)
			if o.Resolver != nil {
				ctx.Set(StatusCodeResolverContextKey, o.Resolver)
			}
			if o.Writer != nil {
				ctx.Set(ErrorWriterContextKey, o.Writer)
			}
			return next(ctx)
		}
	}
}

// CreateHTTPErrorHandler returns the echo.HTTPErrorHandler of the issuer: it logs the error with the operation
// and module, resolves the status code and writes the error with the operation's ErrorWriter.
func CreateHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		err = fromEchoError(err)
		title := "Operation failed"
		if operationID := ctx.Get(OperationIDContextKey); operationID != nil {
			title = fmt.Sprintf("%s failed", operationID)
		}
		statusCode := GetHTTPStatusCode(err, ctx)
		logger := getContextLogger(ctx)
		entry := logger.WithField("requestURI", ctx.Request().RequestURI).WithError(err)
		if statusCode >= http.StatusInternalServerError {
			entry.Error(title)
		} else {
			entry.Warn(title)
		}
		if ctx.Response().Committed {
			logger.WithError(err).Warn("Unable to send error back to client, response already committed")
			return
		}
		writer, ok := ctx.Get(ErrorWriterContextKey).(ErrorWriter)
		if !ok || writer == nil {
			writer = problemErrorWriter{}
		}
		if writeErr := writer.Write(ctx, statusCode, title, err); writeErr != nil {
			logger.WithError(writeErr).Error("Unable to write error response")
		}
	}
}

// fromEchoError converts echo.HTTPErrors (e.g. failed binds, unknown routes) so their status code and message end up in the response.
func fromEchoError(err error) error {
	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		return err
	}
	return httpStatusCodeError{
		msg:        fmt.Sprintf("%s", echoErr.Message),
		statusCode: echoErr.Code,
		err:        echoErr,
	}
}

// Error returns an error that maps to the given HTTP status code.
// An error in args is kept as cause.
func Error(statusCode int, errStr string, args ...interface{}) error {
	var cause error
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			cause = err
			break
		}
	}
	return httpStatusCodeError{msg: fmt.Sprintf(errStr, args...), err: cause, statusCode: statusCode}
}

// NotFoundError returns an error that maps to 404 Not Found.
func NotFoundError(errStr string, args ...interface{}) error {
	return Error(http.StatusNotFound, errStr, args...)
}

// InvalidInputError returns an error that maps to 400 Bad Request.
func InvalidInputError(errStr string, args ...interface{}) error {
	return Error(http.StatusBadRequest, errStr, args...)
}

// ErrorWriter writes an error response.
type ErrorWriter interface {
	// Write writes err as response. The statusCode is the resolved status, which the writer may override.
	// The description is a short description of what failed (typically the operation name).
	Write(echoContext echo.Context, statusCode int, description string, err error) error
}

// problemErrorWriter writes RFC 7807 problem details.
type problemErrorWriter struct{}

func (problemErrorWriter) Write(echoContext echo.Context, statusCode int, description string, err error) error {
	_, writeErr := problem.New(problem.Title(description), problem.Status(statusCode), problem.Detail(err.Error())).
		WriteTo(echoContext.Response())
	return writeErr
}

// HTTPStatusCodeError is an error that carries its HTTP status code.
type HTTPStatusCodeError interface {
	error
	StatusCode() int
}

type httpStatusCodeError struct {
	msg        string
	statusCode int
	err        error
}

func (e httpStatusCodeError) StatusCode() int {
	return e.statusCode
}

// Is matches other httpStatusCodeErrors with the same status code.
func (e httpStatusCodeError) Is(other error) bool {
	cast, ok := other.(httpStatusCodeError)
	return ok && cast.statusCode == e.statusCode
}

func (e httpStatusCodeError) Unwrap() error {
	return e.err
}

func (e httpStatusCodeError) Error() string {
	return e.msg
}

// ErrorStatusCodeResolver resolves the HTTP status code of an error.
type ErrorStatusCodeResolver interface {
	ResolveStatusCode(err error) int
}

// ResolveStatusCode returns the status code of the first error in mapping that matches err (errors.Is),
// or 0 if none matches.
func ResolveStatusCode(err error, mapping map[error]int) int {
	for target, code := range mapping {
		if errors.Is(err, target) {
			return code
		}
	}
	return unmappedStatusCode
}

// GetHTTPStatusCode returns the status code of err: the code it carries (HTTPStatusCodeError, echo.HTTPError),
// otherwise the code the operation's resolver maps it to, otherwise 500 Internal Server Error.
func GetHTTPStatusCode(err error, ctx echo.Context) int {
	var predefined HTTPStatusCodeError
	if errors.As(err, &predefined) {
		return predefined.StatusCode()
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	if resolver, ok := ctx.Get(StatusCodeResolverContextKey).(ErrorStatusCodeResolver); ok {
		if code := resolver.ResolveStatusCode(err); code != unmappedStatusCode {
			return code
		}
	}
	return http.StatusInternalServerError
}

func getContextLogger(ctx echo.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if moduleName := ctx.Get(ModuleNameContextKey); moduleName != nil {
		fields[LogFieldModule] = moduleName
	}
	if operationID := ctx.Get(OperationIDContextKey); operationID != nil {
		fields["operation"] = operationID
	}
	return logrus.StandardLogger().WithContext(ctx.Request().Context()).WithFields(fields)
}
