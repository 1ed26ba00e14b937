// Package apperr is the error taxonomy shared by the site-service domain
// packages. Handlers map each kind to an HTTP status; everything else is an
// internal failure whose detail is logged but never returned to callers.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError is a rejected input. Suggestions carry alternatives the
// caller can retry with, e.g. free slugs.
type ValidationError struct {
	Field       string
	Message     string
	Suggestions []string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError means the referenced resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// ConflictError means the request collides with existing state, such as a
// taken slug or a booked slot.
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Conflict(resource, message string) *ConflictError {
	return &ConflictError{Resource: resource, Message: message}
}

// ForbiddenError means the caller is authenticated but may not act on the
// resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func Forbidden(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// UnauthorizedError means credentials were missing or wrong.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func Unauthorized(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// StorageError wraps a persistence failure. Op names the failed operation
// for logs.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func Storage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

func AsNotFound(err error) (*NotFoundError, bool) {
	var target *NotFoundError
	ok := errors.As(err, &target)
	return target, ok
}

func AsConflict(err error) (*ConflictError, bool) {
	var target *ConflictError
	ok := errors.As(err, &target)
	return target, ok
}

func AsForbidden(err error) (*ForbiddenError, bool) {
	var target *ForbiddenError
	ok := errors.As(err, &target)
	return target, ok
}

func AsUnauthorized(err error) (*UnauthorizedError, bool) {
	var target *UnauthorizedError
	ok := errors.As(err, &target)
	return target, ok
}
