package web

import (
	"errors"
	"net/http"

	"github.com/desertthunder/pophits/internal/shared"
	"github.com/desertthunder/pophits/internal/tasks"
)

// Status is the render state of one fetched section.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusEmpty
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	default:
		return ""
	}
}

// ViewState holds the outcome of one fetch. Exactly one of error, empty, or data is rendered.
type ViewState[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Resolve settles a fetch result. It never returns [StatusLoading].
//
// A not-found error renders as empty; isEmpty may be nil when any value counts as data.
func Resolve[T any](data T, err error, isEmpty func(T) bool) ViewState[T] {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return ViewState[T]{Status: StatusEmpty, Err: err}
	case err != nil:
		return ViewState[T]{Status: StatusError, Err: err}
	case isEmpty != nil && isEmpty(data):
		return ViewState[T]{Status: StatusEmpty, Data: data}
	default:
		return ViewState[T]{Status: StatusReady, Data: data}
	}
}

// FromSlot settles a concurrently loaded section.
func FromSlot[T any](s tasks.Slot[T], isEmpty func(T) bool) ViewState[T] {
	return Resolve(s.Value, s.Err, isEmpty)
}

func (v ViewState[T]) IsLoading() bool { return v.Status == StatusLoading }
func (v ViewState[T]) IsError() bool   { return v.Status == StatusError }
func (v ViewState[T]) IsEmpty() bool   { return v.Status == StatusEmpty }
func (v ViewState[T]) IsReady() bool   { return v.Status == StatusReady }

// Message is the user-facing error text.
func (v ViewState[T]) Message() string {
	if v.Err == nil {
		return ""
	}
	return errorMessage(v.Err)
}

// HTTPStatus is the response code for a page whose main content is v.
func (v ViewState[T]) HTTPStatus() int {
	switch v.Status {
	case StatusError:
		return statusFor(v.Err)
	case StatusEmpty:
		if errors.Is(v.Err, shared.ErrNotFound) {
			return http.StatusNotFound
		}
	}
	return http.StatusOK
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrMissingConfig):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "Please sign in to continue."
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, shared.ErrServiceUnavailable):
		return "PopHits is unavailable right now. Try again later."
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrMissingConfig):
		return err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}
