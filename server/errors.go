package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// StatusCoder is implemented by errors that know their HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// CodedError is an error with an HTTP status, rendered in the coded-errors body.
type CodedError struct {
	Status    int
	Detail    string
	Retryable bool
	cause     error
}

func NewCodedError(status int, detail string, cause error) *CodedError {
	return &CodedError{Status: status, Detail: detail, cause: cause}
}

// BadRequest reports an unusable request, such as a path parameter of the wrong type.
func BadRequest(detail string, cause error) error {
	return NewCodedError(http.StatusBadRequest, detail, cause)
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return e.Detail + ": " + e.cause.Error()
	}
	return e.Detail
}

func (e *CodedError) StatusCode() int { return e.Status }

func (e *CodedError) Unwrap() error { return e.cause }

type codedErrorsBody struct {
	Errors []codedErrorBody `json:"errors"`
}

type codedErrorBody struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable"`
}

// EncodeCodedErrorsResponse writes err as {"errors":[{code,title,detail,retryable}]}. The
// status comes from the first StatusCoder in the chain, otherwise 500.
func EncodeCodedErrorsResponse(_ context.Context, err error, w http.ResponseWriter) {
	status := http.StatusInternalServerError
	var sc StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	var ce *CodedError
	retryable := errors.As(err, &ce) && ce.Retryable

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(codedErrorsBody{Errors: []codedErrorBody{{
		Code:      strconv.Itoa(status),
		Title:     http.StatusText(status),
		Detail:    err.Error(),
		Retryable: retryable,
	}}})
}
