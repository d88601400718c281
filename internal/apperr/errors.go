package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrEmptyResult means the model replied with content but the parser
	// recovered zero drafts from it (format drift, not a transport problem).
	ErrEmptyResult = errors.New("no drafts parsed from model response")

	// ErrUpstream means the model call itself failed or returned empty content.
	ErrUpstream = errors.New("model request failed")
)
