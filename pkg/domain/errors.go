package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
)

// Upload errors
var (
	// ErrInvalidFileType is returned when the source name has no recognized extension
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrEmptyPayload is returned for a zero-byte upload
	ErrEmptyPayload = errors.New("empty payload")
	// ErrMalformedPayload is returned when the payload cannot be decoded into rows
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrMissingColumns is returned when required columns are absent from the header
	ErrMissingColumns = errors.New("missing columns")
	// ErrUploadFinalized is returned when finalizing an upload that already reached a terminal status
	ErrUploadFinalized = errors.New("upload already finalized")
)
