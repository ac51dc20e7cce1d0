package services

import "errors"

// Dataset service errors
var (
	ErrInvalidDatasetName = errors.New("invalid dataset name")
	ErrInvalidRange       = errors.New("invalid month range")
	ErrUnknownColumn      = errors.New("unknown column")
)
