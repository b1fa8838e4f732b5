package core

import (
	"errors"
)

var (
	// description bytes could not be fetched
	ErrTransport = errors.New("scene description transport failed")
	// missing attribute/child or unparsable number in a scene description
	ErrMalformedDescription  = errors.New("malformed scene description")
	ErrDuplicateCreate       = errors.New("scene already created")
	ErrDescriptionNotFetched = errors.New("scene description not fetched")
	ErrMissingObject         = errors.New("scene object not found")
	ErrReentrantLoad         = errors.New("scene load already in progress")
	ErrLoadCancelled         = errors.New("asset load cancelled")
	ErrPoolClosed            = errors.New("load pool is shut down")
	ErrUnknown               = errors.New("unknown")
)
