package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrLoadFailed = errors.New("load failed")
	ErrPersist    = errors.New("persist failed")
)
