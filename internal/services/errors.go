package services

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrFileTooLarge       = errors.New("file exceeds upload limit")
	ErrEmptyUpload        = errors.New("uploaded file is empty")
)
