package app

import "errors"

var (
	// ErrTitleRequired indicates a create request without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrFileRequired indicates an upload request without file content.
	ErrFileRequired = errors.New("file is required")
	// ErrBookNotFound indicates an unknown book id.
	ErrBookNotFound = errors.New("book not found")
	// ErrNoFileOrLink indicates a book with neither a stored file nor a link.
	ErrNoFileOrLink = errors.New("book has no file or link")
	// ErrInvalidCredentials indicates a failed admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a missing, expired, or tampered admin token.
	ErrInvalidToken = errors.New("invalid token")
)
