package content

import "errors"

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrInvalidStatus = errors.New("invalid post status")
)
