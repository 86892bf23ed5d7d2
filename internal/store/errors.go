package store

import "errors"

var (
	errExpressionNotFound      = errors.New("expression not found")
	errExpressionAlreadyExists = errors.New("expression already exists")
)
