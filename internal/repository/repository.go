// Package repository defines the key-value blob store behind the local
// cache. Values are opaque strings, usually JSON documents.
package repository

import (
	"context"
)

type ErrorNotFound struct {
	text string
}

func (e *ErrorNotFound) Error() string {
	return e.text
}

func NewErrorNotFound(text string) *ErrorNotFound {
	return &ErrorNotFound{
		text: text,
	}
}

type ReadWriteRepository interface {
	ReadRepository
	WriteRepository
}

type ReadRepository interface {
	// Get returns *ErrorNotFound when key has never been set.
	Get(ctx context.Context, key string) (string, error)
}

type WriteRepository interface {
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
