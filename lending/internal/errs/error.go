package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("no available copies of this book")
	ErrAlreadyReturned   = errors.New("book already returned")
	ErrInvalidLoanPeriod = errors.New("invalid loan period")
	ErrInvalidCopies     = errors.New("total copies must not be negative")
	ErrPersistence       = errors.New("persistence failure")
)

const (
	EntityBook    = "book"
	EntityReader  = "reader"
	EntityLending = "lending"
)

// NotFoundError names the missing entity. errors.Is(err, ErrNotFound) holds.
type NotFoundError struct {
	Entity string
	ID     string
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a storage failure. Callers may retry it.
type PersistenceError struct {
	Op  string
	Err error
}

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
