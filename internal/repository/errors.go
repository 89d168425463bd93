package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference reports a foreign key pointing at an absent row.
	ErrMissingReference = errors.New("referenced record not found")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func translateWriteErr(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return ErrDuplicate
	case foreignKeyViolation:
		return ErrMissingReference
	}
	return err
}
