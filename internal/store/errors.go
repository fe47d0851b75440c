package store

import (
	"errors"
	"fmt"
)

// ErrDoorNotFound is returned by RenameDoor when no door with the requested
// identifier exists in the current snapshot.
var ErrDoorNotFound = errors.New("door not found")

// PersistenceError reports a failure to open, read, write or delete cached
// data. The previous snapshot is left intact whenever it is returned from a
// write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
