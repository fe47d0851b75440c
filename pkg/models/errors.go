package models

import "errors"

// ErrDuplicateID is returned when a snapshot contains two entities with the
// same identifier.
var ErrDuplicateID = errors.New("duplicate identifier")
