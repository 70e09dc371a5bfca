package apperr

import "errors"

// Invalid is returned when the input fails domain validation.
var Invalid = errors.New("invalid input")

// NotFound indicates that the referenced entity does not exist.
var NotFound = errors.New("not found")

// Conflict indicates a state conflict with an already applied change.
var Conflict = errors.New("conflict")

// NotReady is returned by store reads before the initial load has finished.
// Distinct from "loaded but empty".
var NotReady = errors.New("store not ready")
