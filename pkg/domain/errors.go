package domain

import "errors"

// ErrKeyNotFound is returned by a store when a key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// ErrNotAnObject is returned when a handler produces something other than a
// JSON object (a scalar, an array, or nothing at all).
var ErrNotAnObject = errors.New("handler result is not an object")

// ErrHandlerNotDefined is returned by a loader when the script executes fine
// but never defines a global 'handler' function.
var ErrHandlerNotDefined = errors.New("no 'handler' function defined")
