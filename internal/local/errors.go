package local

import "errors"

// ErrLocalPersistence wraps every failure to read or write the local store.
var ErrLocalPersistence = errors.New("local persistence failure")
