package model

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// ErrStorageUnavailable marks a failure of the persistent store itself. It is
// fatal to the current request and must reach the caller.
var ErrStorageUnavailable = goerr.New("storage unavailable")

// Context keys for error values
const (
	TopicKey      = "topic"
	SourceKey     = "source"
	RecordTypeKey = "record_type"
)

// WrapStorage marks err as a storage failure while keeping it in the chain
func WrapStorage(err error, msg string, opts ...goerr.Option) error {
	return goerr.Wrap(errors.Join(ErrStorageUnavailable, err), msg, opts...)
}
