package swrcache

import (
	"fmt"
)

// KeyError reports that a cache key could not be derived for a call, usually
// because an argument is not canonically serializable. The producer was not
// invoked and nothing was cached.
type KeyError struct {
	Producer string
	Err      error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("derive key for producer %q: %v", e.Producer, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }
