package swrcache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A stale value was returned to a caller while a refresh runs.
	StaleServed(storageKey string)

	// A producer invocation started for a key.
	// background is true when triggered by stale-while-revalidate.
	RevalidateStarted(storageKey string, background bool)

	// A producer invocation failed. The previous entry, if any, is retained.
	RevalidateFailed(storageKey string, err error)

	// A placeholder value was returned instead of awaiting the producer.
	PlaceholderServed(storageKey string)

	// A persisted blob was dropped on read and treated as a miss.
	// reason ∈ {"corrupt", "value_decode", "io_error"}
	LoadDropped(storageKey, reason string)

	// A persist write failed. The in-memory entry remains authoritative.
	PersistError(storageKey string, err error)

	// RevalidateTag walked a tag; marked is the number of entries made stale.
	TagRevalidated(tag string, marked int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StaleServed(string)             {}
func (NopHooks) RevalidateStarted(string, bool) {}
func (NopHooks) RevalidateFailed(string, error) {}
func (NopHooks) PlaceholderServed(string)       {}
func (NopHooks) LoadDropped(string, string)     {}
func (NopHooks) PersistError(string, error)     {}
func (NopHooks) TagRevalidated(string, int)     {}
