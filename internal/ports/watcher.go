package ports

// Watcher notifies about writes to a single stream file. The tailer uses it
// to wake up when a producer appends instances instead of busy polling.
type Watcher interface {
	// Watch starts monitoring path. onChange is called after each write or
	// create event for that path. The callback may be invoked from any
	// goroutine. Returns an error if the parent directory doesn't exist or
	// permissions are insufficient.
	Watch(path string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
