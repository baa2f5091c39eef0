package publisher

// Publisher represents a service for publishing scrape results
type Publisher interface {
	// Publish publishes a serialized scrape result tagged with its site code
	Publish(siteCode string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
