package ports

// Prefetcher warms the metadata cache in the background. Submit never blocks.
type Prefetcher interface {
	Submit(ids []string)
}
