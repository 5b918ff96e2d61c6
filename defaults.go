package gorawrmemo

// DefaultMaxEntries is the entry cap applied by [DefaultOptions].
const DefaultMaxEntries = 4096

// DefaultOptions returns the recommended set of options for production use.
// Currently this bounds the store by entry count and deduplicates concurrent
// misses; additional defaults may be added in future versions.
func DefaultOptions() []Option {
	return []Option{
		WithMaxEntries(DefaultMaxEntries),
		WithSingleFlight(),
	}
}
