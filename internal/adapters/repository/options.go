package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCapacityHint pre-sizes the store's internal structures for an
// expected number of records.
func WithCapacityHint(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.capacityHint = n
		}
	}
}
