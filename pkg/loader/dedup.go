package loader

// DefaultDedupCapacity bounds the number of item keys a controller remembers.
const DefaultDedupCapacity = 5000

// seenSet is a fixed-capacity set of item keys. When full, adding a key
// evicts the oldest one.
type seenSet struct {
	ring  []string
	next  int
	full  bool
	index map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	capacity = max(capacity, 1)
	return &seenSet{
		ring:  make([]string, capacity),
		index: make(map[string]struct{}, capacity),
	}
}

// Add records key and reports whether it was new.
func (s *seenSet) Add(key string) bool {
	if _, ok := s.index[key]; ok {
		return false
	}
	if s.full {
		delete(s.index, s.ring[s.next])
	}
	s.ring[s.next] = key
	s.index[key] = struct{}{}
	s.next++
	if s.next == len(s.ring) {
		s.next = 0
		s.full = true
	}
	return true
}
