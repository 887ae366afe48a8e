package runtime

import "strings"

// MapValueStore keeps execution state as nested maps so expressions can use
// plain dot access (e.g. post_step.result.postSubmissionId).
type MapValueStore struct {
	values map[string]any
}

func NewValueStore() *MapValueStore {
	return &MapValueStore{
		values: make(map[string]any),
	}
}

// Set stores a value at a dot-separated path, creating intermediate maps.
// A non-map value in the way is replaced.
func (s *MapValueStore) Set(key string, value any) {
	parts := strings.Split(key, ".")
	current := s.values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// Get resolves a dot-separated path.
func (s *MapValueStore) Get(key string) (any, bool) {
	var current any = s.values
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (s *MapValueStore) All() map[string]any {
	return s.values
}
