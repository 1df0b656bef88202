package chomp

// memo remembers tree states already verified as failing, keyed by
// filestate.Set.StateKey.
type memo struct {
	failed map[string]struct{}
}

func newMemo() *memo {
	return &memo{failed: make(map[string]struct{})}
}

func (m *memo) knownFailing(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.failed[key]
	return ok
}

func (m *memo) recordFailure(key string) {
	if m == nil {
		return
	}
	m.failed[key] = struct{}{}
}

func (m *memo) size() int {
	if m == nil {
		return 0
	}
	return len(m.failed)
}
