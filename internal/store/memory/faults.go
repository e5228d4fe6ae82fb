package memory

import "sync"

// faults holds one-shot errors keyed by operation name.
type faults struct {
	mu   sync.Mutex
	next map[string]error
}

func newFaults() *faults {
	return &faults{next: make(map[string]error)}
}

func (f *faults) set(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next[op] = err
}

func (f *faults) take(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.next[op]
	delete(f.next, op)
	return err
}
