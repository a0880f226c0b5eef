package coupon

import "sync"

// Registry is the set of codes accepted by one generation run. TryAccept is
// the only critical section in a run: candidates are generated outside the
// lock and only the insert-or-reject check holds it.
type Registry struct {
	mu       sync.Mutex
	codes    map[string]struct{}
	reserved CouponSet
}

// NewRegistry creates an empty registry sized for capacity codes. Codes in
// reserved are never accepted; reserved must not change during the run.
func NewRegistry(capacity int, reserved CouponSet) *Registry {
	return &Registry{
		codes:    make(map[string]struct{}, capacity),
		reserved: reserved,
	}
}

// TryAccept inserts code and returns true if it was not already present.
func (r *Registry) TryAccept(code string) bool {
	if r.reserved != nil && r.reserved.Contains(code) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codes[code]; exists {
		return false
	}
	r.codes[code] = struct{}{}
	return true
}

// Len returns the number of accepted codes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

// Drain returns the accepted codes in unspecified order and empties the
// registry.
func (r *Registry) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(r.codes))
	for code := range r.codes {
		codes = append(codes, code)
	}
	r.codes = make(map[string]struct{})
	return codes
}
