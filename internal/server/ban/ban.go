// Package ban tracks failed-login counters per client IP and converts
// repeated failures into temporary lockouts.
package ban

import "time"

// Manager owns all ban state. It is only ever called from the single
// dispatch goroutine, so it needs no locking.
type Manager struct {
	maxAttempts int
	banDuration time.Duration

	attempts map[string]int
	banned   map[string]time.Time

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewManager returns a Manager that bans an IP for banDuration once it has
// accumulated maxAttempts failed logins.
func NewManager(maxAttempts int, banDuration time.Duration) *Manager {
	return &Manager{
		maxAttempts: maxAttempts,
		banDuration: banDuration,
		attempts:    make(map[string]int),
		banned:      make(map[string]time.Time),
		now:         time.Now,
	}
}

// AddFailedAttempt increments the failure counter for ip. Reaching the
// configured maximum converts the IP into a ban with a deadline and clears
// the counter.
func (m *Manager) AddFailedAttempt(ip string) {
	m.attempts[ip]++
	if m.attempts[ip] >= m.maxAttempts {
		m.banned[ip] = m.now().Add(m.banDuration)
		delete(m.attempts, ip)
	}
}

// Banned reports whether ip is currently locked out, and for how much
// longer. An expired ban is removed on this check rather than by a timer.
func (m *Manager) Banned(ip string) (bool, time.Duration) {
	deadline, ok := m.banned[ip]
	if !ok {
		return false, 0
	}
	remaining := deadline.Sub(m.now())
	if remaining <= 0 {
		delete(m.banned, ip)
		return false, 0
	}
	return true, remaining
}

// ClearAttempts resets the failure counter for ip. An active ban is not
// lifted.
func (m *Manager) ClearAttempts(ip string) {
	delete(m.attempts, ip)
}
