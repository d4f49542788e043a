package credential

import (
	"errors"
	"sync"
	"time"
)

// ErrNoCredentials is returned by Next when a category has no usable slot:
// either nothing is configured or every slot is cooling down. Callers skip
// the provider for the current round; the registry never retries internally.
var ErrNoCredentials = errors.New("no usable credentials for category")

// DefaultCooldown is how long a slot stays blacklisted after a failure.
const DefaultCooldown = 300 * time.Second

// slotHealth tracks the rotation state of a single credential slot.
// PerformanceScore grows with fast successes and shrinks on failures;
// it is never decayed over time, so an early run of fast responses keeps
// a slot preferred until it actually fails.
type slotHealth struct {
	cred             Credential
	performanceScore int
	blacklistedUntil time.Time
}

// SlotHealth is the read-only view exposed by Snapshot.
type SlotHealth struct {
	Slot             int
	PerformanceScore int
	Blacklisted      bool
}

type category struct {
	mu    sync.Mutex
	slots []*slotHealth
}

// RegistryConfig tunes the health registry.
type RegistryConfig struct {
	// Cooldown is how long a slot remains blacklisted after a failure.
	Cooldown time.Duration
	// Now is the clock used for blacklist checks; defaults to time.Now.
	Now func() time.Time
}

// Registry tracks per-slot health on top of a credential Pool and picks the
// best available slot per category. Blacklist expiry is evaluated lazily at
// selection time, so no background timers are involved and ReportFailure
// never blocks.
type Registry struct {
	pool     *Pool
	cooldown time.Duration
	now      func() time.Time

	mu   sync.RWMutex
	cats map[string]*category
}

// NewRegistry creates a registry over the given pool.
func NewRegistry(pool *Pool, cfg RegistryConfig) *Registry {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		pool:     pool,
		cooldown: cfg.Cooldown,
		now:      cfg.Now,
		cats:     make(map[string]*category),
	}
}

// category returns the state for a category, creating it lazily from the
// pool on first use. Different categories never share a lock.
func (r *Registry) category(name string) *category {
	r.mu.RLock()
	c, ok := r.cats[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cats[name]; ok {
		return c
	}

	c = &category{}
	for _, cred := range r.pool.Get(name) {
		c.slots = append(c.slots, &slotHealth{cred: cred})
	}
	r.cats[name] = c
	return c
}

// Next returns the credential of the best available slot for a category:
// highest performance score first, ties broken by lowest slot index.
// Slots whose blacklist deadline is still in the future are skipped.
// Selection is read-only; the caller reports the outcome separately.
func (r *Registry) Next(categoryName string) (Credential, error) {
	c := r.category(categoryName)

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.slots) == 0 {
		return Credential{}, ErrNoCredentials
	}

	now := r.now()
	var best *slotHealth
	for _, s := range c.slots {
		if s.blacklistedUntil.After(now) {
			continue
		}
		if best == nil || s.performanceScore > best.performanceScore {
			best = s
		}
	}
	if best == nil {
		return Credential{}, ErrNoCredentials
	}
	return best.cred, nil
}

// ReportSuccess credits a slot after a successful call. Faster responses
// earn more; even a very slow success earns at least one point.
func (r *Registry) ReportSuccess(categoryName string, slot int, elapsed time.Duration) {
	c := r.category(categoryName)

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.slot(slot)
	if s == nil {
		return
	}
	gain := 10 - int(elapsed.Seconds())
	if gain < 1 {
		gain = 1
	}
	s.performanceScore += gain
}

// ReportFailure debits a slot and blacklists it for the cooldown window.
// The slot becomes selectable again once the deadline passes; nothing is
// scheduled and the caller is never blocked.
func (r *Registry) ReportFailure(categoryName string, slot int) {
	c := r.category(categoryName)

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.slot(slot)
	if s == nil {
		return
	}
	s.performanceScore--
	s.blacklistedUntil = r.now().Add(r.cooldown)
}

// slot must be called with the category lock held.
func (c *category) slot(index int) *slotHealth {
	for _, s := range c.slots {
		if s.cred.Slot == index {
			return s
		}
	}
	return nil
}

// Snapshot returns the current health of every slot the registry has
// touched, keyed by category. Used for the end-of-run report.
func (r *Registry) Snapshot() map[string][]SlotHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]SlotHealth, len(r.cats))
	now := r.now()
	for name, c := range r.cats {
		c.mu.Lock()
		for _, s := range c.slots {
			out[name] = append(out[name], SlotHealth{
				Slot:             s.cred.Slot,
				PerformanceScore: s.performanceScore,
				Blacklisted:      s.blacklistedUntil.After(now),
			})
		}
		c.mu.Unlock()
	}
	return out
}
