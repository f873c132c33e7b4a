package watch

import "Lodugramwebserver/internal/domain"

// GreetingTracker decides which greetings in an inbox snapshot are new
// for one live connection. It remembers the ids of the previous
// snapshot; a greeting counts as new when it is unread and was absent
// from that set. State is connection-local: the first snapshot primes
// the set without reporting anything, so a fresh connection never
// re-announces old greetings.
type GreetingTracker struct {
	seen   map[string]struct{}
	primed bool
}

func NewGreetingTracker() *GreetingTracker {
	return &GreetingTracker{seen: make(map[string]struct{})}
}

// Observe takes the full inbox snapshot and returns the greetings to
// announce. The seen set is replaced wholesale with the snapshot's ids.
func (t *GreetingTracker) Observe(snapshot []domain.Greeting) []domain.Greeting {
	next := make(map[string]struct{}, len(snapshot))
	var fresh []domain.Greeting
	for _, g := range snapshot {
		next[g.ID] = struct{}{}
		if !t.primed {
			continue
		}
		if g.Read {
			continue
		}
		if _, ok := t.seen[g.ID]; ok {
			continue
		}
		fresh = append(fresh, g)
	}
	t.seen = next
	t.primed = true
	return fresh
}
