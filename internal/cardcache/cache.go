package cardcache

import (
	"sync"

	"github.com/DoyleJ11/cards-client/pkg/types"
)

// Card text is immutable game content, so the cache is process-wide: it
// outlives any single session and survives reconnects. White and black ids
// are separate namespaces; the same numeric id may name two different cards.

type Namespace string

const (
	White Namespace = "white"
	Black Namespace = "black"
)

type State int

const (
	Unknown State = iota
	Pending
	Resolved
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Entry is a point-in-time view of one id. Record is non-nil only when
// State is Resolved.
type Entry struct {
	State  State
	Record *types.CardRecord
}

type key struct {
	ns Namespace
	id types.CardID
}

// Cache tracks which card ids have been requested and which have text. The
// event loop is the only writer, but snapshot readers run on other
// goroutines, and Reconcile's mark-then-return must stay atomic, so all
// access goes through one mutex.
type Cache struct {
	mu      sync.Mutex
	entries map[key]Entry
}

func New() *Cache {
	return &Cache{entries: make(map[key]Entry)}
}

// Lookup never fails; ids the cache has not seen read as Unknown.
func (c *Cache) Lookup(ns Namespace, id types.CardID) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key{ns, id}]
}

// MarkPending records that a fetch for id is in flight. It reports whether
// the id was newly marked; an id already Pending or Resolved is left alone
// so it is never re-requested.
func (c *Cache) MarkPending(ns Namespace, id types.CardID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markPendingLocked(ns, id)
}

func (c *Cache) markPendingLocked(ns Namespace, id types.CardID) bool {
	k := key{ns, id}
	if c.entries[k].State != Unknown {
		return false
	}
	c.entries[k] = Entry{State: Pending}
	return true
}

// Resolve stores the record for id. The usual transition is Pending ->
// Resolved, but an unsolicited push resolves straight from Unknown. A
// duplicate resolve overwrites: last write wins.
func (c *Cache) Resolve(ns Namespace, id types.CardID, rec types.CardRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := rec
	c.entries[key{ns, id}] = Entry{State: Resolved, Record: &r}
}

// Reconcile takes the ids a view currently needs and returns the subset that
// has never been seen, marking each of those Pending in the same critical
// section. Callers batch the returned ids into one outbound fetch. Calling
// again with the same ids returns nothing, which is what keeps duplicate
// in-flight requests from ever being sent.
func (c *Cache) Reconcile(ns Namespace, ids []types.CardID) []types.CardID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var missing []types.CardID
	for _, id := range ids {
		if c.markPendingLocked(ns, id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// Reset drops everything. Only for an explicit full restart; a normal
// reconnect keeps the cache since card text never changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[key]Entry)
}

// Len reports how many ids the cache has seen, in any state.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
