package store

import (
	"errors"
	"time"

	"github.com/hms/hms/pkg/shape"
)

// Entity is the contract every cached record satisfies.
type Entity[T any] interface {
	Key() string
	WithKey(id string) T
	// Touched stamps missing created time and refreshes the update time.
	Touched(at time.Time) T
	Normalized() T
}

// Patch is a shallow update applied to one cached record.
type Patch[T any] interface {
	Apply(T) T
}

// SyncState tracks a record against the backend after an optimistic change.
type SyncState string

const (
	StatePending   SyncState = "pending"
	StateConfirmed SyncState = "confirmed"
	StateFailed    SyncState = "failed"
)

// SyncStatus is the sync state of one record plus the last failure.
type SyncStatus struct {
	State SyncState `json:"state"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// Collection is one ordered cached resource. It shares the owning store's
// lock so a full sync can replace every collection at once.
type Collection[T Entity[T]] struct {
	name   string
	s      *Store
	items  []T
	states map[string]SyncStatus
	// local collections have no backend resource.
	local bool
}

func newCollection[T Entity[T]](s *Store, name string) *Collection[T] {
	return &Collection[T]{name: name, s: s, states: map[string]SyncStatus{}}
}

func newLocalCollection[T Entity[T]](s *Store, name string) *Collection[T] {
	c := newCollection[T](s, name)
	c.local = true
	return c
}

// Name is the collection name used in events and routes.
func (c *Collection[T]) Name() string { return c.name }

// Set replaces the collection and clears every sync state.
func (c *Collection[T]) Set(list []T) {
	c.s.mu.Lock()
	c.setLocked(list)
	c.s.enqueue(Event{Collection: c.name, Op: OpSet})
	c.s.mu.Unlock()
	c.s.flush()
}

func (c *Collection[T]) setLocked(list []T) {
	items := make([]T, 0, len(list))
	for _, e := range list {
		items = append(items, e.Normalized())
	}
	c.items = items
	c.states = map[string]SyncStatus{}
}

// Add appends e. A temporary id is assigned only when e has none, and
// created and updated times are stamped when missing.
func (c *Collection[T]) Add(e T) T {
	c.s.mu.Lock()
	e = e.Normalized()
	if e.Key() == "" {
		e = e.WithKey(c.s.newID())
	}
	e = e.Touched(c.s.now())
	c.items = append(c.items, e)
	c.s.enqueue(Event{Collection: c.name, Op: OpAdd, ID: e.Key()})
	c.s.mu.Unlock()
	c.s.flush()
	return e
}

// Update applies patch to the member with id and refreshes its update time.
// It reports false when nothing matched.
func (c *Collection[T]) Update(id string, patch Patch[T]) (T, bool) {
	id = shape.ID(id)
	c.s.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.s.mu.Unlock()
		var zero T
		return zero, false
	}
	e := patch.Apply(c.items[i]).WithKey(id).Normalized().Touched(c.s.now())
	c.items[i] = e
	c.s.enqueue(Event{Collection: c.name, Op: OpUpdate, ID: id})
	c.s.mu.Unlock()
	c.s.flush()
	return e, true
}

// Delete removes the member with id. Unknown ids are a no-op.
func (c *Collection[T]) Delete(id string) bool {
	id = shape.ID(id)
	c.s.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.s.mu.Unlock()
		return false
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	delete(c.states, id)
	c.s.enqueue(Event{Collection: c.name, Op: OpDelete, ID: id})
	c.s.mu.Unlock()
	c.s.flush()
	return true
}

// Replace swaps the member with id, temporary or confirmed, for e. The
// member keeps its position and its sync state moves to e's id.
func (c *Collection[T]) Replace(id string, e T) bool {
	id = shape.ID(id)
	c.s.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.s.mu.Unlock()
		return false
	}
	e = e.Normalized()
	if e.Key() == "" {
		e = e.WithKey(id)
	}
	c.items[i] = e
	if e.Key() != id {
		// A sync may already have loaded the confirmed copy.
		for j := len(c.items) - 1; j >= 0; j-- {
			if j != i && c.items[j].Key() == e.Key() {
				c.items = append(c.items[:j:j], c.items[j+1:]...)
			}
		}
	}
	if st, ok := c.states[id]; ok && e.Key() != id {
		delete(c.states, id)
		c.states[e.Key()] = st
	}
	c.s.enqueue(Event{Collection: c.name, Op: OpReplace, ID: e.Key()})
	c.s.mu.Unlock()
	c.s.flush()
	return true
}

// Upsert replaces the member sharing e's id or appends e.
func (c *Collection[T]) Upsert(e T) T {
	e = e.Normalized()
	c.s.mu.Lock()
	op := OpReplace
	if i := c.indexLocked(e.Key()); i >= 0 {
		c.items[i] = e
	} else {
		if e.Key() == "" {
			e = e.WithKey(c.s.newID())
		}
		e = e.Touched(c.s.now())
		c.items = append(c.items, e)
		op = OpAdd
	}
	c.s.enqueue(Event{Collection: c.name, Op: op, ID: e.Key()})
	c.s.mu.Unlock()
	c.s.flush()
	return e
}

// All returns a copy of the members in order.
func (c *Collection[T]) All() []T {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return c.allLocked()
}

func (c *Collection[T]) allLocked() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the member with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	id = shape.ID(id)
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range c.items {
		if e.Key() == id {
			return i
		}
	}
	return -1
}

// -- Sync state --

func (c *Collection[T]) MarkPending(id string) { c.mark(id, StatePending, nil) }

func (c *Collection[T]) MarkConfirmed(id string) { c.mark(id, StateConfirmed, nil) }

// MarkFailed records err against id. The member itself is left in place.
func (c *Collection[T]) MarkFailed(id string, err error) { c.mark(id, StateFailed, err) }

func (c *Collection[T]) mark(id string, state SyncState, err error) {
	id = shape.ID(id)
	c.s.mu.Lock()
	if c.indexLocked(id) < 0 {
		c.s.mu.Unlock()
		return
	}
	st := SyncStatus{State: state, At: c.s.now()}
	if err != nil {
		st.Error = err.Error()
	}
	c.states[id] = st
	c.s.enqueue(Event{Collection: c.name, Op: OpMark, ID: id})
	c.s.mu.Unlock()
	c.s.flush()
}

// ErrUnconfirmed is the failure reported for temporary members with no
// recorded state, such as those restored from a snapshot.
var ErrUnconfirmed = errors.New("never confirmed by the backend")

// State returns the sync state of id. Members loaded from the backend that
// were never changed locally report confirmed, as do members of local
// collections. Temporary members of backend collections without a recorded
// state report failed. ok is false for unknown ids.
func (c *Collection[T]) State(id string) (SyncStatus, bool) {
	id = shape.ID(id)
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	if c.indexLocked(id) < 0 {
		return SyncStatus{}, false
	}
	if st, ok := c.states[id]; ok {
		return st, true
	}
	if IsTemp(id) && !c.local {
		return SyncStatus{State: StateFailed, Error: ErrUnconfirmed.Error()}, true
	}
	return SyncStatus{State: StateConfirmed}, true
}

// States returns a copy of every recorded sync state keyed by id.
func (c *Collection[T]) States() map[string]SyncStatus {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := make(map[string]SyncStatus, len(c.states))
	for k, v := range c.states {
		out[k] = v
	}
	return out
}
