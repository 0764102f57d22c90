package vclock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultMaxSize is the capacity threshold above which a merge
	// triggers eviction.
	DefaultMaxSize = 25

	// DefaultPruneRatio is the fraction of capacity evicted per
	// pruning pass.
	DefaultPruneRatio = 0.2
)

// Vector is a bounded vector clock owned by a single node.
//
// Thread-safety: Vector is not safe for concurrent use; serialization
// is the caller's responsibility.
type Vector struct {
	owner      uuid.UUID
	counters   map[uuid.UUID]uint64
	maxSize    int
	pruneRatio float64
}

// Option configures a Vector.
type Option func(*Vector)

// WithMaxSize overrides the capacity threshold.
func WithMaxSize(n int) Option {
	return func(v *Vector) {
		v.maxSize = n
	}
}

// WithPruneRatio overrides the fraction of capacity evicted per pass.
func WithPruneRatio(r float64) Option {
	return func(v *Vector) {
		v.pruneRatio = r
	}
}

// New creates an empty vector owned by the given node.
func New(owner uuid.UUID, opts ...Option) *Vector {
	v := &Vector{
		owner:      owner,
		counters:   make(map[uuid.UUID]uint64),
		maxSize:    DefaultMaxSize,
		pruneRatio: DefaultPruneRatio,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Owner returns the owning node's identifier.
func (v *Vector) Owner() uuid.UUID {
	return v.owner
}

// Increment advances the owner's counter by one, recording a local
// event. It has no failure mode.
func (v *Vector) Increment() {
	v.counters[v.owner]++
}

// Get returns the counter for the given node, or 0 if not present.
func (v *Vector) Get(node uuid.UUID) uint64 {
	return v.counters[node]
}

// Len returns the number of tracked entries.
func (v *Vector) Len() int {
	return len(v.counters)
}

// Counters returns a copy of the counter map.
func (v *Vector) Counters() map[uuid.UUID]uint64 {
	out := make(map[uuid.UUID]uint64, len(v.counters))
	for node, counter := range v.counters {
		out[node] = counter
	}
	return out
}

// Set sets the counter for the given node. Used when restoring a
// persisted vector; merges and local events should go through Merge and
// Increment.
func (v *Vector) Set(node uuid.UUID, counter uint64) {
	v.counters[node] = counter
}

// Merge folds a remote counter map into the vector, taking the
// element-wise maximum for each node. If the merge pushes the vector
// over capacity, a pruning pass evicts the lowest-valued entries.
func (v *Vector) Merge(remote map[uuid.UUID]uint64) {
	for node, counter := range remote {
		if counter > v.counters[node] {
			v.counters[node] = counter
		}
	}
	if len(v.counters) > v.maxSize {
		v.prune()
	}
}

// prune evicts floor(maxSize * pruneRatio) entries, lowest counter
// first, skipping the owner unconditionally. Ties break by node ID so
// the pass is deterministic.
func (v *Vector) prune() {
	type entry struct {
		node    uuid.UUID
		counter uint64
	}
	entries := make([]entry, 0, len(v.counters))
	for node, counter := range v.counters {
		entries = append(entries, entry{node, counter})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].counter != entries[j].counter {
			return entries[i].counter < entries[j].counter
		}
		return entries[i].node.String() < entries[j].node.String()
	})

	cutoff := int(float64(v.maxSize) * v.pruneRatio)
	pruned := 0
	for _, e := range entries {
		if pruned >= cutoff {
			break
		}
		if e.node == v.owner {
			continue
		}
		delete(v.counters, e.node)
		pruned++
	}
}

// Copy creates a deep copy of the vector with the same configuration.
func (v *Vector) Copy() *Vector {
	out := New(v.owner, WithMaxSize(v.maxSize), WithPruneRatio(v.pruneRatio))
	for node, counter := range v.counters {
		out.counters[node] = counter
	}
	return out
}

// Relation is the causal relationship between two vectors.
type Relation int

const (
	// Before indicates this vector happened before the other.
	Before Relation = iota
	// After indicates this vector happened after the other.
	After
	// Concurrent indicates no causal relationship in either direction.
	Concurrent
	// Equal indicates identical counters.
	Equal
)

// Compare returns the causal relationship between v and other.
func (v *Vector) Compare(other *Vector) Relation {
	if v.Equal(other) {
		return Equal
	}

	nodes := make(map[uuid.UUID]struct{}, len(v.counters)+len(other.counters))
	for node := range v.counters {
		nodes[node] = struct{}{}
	}
	for node := range other.counters {
		nodes[node] = struct{}{}
	}

	var less, greater bool
	for node := range nodes {
		a, b := v.counters[node], other.counters[node]
		if a < b {
			less = true
		} else if a > b {
			greater = true
		}
	}

	switch {
	case less && !greater:
		return Before
	case greater && !less:
		return After
	}
	return Concurrent
}

// Equal reports whether both vectors hold identical counters.
func (v *Vector) Equal(other *Vector) bool {
	if len(v.counters) != len(other.counters) {
		return false
	}
	for node, counter := range v.counters {
		if other.counters[node] != counter {
			return false
		}
	}
	return true
}

// String returns a deterministic rendering, entries sorted by node ID.
func (v *Vector) String() string {
	if len(v.counters) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(v.counters))
	byKey := make(map[string]uint64, len(v.counters))
	for node, counter := range v.counters {
		s := node.String()
		keys = append(keys, s)
		byKey[s] = counter
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, byKey[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
