package vclock

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode returns a deterministic node ID; the numeric suffix controls
// how IDs sort, which matters for prune tie-break tests.
func testNode(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func TestVector_Increment(t *testing.T) {
	owner := testNode(1)
	v := New(owner)

	v.Increment()
	v.Increment()
	v.Increment()

	assert.Equal(t, uint64(3), v.Get(owner))
	assert.Equal(t, 1, v.Len())
}

func TestVector_Merge_ElementWiseMax(t *testing.T) {
	v := New(testNode(1))
	v.Set(testNode(2), 3)
	v.Set(testNode(3), 1)

	v.Merge(map[uuid.UUID]uint64{
		testNode(2): 2, // lower, kept at 3
		testNode(3): 5, // higher, taken
		testNode(4): 1, // absent locally, taken
	})

	assert.Equal(t, uint64(3), v.Get(testNode(2)))
	assert.Equal(t, uint64(5), v.Get(testNode(3)))
	assert.Equal(t, uint64(1), v.Get(testNode(4)))
}

func TestVector_Merge_Idempotent(t *testing.T) {
	remote := map[uuid.UUID]uint64{testNode(2): 4, testNode(3): 7}

	once := New(testNode(1))
	once.Merge(remote)

	twice := New(testNode(1))
	twice.Merge(remote)
	twice.Merge(remote)

	assert.True(t, once.Equal(twice), "merging the same map twice should equal merging it once")
}

func TestVector_Merge_OrderIndependent(t *testing.T) {
	a := map[uuid.UUID]uint64{testNode(2): 4, testNode(3): 1}
	b := map[uuid.UUID]uint64{testNode(2): 2, testNode(4): 9}

	ab := New(testNode(1))
	ab.Merge(a)
	ab.Merge(b)

	ba := New(testNode(1))
	ba.Merge(b)
	ba.Merge(a)

	assert.True(t, ab.Equal(ba), "merge order must not affect the result")
}

func TestVector_Merge_PrunesAboveCapacity(t *testing.T) {
	// 26 distinct non-owner entries with counters 1..26 plus the owner
	// pushes the vector over the default capacity of 25. One pruning
	// pass removes floor(25*0.2)=5 entries, lowest counters first.
	owner := testNode(1)
	v := New(owner)
	v.Increment() // owner counter 1, the lowest value in the map

	remote := make(map[uuid.UUID]uint64, 26)
	for i := 1; i <= 26; i++ {
		remote[testNode(100+i)] = uint64(i)
	}
	v.Merge(remote)

	assert.Equal(t, 22, v.Len(), "27 entries minus 5 evicted")
	assert.Equal(t, uint64(1), v.Get(owner), "owner is never evicted, even at the lowest counter")
	for i := 1; i <= 5; i++ {
		assert.Zero(t, v.Get(testNode(100+i)), "entry with counter %d should be evicted", i)
	}
	for i := 6; i <= 26; i++ {
		assert.Equal(t, uint64(i), v.Get(testNode(100+i)))
	}
}

func TestVector_Merge_NoPruneAtCapacity(t *testing.T) {
	// Eviction fires only when the size strictly exceeds capacity.
	v := New(testNode(1), WithMaxSize(5))

	remote := make(map[uuid.UUID]uint64, 5)
	for i := 1; i <= 5; i++ {
		remote[testNode(100+i)] = uint64(i)
	}
	v.Merge(remote)

	assert.Equal(t, 5, v.Len())
}

func TestVector_Prune_TieBreakByNodeID(t *testing.T) {
	// All non-owner counters equal: the lowest node IDs go first, so
	// two identical vectors prune identically.
	build := func() *Vector {
		v := New(testNode(1), WithMaxSize(4), WithPruneRatio(0.5))
		remote := make(map[uuid.UUID]uint64, 5)
		for i := 1; i <= 5; i++ {
			remote[testNode(100+i)] = 7
		}
		v.Merge(remote)
		return v
	}

	a, b := build(), build()
	require.True(t, a.Equal(b), "pruning must be deterministic")
	assert.Equal(t, 3, a.Len(), "floor(4*0.5)=2 entries evicted from 5")
	assert.Zero(t, a.Get(testNode(101)))
	assert.Zero(t, a.Get(testNode(102)))
	assert.Equal(t, uint64(7), a.Get(testNode(105)))
}

func TestVector_Prune_CappedAtAvailableEntries(t *testing.T) {
	// Fewer non-owner entries than the eviction count: the pass removes
	// what it can and stops.
	v := New(testNode(1), WithMaxSize(2), WithPruneRatio(1.0))
	v.Increment()
	v.Merge(map[uuid.UUID]uint64{testNode(2): 1, testNode(3): 2})

	assert.Equal(t, 1, v.Len())
	assert.Equal(t, uint64(1), v.Get(testNode(1)), "only the owner survives")
}

func TestVector_Compare(t *testing.T) {
	mk := func(counters map[uuid.UUID]uint64) *Vector {
		v := New(testNode(1))
		for node, c := range counters {
			v.Set(node, c)
		}
		return v
	}

	tests := []struct {
		name string
		a, b *Vector
		want Relation
	}{
		{
			name: "equal",
			a:    mk(map[uuid.UUID]uint64{testNode(2): 1, testNode(3): 2}),
			b:    mk(map[uuid.UUID]uint64{testNode(2): 1, testNode(3): 2}),
			want: Equal,
		},
		{
			name: "before",
			a:    mk(map[uuid.UUID]uint64{testNode(2): 1}),
			b:    mk(map[uuid.UUID]uint64{testNode(2): 2, testNode(3): 1}),
			want: Before,
		},
		{
			name: "after",
			a:    mk(map[uuid.UUID]uint64{testNode(2): 3, testNode(3): 1}),
			b:    mk(map[uuid.UUID]uint64{testNode(2): 2}),
			want: After,
		},
		{
			name: "concurrent",
			a:    mk(map[uuid.UUID]uint64{testNode(2): 2, testNode(3): 1}),
			b:    mk(map[uuid.UUID]uint64{testNode(2): 1, testNode(3): 2}),
			want: Concurrent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestVector_Merge_DominatesBothInputs(t *testing.T) {
	a := New(testNode(1))
	a.Set(testNode(2), 1)
	a.Set(testNode(3), 4)

	b := New(testNode(1))
	b.Set(testNode(2), 3)
	b.Set(testNode(4), 2)

	merged := a.Copy()
	merged.Merge(b.Counters())

	for _, in := range []*Vector{a, b} {
		rel := merged.Compare(in)
		assert.True(t, rel == After || rel == Equal, "merged vector must dominate or equal its inputs, got %v", rel)
	}
}

func TestVector_Copy_Independent(t *testing.T) {
	v := New(testNode(1))
	v.Increment()

	c := v.Copy()
	require.True(t, v.Equal(c))

	c.Increment()
	assert.NotEqual(t, v.Get(testNode(1)), c.Get(testNode(1)), "mutating the copy must not touch the original")
}

func TestVector_String_Deterministic(t *testing.T) {
	v := New(testNode(1))
	assert.Equal(t, "{}", v.String())

	v.Set(testNode(2), 5)
	v.Set(testNode(1), 1)
	want := fmt.Sprintf("{%s:1, %s:5}", testNode(1), testNode(2))
	assert.Equal(t, want, v.String())
}
