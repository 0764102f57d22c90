package hlc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSkew is the maximum tolerated absolute difference between a
// fresh local physical sample and a remote physical reading, in
// nanoseconds. Remote timestamps outside this window are rejected.
const DefaultMaxSkew = int64(5 * time.Second)

// Timestamp is an immutable hybrid clock reading.
//
// Physical is a nanosecond-resolution reading of the node's physical
// time source. Logical is the tie-break counter used when physical time
// does not strictly advance. Origin identifies the node that produced
// the timestamp; it breaks ties for a total order but carries no causal
// meaning.
type Timestamp struct {
	Physical int64
	Logical  uint32
	Origin   uuid.UUID
}

// Compare orders two timestamps by (Physical, Logical), with Origin as
// the final tie-break. Returns -1, 0, or 1.
func (t Timestamp) Compare(other Timestamp) int {
	switch {
	case t.Physical < other.Physical:
		return -1
	case t.Physical > other.Physical:
		return 1
	case t.Logical < other.Logical:
		return -1
	case t.Logical > other.Logical:
		return 1
	}
	return strings.Compare(t.Origin.String(), other.Origin.String())
}

// Before reports whether t orders strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	return t.Compare(other) < 0
}

// After reports whether t orders strictly after other.
func (t Timestamp) After(other Timestamp) bool {
	return t.Compare(other) > 0
}

// String returns a fixed-width, lexicographically sortable rendering.
func (t Timestamp) String() string {
	return fmt.Sprintf("%019d-%010d-%s", t.Physical, t.Logical, t.Origin)
}

// Sampler reads the physical time source, in nanoseconds. Samplers must
// be non-blocking and safe to call from any goroutine.
type Sampler func() int64

// Clock produces and merges hybrid timestamps against an injectable
// physical time source.
//
// Thread-safety: Clock holds only immutable configuration, so it is safe
// for concurrent use as long as the configured Sampler is.
type Clock struct {
	sample  Sampler
	maxSkew int64
}

// Option configures a Clock.
type Option func(*Clock)

// WithSampler replaces the physical time source. Tests and replay
// tooling use this to script time.
func WithSampler(s Sampler) Option {
	return func(c *Clock) {
		c.sample = s
	}
}

// WithMaxSkew overrides the skew rejection window, in nanoseconds.
func WithMaxSkew(ns int64) Option {
	return func(c *Clock) {
		c.maxSkew = ns
	}
}

// New creates a Clock reading time.Now().UnixNano() with the default
// skew window.
func New(opts ...Option) *Clock {
	c := &Clock{
		sample:  func() int64 { return time.Now().UnixNano() },
		maxSkew: DefaultMaxSkew,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxSkew returns the configured skew rejection window in nanoseconds.
func (c *Clock) MaxSkew() int64 {
	return c.maxSkew
}

// Now samples the physical source and returns a fresh timestamp for the
// given origin with a zero logical counter.
func (c *Clock) Now(origin uuid.UUID) Timestamp {
	return Timestamp{Physical: c.sample(), Logical: 0, Origin: origin}
}

// Update merges a remote timestamp into a local one and returns the
// merged reading.
//
// A fresh physical sample is taken at call time; reusing a cached
// reading would let skew detection drift from real elapsed time. If the
// remote physical reading is further than MaxSkew from the fresh
// sample, Update returns a *SkewError and no merged value.
//
// The merged physical component is the three-way max of the sample and
// both inputs. If that max collapses to the pre-existing local and
// remote values (the sample did not advance past either side), causal
// order is carried by the logical counter: max(local, remote) + 1.
// Otherwise physical time strictly advanced and the counter resets to
// zero. The result always carries the local origin.
func (c *Clock) Update(local, remote Timestamp) (Timestamp, error) {
	sampled := c.sample()
	if skew := abs(sampled - remote.Physical); skew > c.maxSkew {
		return Timestamp{}, &SkewError{
			Sampled: sampled,
			Remote:  remote.Physical,
			Skew:    skew,
			MaxSkew: c.maxSkew,
		}
	}

	physical := max3(sampled, remote.Physical, local.Physical)
	var logical uint32
	if physical == local.Physical && physical == remote.Physical {
		logical = maxu32(local.Logical, remote.Logical) + 1
	}
	return Timestamp{Physical: physical, Logical: logical, Origin: local.Origin}, nil
}

// SkewError reports a remote physical reading outside the tolerated
// window. It is a hard rejection: the failed merge has no side effects.
type SkewError struct {
	Sampled int64 // fresh local sample taken at merge time
	Remote  int64 // remote physical reading
	Skew    int64 // absolute difference
	MaxSkew int64 // configured window
}

// Error implements the error interface.
func (e *SkewError) Error() string {
	return fmt.Sprintf("clock skew violation: remote physical %d is %dns from local sample %d (max %dns)",
		e.Remote, e.Skew, e.Sampled, e.MaxSkew)
}

// IsSkew returns true if the error is a skew rejection.
// Uses errors.As to handle wrapped errors.
func IsSkew(err error) bool {
	var se *SkewError
	return errors.As(err, &se)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func max3(a, b, c int64) int64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
