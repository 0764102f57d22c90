// Package hlc implements a hybrid logical clock for causally ordering
// events across nodes.
//
// A hybrid timestamp pairs a nanosecond physical reading with a logical
// tie-break counter. When physical time strictly advances the counter
// resets to zero; when it does not, the counter alone preserves causal
// order. Remote readings further than MaxSkew from the local physical
// source are rejected outright rather than merged.
//
// Timestamps are immutable values. The clock itself holds no timestamp
// state; callers own their current reading and pass it to Update, which
// makes the merge trivially side-effect free on rejection.
package hlc
