// Package vclock implements a bounded vector clock for tracking
// causality between nodes.
//
// Each vector is owned by exactly one node and maps node IDs to event
// counters. Merging takes the element-wise maximum, which makes merge
// idempotent, commutative, and associative. To keep memory bounded
// under membership churn, a vector over capacity evicts a batch of its
// lowest-valued entries; the owner's entry is never evicted. The bound
// is approximate by design: eviction fires only after the threshold is
// exceeded and removes a fixed count, trading strict capacity
// enforcement for a single O(n log n) pruning pass. Causal information
// about evicted (rarely communicating) nodes is lost.
package vclock
