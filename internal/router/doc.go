// Package router coordinates a node's hybrid clock and vector clock.
//
// The router owns one instance of each and exposes a single ingress
// operation. An inbound packet carries a remote hybrid timestamp and a
// remote vector-clock map; the hybrid merge runs first and may reject
// on skew or malformed input, and only on success does the vector merge
// and the local increment happen. Every failure is converted into a
// logged diagnostic plus a false return, with state untouched, so the
// router remains usable after any rejection.
//
// Both clocks are guarded by a single mutex as one transactional unit:
// a concurrent observer never sees a hybrid update without the matching
// vector merge, or vice versa.
package router
