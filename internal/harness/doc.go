// Package harness provides conformance testing for the causality core.
//
// The harness runs packet scenarios against a router with scripted
// physical time, producing a deterministic trace of accept/reject
// outcomes and clock readings for golden snapshot comparison.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	node_id: "00000000-0000-0000-0000-000000000001"
//	start_at: 1000
//	max_vector_size: 25
//	prune_ratio: 0.2
//	packets:
//	  - at: 1000
//	    physical: 1000
//	    logical: 2
//	    origin: "00000000-0000-0000-0000-000000000002"
//	    vector:
//	      "00000000-0000-0000-0000-000000000002": 4
//	    expect: accept
//	assertions:
//	  - type: accepted
//	    count: 1
//	  - type: clock
//	    physical: 1000
//	    logical: 3
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - accepted: total accepted packets equals count
//   - rejected: total rejected packets equals count
//   - clock: final hybrid reading equals (physical, logical)
//   - vector: final counter for a node equals counter
//
// # Deterministic Testing
//
// The scenario's node_id pins the router identity and each packet's
// "at" field scripts the physical sample the merge sees, so repeated
// runs produce byte-identical traces for golden file comparison.
package harness
