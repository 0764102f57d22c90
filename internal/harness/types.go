package harness

import "github.com/tessellate-io/causeway/internal/router"

// TraceEvent records one packet's outcome and the router's reading
// immediately after it. Rejected packets repeat the prior reading,
// which is exactly the no-mutation contract the trace should witness.
type TraceEvent struct {
	Seq        int    `json:"seq"`
	Origin     string `json:"origin"`
	Accepted   bool   `json:"accepted"`
	Physical   int64  `json:"physical"`
	Logical    uint32 `json:"logical"`
	VectorSize int    `json:"vector_size"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and
	// assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one event per packet, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the router snapshot after the last packet.
	Final router.Snapshot `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []TraceEvent{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddPacketTrace appends one packet outcome to the trace.
func (r *Result) AddPacketTrace(seq int, origin string, accepted bool, snap router.Snapshot) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:        seq,
		Origin:     origin,
		Accepted:   accepted,
		Physical:   snap.Timestamp.Physical,
		Logical:    snap.Timestamp.Logical,
		VectorSize: len(snap.Vector),
	})
}
