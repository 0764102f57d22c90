package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessellate-io/causeway/internal/hlc"
	"github.com/tessellate-io/causeway/internal/router"
	"github.com/tessellate-io/causeway/internal/vclock"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh router with the scenario's fixed
// node ID and a scripted physical sampler, so traces are reproducible
// byte for byte.
//
// Execution flow:
// 1. Build a router from the scenario's identity and tuning knobs
// 2. Feed packets in order, scripting the sample per step
// 3. Validate each packet's expect clause against the ingress result
// 4. Evaluate assertions against totals and the final snapshot
func Run(scenario *Scenario) (*Result, error) {
	nodeID, err := uuid.Parse(scenario.NodeID)
	if err != nil {
		return nil, fmt.Errorf("scenario node_id: %w", err)
	}

	sample := scenario.StartAt
	clockOpts := []hlc.Option{hlc.WithSampler(func() int64 { return sample })}
	if scenario.MaxSkewNS > 0 {
		clockOpts = append(clockOpts, hlc.WithMaxSkew(scenario.MaxSkewNS))
	}

	var vopts []vclock.Option
	if scenario.MaxVectorSize > 0 {
		vopts = append(vopts, vclock.WithMaxSize(scenario.MaxVectorSize))
	}
	if scenario.PruneRatio > 0 {
		vopts = append(vopts, vclock.WithPruneRatio(scenario.PruneRatio))
	}

	r := router.New(
		router.WithID(nodeID),
		router.WithClock(hlc.New(clockOpts...)),
		router.WithVectorOptions(vopts...),
		router.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := NewResult()
	for i, p := range scenario.Packets {
		if p.At != 0 {
			sample = p.At
		}

		accepted := r.Ingress(nil, router.RemoteStamp{
			Physical: p.Physical,
			Logical:  p.Logical,
			Origin:   p.Origin,
		}, p.Vector)

		result.AddPacketTrace(i+1, p.Origin, accepted, r.Snapshot())

		switch {
		case p.Expect == ExpectAccept && !accepted:
			result.AddError(fmt.Sprintf("packets[%d]: expected accept, got reject", i))
		case p.Expect == ExpectReject && accepted:
			result.AddError(fmt.Sprintf("packets[%d]: expected reject, got accept", i))
		}
	}

	result.Final = r.Snapshot()

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(result.Final, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}
