package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	NodeID       string
	Trace        []TraceEvent
	Final        map[string]any
}

// toCanonicalMap converts the snapshot for canonical JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		traceList[i] = map[string]any{
			"seq":         event.Seq,
			"origin":      event.Origin,
			"accepted":    event.Accepted,
			"physical":    event.Physical,
			"logical":     event.Logical,
			"vector_size": event.VectorSize,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"node_id":       s.NodeID,
		"trace":         traceList,
		"final":         s.Final,
	}
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails; a trace mismatch fails
// the test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		NodeID:       scenario.NodeID,
		Trace:        result.Trace,
		Final:        finalToMap(result),
	}

	traceJSON, err := marshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}

// finalToMap renders the final snapshot with stringly-keyed vector
// entries so it can pass through canonical marshalling, which sorts
// object keys itself.
func finalToMap(result *Result) map[string]any {
	vector := make(map[string]any, len(result.Final.Vector))
	for node, counter := range result.Final.Vector {
		vector[node.String()] = counter
	}

	return map[string]any{
		"physical": result.Final.Timestamp.Physical,
		"logical":  result.Final.Timestamp.Logical,
		"accepted": result.Final.Stats.Accepted,
		"rejected": result.Final.Stats.Rejected,
		"vector":   vector,
	}
}
