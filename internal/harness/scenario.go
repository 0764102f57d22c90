package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a scripted sequence of
// inbound packets fed to a single router with deterministic time.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// NodeID is the router's fixed identity. Required: a generated ID
	// would break golden comparison.
	NodeID string `yaml:"node_id"`

	// StartAt is the physical sample the router reads at construction.
	StartAt int64 `yaml:"start_at,omitempty"`

	// MaxSkewNS optionally overrides the skew rejection window.
	MaxSkewNS int64 `yaml:"max_skew_ns,omitempty"`

	// MaxVectorSize optionally overrides the vector capacity threshold.
	MaxVectorSize int `yaml:"max_vector_size,omitempty"`

	// PruneRatio optionally overrides the eviction ratio.
	PruneRatio float64 `yaml:"prune_ratio,omitempty"`

	// Packets is the inbound packet sequence, applied in order.
	Packets []PacketStep `yaml:"packets"`

	// Assertions validate totals and final clock state after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// PacketStep is one inbound packet plus the physical sample the merge
// observes when it arrives.
type PacketStep struct {
	// At scripts the router's physical sample for this packet. Zero
	// means "unchanged since the previous step".
	At int64 `yaml:"at,omitempty"`

	// Physical, Logical, Origin form the remote hybrid tuple.
	Physical int64  `yaml:"physical"`
	Logical  uint32 `yaml:"logical,omitempty"`
	Origin   string `yaml:"origin"`

	// Vector is the remote counter map, keyed by UUID string.
	Vector map[string]uint64 `yaml:"vector,omitempty"`

	// Expect is "accept" or "reject"; empty skips validation.
	Expect string `yaml:"expect,omitempty"`
}

// Expect values for PacketStep.
const (
	ExpectAccept = "accept"
	ExpectReject = "reject"
)

// Assertion validates totals or final clock state.
type Assertion struct {
	// Type is one of accepted, rejected, clock, vector.
	Type string `yaml:"type"`

	// Count is the expected total (accepted, rejected).
	Count uint64 `yaml:"count,omitempty"`

	// Node is the vector entry's node ID (vector).
	Node string `yaml:"node,omitempty"`

	// Counter is the expected vector entry value (vector).
	Counter uint64 `yaml:"counter,omitempty"`

	// Physical and Logical are the expected final reading (clock).
	Physical int64  `yaml:"physical,omitempty"`
	Logical  uint32 `yaml:"logical,omitempty"`
}

// Assertion type constants.
const (
	AssertAccepted = "accepted"
	AssertRejected = "rejected"
	AssertClock    = "clock"
	AssertVector   = "vector"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and identifier shapes before
// execution, so failures point at the scenario file rather than at a
// mid-run rejection.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.NodeID == "" {
		return fmt.Errorf("node_id is required")
	}
	if _, err := uuid.Parse(s.NodeID); err != nil {
		return fmt.Errorf("node_id: %w", err)
	}
	if len(s.Packets) == 0 {
		return fmt.Errorf("at least one packet is required")
	}

	for i, p := range s.Packets {
		if p.Origin == "" {
			return fmt.Errorf("packets[%d]: origin is required", i)
		}
		switch p.Expect {
		case "", ExpectAccept, ExpectReject:
		default:
			return fmt.Errorf("packets[%d]: expect must be %q or %q, got %q", i, ExpectAccept, ExpectReject, p.Expect)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertAccepted, AssertRejected, AssertClock:
		case AssertVector:
			if _, err := uuid.Parse(a.Node); err != nil {
				return fmt.Errorf("assertions[%d]: node: %w", i, err)
			}
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}

	return nil
}
