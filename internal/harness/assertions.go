package harness

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tessellate-io/causeway/internal/router"
)

// AssertionError is returned when an assertion fails. Expected and
// Actual are human-readable so failures can be pasted into a report.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluateAssertion checks one assertion against the final snapshot.
// Assertion types are validated at load time, so an unknown type here
// is a programming error.
func evaluateAssertion(final router.Snapshot, a Assertion) error {
	switch a.Type {
	case AssertAccepted:
		if final.Stats.Accepted != a.Count {
			return &AssertionError{
				Type:     AssertAccepted,
				Expected: fmt.Sprintf("%d accepted", a.Count),
				Actual:   fmt.Sprintf("%d accepted", final.Stats.Accepted),
			}
		}
	case AssertRejected:
		if final.Stats.Rejected != a.Count {
			return &AssertionError{
				Type:     AssertRejected,
				Expected: fmt.Sprintf("%d rejected", a.Count),
				Actual:   fmt.Sprintf("%d rejected", final.Stats.Rejected),
			}
		}
	case AssertClock:
		if final.Timestamp.Physical != a.Physical || final.Timestamp.Logical != a.Logical {
			return &AssertionError{
				Type:     AssertClock,
				Expected: fmt.Sprintf("(%d, %d)", a.Physical, a.Logical),
				Actual:   fmt.Sprintf("(%d, %d)", final.Timestamp.Physical, final.Timestamp.Logical),
			}
		}
	case AssertVector:
		node := uuid.MustParse(a.Node) // validated at load time
		if got := final.Vector[node]; got != a.Counter {
			return &AssertionError{
				Type:     AssertVector,
				Expected: fmt.Sprintf("%s=%d", a.Node, a.Counter),
				Actual:   fmt.Sprintf("%s=%d", a.Node, got),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
