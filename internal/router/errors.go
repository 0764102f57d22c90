package router

import (
	"errors"
	"fmt"
)

// MalformedPacketError reports a structurally invalid inbound packet:
// a timestamp origin or vector key that does not parse as a UUID. Like
// a skew rejection it covers the whole packet; no partial merge is
// applied.
type MalformedPacketError struct {
	// Field names the offending part of the packet.
	Field string

	// Value is the raw input that failed to parse.
	Value string

	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *MalformedPacketError) Error() string {
	return fmt.Sprintf("malformed packet: %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *MalformedPacketError) Unwrap() error {
	return e.Err
}

// IsMalformed returns true if the error is a malformed-packet rejection.
// Uses errors.As to handle wrapped errors.
func IsMalformed(err error) bool {
	var me *MalformedPacketError
	return errors.As(err, &me)
}
