// Package config loads node configuration from CUE files.
//
// The user file is unified with an embedded #Config schema, so tuning
// knobs are validated and defaulted in one step. All knobs map to the
// clock packages' options: the skew window, the vector capacity, and
// the prune ratio.
package config
