package router

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tessellate-io/causeway/internal/hlc"
	"github.com/tessellate-io/causeway/internal/vclock"
)

// RemoteStamp is the raw hybrid timestamp tuple supplied by a transport
// layer. Origin is a UUID string; parsing it is the router's job.
type RemoteStamp struct {
	Physical int64
	Logical  uint32
	Origin   string
}

// Stats counts ingress outcomes since construction.
type Stats struct {
	Accepted uint64
	Rejected uint64
}

// Snapshot is a consistent copy of a router's state, taken under the
// same lock that guards ingress. Used for status reporting and by the
// optional persistence collaborator.
type Snapshot struct {
	NodeID    uuid.UUID
	Timestamp hlc.Timestamp
	Vector    map[uuid.UUID]uint64
	Stats     Stats
}

// Router owns a node's hybrid clock reading and vector clock.
//
// Thread-safety: all methods are safe for concurrent use. A single
// mutex guards both clocks so each ingress is observed as one atomic
// step.
type Router struct {
	mu     sync.Mutex
	id     uuid.UUID
	clock  *hlc.Clock
	local  hlc.Timestamp
	vector *vclock.Vector
	logger *slog.Logger
	stats  Stats
}

type routerConfig struct {
	id      uuid.UUID
	clock   *hlc.Clock
	logger  *slog.Logger
	vopts   []vclock.Option
	restore *Snapshot
}

// Option configures a Router.
type Option func(*routerConfig)

// WithID supplies the node identifier instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(c *routerConfig) {
		c.id = id
	}
}

// WithClock replaces the hybrid clock, typically to inject a scripted
// sampler or a non-default skew window.
func WithClock(clock *hlc.Clock) Option {
	return func(c *routerConfig) {
		c.clock = clock
	}
}

// WithLogger replaces the rejection diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *routerConfig) {
		c.logger = logger
	}
}

// WithVectorOptions forwards options to the owned vector clock.
func WithVectorOptions(opts ...vclock.Option) Option {
	return func(c *routerConfig) {
		c.vopts = append(c.vopts, opts...)
	}
}

// WithSnapshot restores a previously persisted state: node ID, hybrid
// reading, and vector counters. Overrides WithID.
func WithSnapshot(snap Snapshot) Option {
	return func(c *routerConfig) {
		c.restore = &snap
	}
}

// New creates a Router for a fresh node. Without options it generates a
// node ID, reads the real clock, and logs through slog.Default().
func New(opts ...Option) *Router {
	cfg := routerConfig{
		id:     uuid.New(),
		clock:  hlc.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Router{
		id:     cfg.id,
		clock:  cfg.clock,
		logger: cfg.logger,
	}
	if cfg.restore != nil {
		r.id = cfg.restore.NodeID
		r.local = cfg.restore.Timestamp
		r.vector = vclock.New(r.id, cfg.vopts...)
		for node, counter := range cfg.restore.Vector {
			r.vector.Set(node, counter)
		}
		r.stats = cfg.restore.Stats
		return r
	}

	r.local = r.clock.Now(r.id)
	r.vector = vclock.New(r.id, cfg.vopts...)
	return r
}

// ID returns the node identifier this router was constructed with.
func (r *Router) ID() uuid.UUID {
	return r.id
}

// Ingress merges one inbound packet into the router's state.
//
// The payload is opaque: it is accepted for the caller's correlation
// purposes but never inspected or stored. The remote tuple and vector
// are parsed first; then the hybrid merge runs against a fresh physical
// sample. Any failure - malformed input or skew - is logged and
// answered with false, leaving all state exactly as before the call.
// On success the merged timestamp is committed, the remote vector is
// folded in, and the local counter advances to record the observation.
func (r *Router) Ingress(payload any, remote RemoteStamp, remoteVector map[string]uint64) bool {
	_ = payload

	r.mu.Lock()
	defer r.mu.Unlock()

	remoteTS, counters, err := parsePacket(remote, remoteVector)
	if err != nil {
		r.reject(err)
		return false
	}

	merged, err := r.clock.Update(r.local, remoteTS)
	if err != nil {
		r.reject(err)
		return false
	}

	r.local = merged
	r.vector.Merge(counters)
	r.vector.Increment()
	r.stats.Accepted++

	r.logger.Debug("packet accepted",
		"node", r.id,
		"timestamp", merged,
		"vector_size", r.vector.Len(),
	)
	return true
}

// reject records a failed ingress. Caller holds the lock.
func (r *Router) reject(err error) {
	r.stats.Rejected++
	r.logger.Warn("packet rejected",
		"node", r.id,
		"reason", err,
		"skew", hlc.IsSkew(err),
	)
}

// Snapshot returns a consistent copy of the router's state.
func (r *Router) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		NodeID:    r.id,
		Timestamp: r.local,
		Vector:    r.vector.Counters(),
		Stats:     r.stats,
	}
}

// parsePacket validates the raw remote tuple and vector map. Parsing
// happens before any state is touched so a malformed packet cannot
// leave a partial merge behind.
func parsePacket(remote RemoteStamp, remoteVector map[string]uint64) (hlc.Timestamp, map[uuid.UUID]uint64, error) {
	origin, err := uuid.Parse(remote.Origin)
	if err != nil {
		return hlc.Timestamp{}, nil, &MalformedPacketError{Field: "timestamp origin", Value: remote.Origin, Err: err}
	}

	counters := make(map[uuid.UUID]uint64, len(remoteVector))
	for key, counter := range remoteVector {
		node, err := uuid.Parse(key)
		if err != nil {
			return hlc.Timestamp{}, nil, &MalformedPacketError{Field: "vector key", Value: key, Err: err}
		}
		counters[node] = counter
	}

	ts := hlc.Timestamp{
		Physical: remote.Physical,
		Logical:  remote.Logical,
		Origin:   origin,
	}
	return ts, counters, nil
}
