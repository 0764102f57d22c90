package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tessellate-io/causeway/internal/config"
	"github.com/tessellate-io/causeway/internal/hlc"
	"github.com/tessellate-io/causeway/internal/router"
	"github.com/tessellate-io/causeway/internal/store"
	"github.com/tessellate-io/causeway/internal/vclock"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Config   string
	Packets  string
	Database string
}

// Packet is one inbound packet in a packet file.
type Packet struct {
	Physical int64             `yaml:"physical"`
	Logical  uint32            `yaml:"logical,omitempty"`
	Origin   string            `yaml:"origin"`
	Vector   map[string]uint64 `yaml:"vector,omitempty"`
}

// PacketResult is the per-packet ingest outcome.
type PacketResult struct {
	Seq      int    `json:"seq"`
	Origin   string `json:"origin"`
	Accepted bool   `json:"accepted"`
}

// IngestResult is the overall ingest outcome.
type IngestResult struct {
	NodeID     string         `json:"node_id"`
	Accepted   uint64         `json:"accepted"`
	Rejected   uint64         `json:"rejected"`
	Physical   int64          `json:"physical"`
	Logical    uint32         `json:"logical"`
	VectorSize int            `json:"vector_size"`
	Packets    []PacketResult `json:"packets"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Feed a packet file through a node's clocks",
		Long: `Feed inbound packets through a node's hybrid and vector clocks and
report per-packet accept/reject outcomes plus the final clock state.

Acceptance or rejection of individual packets is a normal outcome, not
a command failure: skewed or malformed packets are rejected, logged,
and counted.

With --db, the node's clock state is restored from the database before
ingesting and saved back afterwards, so causality survives restarts.

Examples:
  causeway ingest --packets packets.yaml
  causeway ingest --config node.cue --packets packets.yaml --db ./causeway.db
  causeway ingest --packets packets.yaml --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to CUE node config")
	cmd.Flags().StringVar(&opts.Packets, "packets", "", "path to YAML packet file (required)")
	_ = cmd.MarkFlagRequired("packets")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (overrides config)")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	packets, err := loadPackets(opts.Packets)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load packets", err)
	}

	nodeID := uuid.New()
	if cfg.NodeID != "" {
		nodeID = uuid.MustParse(cfg.NodeID) // validated by config.Load
	}

	dbPath := cfg.DB
	if opts.Database != "" {
		dbPath = opts.Database
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	routerOpts := []router.Option{
		router.WithID(nodeID),
		router.WithClock(hlc.New(hlc.WithMaxSkew(cfg.MaxSkew))),
		router.WithVectorOptions(
			vclock.WithMaxSize(cfg.MaxVectorSize),
			vclock.WithPruneRatio(cfg.PruneRatio),
		),
		router.WithLogger(logger),
	}

	var st *store.Store
	if dbPath != "" {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		snap, err := st.LoadSnapshot(ctx, nodeID)
		switch {
		case err == nil:
			routerOpts = append(routerOpts, router.WithSnapshot(snap))
		case errors.Is(err, store.ErrNotFound):
			// First run for this node.
		default:
			return WrapExitError(ExitCommandError, "failed to load snapshot", err)
		}
	}

	r := router.New(routerOpts...)

	result := IngestResult{
		NodeID:  r.ID().String(),
		Packets: make([]PacketResult, 0, len(packets)),
	}
	for i, p := range packets {
		accepted := r.Ingress(nil, router.RemoteStamp{
			Physical: p.Physical,
			Logical:  p.Logical,
			Origin:   p.Origin,
		}, p.Vector)
		result.Packets = append(result.Packets, PacketResult{
			Seq:      i + 1,
			Origin:   p.Origin,
			Accepted: accepted,
		})
	}

	snap := r.Snapshot()
	result.Accepted = snap.Stats.Accepted
	result.Rejected = snap.Stats.Rejected
	result.Physical = snap.Timestamp.Physical
	result.Logical = snap.Timestamp.Logical
	result.VectorSize = len(snap.Vector)

	if st != nil {
		if err := st.SaveSnapshot(ctx, snap); err != nil {
			return WrapExitError(ExitCommandError, "failed to save snapshot", err)
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	for _, p := range result.Packets {
		verdict := "accepted"
		if !p.Accepted {
			verdict = "rejected"
		}
		fmt.Fprintf(out, "[%d] %s from %s\n", p.Seq, verdict, p.Origin)
	}
	fmt.Fprintf(out, "node %s: %d accepted, %d rejected\n", result.NodeID, result.Accepted, result.Rejected)
	fmt.Fprintf(out, "clock (%d, %d), %d vector entries\n", result.Physical, result.Logical, result.VectorSize)
	return nil
}

// loadPackets reads a YAML packet file: a list of remote tuples plus
// counter maps. Unknown fields are rejected to catch typos.
func loadPackets(path string) ([]Packet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read packet file: %w", err)
	}

	var packets []Packet
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&packets); err != nil {
		return nil, fmt.Errorf("parse packet file: %w", err)
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("packet file is empty")
	}

	for i, p := range packets {
		if p.Origin == "" {
			return nil, fmt.Errorf("packets[%d]: origin is required", i)
		}
	}
	return packets, nil
}
