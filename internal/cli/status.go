package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tessellate-io/causeway/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Node     string // optional - specific node only
}

// NodeStatus is the persisted clock state for one node.
type NodeStatus struct {
	NodeID     string            `json:"node_id"`
	Physical   int64             `json:"physical"`
	Logical    uint32            `json:"logical"`
	Accepted   uint64            `json:"accepted"`
	Rejected   uint64            `json:"rejected"`
	VectorSize int               `json:"vector_size"`
	Vector     map[string]uint64 `json:"vector"`
}

// StatusResult holds the overall status output.
type StatusResult struct {
	Nodes []NodeStatus `json:"nodes"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show persisted clock state",
		Long: `Show the persisted clock snapshots in a causeway database.

Examples:
  causeway status --db ./causeway.db
  causeway status --db ./causeway.db --node 00000000-0000-0000-0000-000000000001
  causeway status --db ./causeway.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Node, "node", "", "show a specific node only")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var nodes []uuid.UUID
	if opts.Node != "" {
		id, err := uuid.Parse(opts.Node)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid node id", err)
		}
		nodes = []uuid.UUID{id}
	} else {
		nodes, err = st.ListNodes(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list nodes", err)
		}
	}

	result := StatusResult{Nodes: make([]NodeStatus, 0, len(nodes))}
	for _, id := range nodes {
		snap, err := st.LoadSnapshot(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load node %s", id), err)
		}

		vector := make(map[string]uint64, len(snap.Vector))
		for node, counter := range snap.Vector {
			vector[node.String()] = counter
		}
		result.Nodes = append(result.Nodes, NodeStatus{
			NodeID:     id.String(),
			Physical:   snap.Timestamp.Physical,
			Logical:    snap.Timestamp.Logical,
			Accepted:   snap.Stats.Accepted,
			Rejected:   snap.Stats.Rejected,
			VectorSize: len(snap.Vector),
			Vector:     vector,
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out := cmd.OutOrStdout()
	if len(result.Nodes) == 0 {
		fmt.Fprintln(out, "No nodes found in database.")
		return nil
	}
	for _, n := range result.Nodes {
		fmt.Fprintf(out, "node %s: clock (%d, %d), %d accepted, %d rejected\n",
			n.NodeID, n.Physical, n.Logical, n.Accepted, n.Rejected)
		keys := make([]string, 0, len(n.Vector))
		for k := range n.Vector {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %d\n", k, n.Vector[k])
		}
	}
	return nil
}
