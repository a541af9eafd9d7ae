package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dchrnv/neurograph-core/internal/audit"
	"github.com/dchrnv/neurograph-core/internal/connection"
)

var (
	inspectDBPath string
	inspectLast   int
	inspectJSON   bool
	inspectAudit  bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the connection population and recent audit history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectDBPath == "" {
			return fmt.Errorf("--db is required")
		}
		db, err := connection.OpenDB(inspectDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		store := connection.NewStore()
		if err := db.Load(store); err != nil {
			return err
		}

		if inspectAudit {
			return printAudit(cmd, db, inspectLast)
		}
		return printConnections(cmd, store)
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDBPath, "db", "", "path to neurograph.db")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "audit rows to show")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
	inspectCmd.Flags().BoolVar(&inspectAudit, "audit", false, "show audit history instead of connections")
}

// #region connections
func printConnections(cmd *cobra.Command, store *connection.Store) error {
	var conns []connection.Connection
	store.ForEach(func(c connection.Connection) {
		conns = append(conns, c)
	})
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].CreatedAt.Before(conns[j].CreatedAt)
	})

	out := cmd.OutOrStdout()
	if inspectJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(conns)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSource\tTarget\tKind\tTier\tConf\tEvidence\tStrength\n")
	for _, c := range conns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.3f\t%d\t%.2f\n",
			c.ID.String()[:8], c.Source, c.Target, c.Kind, c.Mutability,
			c.Confidence, c.EvidenceCount, c.PullStrength)
	}
	w.Flush()
	fmt.Fprintf(out, "%d connections\n", len(conns))
	return nil
}

// #endregion connections

// #region audit
func printAudit(cmd *cobra.Command, db *connection.DB, last int) error {
	logger, err := audit.NewLogger(db.SQL())
	if err != nil {
		return err
	}

	proposals, err := logger.RecentProposals(last)
	if err != nil {
		return err
	}
	decisions, err := logger.RecentDecisions(last)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if inspectJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Proposals []audit.ProposalRecord `json:"proposals"`
			Decisions []audit.DecisionRecord `json:"decisions"`
		}{proposals, decisions})
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Proposal\tType\tAccepted\tReason\tWhen\n")
	for _, p := range proposals {
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
			p.ProposalID[:8], p.ProposalType, p.Accepted, p.Reason,
			p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Path\tConfidence\tElapsed(ns)\tOutcome\tWhen\n")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%.3f\t%d\t%s\t%s\n",
			d.Path, d.Confidence, d.ElapsedNanos, d.Outcome,
			d.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	return nil
}

// #endregion audit
