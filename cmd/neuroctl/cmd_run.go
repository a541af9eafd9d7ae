package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dchrnv/neurograph-core/internal/arbiter"
	"github.com/dchrnv/neurograph-core/internal/audit"
	"github.com/dchrnv/neurograph-core/internal/config"
	"github.com/dchrnv/neurograph-core/internal/connection"
	"github.com/dchrnv/neurograph-core/internal/constitution"
	"github.com/dchrnv/neurograph-core/internal/guardian"
	"github.com/dchrnv/neurograph-core/internal/index"
	"github.com/dchrnv/neurograph-core/internal/learner"
	"github.com/dchrnv/neurograph-core/internal/learnstats"
	"github.com/dchrnv/neurograph-core/internal/metrics"
	"github.com/dchrnv/neurograph-core/internal/policy"
	"github.com/dchrnv/neurograph-core/internal/temporal"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the decision core with an interactive console",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if runConfigPath != "" {
			var err error
			cfg, err = config.Load(runConfigPath)
			if err != nil {
				return err
			}
		}
		return runLoop(cmd, cfg)
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to runtime YAML config")
}

// #region run-loop
func runLoop(cmd *cobra.Command, cfg config.Config) error {
	holder, err := constitution.NewHolder(cfg.Constitution)
	if err != nil {
		return err
	}

	db, err := connection.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := connection.NewStore()
	if err := db.Load(store); err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	auditLog, err := audit.NewLogger(db.SQL())
	if err != nil {
		return err
	}

	validator := guardian.NewValidator(store, holder)
	tracker := learnstats.NewTracker(store)
	detector := temporal.NewDetector(store, cfg.Learner.CoOccurrenceMin)
	loop := learner.New(store, tracker, detector, validator, auditLog, cfg.Learner)

	codec := index.DefaultCodec()
	lookup := index.New(store, codec)

	provider, err := policy.NewClient(cfg.PolicyAddr)
	if err != nil {
		return err
	}
	defer provider.Close()

	stats := arbiter.NewStats()
	arb := arbiter.New(lookup, validator, provider, codec, holder, cfg.ArbiterConfig(), stats)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go loop.Run(ctx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(stats))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("[RUN] metrics server: %v", err)
			}
		}()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "neurograph core ready: %d connections | db=%s | policy=%s\n",
		store.Len(), cfg.DBPath, cfg.PolicyAddr)
	fmt.Fprintln(out, "commands: decide <v,v,...> | bind <conn-id> <v,v,...> | outcome <conn-id> ok|fail | cooccur <a> <b> <delta-ms> | stats | save | quit")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := dispatch(ctx, out, line, arb, lookup, loop, db, store, auditLog); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}

	return db.Save(store)
}

// #endregion run-loop

// #region dispatch
func dispatch(
	ctx context.Context,
	out io.Writer,
	line string,
	arb *arbiter.Arbiter,
	lookup *index.Index,
	loop *learner.Learner,
	db *connection.DB,
	store *connection.Store,
	auditLog *audit.Logger,
) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "decide":
		if len(fields) != 2 {
			return fmt.Errorf("usage: decide <v,v,...>")
		}
		state, err := parseVector(fields[1])
		if err != nil {
			return err
		}
		d := arb.Decide(ctx, state)
		fmt.Fprintf(out, "%s confidence=%.4f elapsed=%v", d.Path, d.Confidence, d.Elapsed)
		if d.Path == arbiter.PathReflex {
			fmt.Fprintf(out, " connection=%s", d.ConnectionID)
		}
		if d.Reason != "" {
			fmt.Fprintf(out, " reason=%q", d.Reason)
		}
		fmt.Fprintln(out)
		connID := ""
		if d.ConnectionID != uuid.Nil {
			connID = d.ConnectionID.String()
		}
		return auditLog.LogDecision(audit.DecisionRecord{
			Path:         string(d.Path),
			Confidence:   d.Confidence,
			ElapsedNanos: d.Elapsed.Nanoseconds(),
			ConnectionID: connID,
			Reason:       d.Reason,
		})

	case "bind":
		if len(fields) != 3 {
			return fmt.Errorf("usage: bind <conn-id> <v,v,...>")
		}
		id, err := uuid.Parse(fields[1])
		if err != nil {
			return fmt.Errorf("parse connection id: %w", err)
		}
		state, err := parseVector(fields[2])
		if err != nil {
			return err
		}
		lookup.Bind(state, id)
		fmt.Fprintf(out, "bound %d regions\n", lookup.Len())
		return nil

	case "outcome":
		if len(fields) != 3 {
			return fmt.Errorf("usage: outcome <conn-id> ok|fail")
		}
		id, err := uuid.Parse(fields[1])
		if err != nil {
			return fmt.Errorf("parse connection id: %w", err)
		}
		loop.ObserveOutcome(id, fields[2] == "ok")
		return nil

	case "cooccur":
		if len(fields) != 4 {
			return fmt.Errorf("usage: cooccur <a> <b> <delta-ms>")
		}
		ms, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return fmt.Errorf("parse delta: %w", err)
		}
		v := loop.ObserveCoOccurrence(temporal.Observation{
			A:     fields[1],
			B:     fields[2],
			Delta: time.Duration(ms) * time.Millisecond,
		})
		if v != nil {
			fmt.Fprintf(out, "pattern proposal %s accepted=%v\n", v.ProposalID, v.Accepted)
		}
		return nil

	case "stats":
		s := arb.Stats().Snapshot()
		fmt.Fprintf(out, "reflex=%d reasoning=%d failsafe=%d rejections=%d low_conf=%d timeouts=%d usage=%.1f%% speedup=%.2fx\n",
			s.ReflexCount, s.ReasoningCount, s.FailsafeCount, s.ReflexRejections,
			s.LowConfidenceFallbacks, s.PolicyTimeouts, s.ReflexUsagePercent, s.SpeedupFactor)
		return nil

	case "save":
		if err := db.Save(store); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d connections\n", store.Len())
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// #endregion dispatch

// #region parse-vector
func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector component %q: %w", p, err)
		}
		vec = append(vec, float32(v))
	}
	return vec, nil
}

// #endregion parse-vector
