package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dchrnv/neurograph-core/internal/connection"
)

var (
	bootstrapDBPath   string
	bootstrapSeedPath string
)

// seedEntry is one manually provenanced connection in a seed file.
type seedEntry struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Kind         string  `json:"kind"`
	Mutability   string  `json:"mutability,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	PullStrength float64 `json:"pull_strength,omitempty"`
	Rigidity     float64 `json:"rigidity,omitempty"`
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Seed manual connections into a fresh database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if bootstrapDBPath == "" || bootstrapSeedPath == "" {
			return fmt.Errorf("--db and --seed are required")
		}

		data, err := os.ReadFile(bootstrapSeedPath)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		var entries []seedEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse seed file: %w", err)
		}

		db, err := connection.OpenDB(bootstrapDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		store := connection.NewStore()
		if err := db.Load(store); err != nil {
			return err
		}

		added := 0
		for i, e := range entries {
			if _, exists := store.FindByEndpoints(e.Source, e.Target, connection.Kind(e.Kind)); exists {
				continue
			}
			c, err := connection.New(e.Source, e.Target, connection.Kind(e.Kind), connection.Mutability(e.Mutability))
			if err != nil {
				return fmt.Errorf("seed entry %d: %w", i, err)
			}
			if c.Mutability != connection.Immutable && e.Confidence > 0 {
				c.Confidence = e.Confidence
			}
			if e.PullStrength > 0 {
				c.PullStrength = e.PullStrength
			}
			if e.Rigidity > 0 {
				c.Rigidity = e.Rigidity
			}
			store.Put(c)
			added++
		}

		if err := db.Save(store); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d connections (%d total)\n", added, store.Len())
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().StringVar(&bootstrapDBPath, "db", "", "path to neurograph.db")
	bootstrapCmd.Flags().StringVar(&bootstrapSeedPath, "seed", "", "path to seed JSON")
}
