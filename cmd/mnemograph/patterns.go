package mnemograph

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mnemograph/mnemograph/pkg/types"
)

var detectCmd = &cobra.Command{
	Use:   "detect-patterns",
	Short: "Mine the graph for behavioral patterns",
	Long: `Detect-patterns runs one detection batch: seed-and-expand clustering
per category, a keyword fallback pass, pattern upserts, and memory<->code
cross-link mining under relationship caps. Stored patterns print as JSON.`,
	RunE: runDetect,
}

var (
	detectTypes   []string
	detectLimit   int
	detectTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringSliceVar(&detectTypes, "type", nil,
		"Pattern type(s) to detect (default all): debugging, learning, refactoring, problem_solving, memory_code_relationship")
	detectCmd.Flags().IntVar(&detectLimit, "limit", 0, "Max patterns to store per type (0 = unlimited)")
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 5*time.Minute, "Batch timeout")
}

func runDetect(cmd *cobra.Command, args []string) error {
	client, logger, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), detectTimeout)
	defer cancel()
	defer client.Close(context.Background())

	patternTypes := make([]types.PatternType, 0, len(detectTypes))
	for _, t := range detectTypes {
		patternTypes = append(patternTypes, types.PatternType(t))
	}

	batchID := uuid.NewString()
	logger.Info("starting pattern detection", "batch_id", batchID)

	stored, err := client.DetectPatterns(ctx, batchID, patternTypes, detectLimit, callerScope())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stored)
}
