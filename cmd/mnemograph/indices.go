package mnemograph

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indicesCmd = &cobra.Command{
	Use:   "init-indices",
	Short: "Create the vector and ownership indices",
	RunE:  runInitIndices,
}

func init() {
	rootCmd.AddCommand(indicesCmd)
}

func runInitIndices(cmd *cobra.Command, args []string) error {
	client, logger, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	defer client.Close(context.Background())

	if err := client.CreateIndices(ctx); err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}
	logger.Info("indices created")
	return nil
}
