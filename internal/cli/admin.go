package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/app"
)

// NewSeedCmd inserts the built-in question set.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in questions and categories (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			created, err := rt.replenisher.SeedFallback(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d questions\n", created)
			return nil
		},
	}
}

// NewReplenishCmd tops up the question pool from the generator.
func NewReplenishCmd(configPath *string) *cobra.Command {
	var req app.PoolRequest
	cmd := &cobra.Command{
		Use:   "replenish",
		Short: "Generate questions until the pool reaches the minimum",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			count, err := rt.service.Replenish(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "question pool holds %d questions\n", count)
			return nil
		},
	}
	cmd.Flags().IntVar(&req.MinCount, "min", 0, "minimum pool size (default from config)")
	cmd.Flags().IntVar(&req.MaxAttempts, "max-attempts", 0, "generator call budget (default from config)")
	cmd.Flags().StringVar(&req.Topic, "topic", "", "optional topic hint")
	return cmd
}

// NewPurgeCmd deletes every stored question.
func NewPurgeCmd(configPath *string) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all questions and the answers referencing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without --yes")
			}
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.service.PurgeQuestions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d questions\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
