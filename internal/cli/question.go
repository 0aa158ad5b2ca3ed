package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewQuestionCmd prints one generated question, handy for checking a catalog source.
func NewQuestionCmd(configPath *string) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Generate questions from the configured catalog and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuestion(cmd.Context(), cmd.OutOrStdout(), *configPath, count)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of questions to generate")
	return cmd
}

func runQuestion(ctx context.Context, out io.Writer, configPath string, count int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	catalog, err := b.catalog(cfg)
	if err != nil {
		return err
	}
	reg, err := registry(cfg)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		q, err := reg.Generate(ctx, catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Q: %s\nA: %s\n", q.Prompt(), q.DisplayAnswer())
	}
	return nil
}
