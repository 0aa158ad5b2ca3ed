package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"trivia-bot/internal/config"
	"trivia-bot/internal/domain"
	pgstore "trivia-bot/internal/infra/postgres"
)

var topicKinds = []domain.TopicKind{domain.KindChampion, domain.KindItem, domain.KindSummonerSpell}

// NewSeedCmd copies topics from a file or Data Dragon into the Postgres topics table.
func NewSeedCmd(configPath *string) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import catalog topics into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, source)
		},
	}
	cmd.Flags().StringVar(&source, "from", config.CatalogDDragon, "topic source to import: file or ddragon")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, source string) error {
	if source != config.CatalogFile && source != config.CatalogDDragon {
		return fmt.Errorf("seed source must be %q or %q", config.CatalogFile, config.CatalogDDragon)
	}
	log := newLogger(cfg)
	if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
		return err
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	srcCfg := cfg
	srcCfg.Catalog.Source = source
	if source == config.CatalogFile && srcCfg.Catalog.File == "" {
		srcCfg.Catalog.File = "config/topics.yaml"
	}
	loader, err := b.topicLoader(srcCfg)
	if err != nil {
		return err
	}

	dest := pgstore.NewTopicLoader(b.pool)
	for _, kind := range topicKinds {
		topics, err := loader.LoadTopics(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s topics: %w", kind, err)
		}
		if err := dest.SaveTopics(ctx, topics); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"kind": kind, "count": len(topics)}).Info("topics imported")
	}
	return nil
}
