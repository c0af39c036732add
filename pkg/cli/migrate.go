package cli

import (
	"context"
	"fmt"

	"github.com/agrilens/agrilens/pkg/cli/config"
	"github.com/agrilens/agrilens/pkg/repository/firestore"
	"github.com/agrilens/agrilens/pkg/repository/postgres"
	"github.com/agrilens/agrilens/pkg/repository/sqlite"
	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create SQL schema or Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Migrate configuration", "repository", repoCfg, "dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, &repoCfg, dryRun)

			case config.BackendSQLite, config.BackendPostgres:
				if dryRun {
					schema := sqlite.Dialect().Schema
					if repoCfg.Backend() == config.BackendPostgres {
						schema = postgres.Dialect().Schema
					}
					for _, stmt := range schema {
						if _, err := fmt.Fprintf(c.Root().Writer, "%s;\n", stmt); err != nil {
							return goerr.Wrap(err, "failed to write schema")
						}
					}
					return nil
				}

				// SQL backends apply their schema when opened
				repo, err := repoCfg.Configure(ctx)
				if err != nil {
					return err
				}
				safe.Close(ctx, repo)
				logger.Info("Schema applied", "backend", repoCfg.Backend())
				return nil

			default:
				logger.Info("Nothing to migrate", "backend", repoCfg.Backend())
				return nil
			}
		},
	}
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()
	if repoCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrInvalidConfig, "firestore-project-id is required")
	}

	indexConfig := getIndexConfig(repoCfg.CollectionPrefix())
	if err := indexConfig.Validate(); err != nil {
		return goerr.Wrap(err, "invalid firestore index config")
	}

	client, err := fireconf.New(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), indexConfig,
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", repoCfg.ProjectID()),
			goerr.V("database_id", repoCfg.DatabaseID()))
	}
	defer safe.Close(ctx, client)

	if dryRun {
		logger.Info("Dry run mode - previewing index changes")
	} else {
		logger.Info("Applying index migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to migrate firestore indexes")
	}
	logger.Info("Index migration completed", "dryRun", dryRun)
	return nil
}

func recordIndex(filterField string) fireconf.Index {
	return fireconf.Index{
		Fields: []fireconf.IndexField{
			{Path: filterField, Order: fireconf.OrderAscending},
			{Path: "RecordedOn", Order: fireconf.OrderAscending},
		},
	}
}

// getIndexConfig returns the Firestore composite indexes used by lookups
func getIndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				// Lookup: Topic ==, CollectedAt >, ordered by CollectedAt
				Name: firestore.CollectionName(prefix, firestore.CollectionFindings),
				Indexes: []fireconf.Index{
					{
						Fields: []fireconf.IndexField{
							{Path: "Topic", Order: fireconf.OrderAscending},
							{Path: "CollectedAt", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name:    firestore.CollectionName(prefix, firestore.CollectionFarming),
				Indexes: []fireconf.Index{recordIndex("CropType")},
			},
			{
				Name:    firestore.CollectionName(prefix, firestore.CollectionMarket),
				Indexes: []fireconf.Index{recordIndex("Product")},
			},
			{
				Name:    firestore.CollectionName(prefix, firestore.CollectionWeather),
				Indexes: []fireconf.Index{recordIndex("Location")},
			},
		},
	}
}
