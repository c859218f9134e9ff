// Command tripctl administers the trip assistant database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/trip-assistant/internal/config"
	"github.com/capitalize-ai/trip-assistant/internal/model"
	"github.com/capitalize-ai/trip-assistant/internal/repository"
)

type options struct {
	driver string
	dsn    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	root := &cobra.Command{
		Use:           "tripctl",
		Short:         "Administer the trip assistant database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.driver, "driver", cfg.DatabaseDriver, "database driver (postgres or sqlite3)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", cfg.DatabaseURL, "database connection string")

	root.AddCommand(newMigrateCommand(opts), newSeedCommand(opts), newCitiesCommand(opts))
	return root
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repository.Open(cmd.Context(), repository.Config{Driver: opts.driver, DSN: opts.dsn})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert catalog attractions from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			attractions, err := loadAttractions(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			db, err := repository.Open(cmd.Context(), repository.Config{Driver: opts.driver, DSN: opts.dsn})
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.NewAttractionRepository(db).Upsert(cmd.Context(), attractions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d attractions\n", len(attractions))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with an attractions list")
	cobra.CheckErr(cmd.MarkFlagRequired("file"))
	return cmd
}

func newCitiesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities present in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCities(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}

func listCities(ctx context.Context, opts *options, out io.Writer) error {
	db, err := repository.Open(ctx, repository.Config{Driver: opts.driver, DSN: opts.dsn})
	if err != nil {
		return err
	}
	defer db.Close()

	cities, err := repository.NewAttractionRepository(db).Cities(ctx)
	if err != nil {
		return err
	}
	for _, c := range cities {
		fmt.Fprintln(out, c)
	}
	return nil
}

type seedFile struct {
	Attractions []model.Attraction `yaml:"attractions"`
}

// loadAttractions reads a seed file. Every entry needs a name and a city.
func loadAttractions(r io.Reader) ([]model.Attraction, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range seed.Attractions {
		a := &seed.Attractions[i]
		a.Name = strings.TrimSpace(a.Name)
		a.City = strings.TrimSpace(a.City)
		if a.Name == "" || a.City == "" {
			return nil, fmt.Errorf("attraction %d: name and city are required", i+1)
		}
	}
	if len(seed.Attractions) == 0 {
		return nil, fmt.Errorf("no attractions found")
	}
	return seed.Attractions, nil
}
