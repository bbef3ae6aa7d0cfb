package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/logger"
	"github.com/grocer/backend/internal/infrastructure/migration"
	"github.com/grocer/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// schema is the part of migration.Migrator the commands drive
type schema interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

// opener connects to the configured database and prepares a migrator
type opener func(source fs.FS, log *zap.Logger) (schema, error)

type cli struct {
	path     string
	logLevel string
	log      *zap.Logger
	open     opener
}

func (c *cli) source() fs.FS {
	if c.path != "" {
		return os.DirFS(c.path)
	}
	return migrations.FS
}

// withSchema opens the database for the duration of one command
func (c *cli) withSchema(fn func(cmd *cobra.Command, s schema, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := c.open(c.source(), c.log)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				c.log.Warn("Closing migrator failed", zap.Error(err))
			}
		}()
		return fn(cmd, s, args)
	}
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the Grocer database schema",
		Long:          "Apply and inspect the SQL migrations of the Grocer backend.\nThe connection comes from config.toml and GROCER_DATABASE_* variables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			c.log = logger.New(logger.Config{Level: c.logLevel, Format: "console", Output: "stderr"})
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = c.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.path, "path", "", "read migrations from this directory instead of the embedded set")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "debug, info, warn or error")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  c.withSchema(func(_ *cobra.Command, s schema, _ []string) error { return s.Up() }),
		},
		c.downCmd(),
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations, or roll back when n is negative",
			Args:  cobra.ExactArgs(1),
			RunE: c.withSchema(func(_ *cobra.Command, s schema, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return s.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: c.withSchema(func(_ *cobra.Command, s schema, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return s.GoTo(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied version",
			Args:  cobra.NoArgs,
			RunE: c.withSchema(func(cmd *cobra.Command, s schema, _ []string) error {
				v, dirty, err := s.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d dirty=%t\n", v, dirty)
				return nil
			}),
		},
		c.statusCmd(),
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it",
			Args:  cobra.ExactArgs(1),
			RunE: c.withSchema(func(_ *cobra.Command, s schema, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return s.Force(v)
			}),
		},
		c.createCmd(),
		&cobra.Command{
			Use:   "list",
			Short: "List available migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.ListMigrations(c.source())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			},
		},
	)
	return root
}

func (c *cli) downCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all data",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if !confirm {
				return errors.New("rolling back every migration drops all data; pass --confirm")
			}
			return nil
		},
		RunE: c.withSchema(func(_ *cobra.Command, s schema, _ []string) error { return s.Down() }),
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping all data")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show each migration and whether it is applied",
		Args:  cobra.NoArgs,
		RunE: c.withSchema(func(cmd *cobra.Command, s schema, _ []string) error {
			current, dirty, err := s.Version()
			if err != nil {
				return err
			}
			statuses, err := migration.Status(c.source(), current)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
			for _, st := range statuses {
				fmt.Fprintf(w, "%d\t%s\t%t\n", st.Version, st.Name, st.Applied)
			}
			if dirty {
				fmt.Fprintf(w, "\nversion %d is dirty; fix it and run force\n", current)
			}
			return w.Flush()
		}),
	}
}

func (c *cli) createCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.path
			if dir == "" {
				dir = "migrations"
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "comment written into the up file")
	return cmd
}

// openMigrator connects with the configured DSN
func openMigrator(source fs.FS, log *zap.Logger) (schema, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.Database.DBName, err)
	}
	m, err := migration.NewFromFS(db, source, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}
