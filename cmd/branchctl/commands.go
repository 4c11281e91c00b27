package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/internal/models"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// cli carries what every subcommand needs once the root has loaded config.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "branchctl",
		Short:         "Maintenance commands for the branch.it backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger.Init(cfg.Log.Level)
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	root.AddCommand(
		c.migrateCmd(),
		c.reconcileCmd(),
		c.purgeLogsCmd(),
		c.createUserCmd(),
	)
	return root
}

func (c *cli) openDB() (*gorm.DB, error) {
	dialector, err := models.Dialector(&c.cfg.Database)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, models.GormConfig())
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	return db, nil
}

// withDB opens and migrates the database, runs fn and closes the pool.
func (c *cli) withDB(fn func(db *gorm.DB) error) error {
	db, err := c.openDB()
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return fn(db)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDB(func(*gorm.DB) error {
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", c.cfg.Database.Driver)
				return nil
			})
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Remove rows orphaned by interrupted deletes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDB(func(db *gorm.DB) error {
				report, err := services.NewReconcileService(db).Run(cmd.Context())
				if err != nil {
					return err
				}

				tables := make([]string, 0, len(report.Removed))
				for table := range report.Removed {
					tables = append(tables, table)
				}
				sort.Strings(tables)

				out := cmd.OutOrStdout()
				for _, table := range tables {
					fmt.Fprintf(out, "%-22s %d\n", table, report.Removed[table])
				}
				fmt.Fprintf(out, "removed %d row(s) in %s\n", report.Total(), report.Duration)
				return nil
			})
		},
	}
}

func (c *cli) purgeLogsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge-logs",
		Short: "Delete system log entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = c.cfg.SystemLog.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("retention must be positive, got %d", days)
			}
			return c.withDB(func(db *gorm.DB) error {
				deleted, err := services.NewSystemLogService(db, days).CleanupOldLogs(cmd.Context(), days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d log entries older than %d day(s)\n", deleted, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days (defaults to system_log.retention_days)")
	return cmd
}

func (c *cli) createUserCmd() *cobra.Command {
	var req services.RegisterRequest
	var admin bool
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an account, optionally with the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(req.Password) < 6 {
				return fmt.Errorf("password must be at least 6 characters")
			}
			return c.withDB(func(db *gorm.DB) error {
				ctx := cmd.Context()
				users := services.NewUserService(db, services.NewProjectService(db, nil), &c.cfg.JWT)
				user, err := users.CreateUser(ctx, &req)
				if err != nil {
					return err
				}
				if admin {
					if err := db.WithContext(ctx).Model(user).Update("role", "admin").Error; err != nil {
						return fmt.Errorf("granting admin: %w", err)
					}
					user.Role = "admin"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s> role=%s\n", user.ID, user.Email, user.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
