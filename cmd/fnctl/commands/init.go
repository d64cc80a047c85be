package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/config"
)

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var (
		driver    string
		baseURL   string
		projectID string
		dsn       string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new fnctl configuration",
		Long:  "Create an fnctl.yaml file pointing at a record store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def := config.Default()
			if driver != "" {
				def.Backend.Driver = driver
			}
			def.Backend.BaseURL = baseURL
			def.Backend.ProjectID = projectID
			def.Backend.DSN = dsn
			if err := def.Validate(); err != nil {
				return err
			}

			if err := config.Write(cfg.Path, def); err != nil {
				return err
			}

			cfg.Logger.Info("Created %s", cfg.Path)
			cfg.Logger.Info("Next steps:")
			if def.Backend.Driver == config.DriverHTTP {
				if def.Backend.BaseURL == "" {
					cfg.Logger.Info("  1. Set backend.base_url and backend.project_id in %s", cfg.Path)
				} else {
					cfg.Logger.Info("  1. Review backend settings in %s", cfg.Path)
				}
				cfg.Logger.Info("  2. Run 'fnctl login' or export %s", def.Backend.PublicKeyEnv)
			} else {
				cfg.Logger.Info("  1. Review backend.dsn in %s", cfg.Path)
			}
			cfg.Logger.Info("  Then run 'fnctl functions list' or 'fnctl docs list'")

			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Record store driver: http, postgres or mysql")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Record store URL (http driver)")
	cmd.Flags().StringVar(&projectID, "project-id", "", "Project id (http driver)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database connection string (postgres and mysql drivers)")

	return cmd
}
