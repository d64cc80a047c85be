package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/config"
)

func credentialsFor(cfg *config.Config) *config.Credentials {
	if cfg.Credentials != nil {
		return cfg.Credentials
	}
	return config.NewCredentials()
}

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		projectID string
		forget    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the record-store public key in the OS keyring",
		Long: `Store the public key used to authenticate against the record store.

The key is read from stdin, or prompted for without echo when stdin is a
terminal, and saved in the OS keyring under the project id. An environment
variable named by backend.public_key_env always takes precedence.

Examples:
  fnctl login
  fnctl login --project prj_123 < key.txt
  fnctl login --forget`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Definition == nil {
				if err := cfg.LoadOrDefault(); err != nil {
					return err
				}
			}
			if projectID == "" {
				projectID = cfg.Definition.Backend.ProjectID
			}
			cr := credentialsFor(cfg)

			if forget {
				if err := cr.Forget(projectID); err != nil {
					return err
				}
				cfg.Logger.Info("Removed the stored key for project %s", projectID)
				return nil
			}

			key, err := readSecret(cmd, "Public key: ")
			if err != nil {
				return err
			}
			if err := cr.Store(projectID, key); err != nil {
				return err
			}
			cfg.Logger.Info("Stored the public key for project %s in the OS keyring", projectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project id (defaults to backend.project_id)")
	cmd.Flags().BoolVar(&forget, "forget", false, "Remove the stored key instead")

	return cmd
}
