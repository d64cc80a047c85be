package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/internal/form"
	"github.com/systmms/fnconsole/internal/mask"
	"github.com/systmms/fnconsole/internal/resources"
)

// NewSecretsCommand creates the parent 'secrets' command
func NewSecretsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage project secrets",
		Long: `List, inspect, create, update and delete the secrets of a project.

Values are always masked on output. New values are read from stdin, or
prompted for without echo when stdin is a terminal.

Examples:
  fnctl secrets list
  printf '%s' "$STRIPE_KEY" | fnctl secrets create --name STRIPE_KEY
  fnctl secrets update 7 --tags billing
  fnctl secrets update 7 --value-stdin < new-key.txt
  fnctl secrets delete 7 --yes`,
	}

	cmd.AddCommand(
		newSecretsListCommand(cfg),
		newSecretsGetCommand(cfg),
		newSecretsCreateCommand(cfg),
		newSecretsUpdateCommand(cfg),
		newSecretsDeleteCommand(cfg),
	)

	return cmd
}

// maskedSecret returns s with its value masked for display.
func maskedSecret(s resources.Secret) resources.Secret {
	s.Value = mask.Value(s.Value)
	return s
}

func secretModified(s resources.Secret) string {
	if t := s.ModifiedOn.Ptr(); t != nil {
		return formatTime(t)
	}
	return formatTime(s.SecretModified.Ptr())
}

func newSecretsListCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secrets with masked values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctrl := form.NewSecrets(c.secrets, formOptions(cfg))
			if err := ctrl.Load(cmd.Context()); err != nil {
				return reported(err)
			}

			items := ctrl.Items()
			for i := range items {
				items[i] = maskedSecret(items[i])
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No secrets found")
				return nil
			}

			table := tableView(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name", "Value", "Project", "Modified"})
			for _, s := range items {
				table.Append([]string{
					strconv.FormatInt(s.ID, 10),
					s.Name,
					s.Value,
					orDash(s.ProjectID),
					secretModified(s),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newSecretsGetCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one secret with its value masked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			res := c.secrets.Get(cmd.Context(), id)
			if !res.OK() {
				return res.Err
			}
			s := maskedSecret(res.Value)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}

			table := detailView(cmd.OutOrStdout())
			table.SetHeader([]string{"Field", "Value"})
			table.AppendBulk([][]string{
				{"ID", strconv.FormatInt(s.ID, 10)},
				{"Name", s.Name},
				{"Value", s.Value},
				{"Tags", orDash(s.Tags)},
				{"Owner", orDash(string(s.Owner))},
				{"Project", orDash(s.ProjectID)},
				{"Created", formatTime(s.SecretCreated.Ptr())},
				{"Modified", secretModified(s)},
			})
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

// secretFlags binds the editable secret fields. The value is never taken
// from a flag so it stays out of shell history.
type secretFlags struct {
	cmd                        *cobra.Command
	name, tags, owner, project string
	valueStdin                 bool
}

func bindSecretFlags(cmd *cobra.Command, withName bool) *secretFlags {
	sf := &secretFlags{cmd: cmd}
	fl := cmd.Flags()
	if withName {
		fl.StringVar(&sf.name, "name", "", "Secret name")
	}
	fl.StringVar(&sf.tags, "tags", "", "Comma-separated tags")
	fl.StringVar(&sf.owner, "owner", "", "Owner id")
	fl.StringVar(&sf.project, "project-id", "", "Project the secret belongs to")
	return sf
}

func (sf *secretFlags) apply(f *resources.SecretForm) {
	changed := sf.cmd.Flags().Changed
	if changed("name") {
		f.Name = sf.name
	}
	if changed("tags") {
		f.Tags = sf.tags
	}
	if changed("owner") {
		f.Owner = sf.owner
	}
	if changed("project-id") {
		f.ProjectID = sf.project
	}
}

func newSecretsCreateCommand(cfg *config.Config) *cobra.Command {
	var sf *secretFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a secret, reading its value from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			value, err := readSecret(cmd, "Value: ")
			if err != nil {
				return err
			}

			ctrl := form.NewSecrets(c.secrets, formOptions(cfg))
			if err := ctrl.OpenCreate(); err != nil {
				return err
			}
			defer func() { _ = ctrl.Cancel() }()

			if err := ctrl.Edit(func(f *resources.SecretForm) {
				sf.apply(f)
				f.Value.Set(value)
			}); err != nil {
				return err
			}
			if err := ctrl.Submit(cmd.Context()); err != nil {
				return reported(err)
			}

			if items := ctrl.Items(); len(items) > 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), items[0].ID)
			}
			return nil
		},
	}

	sf = bindSecretFlags(cmd, true)

	return cmd
}

func newSecretsUpdateCommand(cfg *config.Config) *cobra.Command {
	var sf *secretFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a secret",
		Long: `Update a secret. Only the flags given are changed, and the stored
value is kept unless --value-stdin is passed. The name cannot be changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var value string
			if sf.valueStdin {
				if value, err = readSecret(cmd, "New value: "); err != nil {
					return err
				}
			}

			current := c.secrets.Get(cmd.Context(), id)
			if !current.OK() {
				return current.Err
			}

			ctrl := form.NewSecrets(c.secrets, formOptions(cfg))
			if err := ctrl.OpenEdit(current.Value); err != nil {
				return err
			}
			defer func() { _ = ctrl.Cancel() }()

			if err := ctrl.Edit(func(f *resources.SecretForm) {
				sf.apply(f)
				f.Value.Set(value)
			}); err != nil {
				return err
			}
			if err := ctrl.Submit(cmd.Context()); err != nil {
				return reported(err)
			}
			return nil
		},
	}

	sf = bindSecretFlags(cmd, false)
	cmd.Flags().BoolVar(&sf.valueStdin, "value-stdin", false, "Read a new value from stdin")

	return cmd
}

func newSecretsDeleteCommand(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			current := c.secrets.Get(cmd.Context(), id)
			if !current.OK() {
				return current.Err
			}

			ctrl := form.NewSecrets(c.secrets, formOptions(cfg))
			prompt := fmt.Sprintf("Delete secret %q?", current.Value.Name)
			return deleteConfirmed(cmd, cfg, ctrl, current.Value, prompt, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
