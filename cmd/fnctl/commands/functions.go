package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/internal/form"
	"github.com/systmms/fnconsole/internal/resources"
)

// NewFunctionsCommand creates the parent 'functions' command
func NewFunctionsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "functions",
		Aliases: []string{"fn"},
		Short:   "Manage serverless functions",
		Long: `List, inspect, create, update and delete the functions of a project.

Examples:
  fnctl functions list
  fnctl functions create --name resize-image --script-id scr_42
  fnctl functions update 12 --active=false
  fnctl functions delete 12 --yes`,
	}

	cmd.AddCommand(
		newFunctionsListCommand(cfg),
		newFunctionsGetCommand(cfg),
		newFunctionsCreateCommand(cfg),
		newFunctionsUpdateCommand(cfg),
		newFunctionsDeleteCommand(cfg),
	)

	return cmd
}

func newFunctionsListCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List functions, most recently modified first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctrl := form.NewFunctions(c.functions, formOptions(cfg))
			if err := ctrl.Load(cmd.Context()); err != nil {
				return reported(err)
			}

			items := ctrl.Items()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No functions found")
				return nil
			}

			table := tableView(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name", "Active", "Deployed", "Owner", "Modified"})
			for _, f := range items {
				table.Append([]string{
					strconv.FormatInt(f.ID, 10),
					f.Name,
					yesNo(f.IsActive),
					yesNo(f.IsDeployed),
					orDash(string(f.Owner)),
					formatTime(f.ModifiedOn.Ptr()),
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func newFunctionsGetCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one function",
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

			res := c.functions.Get(cmd.Context(), id)
			if !res.OK() {
				return res.Err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res.Value)
			}
			printFunction(cmd, res.Value)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func printFunction(cmd *cobra.Command, f resources.Function) {
	table := detailView(cmd.OutOrStdout())
	table.SetHeader([]string{"Field", "Value"})
	table.AppendBulk([][]string{
		{"ID", strconv.FormatInt(f.ID, 10)},
		{"Name", f.Name},
		{"Label", orDash(f.Label)},
		{"Tags", orDash(f.Tags)},
		{"Owner", orDash(string(f.Owner))},
		{"Script", orDash(f.ScriptID)},
		{"Execution URL", orDash(f.ExecutionURL)},
		{"Active", yesNo(f.IsActive)},
		{"Deployed", yesNo(f.IsDeployed)},
		{"Last Deployed", formatTime(f.LastDeployedAt.Ptr())},
		{"Requires Auth", yesNo(f.RequireAuthentication)},
		{"Run As Admin", yesNo(f.RunAsAdmin)},
		{"Created", formatTime(f.CreatedOn.Ptr())},
		{"Modified", formatTime(f.ModifiedOn.Ptr())},
	})
	table.Render()
}

// functionFlags binds the editable function fields to flags. apply copies
// only the flags the user set, so updates leave other fields untouched.
type functionFlags struct {
	cmd                   *cobra.Command
	name, tags, owner     string
	label, scriptID, url  string
	active, deployed      bool
	requireAuth, runAdmin bool
}

func bindFunctionFlags(cmd *cobra.Command) *functionFlags {
	ff := &functionFlags{cmd: cmd}
	fl := cmd.Flags()
	fl.StringVar(&ff.name, "name", "", "Function name")
	fl.StringVar(&ff.tags, "tags", "", "Comma-separated tags")
	fl.StringVar(&ff.owner, "owner", "", "Owner id")
	fl.StringVar(&ff.label, "label", "", "Display label")
	fl.StringVar(&ff.scriptID, "script-id", "", "Id of the script the function runs")
	fl.StringVar(&ff.url, "execution-url", "", "URL the function is invoked at")
	fl.BoolVar(&ff.active, "active", true, "Whether the function is active")
	fl.BoolVar(&ff.deployed, "deployed", false, "Whether the function is deployed")
	fl.BoolVar(&ff.requireAuth, "require-auth", false, "Require authentication to invoke")
	fl.BoolVar(&ff.runAdmin, "run-as-admin", false, "Run with admin privileges")
	return ff
}

func (ff *functionFlags) apply(f *resources.FunctionForm) {
	changed := ff.cmd.Flags().Changed
	if changed("name") {
		f.Name = ff.name
	}
	if changed("tags") {
		f.Tags = ff.tags
	}
	if changed("owner") {
		f.Owner = ff.owner
	}
	if changed("label") {
		f.Label = ff.label
	}
	if changed("script-id") {
		f.ScriptID = ff.scriptID
	}
	if changed("execution-url") {
		f.ExecutionURL = ff.url
	}
	if changed("active") {
		f.IsActive = ff.active
	}
	if changed("deployed") {
		f.IsDeployed = ff.deployed
	}
	if changed("require-auth") {
		f.RequireAuthentication = ff.requireAuth
	}
	if changed("run-as-admin") {
		f.RunAsAdmin = ff.runAdmin
	}
}

func newFunctionsCreateCommand(cfg *config.Config) *cobra.Command {
	var ff *functionFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClients(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			ctrl := form.NewFunctions(c.functions, formOptions(cfg))
			if err := ctrl.OpenCreate(); err != nil {
				return err
			}
			if err := ctrl.Edit(ff.apply); err != nil {
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

	ff = bindFunctionFlags(cmd)

	return cmd
}

func newFunctionsUpdateCommand(cfg *config.Config) *cobra.Command {
	var ff *functionFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a function",
		Long:  "Update a function. Only the flags given are changed.",
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

			current := c.functions.Get(cmd.Context(), id)
			if !current.OK() {
				return current.Err
			}

			ctrl := form.NewFunctions(c.functions, formOptions(cfg))
			if err := ctrl.OpenEdit(current.Value); err != nil {
				return err
			}
			if err := ctrl.Edit(ff.apply); err != nil {
				return err
			}
			if err := ctrl.Submit(cmd.Context()); err != nil {
				return reported(err)
			}
			return nil
		},
	}

	ff = bindFunctionFlags(cmd)

	return cmd
}

func newFunctionsDeleteCommand(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a function",
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

			current := c.functions.Get(cmd.Context(), id)
			if !current.OK() {
				return current.Err
			}

			ctrl := form.NewFunctions(c.functions, formOptions(cfg))
			prompt := fmt.Sprintf("Delete function %q?", current.Value.Name)
			return deleteConfirmed(cmd, cfg, ctrl, current.Value, prompt, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
