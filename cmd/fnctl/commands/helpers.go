package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/systmms/fnconsole/internal/config"
	dserrors "github.com/systmms/fnconsole/internal/errors"
	"github.com/systmms/fnconsole/internal/form"
	"github.com/systmms/fnconsole/internal/metrics"
	"github.com/systmms/fnconsole/internal/notify"
	"github.com/systmms/fnconsole/internal/resources"
)

// ErrReported marks failures whose messages were already shown as
// notifications. main exits non-zero without printing them again.
var ErrReported = errors.New("failure already reported")

func reported(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrReported, err)
}

// maxValueSize bounds secret values read from stdin.
const maxValueSize = 1 << 20

// loadConfig reads cfg.Path unless a definition is already present.
func loadConfig(cfg *config.Config) error {
	if cfg.Definition != nil {
		return nil
	}
	return cfg.Load()
}

// clients holds the resource clients for one command invocation.
type clients struct {
	functions *resources.FunctionClient
	secrets   *resources.SecretClient
	backend   *config.Backend
}

func (c *clients) Close() error {
	return c.backend.Close()
}

func openClients(ctx context.Context, cfg *config.Config, rec *metrics.Recorder) (*clients, error) {
	if err := loadConfig(cfg); err != nil {
		return nil, err
	}
	backend, err := cfg.OpenBackend(ctx, nil)
	if err != nil {
		return nil, err
	}
	opts := resources.Options{Logger: cfg.Logger, Metrics: rec}
	def := cfg.Definition
	return &clients{
		functions: resources.NewFunctionClient(backend.API, def.Collections.Functions, opts),
		secrets:   resources.NewSecretClient(backend.API, def.Collections.Secrets, opts),
		backend:   backend,
	}, nil
}

func formOptions(cfg *config.Config) form.Options {
	return form.Options{Sink: notify.NewLoggerSink(cfg.Logger), Logger: cfg.Logger}
}

// parseID parses a record id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, dserrors.UserError{
			Message:    fmt.Sprintf("Invalid id: %s", arg),
			Suggestion: "Ids are positive integers; run the list command to find one",
		}
	}
	return id, nil
}

func tableView(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("    ")
	table.SetNoWhiteSpace(true)
	return table
}

func detailView(w io.Writer) *tablewriter.Table {
	table := tableView(w)
	table.SetHeaderLine(true)
	return table
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// confirm asks prompt on stderr and reads the answer from stdin. yes skips
// the question; non-interactive mode without yes refuses.
func confirm(cmd *cobra.Command, cfg *config.Config, prompt string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if cfg.NonInteractive {
		return false, dserrors.UserError{
			Message:    "Confirmation required",
			Suggestion: "Pass --yes to confirm in non-interactive mode",
		}
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readSecret reads a sensitive value without echo from a terminal, or as the
// whole of stdin otherwise. One trailing newline is dropped.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := io.ReadAll(io.LimitReader(in, maxValueSize))
	if err != nil {
		return "", err
	}
	s := strings.TrimSuffix(string(b), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// deleteConfirmed deletes rec through ctrl once the user confirms.
func deleteConfirmed[T any, F any](cmd *cobra.Command, cfg *config.Config, ctrl *form.Controller[T, F], rec T, prompt string, yes bool) error {
	var (
		confirmed  bool
		confirmErr error
	)
	err := ctrl.RequestDelete(cmd.Context(), rec, func(T) bool {
		confirmed, confirmErr = confirm(cmd, cfg, prompt, yes)
		return confirmed
	})
	if confirmErr != nil {
		return confirmErr
	}
	if !confirmed {
		cfg.Logger.Info("Cancelled")
		return nil
	}
	return reported(err)
}
