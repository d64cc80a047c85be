package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/systmms/fnconsole/internal/catalog"
	"github.com/systmms/fnconsole/internal/config"
	"github.com/systmms/fnconsole/internal/highlight"
)

// NewDocsCommand creates the parent 'docs' command
func NewDocsCommand(cfg *config.Config) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Browse the record-store API documentation",
		Long: `Browse the documentation of the Functions and Secrets endpoints.

Examples:
  fnctl docs list functions
  fnctl docs show create-secret
  fnctl docs search delete
  fnctl docs topics authentication`,
	}

	cmd.PersistentFlags().BoolVar(&raw, "raw", false, "Print markdown without terminal rendering")

	cmd.AddCommand(
		newDocsListCommand(cfg),
		newDocsShowCommand(cfg, &raw),
		newDocsSearchCommand(cfg),
		newDocsTopicsCommand(cfg, &raw),
	)

	return cmd
}

// loadCatalog returns the configured fixture, or the embedded one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Definition == nil {
		if err := cfg.LoadOrDefault(); err != nil {
			return nil, err
		}
	}
	if path := cfg.Definition.Docs.Fixture; path != "" {
		cfg.Logger.Debug("Loading documentation fixture %s", path)
		return catalog.LoadFile(path)
	}
	return catalog.Default()
}

func renderEndpoints(cmd *cobra.Command, eps []catalog.Endpoint) {
	if len(eps) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No endpoints found")
		return
	}
	table := tableView(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "Method", "Path", "Description"})
	for _, ep := range eps {
		table.Append([]string{ep.ID, ep.Method, ep.Path, ep.Description})
	}
	table.Render()
}

func newDocsListCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:       "list [category]",
		Short:     "List documented endpoints",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{catalog.CategoryFunctions, catalog.CategorySecrets},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			categories := cat.Categories()
			if len(args) == 1 {
				categories = args[:1]
			}
			var eps []catalog.Endpoint
			for _, category := range categories {
				eps = append(eps, cat.ByCategory(category)...)
			}
			renderEndpoints(cmd, eps)
			return nil
		},
	}
}

func newDocsSearchCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search endpoints by path, description or method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			renderEndpoints(cmd, cat.Search(args[0]))
			return nil
		},
	}
}

func newDocsShowCommand(cfg *config.Config, raw *bool) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "show <endpoint-id>",
		Short: "Show an endpoint with its parameters and examples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			ep, err := cat.ByID(args[0])
			if err != nil {
				return err
			}
			if html {
				writeHighlighted(cmd, ep)
				return nil
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(endpointMarkdown(ep), *raw))
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Print examples and responses as highlighted HTML")

	return cmd
}

func newDocsTopicsCommand(cfg *config.Config, raw *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "topics [topic-id]",
		Short: "List the guide topics, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				table := tableView(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Title"})
				for _, t := range cat.Topics() {
					table.Append([]string{t.ID, t.Title})
				}
				table.Render()
				return nil
			}
			topic, err := cat.Topic(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(topic.Body, *raw))
			return nil
		},
	}
}

func endpointMarkdown(ep catalog.Endpoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s `%s`\n\n%s\n", ep.Method, ep.Path, ep.Description)

	if len(ep.Parameters) > 0 {
		b.WriteString("\n## Parameters\n\n| Name | Type | Required | Description |\n|---|---|---|---|\n")
		for _, p := range ep.Parameters {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", p.Name, p.Type, yesNo(p.Required), p.Description)
		}
	}

	if langs := ep.ExampleLanguages(); len(langs) > 0 {
		b.WriteString("\n## Examples\n")
		for _, lang := range langs {
			fmt.Fprintf(&b, "\n### %s\n\n```%s\n%s\n```\n", lang, highlight.Language(lang), ep.Examples[lang])
		}
	}

	if r := ep.Responses; r != nil {
		b.WriteString("\n## Responses\n")
		if r.Success != "" {
			fmt.Fprintf(&b, "\n### Success\n\n```json\n%s\n```\n", r.Success)
		}
		if r.Error != "" {
			fmt.Fprintf(&b, "\n### Error\n\n```json\n%s\n```\n", r.Error)
		}
	}
	return b.String()
}

func writeHighlighted(cmd *cobra.Command, ep catalog.Endpoint) {
	w := cmd.OutOrStdout()
	for _, lang := range ep.ExampleLanguages() {
		_, _ = fmt.Fprintf(w, "<pre class=\"language-%s\"><code>%s</code></pre>\n",
			highlight.Language(lang), highlight.Highlight(ep.Examples[lang], lang))
	}
	if r := ep.Responses; r != nil {
		for _, body := range []string{r.Success, r.Error} {
			if body != "" {
				_, _ = fmt.Fprintf(w, "<pre class=\"language-json\"><code>%s</code></pre>\n", highlight.Highlight(body, "json"))
			}
		}
	}
}

// renderMarkdown renders md for the terminal, falling back to the raw text.
func renderMarkdown(md string, raw bool) string {
	if raw {
		return md
	}
	style := glamour.WithAutoStyle()
	if color.NoColor {
		style = glamour.WithStandardStyle("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
