package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/ratetable/internal/cli"
	"github.com/leapstack-labs/ratetable/internal/cli/config"
)

// commandGroups orders the top-level commands on the index page. Commands
// not listed land under "Other".
var commandGroups = []struct {
	title string
	names []string
}{
	{title: "Viewing", names: []string{"table", "leaderboard", "browse"}},
	{title: "Editing", names: []string{"columns", "countries"}},
	{title: "Storage", names: []string{"import", "normalize-ids"}},
	{title: "Server", names: []string{"serve"}},
}

// generateCLIDocs writes index.md and one page per top-level command.
// Command groups such as columns document their subcommands on their page.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	cmds := documented(root)

	if err := writePage(filepath.Join(outDir, "index.md"), cliIndex(root, cmds)); err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := writePage(filepath.Join(outDir, cmd.Name()+".md"), commandPage(cmd)); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
	}
	return nil
}

func writePage(path string, w *MarkdownWriter) error {
	if err := os.WriteFile(path, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated %s", filepath.Base(path))
	return nil
}

// documented returns the visible subcommands of cmd.
func documented(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "__complete" {
			continue
		}
		out = append(out, sub)
	}
	return out
}

func cliIndex(root *cobra.Command, cmds []*cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for ratetable")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/ratetable/cmd/ratetable@latest\nratetable <command> [options]")

	w.Header(2, "Commands")
	grouped := make(map[string]bool)
	for _, group := range commandGroups {
		var rows [][]string
		for _, cmd := range cmds {
			if slices.Contains(group.names, cmd.Name()) {
				rows = append(rows, commandRow(cmd))
				grouped[cmd.Name()] = true
			}
		}
		if len(rows) == 0 {
			continue
		}
		w.Header(3, group.title)
		w.Table([]string{"Command", "Description", "Subcommands"}, rows)
	}
	var other [][]string
	for _, cmd := range cmds {
		if !grouped[cmd.Name()] {
			other = append(other, commandRow(cmd))
		}
	}
	if len(other) > 0 {
		w.Header(3, "Other")
		w.Table([]string{"Command", "Description", "Subcommands"}, other)
	}

	w.Header(2, "Global Options")
	w.Paragraph("Every command accepts these flags. A flag that is set overrides the config key it maps to.")
	globalFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph("Each configuration key has a `" + config.EnvVar("") + "` variable. Variables override `ratetable.yaml` and are overridden by flags.")
	var envRows [][]string
	for _, f := range getConfigSchema() {
		def := "-"
		if f.Default != "" {
			def = InlineCode(f.Default)
		}
		envRows = append(envRows, []string{InlineCode(config.EnvVar(f.Key)), InlineCode(f.Key), def})
	}
	w.Table([]string{"Variable", "Key", "Default"}, envRows)

	w.Header(2, "Exit Codes")
	w.Paragraph("`0` on success. `1` on any error, including writes that failed to persist; the message is printed to stderr.")
	return w
}

func commandRow(cmd *cobra.Command) []string {
	link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
	var subs []string
	for _, sub := range documented(cmd) {
		subs = append(subs, InlineCode(sub.Name()))
	}
	return []string{link, cleanDescription(cmd.Short), strings.Join(subs, ", ")}
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cleanDescription(cmd.Short))
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	describe(w, cmd, 2)

	for _, sub := range documented(cmd) {
		w.Header(2, sub.CommandPath())
		describe(w, sub, 3)
	}

	w.Paragraph("Global options are listed in the [CLI reference](/cli/#global-options).")
	return w
}

// describe writes the body of a command section with subheadings at level.
func describe(w *MarkdownWriter, cmd *cobra.Command, level int) {
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	usage := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		usage = cmd.CommandPath() + " <subcommand> [options]"
	}
	w.CodeBlock("bash", usage)

	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, alias := range cmd.Aliases {
			aliases[i] = InlineCode(alias)
		}
		w.Paragraph("Aliases: " + strings.Join(aliases, ", "))
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(level, "Options")
		flagsTable(w, cmd.LocalNonPersistentFlags())
	}

	if cmd.Example != "" {
		w.Header(level, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
}

func flagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		rows = append(rows, []string{flagName(f), f.Value.Type(), flagDefault(f), cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Type", "Default", "Description"}, rows)
}

func globalFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		key := "-"
		if f.Name != "config" {
			key = InlineCode(config.FlagKey(f.Name))
		}
		rows = append(rows, []string{flagName(f), key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Config key", "Description"}, rows)
}

func flagName(f *pflag.Flag) string {
	name := InlineCode("--" + f.Name)
	if f.Shorthand != "" {
		name = InlineCode("-"+f.Shorthand) + ", " + name
	}
	return name
}

// flagDefault shows meaningful defaults only; zero values read as unset.
func flagDefault(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "0", "false", "[]":
		return "-"
	}
	return InlineCode(f.DefValue)
}

// dedent strips the indentation shared by every non-blank line.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(line) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
