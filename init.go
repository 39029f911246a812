package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/hookdoc/internal/config"
)

const (
	sentinelStart = "# hookdoc:start"
	sentinelEnd   = "# hookdoc:end"
)

// newInitCmd builds the `hookdoc init` subcommand, which writes (or updates)
// a reference block listing every setting and its default in a hookdoc.yaml.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-hookdoc.yaml]",
		Short: "Write a hookdoc.yaml starter",
		Long: `Write a commented reference of every hookdoc setting to a hookdoc.yaml file.
The block is wrapped in sentinel comments so it can be updated in place on
subsequent runs without touching the settings around it. Creates the file if
it does not exist.

path-to-hookdoc.yaml defaults to ./` + config.ProjectConfigFile + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args, dryRun, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

func runInit(args []string, dryRun bool, stdout, stderr io.Writer) error {
	section, err := generateSection()
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := config.ProjectConfigFile
	if len(args) > 0 {
		path = args[0]
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote hookdoc settings to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped block of commented defaults.
// Every line is a comment so settings placed outside the block never collide
// with it.
func generateSection() (string, error) {
	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("encoding defaults: %w", err)
	}

	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString("# Managed by `hookdoc init`; this block is rewritten on every run.\n")
	b.WriteString("# Uncomment a setting below the block to change it.\n")
	b.WriteString("# Run `hookdoc --help` for the matching flags.\n")
	b.WriteString("#\n")
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		b.WriteString("# " + line + "\n")
	}
	b.WriteString(sentinelEnd)
	return b.String(), nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if content == "" {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
