package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/ocuprofile/internal/config"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage ocuprofile configuration",
		Long: `Manage ocuprofile configuration files and settings.

Settings are layered: built-in defaults, then config files, then the .env
file, then OCUPROFILE_* environment variables, then command-line flags.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigValidateCommand())
	configCmd.AddCommand(newConfigPathCommand())
	configCmd.AddCommand(newConfigEnvCommand())

	return configCmd
}

// newConfigInitCommand creates the config init subcommand
func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		minimal    bool
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new ocuprofile configuration file with default values.

By default, creates a full configuration file with all options and comments.
Use --minimal for a compact configuration with only essential settings.`,
		Example: `  # Create full config in current directory
  ocuprofile config init

  # Create minimal config
  ocuprofile config init --minimal

  # Create config at specific path
  ocuprofile config init --output ~/.config/ocuprofile/config.yaml

  # Overwrite existing config
  ocuprofile config init --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if outputPath == "" {
				outputPath = ".ocuprofile.yaml"
			}

			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			content := config.SampleConfig()
			if minimal {
				content = config.MinimalSampleConfig()
			}

			if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(out, "%s Configuration file created at: %s\n", GetEmoji("success"), outputPath)
			if minimal {
				fmt.Fprintf(out, "%s Created minimal configuration with essential settings\n", GetEmoji("file"))
			} else {
				fmt.Fprintf(out, "%s Created full configuration with all options and documentation\n", GetEmoji("file"))
			}

			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for config file (default: .ocuprofile.yaml)")
	initCmd.Flags().BoolVarP(&minimal, "minimal", "m", false, "create minimal configuration")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current effective configuration after loading from all sources.

Shows the merged configuration from all sources including defaults,
config files, the .env file and environment variable overrides.`,
		Example: `  # Show config in YAML format
  ocuprofile config show

  # Show config in JSON format
  ocuprofile config show --format json

  # Show config from specific file
  ocuprofile config show --config /path/to/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			switch format {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config to YAML: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
			default:
				return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
			}

			return nil
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")

	return showCmd
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Load the effective configuration and check it for errors.

The endpoint must be an http or https URL, enum values must be known,
extensions must start with a dot, and sizes and durations must not be negative.`,
		Example: `  ocuprofile config validate
  ocuprofile --config /path/to/config.yaml config validate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, err := config.NewLoader().LoadConfig(cfgFile)
			if err != nil {
				fmt.Fprintf(out, "%s Configuration validation failed:\n   %v\n", GetEmoji("error"), err)
				return err
			}

			fmt.Fprintf(out, "%s Configuration is valid\n\n", GetEmoji("success"))
			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.AppendRows([]table.Row{
				{"Version", cfg.Version},
				{"Service endpoint", cfg.Service.Endpoint},
				{"Timeout", fmt.Sprintf("%s (retries: %d)", cfg.Service.Timeout, cfg.Service.MaxRetries)},
				{"Allowed files", strings.Join(cfg.Upload.AllowedExtensions, ", ")},
				{"Max upload", fmt.Sprintf("%d bytes", cfg.Upload.MaxBytes)},
				{"Output format", cfg.Output.DefaultFormat},
				{"Charts", fmt.Sprintf("%dx%d", cfg.Charts.Width, cfg.Charts.Height)},
			})
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

// newConfigPathCommand creates the config path subcommand
func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `List the configuration files ocuprofile reads, highest priority first,
and mark the ones that exist.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"#", "Path", "Status"})
			for i, path := range config.GetConfigPaths() {
				status := "not found"
				if fileExists(path) {
					status = "exists"
				}
				t.AppendRow(table.Row{i + 1, path, status})
			}
			fmt.Fprintln(out, t.Render())

			if cfgFile != "" {
				fmt.Fprintf(out, "%s --config overrides the search: %s\n", GetEmoji("target"), cfgFile)
			} else if current, found := config.FindConfigFile(); found {
				fmt.Fprintf(out, "%s Highest priority file found: %s\n", GetEmoji("target"), current)
			} else {
				fmt.Fprintf(out, "%s No config file found, using defaults\n", GetEmoji("file"))
			}
			fmt.Fprintf(out, "%s Run 'ocuprofile config env' to see environment overrides\n", GetEmoji("insight"))
		},
	}
}

// newConfigEnvCommand lists the OCUPROFILE_* overrides and where each value comes from
func newConfigEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List supported environment variables",
		Long: `List every OCUPROFILE_* variable, what it overrides, and its current value.

Values may come from the process environment or from the .env file in the
working directory; the process environment wins.`,
		Run: func(cmd *cobra.Command, args []string) {
			loader := config.NewLoader()

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Variable", "Overrides", "Value", "Source"})
			for _, ev := range config.EnvVariables() {
				value, fromFile := loader.LookupEnv(ev.Name)
				source := ""
				switch {
				case value == "":
				case fromFile:
					source = config.DefaultEnvFile
				default:
					source = "environment"
				}
				t.AppendRow(table.Row{ev.Name, ev.Description, value, source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		},
	}
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
