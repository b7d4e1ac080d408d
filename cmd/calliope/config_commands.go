package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/settingsio"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the calliope configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigExportCommand(ctx))
	cmd.AddCommand(newConfigImportCommand(ctx))

	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ctx.configPath()
			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", target)
			}

			cfg := config.Default()
			if err := cfg.Save(target); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", target)
			fmt.Fprintln(out, "Add credentials for Discogs, Spotify, Last.fm, and Genius to enable them.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			if ctx.jsonOutput() {
				return writeJSON(cmd, redacted)
			}
			data, err := yaml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export provider credentials and scoring settings to an encrypted file",
		Long: `Export writes provider credentials and scoring settings to a
passphrase-encrypted file that can be imported on another machine.
Machine-local settings like paths are not included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			passphrase, err := readPassphrase(cmd, true)
			if err != nil {
				return err
			}
			env, err := settingsio.Export(cfg, passphrase)
			if err != nil {
				return err
			}
			if err := settingsio.WriteFile(output, env); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported settings to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "calliope-settings.json", "file to write the encrypted settings to")

	return cmd
}

func newConfigImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import settings from an encrypted export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			env, err := settingsio.ReadFile(args[0])
			if err != nil {
				return err
			}
			passphrase, err := readPassphrase(cmd, false)
			if err != nil {
				return err
			}
			payload, err := settingsio.Import(env, passphrase)
			if err != nil {
				return err
			}

			result := payload.Apply(cfg)
			if err := cfg.Save(ctx.configPath()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var applied []string
			applied = append(applied, fmt.Sprintf("%d credentials", result.Credentials))
			if result.Scoring {
				applied = append(applied, "scoring settings")
			}
			fmt.Fprintf(out, "Imported %s into %s\n", strings.Join(applied, " and "), ctx.configPath())
			return nil
		},
	}

	return cmd
}
