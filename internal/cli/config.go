package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/dshills/tgreport/internal/config"
	"github.com/dshills/tgreport/internal/report"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tgreport config file",
	Long: "The config file holds defaults for local runs. Environment variables " +
		"(INPUT_*, TGREPORT_*) and flags take precedence over it.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file from defaults and the given flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return apperr.Wrap(err, apperr.KindConfiguration, "locating config file")
		}
		if _, err := os.Stat(path); err == nil && !flagForce {
			return apperr.Newf(apperr.KindConfiguration, "%s already exists, use --force to replace it", path)
		}

		cfg := config.Default()
		for key, value := range buildOverrides(cmd.Flags()) {
			if key == "token" {
				continue
			}
			if err := config.SetField(&cfg, key, value); err != nil {
				return err
			}
		}
		if err := saveChecked(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value in the config file",
	Long:  "Set one value in the config file. Keys: " + strings.Join(config.Keys, ", ") + ".",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFileWithDefaults()
		if err != nil {
			return apperr.Wrap(err, apperr.KindConfiguration, "fix or remove the config file first")
		}
		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := saveChecked(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration a run would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve(buildOverrides(cmd.Flags()))
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: a run would fail: %v\n", err)
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return apperr.Wrap(err, apperr.KindIO, "encoding config")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// saveChecked rejects values a run would reject before writing the file.
// Required inputs may still come from the environment, so only the
// enumerated values and the pretty name regex are checked.
func saveChecked(cfg config.Config) error {
	if err := cfg.ValidateValues(); err != nil {
		return err
	}
	if _, err := report.NewNamer("", cfg.PrettyNameRegex, cfg.PrettyNameSeparator, zerolog.Nop()); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return apperr.Wrap(err, apperr.KindIO, "writing config file")
	}
	return nil
}

func init() {
	addSourceFlags(configInitCmd.Flags())
	configInitCmd.Flags().StringVar(&flagNoDiff, "no-diff-conclusion", "", "Conclusion when no plan files are found (success, failure)")
	configInitCmd.Flags().StringVar(&flagMode, "mode", "", "Publishing mode (checks, comment)")
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "Replace an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
}
