package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables bound to flags,
// e.g. SFLOWG_PORT or SFLOWG_LOG_LEVEL.
const EnvPrefix = "SFLOWG"

const defaultConfigFile = "flow-config.yaml"

// Execute runs the root command
func Execute() error {
	return newRootCmd(viper.New()).Execute()
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:   "blotato",
		Short: "Blotato node for the SFlowG workflow engine",
		Long: `Runs the Blotato plugin inside the SFlowG runtime.

It serves YAML flows and the node API (descriptions, task calls and list
searches) and can run single tasks from the command line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(v)
		},
	}

	root.PersistentFlags().String("config", defaultConfigFile, "path to flow-config.yaml")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "text", "log format: text or json")
	root.PersistentFlags().String("api-key", "", "Blotato API key (overrides plugins.blotato.api_key)")

	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("api_key", root.PersistentFlags().Lookup("api-key"))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	// The key also resolves from the variable the vendor documents.
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "BLOTATO_API_KEY")

	root.AddCommand(newServeCmd(v), newDescribeCmd(), newExecCmd(v), newSearchCmd(v))
	return root
}

func setupLogging(v *viper.Viper) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return fmt.Errorf("invalid log level %q", v.GetString("log_level"))
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch v.GetString("log_format") {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json)", v.GetString("log_format"))
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
