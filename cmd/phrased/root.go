package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"phrased/internal/config"
)

// globalOptions holds persistent flags. Zero values leave the file and
// environment values in place.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	modelsDir  string
	hubURL     string
	tool       string
	engine     string
	modelPath  string
}

func (o *globalOptions) flagConfig() config.Config {
	return config.Config{
		ModelsDir: o.modelsDir,
		HubURL:    o.hubURL,
		Tool:      o.tool,
		Engine:    o.engine,
		ModelPath: o.modelPath,
		LogLevel:  o.logLevel,
		LogFormat: o.logFormat,
	}
}

// resolveConfig layers the config file, PHRASED_* variables and flags,
// later sources winning, then fills defaults.
func (o *globalOptions) resolveConfig(extra config.Config) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		fileCfg, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		cfg = fileCfg
	}
	cfg = cfg.Merge(config.FromEnv()).Merge(o.flagConfig()).Merge(extra)
	return cfg.WithDefaults(), nil
}

// buildRootCmd constructs the command tree writing to out and errOut.
func buildRootCmd(opts *globalOptions, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "phrased",
		Short:         "Download local language models and rephrase text with them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error (default info)")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: console|json (default console)")
	pf.StringVar(&opts.modelsDir, "models-dir", "", "Storage root for downloaded models")
	pf.StringVar(&opts.hubURL, "hub-url", "", "Model hub base URL")
	pf.StringVar(&opts.tool, "tool", "", "External downloader executable, or \"none\"")
	pf.StringVar(&opts.engine, "engine", "", "Inference engine: llama|server")
	pf.StringVar(&opts.modelPath, "model-path", "", "Model directory or weights file used for generation")

	root.AddCommand(
		newServeCmd(opts),
		newPullCmd(opts),
		newCancelCmd(opts),
		newGenerateCmd(opts),
		newModelsCmd(opts),
		newSanityCmd(opts),
	)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	root.AddCommand(completionCmd)
	return root
}

// exactArgs is cobra.ExactArgs with errors mapped to exit code 2.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", errUsage, cmd.Name(), n, len(args))
		}
		return nil
	}
}

// splitCSV splits a comma-separated list, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
