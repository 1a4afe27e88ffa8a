package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	"phrased/internal/app"
	"phrased/internal/config"
	"phrased/pkg/types"
)

// openApp resolves configuration, sets up logging and builds the app.
func openApp(cmd *cobra.Command, opts *globalOptions) (*app.App, error) {
	cfg, err := opts.resolveConfig(config.Config{})
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	return app.New(cfg)
}

func newGenerateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "generate [text...]",
		Short:   "Rephrase text with the local model (reads stdin when no text is given)",
		Example: "  phrased generate \"Ciao, domani non ci sono\"\n  echo testo | phrased generate --model-path ~/Models/gemma-2-2b",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			resp, err := a.Generate(cmd.Context(), types.GenerateRequest{Text: text})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Output)
			return nil
		},
	}
}

func newModelsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models and their install state",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			resp, err := a.Models()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return printModels(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printModels(w io.Writer, resp types.ModelsResponse) error {
	installed := make(map[string]bool, len(resp.Installed))
	for _, m := range resp.Installed {
		installed[m.ID] = true
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tRAM\tINSTALLED")
	for _, d := range resp.Catalog {
		size := d.SizeDescription
		if size == "" && d.SizeBytes > 0 {
			size = units.HumanSize(float64(d.SizeBytes))
		}
		mark := "-"
		if installed[d.ID] {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, size, d.RAMRequired, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, ggufHint)
	return err
}

// Catalog repos may ship safetensors only; the engines read GGUF.
const ggufHint = "\nNote: the llama engines load .gguf files. If a model directory has none,\n" +
	"pass --model-path (or set model_path) to a .gguf file or a directory holding one."

func newSanityCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity",
		Short: "Check that the configured inference engine can run",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			rep := a.Manager().SanityCheck()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.OK {
				return errors.New(rep.Error)
			}
			return nil
		},
	}
}
