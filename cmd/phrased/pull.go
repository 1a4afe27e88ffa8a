package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/signal"
	"syscall"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"phrased/internal/acquire"
	"phrased/internal/app"
)

func newPullCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "pull <model-id>",
		Short:   "Download a catalog model into the storage root",
		Example: "  phrased pull gemma-2-2b\n  phrased pull llama-3.2-3b --tool none",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return pull(ctx, a, args[0], cmd.OutOrStdout())
		},
	}
}

// pull acquires id while printing progress lines to out.
func pull(ctx context.Context, a *app.App, id string, out io.Writer) error {
	ch, unsubscribe := a.Orchestrator().Subscribe()
	g, gctx := errgroup.WithContext(ctx)
	var dest string
	g.Go(func() error {
		defer unsubscribe()
		p, err := a.Acquire(gctx, id)
		dest = p
		return err
	})
	g.Go(func() error {
		p := progressPrinter{out: out, lastPct: -1}
		for s := range ch {
			p.print(s)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, "pull canceled")
		}
		return err
	}
	final := a.DownloadStatus()
	if final.Canceled || dest == "" {
		fmt.Fprintln(out, "pull canceled")
		return nil
	}
	fmt.Fprintf(out, "%s ready at %s (%s)\n", id, dest, units.HumanSize(float64(final.TotalBytes)))
	return nil
}

// progressPrinter writes one line per whole percent or file change.
type progressPrinter struct {
	out      io.Writer
	lastPct  int
	lastFile string
}

func (p *progressPrinter) print(s acquire.State) {
	if !s.Downloading {
		return
	}
	pct := int(math.Floor(s.Progress * 100))
	if pct == p.lastPct && s.CurrentFile == p.lastFile {
		return
	}
	p.lastPct, p.lastFile = pct, s.CurrentFile
	fmt.Fprintf(p.out, "%3d%%  %-18s  %s\n", pct, s.FormattedProgress(), s.Status)
}
