package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"phrased/pkg/types"
)

const defaultServer = "http://127.0.0.1:8080"

func newCancelCmd(opts *globalOptions) *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:     "cancel",
		Short:   "Cancel the download running in a phrased server",
		Example: "  phrased cancel --server http://127.0.0.1:8080",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			// the status keeps Canceled from an earlier attempt, so only an
			// active download can be reported as canceled by this call
			before, err := remoteStatus(cmd, server, http.MethodGet)
			if err != nil {
				return err
			}
			if !before.IsDownloading {
				fmt.Fprintln(cmd.OutOrStdout(), "no download in progress")
				return nil
			}
			after, err := remoteStatus(cmd, server, http.MethodDelete)
			if err != nil {
				return err
			}
			if after.Canceled && after.Attempt == before.Attempt {
				fmt.Fprintln(cmd.OutOrStdout(), "download canceled")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "download finished before it could be canceled")
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", defaultServer, "Base URL of the phrased server")
	return cmd
}

// remoteStatus calls /download on server with method and decodes the state.
func remoteStatus(cmd *cobra.Command, server, method string) (types.DownloadStatus, error) {
	var st types.DownloadStatus
	endpoint := strings.TrimRight(server, "/") + "/download"
	req, err := http.NewRequestWithContext(cmd.Context(), method, endpoint, http.NoBody)
	if err != nil {
		return st, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return st, fmt.Errorf("contact server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return st, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}
