package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/webdav"
)

func (c *cli) syncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy the data file to or from a WebDAV server",
		Long: `Sync transfers the whole data file. push uploads the local copy and pull
replaces it with the remote one; there is no merge. Configure the server in
the webdav section of the config file or with OKLINE_WEBDAV_URL,
OKLINE_WEBDAV_USERNAME and OKLINE_WEBDAV_PASSWORD.`,
	}

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the local data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, client, err := c.syncClient(cmd)
			if err != nil {
				return err
			}
			if err := webdav.Push(cmd.Context(), client, a.store); err != nil {
				return fmt.Errorf("push: %w", err)
			}
			fmt.Fprintf(a.out, "Pushed to %s\n", client.RemotePath())
			return nil
		},
	}

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local data file with the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, client, err := c.syncClient(cmd)
			if err != nil {
				return err
			}
			snap, err := webdav.Pull(cmd.Context(), client, a.store)
			if errors.Is(err, webdav.ErrRemoteNotFound) {
				fmt.Fprintf(a.out, "Nothing at %s yet; local data kept\n", client.RemotePath())
				return nil
			}
			if err != nil {
				return fmt.Errorf("pull: %w", err)
			}
			fmt.Fprintf(a.out, "Pulled %d groups, last modified %s\n",
				len(snap.Groups), humanize.Time(snap.Metadata.LastModified))
			return nil
		},
	}

	syncCmd.AddCommand(pushCmd, pullCmd)
	return syncCmd
}

// syncClient loads the app and builds a WebDAV client from its config.
func (c *cli) syncClient(cmd *cobra.Command) (*app, *webdav.Client, error) {
	a, err := c.app(cmd)
	if err != nil {
		return nil, nil, err
	}
	client, err := webdav.NewClient(a.cfg.WebDAV.Client(), webdav.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}
	return a, client, nil
}
