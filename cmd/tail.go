package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/client"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/logger"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/protocol"
	"github.com/spf13/cobra"
)

var tailURL string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the change events of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lg, clg := newLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := client.NewClient(tailURL, lg)
		err := c.Run(ctx, func(p protocol.ChangePayload) {
			kind := "file"
			if p.IsDirectory {
				kind = "dir"
			}
			clg.Printcf(colorOf(p.EventType), "%-8s %-4s %s", p.EventType, kind, p.Path)
		})
		if err != nil {
			clg.Failf("tail error : %v", err)
			return fmt.Errorf("tail %s: %w", tailURL, err)
		}
		return nil
	},
}

func colorOf(eventType string) logger.Color {
	switch eventType {
	case string(internal.Created):
		return logger.ColorGreen
	case string(internal.Deleted):
		return logger.ColorRed
	case string(internal.Moved):
		return logger.ColorYellow
	}
	return logger.ColorBlue
}

func init() {
	tailCmd.Flags().StringVar(&tailURL, "url", "http://127.0.0.1:8080", "base url of the server.")
}
