package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	servecmder "github.com/papercomputeco/ivrdesk/cmd/ivrdesk/serve"
	transcriptscmder "github.com/papercomputeco/ivrdesk/cmd/ivrdesk/transcripts"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ivrdesk",
		Short:         "AI voice assistant for IVR phone lines",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(transcriptscmder.NewTranscriptsCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
