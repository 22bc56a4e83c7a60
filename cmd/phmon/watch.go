package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/upch-biolab/phmon/pkg/client"
)

func NewWatchCommand() *cobra.Command {
	interval := time.Second

	cmd := &cobra.Command{
		Use:     "watch",
		GroupID: gBasic,
		Short:   "Print live samples",
		Long:    `Poll the daemon for the latest sample and print it until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiClient := client.NewClient(unixSocketPath)

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			var lastTRel = -1.0
			for {
				select {
				case <-sigc:
					return nil
				case <-ticker.C:
				}

				s, err := apiClient.GetLatestSample()
				if err != nil {
					// Nothing collected yet; keep polling.
					continue
				}
				if s.TRel == lastTRel {
					continue
				}
				lastTRel = s.TRel

				cmd.Printf("t=%8.1fs  V=%.4f  pH(2p)=%s  pH(Nernst)=%s\n",
					s.TRel, s.Voltage, phText(s.PHTwoPoint), phText(s.PHNernst))
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval")

	return cmd
}
