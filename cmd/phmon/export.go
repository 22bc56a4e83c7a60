package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upch-biolab/phmon/pkg/client"
)

func NewExportCommand() *cobra.Command {
	var (
		outPath string
		window  int
	)

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: gBasic,
		Short:   "Export retained samples as CSV",
		Long: `Export the retained sample history as CSV (header row first, fields
t_rel, voltage, ph_two_point, ph_nernst). Samples already evicted from the
bounded buffer are gone. Writes to stdout unless -o is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			csvText, err := client.NewClient(unixSocketPath).ExportCSV(window)
			if err != nil {
				return err
			}

			if outPath == "" {
				cmd.Print(csvText)
				return nil
			}

			if err := os.WriteFile(outPath, []byte(csvText), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			logrus.Infof("wrote %s", outPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	f.IntVar(&window, "window", 0, "export only the last N samples (default all retained)")

	return cmd
}
