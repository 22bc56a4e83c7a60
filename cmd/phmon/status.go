package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/client"
	"github.com/upch-biolab/phmon/pkg/daemon"
)

type statusData struct {
	acquisition *daemon.AcquisitionStatus
	latest      *daemon.SampleView
	twoPoint    calib.TwoPointParams
	nernst      calib.NernstParams
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData(apiClient *client.Client) (*statusData, error) {
	acq, err := apiClient.GetAcquisition()
	if err != nil {
		return nil, fmt.Errorf("failed to get acquisition status: %w", err)
	}

	twoPoint, err := apiClient.GetTwoPoint()
	if err != nil {
		return nil, fmt.Errorf("failed to get two-point calibration: %w", err)
	}

	nernst, err := apiClient.GetNernst()
	if err != nil {
		return nil, fmt.Errorf("failed to get Nernst calibration: %w", err)
	}

	// No samples yet is a normal state, not an error.
	latest, err := apiClient.GetLatestSample()
	if err != nil {
		latest = nil
	}

	return &statusData{
		acquisition: acq,
		latest:      latest,
		twoPoint:    twoPoint,
		nernst:      nernst,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of phmon",
		Long:    `Get acquisition state, the latest sample, and the calibration in use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apiClient := client.NewClient(unixSocketPath)
			data, err := fetchStatusData(apiClient)
			if err != nil {
				return err
			}

			cmd.Println(bold("Acquisition:"))
			cmd.Println("  Running: " + bool2Text(data.acquisition.Running))
			if data.acquisition.Source != "" {
				cmd.Printf("  Source: %s\n", data.acquisition.Source)
			}
			if data.acquisition.LastError != "" {
				cmd.Printf("  Last error: %s\n", color.RedString(data.acquisition.LastError))
			}
			cmd.Printf("  Samples retained: %d / %d\n", data.acquisition.Samples, data.acquisition.Capacity)

			cmd.Println()
			cmd.Println(bold("Latest sample:"))
			if data.latest == nil {
				cmd.Println("  (none yet)")
			} else {
				cmd.Printf("  t=%.1fs  V=%.4f\n", data.latest.TRel, data.latest.Voltage)
				cmd.Printf("  pH (two-point): %s\n", phText(data.latest.PHTwoPoint))
				cmd.Printf("  pH (Nernst):    %s\n", phText(data.latest.PHNernst))
			}

			cmd.Println()
			cmd.Println(bold("Calibration:"))
			cmd.Printf("  Two-point: pH %.2f @ %.3f V, pH %.2f @ %.3f V",
				data.twoPoint.PH1, data.twoPoint.V1, data.twoPoint.PH2, data.twoPoint.V2)
			if data.twoPoint.Degenerate() {
				cmd.Print("  " + color.RedString("(degenerate: V1 == V2)"))
			}
			cmd.Println()
			cmd.Printf("  Nernst: E0=%.3f V, T=%.1f °C, sign=%+d (slope %.5f V/pH)\n",
				data.nernst.E0, data.nernst.TemperatureC, data.nernst.Sign,
				calib.NernstSlope(data.nernst.TemperatureC))

			return nil
		},
	}
}

func phText(ph *float64) string {
	if ph == nil {
		return color.New(color.Bold, color.FgRed).Sprint("undefined")
	}
	return color.New(color.Bold).Sprintf("%.3f", *ph)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
