package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/client"
)

func parseFloatArgs(args []string, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("expected %d arguments (%v), got %d", len(names), names, len(args))
	}
	out := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", names[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// NewCalibrateCommand sets the calibration parameters used for all future
// samples. Already collected samples keep the values they were derived with.
func NewCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calibrate",
		GroupID: gBasic,
		Short:   "Set calibration parameters",
		Long: `Set the two-point or Nernst calibration used to derive pH from voltage.

Changes apply to future samples only and are persisted to the config file.`,
	}

	nernstSign := -1

	cmd.AddCommand(
		&cobra.Command{
			Use:   "two-point pH1 V1 pH2 V2",
			Short: "Set the two-point linear calibration",
			Long: `Set the two reference pairs of the two-point calibration, usually
measured in pH 7.00 and pH 4.00 buffer solutions. Example:

  phmon calibrate two-point 7.00 2.500 4.00 3.000`,
			RunE: func(_ *cobra.Command, args []string) error {
				vals, err := parseFloatArgs(args, "pH1", "V1", "pH2", "V2")
				if err != nil {
					return err
				}
				p := calib.TwoPointParams{PH1: vals[0], V1: vals[1], PH2: vals[2], V2: vals[3]}
				if p.Degenerate() {
					logrus.Warn("V1 == V2: the two-point series will read as undefined")
				}

				ret, err := client.NewClient(unixSocketPath).SetTwoPoint(p)
				if err != nil {
					return fmt.Errorf("failed to set two-point calibration: %w", err)
				}
				logrus.Infof("daemon responded: %s", ret)
				return nil
			},
		},
	)

	nernst := &cobra.Command{
		Use:   "nernst E0 tempC",
		Short: "Set the Nernst model parameters",
		Long: `Set the reference potential (volts at pH 7) and solution temperature
for the Nernst model. Example:

  phmon calibrate nernst 2.500 25.0 --sign=-1`,
		RunE: func(_ *cobra.Command, args []string) error {
			vals, err := parseFloatArgs(args, "E0", "tempC")
			if err != nil {
				return err
			}
			if nernstSign != 1 && nernstSign != -1 {
				return fmt.Errorf("sign must be +1 or -1, got %d", nernstSign)
			}
			p := calib.NernstParams{E0: vals[0], TemperatureC: vals[1], Sign: nernstSign}

			ret, err := client.NewClient(unixSocketPath).SetNernst(p)
			if err != nil {
				return fmt.Errorf("failed to set Nernst calibration: %w", err)
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}
	nernst.Flags().IntVar(&nernstSign, "sign", -1, "electrode polarity, +1 or -1")
	cmd.AddCommand(nernst)

	return cmd
}
