package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/upch-biolab/phmon/pkg/client"
	"github.com/upch-biolab/phmon/pkg/daemon"
)

func NewStartCommand() *cobra.Command {
	req := daemon.StartRequest{}

	cmd := &cobra.Command{
		Use:     "start",
		GroupID: gBasic,
		Short:   "Start acquiring samples",
		Long: `Start reading the sensor. Sources:

  serial  read lines from a serial port (default)
  ble     read lines from a BLE UART peripheral
  sim     a simulated electrode, no hardware needed`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := client.NewClient(unixSocketPath).StartAcquisition(req)
			if err != nil {
				return fmt.Errorf("failed to start acquisition: %w", err)
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Source, "source", "serial", "acquisition source (serial, ble, sim)")
	f.StringVar(&req.Port, "port", "", "serial port (defaults to the configured port)")
	f.IntVar(&req.Baud, "baud", 0, "baud rate (defaults to the configured rate)")
	f.StringVar(&req.Device, "device", "", "BLE device name (defaults to the configured name)")

	return cmd
}

func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "stop",
		GroupID: gBasic,
		Short:   "Stop acquiring samples",
		Long:    `Stop the running acquisition. Collected samples stay available for export.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := client.NewClient(unixSocketPath).StopAcquisition()
			if err != nil {
				return fmt.Errorf("failed to stop acquisition: %w", err)
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}
}

func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		GroupID: gBasic,
		Short:   "Clear the sample buffer",
		Long:    `Drop all retained samples and restart the relative time axis at zero.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ret, err := client.NewClient(unixSocketPath).ResetBuffer()
			if err != nil {
				return fmt.Errorf("failed to reset buffer: %w", err)
			}
			logrus.Infof("daemon responded: %s", ret)
			return nil
		},
	}
}

func NewPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ports",
		GroupID: gAdvanced,
		Short:   "List serial ports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := client.NewClient(unixSocketPath).GetPorts()
			if err != nil {
				return fmt.Errorf("failed to list serial ports: %w", err)
			}
			if len(ports) == 0 {
				cmd.Println("no serial ports found")
				return nil
			}
			for _, p := range ports {
				cmd.Println(p)
			}
			return nil
		},
	}
}
