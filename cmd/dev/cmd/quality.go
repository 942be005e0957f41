package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (decoders, device handle, spi backends, cli)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
}

func LintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
}

// IntegrationTestCmd runs the tests that need a MAX31855 wired to the host's SPI bus.
// The endpoint is handed to the tests through the same variables the cli reads.
func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run hardware-in-the-loop tests against a wired MAX31855",
		RunE: func(cmd *cobra.Command, args []string) error {
			device := cmd.Flag("device").Value.String()
			if device == "" {
				return fmt.Errorf("no spi endpoint given, use --device (e.g. SPI0.0)")
			}
			for key, value := range map[string]string{
				"MAX31855_DEVICE":  device,
				"MAX31855_BACKEND": cmd.Flag("backend").Value.String(),
			} {
				if err := os.Setenv(key, value); err != nil {
					return fmt.Errorf("could not set %s: %w", key, err)
				}
			}
			slog.Info("running integration tests", "device", device)
			if err := test.Integ(); err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("device", os.Getenv("MAX31855_DEVICE"), "spi endpoint the MAX31855 is wired to")
	cmd.Flags().String("backend", "periph", "spi backend: periph or gobot")
	return cmd
}
