package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/sequencer"
)

var programTimeout time.Duration

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Encode probe settings and program the probe",
	Long: `Encode the probe settings, then initialize the probe, load the shank and
base configuration shift registers and start acquisition over the
configured register bus.

Calibration files are parsed before the bus is opened; a calibration
serial number mismatch leaves the probe untouched.

Examples:
  onix program --gain-calibration gain.csv --adc-calibration adc.csv
  onix program --bus usb --attempts 3 -v \
      --gain-calibration gain.csv --adc-calibration adc.csv`,
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)
	addProbeFlags(programCmd.Flags())
	addBusFlags(programCmd.Flags())
	programCmd.Flags().DurationVar(&programTimeout, "timeout", time.Minute, "abort programming after this long")
}

// startSpinner shows progress on stderr unless output is machine readable or
// verbose tracing is on.
func startSpinner(cmd *cobra.Command, msg string) *yacspin.Spinner {
	if outputJSON || verbose {
		return nil
	}
	s, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		Writer:            cmd.ErrOrStderr(),
		CharSet:           yacspin.CharSets[14],
		Suffix:            " ",
		Message:           msg,
		StopCharacter:     "✓",
		StopFailCharacter: "✗",
	})
	if err != nil {
		return nil
	}
	if err := s.Start(); err != nil {
		return nil
	}
	return s
}

func stopSpinner(s *yacspin.Spinner, err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.StopFail()
		return
	}
	s.Stop()
}

// openBus opens the configured bus. The simulator reports successful shift
// register writes and a locked link.
func openBus(cfg regbus.Config) (regbus.BusCloser, error) {
	bus, err := regbus.Open(cfg)
	if err != nil {
		return nil, err
	}
	if sim, ok := bus.(*regbus.SimBus); ok {
		sim.Registers[npx.RegStatus] = npx.ShiftRegisterSuccess
	}
	return bus, nil
}

func runProgram(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	family, err := c.Probe.FamilyValue()
	if err != nil {
		return err
	}
	s, payload, err := buildPayload(c)
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}

	bus, err := openBus(c.Bus.RegbusConfig())
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}
	defer bus.Close()

	p, err := sequencer.New(bus, family)
	if err != nil {
		return err
	}
	p.Retry = c.Retry.Policy()
	p.Logger = logger(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), programTimeout)
	defer cancel()

	spin := startSpinner(cmd, fmt.Sprintf("programming probe %d over %s bus", payload.SerialNumber, c.Bus.Kind))
	err = p.Bringup(ctx, payload)
	stopSpinner(spin, err)
	if err != nil {
		return fmt.Errorf("program: %w", err)
	}

	if outputJSON {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(newPayloadInfo(s, payload))
	}
	fmt.Fprintf(out(cmd), "Programmed probe %d (%s)\n", payload.SerialNumber, family)
	if sim, ok := bus.(*regbus.SimBus); ok {
		fmt.Fprintf(out(cmd), "Simulated bus recorded %d register operations\n", len(sim.Ops()))
	}
	return nil
}
