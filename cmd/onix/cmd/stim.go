package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/rhs2116"
)

var stimHeadstage bool

var stimCmd = &cobra.Command{
	Use:   "stim",
	Short: "RHS2116 stimulus sequence tools",
	Long: `Validate and compile RHS2116 stimulus sequences.

A sequence file is YAML with a step size and one pulse train per channel.
With --headstage the file holds two sequences, a and b, one per device.`,
}

var stimCompileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a stimulus sequence into its delta table",
	Long: `Compile a stimulus sequence into the time-ordered enable and polarity
words loaded into the device stimulus memory.

Examples:
  onix stim compile sequence.yml
  onix stim compile --headstage --json headstage.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runStimCompile,
}

var stimValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a stimulus sequence against the device limits",
	Args:  cobra.ExactArgs(1),
	RunE:  runStimValidate,
}

func init() {
	rootCmd.AddCommand(stimCmd)
	stimCmd.AddCommand(stimCompileCmd)
	stimCmd.AddCommand(stimValidateCmd)
	stimCmd.PersistentFlags().BoolVar(&stimHeadstage, "headstage", false, "file holds a two-device headstage")
}

// loadStim reads the file as a headstage, or as a single sequence placed on
// device A.
func loadStim(path string) (*rhs2116.Headstage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stim: %w", err)
	}
	defer f.Close()

	if stimHeadstage {
		return rhs2116.LoadHeadstage(f)
	}
	s, err := rhs2116.LoadSequence(f)
	if err != nil {
		return nil, err
	}
	return &rhs2116.Headstage{A: s}, nil
}

type compiledDevice struct {
	Device        string          `json:"device"`
	StepSize      string          `json:"step_size"`
	LengthSamples uint32          `json:"length_samples"`
	Slots         int             `json:"slots"`
	Entries       []rhs2116.Entry `json:"entries"`
	Warning       string          `json:"warning,omitempty"`
}

// compileDevice rejects invalid sequences. A sequence that only exceeds the
// stimulus memory still compiles, with a warning.
func compileDevice(name string, s *rhs2116.Sequence) (compiledDevice, error) {
	report := s.Validate()
	if !report.Valid {
		return compiledDevice{}, fmt.Errorf("device %s: %w", name, report.Err())
	}
	table, err := s.Compile()
	if err != nil {
		return compiledDevice{}, fmt.Errorf("device %s: %w", name, err)
	}
	d := compiledDevice{
		Device:        name,
		StepSize:      s.StepSize.String(),
		LengthSamples: s.SequenceLengthSamples(),
		Slots:         len(table),
		Entries:       table.Entries(),
	}
	if !report.FitsInHardware {
		d.Warning = report.Err().Error()
	}
	return d, nil
}

func runStimCompile(cmd *cobra.Command, args []string) error {
	h, err := loadStim(args[0])
	if err != nil {
		return err
	}

	var devices []compiledDevice
	for _, d := range []struct {
		name string
		seq  *rhs2116.Sequence
	}{{"A", h.A}, {"B", h.B}} {
		if d.seq == nil {
			continue
		}
		c, err := compileDevice(d.name, d.seq)
		if err != nil {
			return err
		}
		devices = append(devices, c)
	}

	w := out(cmd)
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}
	for i, d := range devices {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printCompiled(w, d)
	}
	return nil
}

func printCompiled(w io.Writer, d compiledDevice) {
	fmt.Fprintf(w, "Device %s: step %s, %d samples, %d slots\n", d.Device, d.StepSize, d.LengthSamples, d.Slots)
	if d.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", d.Warning)
	}
	fmt.Fprintf(w, "%10s  %-10s  %-6s  %-6s\n", "TIME", "WORD", "ENABLE", "POLAR")
	for _, e := range d.Entries {
		fmt.Fprintf(w, "%10d  0x%08X  0x%04X  0x%04X\n", e.Time, e.Word, e.Word&0xFFFF, e.Word>>16)
	}
}

func runStimValidate(cmd *cobra.Command, args []string) error {
	h, err := loadStim(args[0])
	if err != nil {
		return err
	}
	report := h.Validate()

	w := out(cmd)
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(w, "A", report.A)
		if stimHeadstage {
			printReport(w, "B", report.B)
		}
	}
	return report.Err()
}

func printReport(w io.Writer, device string, r rhs2116.Report) {
	status := "ok"
	if err := r.Err(); err != nil {
		status = err.Error()
	}
	fmt.Fprintf(w, "Device %s: %d/%d slots, %s\n", device, r.SlotsRequired, r.SlotsAvailable, status)
}
