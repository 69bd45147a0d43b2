package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/OpenTraceONIX/internal/config"
)

var (
	// Global flags
	verbose    bool
	outputJSON bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "onix",
	Short: "ONIX headstage configuration tool",
	Long: `Encode, program and inspect ONIX headstage configurations: Neuropixels 1.0e
probe shift registers and RHS2116 stimulus sequences.

Configuration is read from onix.yml (or --config), then ONIX_* environment
variables, then flags.

Examples:
  onix encode --gain-calibration gain.csv --adc-calibration adc.csv
  onix program --bus usb --gain-calibration gain.csv --adc-calibration adc.csv
  onix stim validate sequence.yml
  onix config`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output JSON")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default "+config.DefaultFileName+")")
}

// addProbeFlags registers the flags that override the probe section.
func addProbeFlags(fs *pflag.FlagSet) {
	fs.String("family", "", "device family (neuropixels-v1e)")
	fs.String("spike-gain", "", "AP band gain (x50..x3000)")
	fs.String("lfp-gain", "", "LFP band gain (x50..x3000)")
	fs.String("reference", "", "reference (ext, tip, test)")
	fs.Bool("spike-filter", true, "engage the AP band high-pass filter")
	fs.String("gain-calibration", "", "gain calibration file")
	fs.String("adc-calibration", "", "ADC calibration file")
	fs.String("channel-map", "", "channel activation map (JSON)")
}

// addBusFlags registers the flags that override the bus section.
func addBusFlags(fs *pflag.FlagSet) {
	fs.String("bus", "", "register bus (sim, usb, serial)")
	fs.String("port", "", "serial port of the register bridge")
	fs.Int("baud", 0, "serial baud rate")
	fs.Float64("writes-per-second", 0, "throttle register writes")
	fs.Int("attempts", 0, "shift register write attempts")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

// logger returns a protocol trace logger when --verbose is set.
func logger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(cmd.ErrOrStderr(), "onix: ", log.Ltime|log.Lmicroseconds)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
