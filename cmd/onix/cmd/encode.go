package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceONIX/internal/config"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode probe settings into shift register payloads",
	Long: `Parse the calibration files and channel map, encode the probe settings and
print the packed shank and base configuration bytes. Nothing is sent to the
probe.

Examples:
  onix encode --gain-calibration gain.csv --adc-calibration adc.csv
  onix encode --json --spike-gain x500 --reference tip \
      --gain-calibration gain.csv --adc-calibration adc.csv`,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	addProbeFlags(encodeCmd.Flags())
}

// PayloadInfo is the printable form of an encoded payload.
type PayloadInfo struct {
	SerialNumber        uint64   `json:"serial_number"`
	SpikeGainCorrection float64  `json:"spike_gain_correction"`
	LfpGainCorrection   float64  `json:"lfp_gain_correction"`
	EnabledChannels     int      `json:"enabled_channels"`
	Shank               string   `json:"shank"`
	BaseEven            string   `json:"base_even"`
	BaseOdd             string   `json:"base_odd"`
	AdcOffsets          []uint16 `json:"adc_offsets"`
	AdcThresholds       []uint16 `json:"adc_thresholds"`
}

func newPayloadInfo(s npx.Settings, p *npx.Payload) PayloadInfo {
	enabled := npx.ChannelCount
	if s.ChannelMap != nil {
		enabled = s.ChannelMap.Enabled()
	}
	return PayloadInfo{
		SerialNumber:        p.SerialNumber,
		SpikeGainCorrection: p.SpikeGainCorrection,
		LfpGainCorrection:   p.LfpGainCorrection,
		EnabledChannels:     enabled,
		Shank:               hex.EncodeToString(p.ShankBytes),
		BaseEven:            hex.EncodeToString(p.BaseBytes[0]),
		BaseOdd:             hex.EncodeToString(p.BaseBytes[1]),
		AdcOffsets:          p.AdcOffsets,
		AdcThresholds:       p.AdcThresholds,
	}
}

// buildPayload parses the configured calibration files and encodes the
// probe settings.
func buildPayload(c config.Config) (npx.Settings, *npx.Payload, error) {
	s, err := c.Probe.Settings()
	if err != nil {
		return s, nil, err
	}
	gainFile, adcFile, err := c.Probe.Calibrations()
	if err != nil {
		return s, nil, err
	}
	defer gainFile.Close()
	defer adcFile.Close()

	gain, adc, err := npx.ParseCalibrations(gainFile, adcFile)
	if err != nil {
		return s, nil, err
	}
	p, err := npx.Build(s, gain, adc)
	return s, p, err
}

func runEncode(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, p, err := buildPayload(c)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	info := newPayloadInfo(s, p)

	w := out(cmd)
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(w, "Probe serial number: %d\n", info.SerialNumber)
	fmt.Fprintf(w, "Gains: AP %v (correction %.4f), LFP %v (correction %.4f)\n",
		s.SpikeGain, info.SpikeGainCorrection, s.LfpGain, info.LfpGainCorrection)
	fmt.Fprintf(w, "Reference: %v, spike filter: %v\n", s.Reference, s.SpikeFilter)
	fmt.Fprintf(w, "Enabled channels: %d/%d\n", info.EnabledChannels, npx.ChannelCount)
	fmt.Fprintf(w, "\nShank (%d bytes):\n%s\n", len(p.ShankBytes), info.Shank)
	fmt.Fprintf(w, "\nBase even (%d bytes):\n%s\n", len(p.BaseBytes[0]), info.BaseEven)
	fmt.Fprintf(w, "\nBase odd (%d bytes):\n%s\n", len(p.BaseBytes[1]), info.BaseOdd)
	if verbose {
		fmt.Fprintf(w, "\nADC offsets:    %v\n", info.AdcOffsets)
		fmt.Fprintf(w, "ADC thresholds: %v\n", info.AdcThresholds)
	}
	return nil
}
