// Package config loads the layered onix configuration: built-in defaults,
// then a YAML file, then ONIX_* environment variables, then command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/link"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/retry"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/sequencer"
)

// DefaultFileName is read from the working directory when no file is given.
const DefaultFileName = "onix.yml"

// EnvPrefix prefixes environment overrides. Sections are separated by a
// double underscore: ONIX_BUS__KIND=usb sets bus.kind.
const EnvPrefix = "ONIX_"

// Config is the complete application configuration.
type Config struct {
	Probe Probe `koanf:"probe" yaml:"probe"`
	Bus   Bus   `koanf:"bus" yaml:"bus"`
	Retry Retry `koanf:"retry" yaml:"retry"`
	Link  Link  `koanf:"link" yaml:"link"`
}

// Probe holds the recording settings and input files.
type Probe struct {
	Family          string `koanf:"family" yaml:"family"`
	SpikeGain       string `koanf:"spike_gain" yaml:"spike_gain"`
	LfpGain         string `koanf:"lfp_gain" yaml:"lfp_gain"`
	Reference       string `koanf:"reference" yaml:"reference"`
	SpikeFilter     bool   `koanf:"spike_filter" yaml:"spike_filter"`
	GainCalibration string `koanf:"gain_calibration" yaml:"gain_calibration"`
	AdcCalibration  string `koanf:"adc_calibration" yaml:"adc_calibration"`
	ChannelMap      string `koanf:"channel_map" yaml:"channel_map"`
}

// Bus selects the register bus.
type Bus struct {
	Kind            string        `koanf:"kind" yaml:"kind"`
	VendorID        uint16        `koanf:"vendor_id" yaml:"vendor_id"`
	ProductID       uint16        `koanf:"product_id" yaml:"product_id"`
	Port            string        `koanf:"port" yaml:"port"`
	Baud            int           `koanf:"baud" yaml:"baud"`
	Device          uint8         `koanf:"device" yaml:"device"`
	WritesPerSecond float64       `koanf:"writes_per_second" yaml:"writes_per_second"`
	Timeout         time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Retry bounds shift register write attempts.
type Retry struct {
	Attempts int           `koanf:"attempts" yaml:"attempts"`
	Delay    time.Duration `koanf:"delay" yaml:"delay"`
}

// Link configures the headstage port voltage sweep, in units of 0.1 V.
type Link struct {
	MinVoltage uint32        `koanf:"min_voltage" yaml:"min_voltage"`
	MaxVoltage uint32        `koanf:"max_voltage" yaml:"max_voltage"`
	Step       uint32        `koanf:"step" yaml:"step"`
	Margin     uint32        `koanf:"margin" yaml:"margin"`
	Settle     time.Duration `koanf:"settle" yaml:"settle"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	s := npx.DefaultSettings()
	return Config{
		Probe: Probe{
			Family:      sequencer.FamilyNeuropixelsV1e.String(),
			SpikeGain:   s.SpikeGain.String(),
			LfpGain:     s.LfpGain.String(),
			Reference:   s.Reference.String(),
			SpikeFilter: s.SpikeFilter,
		},
		Bus: Bus{
			Kind:      string(regbus.KindSim),
			VendorID:  regbus.VendorIDRaspberryPi,
			ProductID: regbus.ProductIDBridge,
			Baud:      regbus.DefaultBaud,
			Device:    npx.ProbeAddress,
			Timeout:   regbus.DefaultTimeout,
		},
		Retry: Retry{
			Attempts: retry.DefaultPolicy.MaxAttempts,
			Delay:    retry.DefaultPolicy.Delay,
		},
		Link: Link{
			MinVoltage: link.Rhs2116Sweep.MinVoltage,
			MaxVoltage: link.Rhs2116Sweep.MaxVoltage,
			Step:       link.Rhs2116Sweep.Step,
			Margin:     link.Rhs2116Sweep.Margin,
			Settle:     link.Rhs2116Sweep.Settle,
		},
	}
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"family":            "probe.family",
	"spike-gain":        "probe.spike_gain",
	"lfp-gain":          "probe.lfp_gain",
	"reference":         "probe.reference",
	"spike-filter":      "probe.spike_filter",
	"gain-calibration":  "probe.gain_calibration",
	"adc-calibration":   "probe.adc_calibration",
	"channel-map":       "probe.channel_map",
	"bus":               "bus.kind",
	"port":              "bus.port",
	"baud":              "bus.baud",
	"writes-per-second": "bus.writes_per_second",
	"attempts":          "retry.attempts",
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Load builds the configuration. A missing file is an error only when path
// is not DefaultFileName. flags may be nil; only flags listed in FlagKeys
// are applied, and only when set on the command line.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if path == "" {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) || path != DefaultFileName {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}

	if flags != nil {
		cb := func(name, value string) (string, interface{}) {
			key, ok := FlagKeys[name]
			if !ok {
				return "", nil
			}
			if f := flags.Lookup(name); f == nil || !f.Changed {
				return "", nil
			}
			return key, value
		}
		if err := k.Load(posflag.ProviderWithValue(flags, ".", k, cb), nil); err != nil {
			return Config{}, fmt.Errorf("config: flags: %w", err)
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return c, nil
}

// Dump writes c as YAML.
func Dump(w io.Writer, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	_, err = w.Write(data)
	return err
}
