package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/npx"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/sequencer"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)

	s, err := c.Probe.Settings()
	require.NoError(t, err)
	assert.Equal(t, npx.DefaultSettings(), s)

	f, err := c.Probe.FamilyValue()
	require.NoError(t, err)
	assert.Equal(t, sequencer.FamilyNeuropixelsV1e, f)

	assert.Equal(t, regbus.KindSim, c.Bus.RegbusConfig().Kind)
	assert.Equal(t, byte(npx.ProbeAddress), c.Bus.RegbusConfig().Device)
	assert.Equal(t, 2, c.Retry.Policy().MaxAttempts)
	assert.Equal(t, 9, c.Link.Sweep().Steps())
}

func TestLayering(t *testing.T) {
	path := writeFile(t, "onix.yml", `
probe:
  spike_gain: x500
  reference: tip
bus:
  kind: serial
  port: /dev/ttyACM0
  timeout: 250ms
retry:
  attempts: 4
`)
	t.Setenv("ONIX_PROBE__LFP_GAIN", "x250")
	t.Setenv("ONIX_BUS__PORT", "/dev/ttyACM1")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("reference", "ext", "")
	flags.Int("attempts", 2, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--attempts=5", "--unrelated=x"}))

	c, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "x500", c.Probe.SpikeGain, "file")
	assert.Equal(t, "x250", c.Probe.LfpGain, "environment")
	assert.Equal(t, "tip", c.Probe.Reference, "unset flag must not override the file")
	assert.Equal(t, "/dev/ttyACM1", c.Bus.Port, "environment over file")
	assert.Equal(t, 5, c.Retry.Attempts, "flag over file")
	assert.Equal(t, 250*time.Millisecond, c.Bus.Timeout)
	assert.Equal(t, uint16(regbus.VendorIDRaspberryPi), c.Bus.VendorID, "default kept")

	s, err := c.Probe.Settings()
	require.NoError(t, err)
	assert.Equal(t, npx.Gain500, s.SpikeGain)
	assert.Equal(t, npx.Gain250, s.LfpGain)
	assert.Equal(t, npx.ReferenceTip, s.Reference)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"), nil)
	assert.Error(t, err)
}

func TestSettingsErrors(t *testing.T) {
	p := Defaults().Probe
	p.SpikeGain = "x7"
	_, err := p.Settings()
	assert.Error(t, err)

	p = Defaults().Probe
	p.ChannelMap = writeFile(t, "map.json", `[{"channel": 1, "enabled": true}, {"channel": 1}]`)
	s, err := p.Settings()
	require.NoError(t, err, "duplicates are rejected at encode time")
	assert.Len(t, s.ChannelMap, 2)

	p.ChannelMap = writeFile(t, "bad.json", `{`)
	_, err = p.Settings()
	assert.Error(t, err)

	_, _, err = p.Calibrations()
	assert.Error(t, err)
}

func TestDumpRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, Defaults()))
	assert.Contains(t, buf.String(), "spike_gain: x1000")
	assert.Contains(t, buf.String(), "settle: 500ms")

	path := writeFile(t, "dumped.yml", buf.String())
	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}
