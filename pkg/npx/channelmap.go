package npx

import (
	"encoding/json"
	"fmt"
)

// ChannelAssignment activates one recording channel. A zero Reference
// inherits the probe-wide reference.
type ChannelAssignment struct {
	Channel   int             `json:"channel"`
	Enabled   bool            `json:"enabled"`
	Reference ReferenceSource `json:"reference,omitempty"`
}

// ChannelMap is the decoded channel-activation map. Channels that do not
// appear are disabled.
type ChannelMap []ChannelAssignment

// AllChannels returns a map enabling channels 0..n-1 on the probe reference.
func AllChannels(n int) ChannelMap {
	m := make(ChannelMap, n)
	for i := range m {
		m[i] = ChannelAssignment{Channel: i, Enabled: true}
	}
	return m
}

// ParseChannelMap decodes a JSON channel-activation map.
func ParseChannelMap(data []byte) (ChannelMap, error) {
	var m ChannelMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("npx: decode channel map: %w", err)
	}
	return m, nil
}

// Validate checks channel indices against channelCount and rejects
// duplicates and undefined reference codes.
func (m ChannelMap) Validate(channelCount int) error {
	seen := make(map[int]bool, len(m))
	for _, a := range m {
		if a.Channel < 0 || a.Channel >= channelCount {
			return fmt.Errorf("npx: channel %d out of range [0,%d)", a.Channel, channelCount)
		}
		if seen[a.Channel] {
			return fmt.Errorf("npx: channel %d assigned more than once", a.Channel)
		}
		seen[a.Channel] = true
		if a.Reference != 0 && !a.Reference.Valid() {
			return fmt.Errorf("npx: channel %d: invalid reference code %d", a.Channel, uint8(a.Reference))
		}
	}
	return nil
}

// Enabled returns the number of enabled channels.
func (m ChannelMap) Enabled() int {
	n := 0
	for _, a := range m {
		if a.Enabled {
			n++
		}
	}
	return n
}
