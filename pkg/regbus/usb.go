package regbus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

const (
	// Default identifiers of the RP2040-based register bridge.
	VendorIDRaspberryPi = 0x2E8A
	ProductIDBridge     = 0x000A

	DefaultPacketSize = 64
	DefaultTimeout    = time.Second
)

// USBTransport exchanges bridge frames over a pair of bulk endpoints.
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	packetSize int
	timeout    time.Duration
}

// NewUSBTransport opens the first bridge matching vid:pid.
func NewUSBTransport(vid, pid uint16) (*USBTransport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("regbus: USB error: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("regbus: bridge not found (VID:0x%04X PID:0x%04X)", vid, pid)
	}

	// Not supported on every platform.
	_ = dev.SetAutoDetach(true)

	t := &USBTransport{
		ctx:        ctx,
		dev:        dev,
		packetSize: DefaultPacketSize,
		timeout:    DefaultTimeout,
	}
	if err := t.claimInterface(); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// claimInterface claims the vendor-class interface, falling back to
// interface 0.
func (t *USBTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return fmt.Errorf("regbus: get config: %w", err)
	}
	t.cfg = cfg

	num := 0
	for _, intf := range cfg.Desc.Interfaces {
		if len(intf.AltSettings) > 0 && intf.AltSettings[0].Class == gousb.ClassVendorSpec {
			num = intf.Number
			break
		}
	}

	intf, err := cfg.Interface(num, 0)
	if err != nil {
		return fmt.Errorf("regbus: claim interface %d: %w", num, err)
	}
	t.intf = intf
	return t.findEndpoints()
}

func (t *USBTransport) findEndpoints() error {
	var outAddr, inAddr int
	for _, ep := range t.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && outAddr == 0:
			outAddr = ep.Number
		case ep.Direction == gousb.EndpointDirectionIn && inAddr == 0:
			inAddr = ep.Number
			t.packetSize = ep.MaxPacketSize
		}
	}
	if outAddr == 0 {
		return fmt.Errorf("regbus: bulk OUT endpoint not found")
	}
	if inAddr == 0 {
		return fmt.Errorf("regbus: bulk IN endpoint not found")
	}

	epOut, err := t.intf.OutEndpoint(outAddr)
	if err != nil {
		return fmt.Errorf("regbus: open OUT endpoint: %w", err)
	}
	epIn, err := t.intf.InEndpoint(inAddr)
	if err != nil {
		return fmt.Errorf("regbus: open IN endpoint: %w", err)
	}
	t.epOut, t.epIn = epOut, epIn
	return nil
}

// SetTimeout bounds each request/reply exchange.
func (t *USBTransport) SetTimeout(d time.Duration) {
	t.timeout = d
}

// Transact writes req and returns the reply frame.
func (t *USBTransport) Transact(req []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.epOut.WriteContext(ctx, req); err != nil {
		return nil, fmt.Errorf("USB write failed: %w", err)
	}
	resp := make([]byte, t.packetSize)
	n, err := t.epIn.ReadContext(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("USB read failed: %w", err)
	}
	if n < FrameSize {
		return nil, fmt.Errorf("%w: short USB reply of %d bytes", ErrFrameFormat, n)
	}
	return resp[:FrameSize], nil
}

// Close releases USB resources.
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.cfg != nil {
		t.cfg.Close()
		t.cfg = nil
	}
	if t.dev != nil {
		t.dev.Close()
		t.dev = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}

// BridgeInfo describes a connected register bridge.
type BridgeInfo struct {
	VendorID     uint16
	ProductID    uint16
	SerialNumber string
	Description  string
}

// Label returns a user-friendly description for the bridge.
func (b BridgeInfo) Label() string {
	if b.Description != "" {
		return b.Description
	}
	return fmt.Sprintf("Bridge %04X:%04X", b.VendorID, b.ProductID)
}

type knownBridge struct {
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownBridges = []knownBridge{
	{VendorID: VendorIDRaspberryPi, ProductID: ProductIDBridge, Description: "Raspberry Pi register bridge"},
}

func isKnownBridge(desc *gousb.DeviceDesc) bool {
	for _, k := range knownBridges {
		if uint16(desc.Vendor) == k.VendorID && uint16(desc.Product) == k.ProductID {
			return true
		}
	}
	return false
}

// DiscoverBridges enumerates connected register bridges.
func DiscoverBridges(ctx context.Context) ([]BridgeInfo, error) {
	usb := gousb.NewContext()
	defer usb.Close()

	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		return isKnownBridge(desc)
	})
	if err != nil && err != gousb.ErrorAccess {
		for _, d := range devs {
			d.Close()
		}
		return nil, fmt.Errorf("regbus: enumerate devices: %w", err)
	}

	results := make([]BridgeInfo, 0, len(devs))
	for _, dev := range devs {
		serial, _ := dev.SerialNumber()
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()
		info := BridgeInfo{
			VendorID:     uint16(dev.Desc.Vendor),
			ProductID:    uint16(dev.Desc.Product),
			SerialNumber: serial,
		}
		if manufacturer != "" || product != "" {
			info.Description = fmt.Sprintf("%s %s", manufacturer, product)
		}
		results = append(results, info)
		dev.Close()
	}
	return results, nil
}
