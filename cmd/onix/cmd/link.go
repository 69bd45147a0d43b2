package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/link"
	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
)

var linkTimeout time.Duration

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Negotiate the headstage link voltage",
	Long: `Sweep the port voltage of the link controller until the headstage
serializer locks, then raise it by the configured margin and confirm the
lock still holds.

Examples:
  onix link --bus usb
  onix link --bus serial --port /dev/ttyACM0 --json`,
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
	addBusFlags(linkCmd.Flags())
	linkCmd.Flags().DurationVar(&linkTimeout, "timeout", 30*time.Second, "abort the sweep after this long")
}

type linkResult struct {
	Voltage float64 `json:"voltage"`
	Locked  bool    `json:"locked"`
}

func runLink(cmd *cobra.Command, args []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bus, err := regbus.Open(c.Bus.RegbusConfig())
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	defer bus.Close()
	if sim, ok := bus.(*regbus.SimBus); ok {
		sim.Registers[link.RegLinkState] = link.LinkStateLock | link.LinkStateParity
	}

	n := link.NewNegotiator(bus, c.Link.Sweep())
	n.Logger = logger(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), linkTimeout)
	defer cancel()

	spin := startSpinner(cmd, "negotiating link voltage")
	v, err := n.Negotiate(ctx)
	stopSpinner(spin, err)
	if err != nil {
		return err
	}

	res := linkResult{Voltage: float64(v) / 10, Locked: true}
	if outputJSON {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(out(cmd), "Link locked at %.1f V\n", res.Voltage)
	return nil
}
