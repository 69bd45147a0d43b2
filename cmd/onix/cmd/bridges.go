package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceONIX/pkg/regbus"
)

var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "List connected USB register bridges",
	RunE:  runBridges,
}

func init() {
	rootCmd.AddCommand(bridgesCmd)
}

func runBridges(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bridges, err := regbus.DiscoverBridges(ctx)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(out(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(bridges)
	}
	if len(bridges) == 0 {
		fmt.Fprintln(out(cmd), "No register bridges found")
		return nil
	}
	tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRIDGE\tVID:PID\tSERIAL")
	for _, b := range bridges {
		fmt.Fprintf(tw, "%s\t%04x:%04x\t%s\n", b.Label(), b.VendorID, b.ProductID, b.SerialNumber)
	}
	return tw.Flush()
}
