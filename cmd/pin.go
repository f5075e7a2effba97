package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waymap/internal/display"
)

// pinCmd writes a per-device output override: the named device is then
// always matched to the named monitor, over every heuristic.
var pinCmd = &cobra.Command{
	Use:   "pin <vendor:product> <connector>",
	Short: "Pin a device to a monitor (or clear with --clear)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		deviceKey := args[0]

		if clear, _ := cmd.Flags().GetBool("clear"); clear {
			if err := store.ClearOutputOverride(deviceKey); err != nil {
				return err
			}
			fmt.Printf("Cleared override for %s\n", nameStyle.Render(deviceKey))
			return nil
		}

		if len(args) != 2 {
			return fmt.Errorf("connector argument required unless --clear is given")
		}

		topology, err := display.CurrentTopology()
		if err != nil {
			return err
		}
		for _, m := range topology.Monitors() {
			if m.Connector == args[1] {
				if err := store.SetOutputOverride(deviceKey, m.Vendor, m.Product, m.Serial); err != nil {
					return err
				}
				fmt.Printf("Pinned %s to %s (%s %s)\n",
					nameStyle.Render(deviceKey), boundStyle.Render(m.Connector),
					m.Vendor, m.Product)
				return nil
			}
		}
		return fmt.Errorf("no connected monitor named %q", args[1])
	},
}

func init() {
	pinCmd.Flags().Bool("clear", false, "remove the override instead of setting one")
}
