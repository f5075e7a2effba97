package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waymap/internal/input"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List input devices and their mapping capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := input.ListDevices()
		if err != nil {
			return err
		}

		fmt.Println(headerStyle.Render("Input devices"))
		for _, d := range devices {
			status := subtleStyle.Render("no mapping capability")
			if caps := d.Type.Capability(); caps != 0 {
				status = boundStyle.Render(d.Type.String())
			}
			fmt.Printf("  %s  %s\n", nameStyle.Render(d.Name), status)
			if d.Node != "" {
				fmt.Printf("    %s\n", subtleStyle.Render(
					fmt.Sprintf("%s  %s:%s", d.Node, d.VendorID, d.ProductID)))
			}
		}
		return nil
	},
}
