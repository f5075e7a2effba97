package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waymap/internal/display"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List connected monitors and their EDID identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		topology, err := display.CurrentTopology()
		if err != nil {
			return err
		}

		fmt.Println(headerStyle.Render("Monitors"))
		for _, lm := range topology.LogicalMonitors {
			for _, m := range lm.Monitors {
				builtin := ""
				if m.Builtin {
					builtin = boundStyle.Render("  builtin")
				}
				fmt.Printf("  %s  %dx%d+%d+%d%s\n",
					nameStyle.Render(m.Connector), m.Width, m.Height, m.X, m.Y, builtin)
				fmt.Printf("    %s\n", subtleStyle.Render(fmt.Sprintf(
					"%s %s serial=%q  %dx%dmm",
					m.Vendor, m.Product, m.Serial, m.WidthMm, m.HeightMm)))
			}
		}
		return nil
	},
}
