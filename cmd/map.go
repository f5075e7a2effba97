package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/waymap/internal/display"
	"github.com/bnema/waymap/internal/input"
	"github.com/bnema/waymap/internal/logger"
	"github.com/bnema/waymap/internal/mapper"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Compute device-to-monitor bindings for the current setup",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		topology, err := display.CurrentTopology()
		if err != nil {
			return err
		}

		devices, err := input.ListDevices()
		if err != nil {
			return err
		}

		var probe input.SizeProbe
		if p, err := input.NewUdevSizeProbe(); err == nil {
			probe = p
		} else {
			logger.Debugf("Running without size probe: %v", err)
		}

		m := mapper.New(store, probe)
		m.RebuildOutputs(topology)
		for _, d := range devices {
			m.RegisterDevice(d)
		}

		fmt.Println(headerStyle.Render("Bindings"))
		for _, d := range devices {
			if d.Type.Capability() == 0 {
				continue
			}
			if lm, ok := m.OutputForDevice(d); ok {
				fmt.Printf("  %s %s %s\n",
					nameStyle.Render(d.Name),
					subtleStyle.Render("->"),
					boundStyle.Render(lm.ID))
			} else {
				fmt.Printf("  %s %s\n",
					nameStyle.Render(d.Name),
					unboundStyle.Render("unbound"))
			}
		}
		return nil
	},
}
