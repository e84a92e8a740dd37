package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"nextvolt/backend/services/nextvolt-api/internal/vehicle"
)

func newRangeCmd() *cobra.Command {
	var capacity, consumption, charge float64

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print usable energy and range for a battery state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est, err := vehicle.Estimate(capacity, consumption, charge)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(est)
		},
	}
	cmd.Flags().Float64Var(&capacity, "capacity", 0, "battery capacity in kWh")
	cmd.Flags().Float64Var(&consumption, "consumption", 0, "consumption in kWh per 100 km")
	cmd.Flags().Float64Var(&charge, "charge", 100, "state of charge in percent")
	_ = cmd.MarkFlagRequired("capacity")
	_ = cmd.MarkFlagRequired("consumption")
	return cmd
}
