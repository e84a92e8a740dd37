package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nextvolt/backend/services/nextvolt-api/internal/models"
	"nextvolt/backend/services/nextvolt-api/internal/repository"
)

func newSeedCmd(open func() (*sql.DB, error)) *cobra.Command {
	var stationsPath, vehiclesPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert stations and vehicles from JSON files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stationsPath == "" && vehiclesPath == "" {
				return errors.New("nothing to seed: pass --stations and/or --vehicles")
			}

			var (
				stations []models.Station
				vehicles []models.Vehicle
				err      error
			)
			if stationsPath != "" {
				if stations, err = repository.ReadStations(stationsPath); err != nil {
					return err
				}
			}
			if vehiclesPath != "" {
				if vehicles, err = repository.ReadVehicles(vehiclesPath); err != nil {
					return err
				}
			}

			conn, err := open()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, stop := signalContext()
			defer stop()
			if err := repository.Seed(ctx, repository.NewPostgresStore(conn), stations, vehicles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d stations, %d vehicles\n", len(stations), len(vehicles))
			return nil
		},
	}
	cmd.Flags().StringVar(&stationsPath, "stations", "", "path to a stations JSON array")
	cmd.Flags().StringVar(&vehiclesPath, "vehicles", "", "path to a vehicles JSON array")
	return cmd
}
