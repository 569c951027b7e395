package main

import (
	"context"
	"os"
	"time"

	"fireops/db"
	"fireops/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	opts := seed.Options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin and technician accounts, plus optional demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Password == "" {
				opts.Password = os.Getenv("SEED_PASSWORD")
			}
			return a.seed(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.AdminUsername, "admin", "admin", "username of the admin account")
	cmd.Flags().StringVar(&opts.Password, "password", "", "initial password for every seeded account (default $SEED_PASSWORD)")
	cmd.Flags().BoolVar(&opts.DemoData, "demo", false, "also create a demo client with a scheduled visit")
	return cmd
}

func (a *app) seed(ctx context.Context, opts seed.Options) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	opts.Now = time.Now().In(loc)

	store, err := db.Open(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to open store")
		return err
	}
	defer store.Close()

	a.log.Info().Str("store", a.cfg.Store.Backend).Msg("starting database seeding")
	res, err := seed.Run(ctx, db.NewRepository(store, a.log).WithLocation(loc), opts, a.log)
	if err != nil {
		a.log.Error().Err(err).Msg("seeding failed")
		return err
	}
	a.log.Info().
		Int("users_created", res.UsersCreated).
		Int("users_skipped", res.UsersSkipped).
		Str("demo_client", res.DemoClient).
		Msg("database seeding completed")
	return nil
}
