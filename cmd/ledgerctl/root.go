package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"eva_exchange/internal/app/di"
	"eva_exchange/internal/app/schema"
	"eva_exchange/internal/app/seed"
	platformdb "eva_exchange/internal/platform/db"
)

// openDB is replaced in tests.
var openDB = func() (*gorm.DB, error) {
	return platformdb.Open(platformdb.LoadConfigFromEnv())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the trading ledger database",
		Long: `ledgerctl manages the schema and demo data of the trading ledger and
answers quick read-only questions against it. The database is selected with
the same DB_* environment variables the server reads.`,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newQuoteCmd(), newSharesCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table, index and foreign key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			if err := schema.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, stocks and trades into a migrated database",
		Example: `  # Load demo data into a migrated, empty database
  ledgerctl seed

  # Drop everything first
  ledgerctl seed --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			if reset {
				if err := seed.Reset(db); err != nil {
					return err
				}
			}

			svc := di.NewServices(db, di.Options{})
			res, err := seed.Run(cmd.Context(), svc.Accounts, svc.Stocks, svc.Trading)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, u := range res.Users {
				fmt.Fprintf(out, "%-8s user=%d portfolio=%s\n", u.Name, u.ID, res.Portfolios[i].ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop all tables before seeding")
	return cmd
}

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Print the latest rate of a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			svc := di.NewServices(db, di.Options{})
			rate, err := svc.Stocks.LatestRate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], rate.StringFixed(2))
			return nil
		},
	}
}

func newSharesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shares PORTFOLIO SYMBOL",
		Short: "Print the net shares a portfolio holds of a stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			svc := di.NewServices(db, di.Options{})
			n, err := svc.Trading.ComputeShares(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
			return nil
		},
	}
}
