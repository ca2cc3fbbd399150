package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jengzang/dialysis-locator-go/internal/database"
	"github.com/jengzang/dialysis-locator-go/internal/entitlement"
	"github.com/jengzang/dialysis-locator-go/internal/limits"
	"github.com/jengzang/dialysis-locator-go/internal/logger"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints today's quota usage and the stored entitlement.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		db, err := database.Open(database.Config{Path: cfg.DBPath}, logger.Component("database"))
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		kv := repository.NewKVRepository(db)
		st := limits.New(kv, limits.WithLogger(logger.Component("limits"))).Status(ctx)
		ent := entitlement.NewReconciler(kv, nil, nil, logger.Component("entitlement"))
		ent.Load(ctx)
		state := ent.State()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "DATE\t%s\n", st.Date)
		fmt.Fprintf(w, "VIEWS\t%d/%d\n", st.ViewsUsed, limits.MaxViews)
		fmt.Fprintf(w, "SEARCHES\t%d/%d\n", st.SearchesUsed, limits.MaxSearches)
		fmt.Fprintf(w, "LIMIT REACHED\t%v\n", st.LimitReached)
		fmt.Fprintf(w, "PREMIUM\t%v (override=%v, confirmed=%v)\n", state.IsPremium(), state.Override, state.ConfirmedRemote)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
