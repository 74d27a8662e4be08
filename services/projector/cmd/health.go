package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/database"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/health"
)

// storeChecks connects to every configured store and closes the connection
// again; each constructor pings its server.
func storeChecks() map[string]health.CheckFunc {
	return map[string]health.CheckFunc{
		"postgres": func(ctx context.Context) error {
			pg, err := database.NewPostgreSQL(ctx, cfg.Postgres)
			if err != nil {
				return err
			}
			pg.Close()
			return nil
		},
		"mongodb": func(ctx context.Context) error {
			m, err := database.NewMongoDB(ctx, cfg.MongoDB)
			if err != nil {
				return err
			}
			return m.Close(ctx)
		},
		"neo4j": func(ctx context.Context) error {
			n, err := database.NewNeo4j(ctx, cfg.Neo4j)
			if err != nil {
				return err
			}
			return n.Close(ctx)
		},
		"cassandra": func(ctx context.Context) error {
			c, err := database.NewCassandra(cfg.Cassandra)
			if err != nil {
				return err
			}
			c.Close()
			return nil
		},
		"redis": func(ctx context.Context) error {
			r, err := database.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			r.Close()
			return nil
		},
	}
}

// healthCmd reports which stores are reachable
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to every store",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		checker := health.NewChecker()
		checker.RunChecks(ctx, storeChecks())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Store\tStatus\tLatency\tMessage")
		fmt.Fprintln(w, "-----\t------\t-------\t-------")
		for _, c := range checker.GetAllChecks() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Status, c.Latency.Round(time.Millisecond), c.Message)
		}
		w.Flush()

		status := checker.GetOverallStatus()
		fmt.Printf("\nOverall: %s\n", status)
		if status != health.StatusHealthy {
			return fmt.Errorf("stores %s", status)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("timeout", 10*time.Second, "Overall timeout for the checks")
}
