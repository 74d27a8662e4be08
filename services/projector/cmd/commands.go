package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/database"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/engine"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/source"
)

// setupCommands initializes all commands and their flags
func setupCommands() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(transactionCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(rankingCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(healthCmd)

	queryCmd.AddCommand(volumeCmd, topBalancesCmd, highPotsCmd, depositsCmd,
		handsByDayCmd, transactionsByDayCmd, multiTableCmd, sharedTablesCmd)

	volumeCmd.Flags().Int("days", 7, "Trailing window in days")
	topBalancesCmd.Flags().Int("limit", 10, "Number of users")
	highPotsCmd.Flags().Float64("min-pot", 1000, "Minimum pot, exclusive")
	highPotsCmd.Flags().String("month", time.Now().UTC().Format("2006-01"), "Calendar month (YYYY-MM)")
	depositsCmd.Flags().String("method", "paypal", "Payment method")
	multiTableCmd.Flags().Int("min", 2, "Minimum number of distinct tables")
	sharedTablesCmd.Flags().Int("min-shared", 2, "Pairs must share more than this many tables")
	sharedTablesCmd.Flags().Int("limit", 5, "Maximum number of pairs (0 for all)")

	transactionCmd.Flags().Int64("method-id", 0, "Payment method id")
	transactionCmd.Flags().Float64("amount", 0, "Amount, must be positive")
	transactionCmd.Flags().String("type", models.TransactionDeposit, "deposito or retiro")
	_ = transactionCmd.MarkFlagRequired("method-id")
	_ = transactionCmd.MarkFlagRequired("amount")

	rankingCmd.Flags().Int("limit", 5, "Number of users")
	secretCmd.AddCommand(secretSetCmd)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

func parseDay(arg string) (time.Time, error) {
	day, err := time.Parse(projection.DayLayout, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", arg)
	}
	return day, nil
}

// syncCmd projects entity types into every store that can hold them
var syncCmd = &cobra.Command{
	Use:       "sync [entity...]",
	Short:     "Project entities into the target stores",
	Long:      "Reads the given entity types (all when omitted) from PostgreSQL and upserts them into every target store that can hold them.",
	ValidArgs: []string{"user", "table", "tournament", "hand", "transaction", "seat"},
	RunE: func(cmd *cobra.Command, args []string) error {
		entities := models.EntityTypes
		if len(args) > 0 {
			entities = nil
			for _, a := range args {
				e, err := models.ParseEntityType(a)
				if err != nil {
					return err
				}
				entities = append(entities, e)
			}
		}

		return runWithEngine(cmd.Context(), allTargets, func(ctx context.Context, e *engine.Engine) error {
			failed := false
			for _, entity := range entities {
				results, err := e.Sync(ctx, entity)
				printSyncResults(results)
				if err != nil {
					log.Errorf("Sync of %s failed: %v", entity, err)
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more syncs failed")
			}
			return nil
		})
	},
}

// queryCmd groups the analytical queries
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Sync and run an analytical query",
}

var volumeCmd = &cobra.Command{
	Use:   "volume",
	Short: "Pot volume by modality over the trailing days",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		return runWithEngine(cmd.Context(), needs{documents: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.VolumeByModality(ctx, days)
			if err != nil {
				return err
			}
			printVolume(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var topBalancesCmd = &cobra.Command{
	Use:   "top-balances",
	Short: "Users with the highest balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runWithEngine(cmd.Context(), needs{documents: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.TopBalances(ctx, limit)
			if err != nil {
				return err
			}
			printBalances(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var highPotsCmd = &cobra.Command{
	Use:   "high-pots",
	Short: "Hands above a pot threshold in a calendar month",
	RunE: func(cmd *cobra.Command, args []string) error {
		minPot, _ := cmd.Flags().GetFloat64("min-pot")
		monthArg, _ := cmd.Flags().GetString("month")
		month, err := time.Parse("2006-01", monthArg)
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM", monthArg)
		}

		return runWithEngine(cmd.Context(), needs{documents: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.HighPotHands(ctx, minPot, month.Year(), month.Month())
			if err != nil {
				return err
			}
			printHands(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var depositsCmd = &cobra.Command{
	Use:   "deposits [user-id]",
	Short: "A user's deposits through one payment method",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		method, _ := cmd.Flags().GetString("method")

		return runWithEngine(cmd.Context(), needs{documents: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.DepositsByMethod(ctx, userID, method)
			if err != nil {
				return err
			}
			printTransactions(report.Rows.Transactions)
			fmt.Printf("Total: %.2f\n", report.Rows.Total)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var handsByDayCmd = &cobra.Command{
	Use:   "hands [table-id] [YYYY-MM-DD]",
	Short: "Hands played at a table on a day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tableID, err := parseID(args[0], "table id")
		if err != nil {
			return err
		}
		day, err := parseDay(args[1])
		if err != nil {
			return err
		}

		return runWithEngine(cmd.Context(), needs{partitioned: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.HandsByTableAndDate(ctx, tableID, day)
			if err != nil {
				return err
			}
			printHands(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var transactionsByDayCmd = &cobra.Command{
	Use:   "transactions [user-id] [YYYY-MM-DD]",
	Short: "A user's transactions on a day",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		day, err := parseDay(args[1])
		if err != nil {
			return err
		}

		return runWithEngine(cmd.Context(), needs{partitioned: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.TransactionsByUserAndDate(ctx, userID, day)
			if err != nil {
				return err
			}
			printTransactions(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var multiTableCmd = &cobra.Command{
	Use:   "multi-table",
	Short: "Users seated at several distinct tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		minTables, _ := cmd.Flags().GetInt("min")
		return runWithEngine(cmd.Context(), needs{graph: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.PlayersAtMultipleTables(ctx, minTables)
			if err != nil {
				return err
			}
			printNeighborCounts(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var sharedTablesCmd = &cobra.Command{
	Use:   "shared-tables",
	Short: "Pairs of users who often share tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		minShared, _ := cmd.Flags().GetInt("min-shared")
		limit, _ := cmd.Flags().GetInt("limit")
		return runWithEngine(cmd.Context(), needs{graph: true}, func(ctx context.Context, e *engine.Engine) error {
			report, err := e.SharedTablePairs(ctx, minShared, limit)
			if err != nil {
				return err
			}
			printPairs(report.Rows)
			printDiagnostics(report.Syncs)
			return nil
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [user-id]",
	Short: "Read a user's balance through the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		return runWithEngine(cmd.Context(), needs{cache: true}, func(ctx context.Context, e *engine.Engine) error {
			balance, err := e.Balance(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Printf("User %d balance: %.2f\n", userID, balance)
			return nil
		})
	},
}

var transactionCmd = &cobra.Command{
	Use:   "transaction [user-id]",
	Short: "Record a deposit or withdrawal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		in := source.TransactionInput{UserID: userID}
		in.MethodID, _ = cmd.Flags().GetInt64("method-id")
		in.Amount, _ = cmd.Flags().GetFloat64("amount")
		in.Type, _ = cmd.Flags().GetString("type")
		if err := in.Validate(); err != nil {
			return err
		}

		return runWithEngine(cmd.Context(), needs{cache: true}, func(ctx context.Context, e *engine.Engine) error {
			receipt, err := e.RecordTransaction(ctx, in)
			if receipt.TransactionID != 0 {
				fmt.Printf("Transaction %d recorded, new balance %.2f\n", receipt.TransactionID, receipt.NewBalance)
				if !receipt.AMLCompliant {
					fmt.Println("Flagged for AML review")
				}
			}
			return err
		})
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity [user-id]",
	Short: "Count a played hand for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		return runWithEngine(cmd.Context(), needs{cache: true}, func(ctx context.Context, e *engine.Engine) error {
			score, err := e.RecordActivity(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Printf("User %d activity: %.0f\n", userID, score)
			return nil
		})
	},
}

var rankingCmd = &cobra.Command{
	Use:   "ranking",
	Short: "Most active users",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runWithEngine(cmd.Context(), needs{cache: true}, func(ctx context.Context, e *engine.Engine) error {
			top, err := e.TopActive(ctx, limit)
			if err != nil {
				return err
			}
			printRanking(top)
			return nil
		})
	},
}

// secretCmd manages store passwords in the system keyring
var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage store passwords in the system keyring",
}

var secretSetCmd = &cobra.Command{
	Use:       "set [store]",
	Short:     "Read a password from stdin and store it in the keyring",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"postgres", "neo4j", "cassandra", "redis"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(os.Stderr, "Password for %s: ", args[0])
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if err := database.StorePassword(args[0], strings.TrimSpace(line)); err != nil {
			return err
		}
		fmt.Printf("Stored %s password in the keyring\n", args[0])
		return nil
	},
}
