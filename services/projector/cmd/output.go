package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/analytics"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/orchestrator"
)

func newTable(header, rule string) *tabwriter.Writer {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Println()
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, rule)
	return w
}

func printSyncResults(results []orchestrator.Result) {
	if len(results) == 0 {
		return
	}
	w := newTable("Entity\tTarget\tInserted\tUpdated\tUnchanged\tSource rows\tSkipped",
		"------\t------\t--------\t-------\t---------\t-----------\t-------")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Entity, r.Target, r.Inserted, r.Updated, r.Unchanged, r.TotalSourceRows, r.NotReflected())
	}
	w.Flush()
	fmt.Println()
}

// printDiagnostics reports source rows the queried projection does not reflect.
func printDiagnostics(results []orchestrator.Result) {
	for _, r := range results {
		if !r.Incomplete() {
			continue
		}
		fmt.Printf("Warning: %d of %d %s rows not reflected in %s\n", r.NotReflected(), r.TotalSourceRows, r.Entity, r.Target)
		for _, f := range r.Failures {
			fmt.Printf("  row %s: %s\n", f.RowID, f.Reason)
		}
	}
}

func printVolume(rows []analytics.ModalityVolume) {
	if len(rows) == 0 {
		fmt.Println("No hands in the window.")
		return
	}
	w := newTable("Modality\tVolume\tHands", "--------\t------\t-----")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.2f\t%d\n", r.Modality, r.Volume, r.Hands)
	}
	w.Flush()
	fmt.Println()
}

func printBalances(rows []analytics.UserBalance) {
	if len(rows) == 0 {
		fmt.Println("No users found.")
		return
	}
	w := newTable("#\tUser\tName\tBalance\tNet deposits\tHand winnings\tHands won/played",
		"-\t----\t----\t-------\t------------\t-------------\t----------------")
	for i, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%.2f\t%.2f\t%d/%d\n",
			i+1, r.UserID, r.Name, r.Balance, r.NetDeposits, r.HandWinnings, r.HandsWon, r.HandsPlayed)
	}
	w.Flush()
	fmt.Println()
}

func printHands(rows []analytics.HandSummary) {
	if len(rows) == 0 {
		fmt.Println("No hands found.")
		return
	}
	w := newTable("Hand\tTable\tPot\tRake\tWinner\tModality\tPlayed at",
		"----\t-----\t---\t----\t------\t--------\t---------")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.2f\t%d\t%s\t%s\n",
			r.HandID, r.TableID, r.Pot, r.Rake, r.WinnerID, r.Modality, r.PlayedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Println()
}

func printTransactions(rows []analytics.TransactionSummary) {
	if len(rows) == 0 {
		fmt.Println("No transactions found.")
		return
	}
	w := newTable("Transaction\tUser\tType\tMethod\tAmount\tStatus\tDate",
		"-----------\t----\t----\t------\t------\t------\t----")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%.2f\t%s\t%s\n",
			r.TransactionID, r.UserID, r.Type, r.Method, r.Amount, r.Status, r.OccurredAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Println()
}

func printNeighborCounts(rows []store.NeighborCount) {
	if len(rows) == 0 {
		fmt.Println("No matching users.")
		return
	}
	w := newTable("User\tName\tTables", "----\t----\t------")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%d\n", r.ID, r.Name, r.Neighbors)
	}
	w.Flush()
	fmt.Println()
}

func printPairs(rows []store.NeighborPair) {
	if len(rows) == 0 {
		fmt.Println("No matching pairs.")
		return
	}
	w := newTable("User\tUser\tShared tables", "----\t----\t-------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%s (%d)\t%s (%d)\t%d\n", r.FromName, r.FromID, r.ToName, r.ToID, r.Shared)
	}
	w.Flush()
	fmt.Println()
}

func printRanking(entries []store.RankEntry) {
	if len(entries) == 0 {
		fmt.Println("No activity recorded.")
		return
	}
	w := newTable("#\tUser\tHands", "-\t----\t-----")
	for i, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.0f\n", i+1, e.Member, e.Score)
	}
	w.Flush()
	fmt.Println()
}
