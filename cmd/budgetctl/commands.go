package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"eventbudget/internal/core"
	"eventbudget/internal/services"
)

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&eventID, "event", "", "event id (required)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("event")
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute an event's totals from its categories, expenses and payments",
	Long: `Recompute rebuilds every category's scheduled and spent amounts and the
event totals from the stored expenses. Use it to repair drift left by
failed incremental updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := services.EventRef{OwnerID: ownerID, EventID: eventID}
		t, err := rt.Service.RecomputeTotals(commandContext(cmd), ref)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %s/%s: budgeted %s, scheduled %s, spent %s\n",
			ownerID, eventID, t.Budgeted, t.Scheduled, t.Spent)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show an event summary with its categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := rt.Service.GetEventSummary(commandContext(cmd), services.EventRef{OwnerID: ownerID, EventID: eventID})
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), summary)
		}
		return printSummary(cmd.OutOrStdout(), summary)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the events of an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := rt.Service.ListEvents(commandContext(cmd), ownerID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), events)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDATE\tBUDGETED\tSPENT\tSTATUS")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.EventDate, e.Budgeted, e.Spent, e.Status)
		}
		return w.Flush()
	},
}

func init() {
	addEventFlags(recomputeCmd)
	addEventFlags(showCmd)
	listCmd.Flags().StringVar(&ownerID, "owner", "", "owner id (required)")
	_ = listCmd.MarkFlagRequired("owner")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(out io.Writer, s core.EventSummary) error {
	e := s.Event
	fmt.Fprintf(out, "%s (%s) %s %s\n", e.Name, e.ID, e.EventDate, e.Currency)
	fmt.Fprintf(out, "Status: %s, %d%% spent\n\n", e.Status, e.SpentPercentage)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "CATEGORY\tBUDGETED\tSCHEDULED\tSPENT\t")
	for _, c := range s.Categories {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", c.Name, c.BudgetedAmount, c.ScheduledAmount, c.SpentAmount)
	}
	fmt.Fprintf(w, "Total\t%s\t%s\t%s\t\n", e.Budgeted, e.Scheduled, e.Spent)
	return w.Flush()
}
