package main

import (
	"bytes"
	"strings"
	"testing"

	"eventbudget/internal/core"
)

func TestPrintSummary(t *testing.T) {
	summary := core.EventSummary{
		Event: core.Event{
			ID:              "evt_1",
			Name:            "Wedding",
			EventDate:       core.NewDate(2026, 6, 1),
			Currency:        "EUR",
			Totals:          core.Totals{Budgeted: core.Cents(100000), Scheduled: core.Cents(40000), Spent: core.Cents(85000)},
			SpentPercentage: 85,
			Status:          core.StatusOnTrack,
		},
		Categories: []core.Category{
			{Name: "Venue", BudgetedAmount: core.Cents(100000), ScheduledAmount: core.Cents(40000), SpentAmount: core.Cents(85000)},
		},
	}

	var out bytes.Buffer
	if err := printSummary(&out, summary); err != nil {
		t.Fatalf("printSummary: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Wedding (evt_1) 2026-06-01 EUR", "Status: on-track, 85% spent", "Venue", "1000.00", "850.00", "Total"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	if err := writeJSON(&out, core.Totals{Spent: core.Cents(1250)}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(out.String(), `"totalSpentAmount": 1250`) {
		t.Errorf("unexpected JSON: %s", out.String())
	}
}

func TestCommandsRequireFlags(t *testing.T) {
	for _, cmd := range []string{"recompute", "show"} {
		c, _, err := rootCmd.Find([]string{cmd})
		if err != nil {
			t.Fatalf("find %s: %v", cmd, err)
		}
		for _, name := range []string{"owner", "event"} {
			if c.Flags().Lookup(name) == nil {
				t.Errorf("%s: missing --%s", cmd, name)
			}
		}
	}
}
