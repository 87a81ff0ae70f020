package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/rentwise/internal/conversation"
	"github.com/evcraddock/rentwise/internal/dashboard"
	"github.com/evcraddock/rentwise/internal/property"
	"github.com/evcraddock/rentwise/internal/visit"
)

const timeFormat = "2006-01-02 15:04"

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printProperty prints a single property in text format.
func printProperty(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d\n", p.ID)
	fmt.Fprintf(w, "  Title:    %s\n", p.Title)
	if p.Address != "" {
		fmt.Fprintf(w, "  Address:  %s\n", p.Address)
	}
	if p.Price != nil {
		fmt.Fprintf(w, "  Price:    $%s\n", formatPrice(*p.Price))
	}
	fmt.Fprintf(w, "  Status:   %s\n", p.Status)
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tTITLE\tADDRESS\tPRICE\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, p := range props {
		price := "-"
		if p.Price != nil {
			price = "$" + formatPrice(*p.Price)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, truncate(p.Title, 30), truncate(p.Address, 40), price, p.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return nil
}

// printConversationTable prints conversation summaries, newest activity first.
func printConversationTable(out io.Writer, sums []conversation.Summary) error {
	if len(sums) == 0 {
		fmt.Fprintln(out, "No conversations.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tPROPERTY\tWITH\tUNREAD\tLAST MESSAGE"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, s := range sums {
		last := "-"
		if s.LastMessage != nil {
			last = fmt.Sprintf("%s  %s", s.LastMessage.CreatedAt.Local().Format(timeFormat), oneLine(s.LastMessage.Body))
		}
		unread := ""
		if s.UnreadCount > 0 {
			unread = fmt.Sprintf("%d", s.UnreadCount)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			s.ID, truncate(s.PropertyTitle, 30), s.Counterpart.Name, unread, last); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// printThread prints messages oldest first, marking the caller's own.
func printThread(w io.Writer, messages []*conversation.Message, selfID int64) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	for _, m := range messages {
		who := "them"
		if m.SenderID == selfID {
			who = "you"
		}
		fmt.Fprintf(w, "[%s] %s (#%d)\n  %s\n\n", m.CreatedAt.Local().Format(timeFormat), who, m.ID, m.Body)
	}
}

// printVisit prints one visit request in text format.
func printVisit(w io.Writer, v *visit.Request) {
	fmt.Fprintf(w, "Visit #%d: %s\n", v.ID, v.Status.Label())
	if v.PropertyTitle != "" {
		fmt.Fprintf(w, "  Property: %s (#%d)\n", v.PropertyTitle, v.PropertyID)
	} else {
		fmt.Fprintf(w, "  Property: #%d\n", v.PropertyID)
	}
	fmt.Fprintf(w, "  When:     %s\n", v.VisitDate.Local().Format(timeFormat))
	if v.CanceledAt != nil {
		fmt.Fprintf(w, "  Canceled: %s\n", v.CanceledAt.Local().Format(timeFormat))
	}
}

// printVisitTable prints visit requests followed by per-status counts.
func printVisitTable(out io.Writer, res *visit.ListResult) error {
	if len(res.Visits) == 0 {
		fmt.Fprintln(out, "No visit requests.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "ID\tPROPERTY\tWHEN\tSTATUS"); err != nil {
			return fmt.Errorf("writing table header: %w", err)
		}
		for _, v := range res.Visits {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				v.ID, truncate(v.PropertyTitle, 30), v.VisitDate.Local().Format(timeFormat), v.Status.Label()); err != nil {
				return fmt.Errorf("writing table row: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flushing table: %w", err)
		}
	}

	fmt.Fprintf(out, "\n%s\n", formatCounts(res.Counts))
	return nil
}

// printDashboard prints badge counts.
func printDashboard(w io.Writer, sum *dashboard.Summary) {
	fmt.Fprintf(w, "Conversations:   %d\n", sum.Conversations)
	fmt.Fprintf(w, "Unread messages: %d\n", sum.UnreadMessages)
	fmt.Fprintf(w, "Visits:          %s\n", formatCounts(sum.Visits))
}

// formatCounts renders per-status counts in lifecycle order.
func formatCounts(counts map[visit.Status]int) string {
	parts := make([]string, 0, len(visit.Statuses))
	for _, s := range visit.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(s.Label()), counts[s]))
	}
	// Statuses the client does not know about still get shown.
	var extra []string
	for s, n := range counts {
		if !s.IsValid() {
			extra = append(extra, fmt.Sprintf("%s %d", s, n))
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), ", ")
}

// formatPrice formats a dollar amount as a string with commas.
func formatPrice(dollars int64) string {
	s := fmt.Sprintf("%d", dollars)

	// Add commas
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return strings.Join(parts, ",")
}

// formatAge describes how long ago t was, for key listings.
func formatAge(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// oneLine collapses whitespace and truncates for table cells.
func oneLine(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), 50)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
