package analytics

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"macrocli/internal/exporter"
)

// RenderJSON writes the report as indented JSON
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// RenderText writes the report as a series of terminal tables
func RenderText(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Dataset: %d months", r.Rows)
	if r.From != "" {
		fmt.Fprintf(w, " (%s to %s)", r.From, r.To)
	}
	fmt.Fprintln(w)

	section(w, "1. Descriptive Statistics")
	stats := newTable(w)
	stats.AppendHeader(table.Row{"Column", "N", "Mean", "Median", "Min", "Max", "Std", "Skew", "CV"})
	for _, s := range r.Statistics {
		stats.AppendRow(table.Row{s.Column, s.Count, num(s.Mean), num(s.Median), num(s.Min), num(s.Max),
			num(s.Std), num(s.Skew), num(s.CV)})
	}
	stats.SetColumnConfigs(rightAlign(2, 9))
	stats.Render()

	if sc := r.SupplyChain; sc != nil {
		section(w, "2. Supply Chain: Diesel_Price vs CPI_Food_YoY")
		t := newTable(w)
		t.AppendHeader(table.Row{"Lag (months)", "Correlation"})
		t.AppendRow(table.Row{"0", num4(sc.Correlation)})
		for _, l := range sc.Lags {
			t.AppendRow(table.Row{l.Lag, num4(l.R)})
		}
		t.Render()
	}

	if lt := r.LaborTradeoff; lt != nil {
		section(w, "3. Labor Market: Unemp_Total vs CPI_Total_YoY")
		verdict := "weak or no relationship"
		if lt.Tradeoff {
			verdict = text.FgGreen.Sprint("negative trade-off")
		}
		fmt.Fprintf(w, "Correlation: %s (%s)\n", num4(lt.Correlation), verdict)
	}

	if g := r.GenderGap; g != nil {
		section(w, "4. Gender Gap: Unemp_Women - Unemp_Men")
		t := newTable(w)
		t.AppendHeader(table.Row{"Measure", "Gap (pp)"})
		t.AppendRow(table.Row{"Average", num(g.Mean)})
		t.AppendRow(table.Row{"Max (" + g.MaxMonth + ")", num(g.Max)})
		if g.Peak != nil {
			t.AppendRow(table.Row{"2020-04", num(*g.Peak)})
		}
		t.Render()
	}

	if s := r.StructuralChange; s != nil {
		section(w, "5. Structural Change: Gas_Price vs CPI_Total_YoY")
		t := newTable(w)
		t.AppendHeader(table.Row{"Period", "Correlation"})
		t.AppendRow(table.Row{"before 2020", num4(s.Before)})
		t.AppendRow(table.Row{"from 2020", num4(s.After)})
		t.Render()
		if s.Shifted {
			fmt.Fprintln(w, text.FgYellow.Sprint("Regime shift detected"))
		} else {
			fmt.Fprintln(w, "Relationship stable")
		}
	}

	if s := r.Sensitivity; s != nil {
		section(w, "6. Sensitivity: CPI_Total_YoY on Oil_Price")
		fmt.Fprintf(w, "Slope: %s  Intercept: %s  R^2: %s  (n=%d)\n",
			num4(s.Slope), num4(s.Intercept), num4(s.RSquared), s.N)
	}

	if len(r.CausalChain) > 0 {
		section(w, "7. Causal Chain (leader[t] vs follower[t+lag])")
		t := newTable(w)
		header := table.Row{"Link"}
		for _, l := range chainLags {
			header = append(header, "Lag "+strconv.Itoa(l))
		}
		header = append(header, "Strongest")
		t.AppendHeader(header)
		for _, link := range r.CausalChain {
			row := table.Row{link.Name}
			for _, l := range link.Lags {
				row = append(row, num4(l.R))
			}
			best := "-"
			if link.Strongest != nil {
				best = fmt.Sprintf("lag %d (%s)", link.Strongest.Lag, num4(link.Strongest.R))
			}
			row = append(row, text.Bold.Sprint(best))
			t.AppendRow(row)
		}
		t.Render()
	}

	if len(r.Notes) > 0 {
		section(w, "Notes")
		for _, n := range r.Notes {
			fmt.Fprintln(w, text.FgHiBlack.Sprint("- "+n))
		}
	}
}

// SummarySheet renders the descriptive statistics as a workbook sheet
func SummarySheet(r *Report) exporter.Sheet {
	sheet := exporter.Sheet{
		Name:   "Summary",
		Header: []string{"column", "count", "mean", "median", "min", "max", "std", "skew", "cv"},
	}
	for _, s := range r.Statistics {
		sheet.Rows = append(sheet.Rows, []any{
			s.Column, s.Count,
			float64(s.Mean), float64(s.Median), float64(s.Min), float64(s.Max),
			float64(s.Std), float64(s.Skew), float64(s.CV),
		})
	}
	return sheet
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, text.Bold.Sprint(title))
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	return t
}

func rightAlign(from, to int) []table.ColumnConfig {
	var configs []table.ColumnConfig
	for n := from; n <= to; n++ {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	return configs
}

func num(f Float) string {
	if !f.Valid() {
		return "-"
	}
	return strconv.FormatFloat(float64(f), 'f', 3, 64)
}

func num4(f Float) string {
	if !f.Valid() {
		return "-"
	}
	return strconv.FormatFloat(float64(f), 'f', 4, 64)
}
