package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/csvtable"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/pipeline"
	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/pkg/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderTable draws a bordered table; columns listed in numeric are
// right-aligned.
func renderTable(headers []string, rows [][]string, numeric map[int]bool) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case numeric[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func renderResults(records []pipeline.ResultRecord) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{csvtable.FormatCell(r.Store), r.DateString(), strconv.FormatFloat(r.ExpectedSales, 'f', 2, 64)}
	}
	return renderTable(csvtable.ResultHeader, rows, map[int]bool{2: true})
}

func renderSummary(s stats.Summary) string {
	headers := []string{"Column", "Kind", "Count", "Missing", "Min", "Mean", "Std", "Median", "Max", "Unique", "Top"}
	rows := make([][]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		row := []string{c.Name, c.Kind, strconv.Itoa(c.Count), strconv.Itoa(c.Missing), "", "", "", "", "", "", ""}
		switch {
		case c.Numeric != nil:
			n := c.Numeric
			row[4], row[5], row[6], row[7], row[8] = num(n.Min), num(n.Mean), num(n.Std), num(n.Median), num(n.Max)
		case c.Date != nil:
			row[4], row[8] = c.Date.First, c.Date.Last
		}
		if c.Categorical != nil {
			row[9] = strconv.Itoa(c.Categorical.Unique)
			row[10] = fmt.Sprintf("%s (%d)", c.Categorical.Top, c.Categorical.TopFreq)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true})
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
