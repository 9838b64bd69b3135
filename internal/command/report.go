package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Report renders summaries as a markdown table. filterType "marks" selects the
// marks table; anything else the attendance table.
func Report(students []StudentSummary, totalDates int, filterType string) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	if strings.EqualFold(filterType, FilterMarks) {
		b.WriteString("| Name | Roll ID | Marks |\n|:---|:---|:---:|\n")
		for _, s := range students {
			fmt.Fprintf(&b, "| %s | %s | **%s** |\n", s.Name, s.ID, formatMarks(s.Marks))
		}
		return b.String()
	}

	b.WriteString("| Name | Roll ID | Present | Total | % |\n|:---|:---|:---:|:---:|:---:|\n")
	for _, s := range students {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | **%.1f%%** |\n", s.Name, s.ID, s.Present, totalDates, s.Attendance)
	}
	return b.String()
}

// formatMarks prints whole numbers without a fraction ("8", "8.5").
func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
