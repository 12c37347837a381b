package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/go-school-client/school"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

func colourAttendance(status school.AttendanceStatus) string {
	switch status {
	case school.Present:
		return text.FgGreen.Sprint(status)
	case school.Late:
		return text.FgYellow.Sprint(status)
	case school.Absent:
		return text.FgRed.Sprint(status)
	}
	return string(status)
}

func formatMoney(currency string, amount float64) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}

func formatExpiry(exp time.Time, now time.Time) string {
	if exp.IsZero() {
		return "-"
	}
	left := exp.Sub(now).Round(time.Second)
	if left <= 0 {
		return text.FgRed.Sprintf("%s (expired)", exp.Local().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (in %s)", exp.Local().Format(time.RFC3339), left)
}

func printEmpty(w io.Writer, what string) {
	fmt.Fprintln(w, text.FgYellow.Sprintf("No %s found.", what))
}
