package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sorenmh/appsmith/lifecycle"
)

// Format represents an output format
type Format string

const (
	// FormatTable is the table output format
	FormatTable Format = "table"
	// FormatJSON is the JSON output format
	FormatJSON Format = "json"
	// FormatYAML is the YAML output format
	FormatYAML Format = "yaml"
)

// ParseFormat checks s against the supported formats
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// PrintTable prints data in table format
func PrintTable(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// PrintJSON prints data in JSON format
func PrintJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintYAML prints data in YAML format
func PrintYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Print prints data in the specified format. tableFunc renders the table
// format.
func Print(w io.Writer, format Format, data interface{}, tableFunc func(io.Writer)) error {
	switch format {
	case FormatJSON:
		return PrintJSON(w, data)
	case FormatYAML:
		return PrintYAML(w, data)
	case FormatTable:
		if tableFunc != nil {
			tableFunc(w)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatTime formats a time for display
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatTimeAgo formats a time as "X ago"
func FormatTimeAgo(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute")
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour")
	default:
		return plural(int(duration.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Success prints a success message
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "✓ %s\n", message)
}

// Error prints an error message
func Error(w io.Writer, message string) {
	fmt.Fprintf(w, "Error: %s\n", message)
}

// Info prints an info message
func Info(w io.Writer, message string) {
	fmt.Fprintln(w, message)
}

// Notifier prints lifecycle notices. Errors go to Err.
type Notifier struct {
	Out io.Writer
	Err io.Writer
}

// Notify implements lifecycle.Notifier
func (n *Notifier) Notify(notice lifecycle.Notice) {
	if notice.Level == lifecycle.LevelError {
		Error(n.Err, notice.Message)
		return
	}
	Success(n.Out, notice.Message)
}

// Navigator prints the destination a session is sent to and remembers the
// last one
type Navigator struct {
	Out  io.Writer
	Last lifecycle.Destination
}

// Navigate implements lifecycle.Navigator
func (n *Navigator) Navigate(dest lifecycle.Destination) {
	n.Last = dest
	fmt.Fprintf(n.Out, "→ %s\n", dest)
}
