package output

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorenmh/appsmith/lifecycle"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrint(t *testing.T) {
	data := map[string]string{"name": "alpha"}

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatJSON, data, nil))
	assert.JSONEq(t, `{"name":"alpha"}`, buf.String())

	buf.Reset()
	require.NoError(t, Print(&buf, FormatYAML, data, nil))
	assert.Equal(t, "name: alpha\n", buf.String())

	buf.Reset()
	require.NoError(t, Print(&buf, FormatTable, data, func(w io.Writer) {
		PrintTable(w, []string{"NAME"}, [][]string{{"alpha"}})
	}))
	assert.Equal(t, "NAME\nalpha\n", buf.String())

	assert.Error(t, Print(&buf, Format("xml"), data, nil))
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", FormatTimeAgo(now))
	assert.Equal(t, "1 minute ago", FormatTimeAgo(now.Add(-90*time.Second)))
	assert.Equal(t, "5 hours ago", FormatTimeAgo(now.Add(-5*time.Hour-time.Minute)))
	assert.Equal(t, "2 days ago", FormatTimeAgo(now.Add(-49*time.Hour)))
}

func TestNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	n := &Notifier{Out: &out, Err: &errOut}

	n.Notify(lifecycle.Notice{Level: lifecycle.LevelSuccess, Message: "App deleted"})
	n.Notify(lifecycle.Notice{Level: lifecycle.LevelError, Message: "Export failed: boom"})

	assert.Equal(t, "✓ App deleted\n", out.String())
	assert.Equal(t, "Error: Export failed: boom\n", errOut.String())
}

func TestNavigator(t *testing.T) {
	var out bytes.Buffer
	n := &Navigator{Out: &out}

	n.Navigate(lifecycle.ListRoot)
	assert.Equal(t, lifecycle.ListRoot, n.Last)
	assert.Equal(t, "→ /apps\n", out.String())
}
