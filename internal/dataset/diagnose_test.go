package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPrintDecodeDiagnostic(t *testing.T) {
	data := []byte(strings.Repeat("a", 80) + "!" + strings.Repeat("b", 80))
	err := &json.SyntaxError{Offset: 80}

	var out bytes.Buffer
	PrintDecodeDiagnostic(&out, data, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), out.String())
	}
	want := strings.Repeat("a", 50) + "!" + strings.Repeat("b", 49)
	if lines[2] != want {
		t.Errorf("context = %q, want %q", lines[2], want)
	}
	if lines[3] != "^--- Error around here" {
		t.Errorf("marker line = %q", lines[3])
	}
}

func TestPrintDecodeDiagnostic_ClampsAtStart(t *testing.T) {
	var out bytes.Buffer
	PrintDecodeDiagnostic(&out, []byte("{]"), &json.SyntaxError{Offset: 2})
	if !strings.Contains(out.String(), "{]\n^--- Error around here") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPrintDecodeDiagnostic_SilentWhenUnlocatable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"plain error", errors.New("boom")},
		{"offset past end", &json.SyntaxError{Offset: 999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			PrintDecodeDiagnostic(&out, []byte("{}"), tt.err)
			if strings.Contains(out.String(), "Location of error") {
				t.Errorf("expected no location output, got %q", out.String())
			}
			if !strings.HasPrefix(out.String(), "ERROR parsing JSON") {
				t.Errorf("expected error header, got %q", out.String())
			}
		})
	}
}
