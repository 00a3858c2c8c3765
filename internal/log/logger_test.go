package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Component: ComponentStorage, Output: &buf})

	logger.Info("Record added", NewFields().WithRecord("categories", 7).WithOperation(OpCreate).ToSlice()...)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentStorage {
		t.Errorf("component = %v, want %v", rec[FieldComponent], ComponentStorage)
	}
	if rec[FieldCollection] != "categories" {
		t.Errorf("collection = %v, want categories", rec[FieldCollection])
	}
	if rec[FieldOperation] != OpCreate {
		t.Errorf("operation = %v, want %v", rec[FieldOperation], OpCreate)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf, Component: ComponentApp})
	events := base.WithComponent(ComponentEvents).With(FieldSession, "abc")

	events.Warn("Publishing without subscribers")

	out := buf.String()
	if !strings.Contains(out, "component=events") {
		t.Errorf("missing events component: %s", out)
	}
	if !strings.Contains(out, "session_id=abc") {
		t.Errorf("missing session attribute: %s", out)
	}
	if base.Component() != ComponentApp {
		t.Errorf("base component changed to %s", base.Component())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithComponent(ComponentReport).
		WithPeriod(5, 2024).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldMonth] != 5 || f[FieldYear] != 2024 {
		t.Errorf("period fields = %v/%v, want 5/2024", f[FieldMonth], f[FieldYear])
	}
	if f[FieldError] != "boom" {
		t.Errorf("error field = %v, want boom", f[FieldError])
	}
	if got := len(f.ToSlice()); got != 8 {
		t.Errorf("ToSlice() has %d entries, want 8", got)
	}
}

func TestDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Error("OrDiscard should keep a non-nil logger")
	}
}
