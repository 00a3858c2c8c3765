package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budgenet/internal/config"
	"budgenet/internal/core"
	"budgenet/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategory(t *testing.T) {
	cats := []core.Category{
		{ID: -1, Name: "Comida"},
		{ID: -2, Name: "Transporte"},
		{ID: 3, Name: "Mascotas"},
	}

	tests := []struct {
		name      string
		input     string
		wantID    int64
		wantErr   error
		wantInErr string
	}{
		{name: "by name ignoring case", input: "  comida ", wantID: -1},
		{name: "by id", input: "3", wantID: 3},
		{name: "negative id", input: "-2", wantID: -2},
		{name: "unknown id", input: "99", wantErr: core.ErrNotFound},
		{name: "typo suggests", input: "Transprote", wantErr: core.ErrNotFound, wantInErr: `did you mean "Transporte"`},
		{name: "far off has no suggestion", input: "Impuestos", wantErr: core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCategory(cats, tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				if tt.wantInErr != "" {
					assert.Contains(t, err.Error(), tt.wantInErr)
				} else {
					assert.NotContains(t, err.Error(), "did you mean")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	_, err := resolveCategory(cats, " ")
	assert.True(t, core.IsValidationError(err))
}

type cliHarness struct {
	cfg *config.Config
	now func() time.Time
}

func newCLI(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{
		cfg: &config.Config{
			DBPath:          filepath.Join(t.TempDir(), "budgenet.db"),
			LogLevel:        "error",
			LogFormat:       "text",
			ProjectionSpan:  2,
			ReportCacheSize: 4,
			ReportCacheTTL:  time.Minute,
		},
		now: func() time.Time { return time.Date(2024, time.May, 20, 9, 0, 0, 0, time.UTC) },
	}
}

func (h *cliHarness) run(args ...string) (string, string, int) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), h.cfg, log.Discard(), args, &out, &errOut, h.now)
	return out.String(), errOut.String(), code
}

func TestRun_UsageAndUnknownCommand(t *testing.T) {
	h := newCLI(t)

	_, errOut, code := h.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: budgenet")

	_, errOut, code = h.run("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)
}

func TestRun_BudgetFlow(t *testing.T) {
	h := newCLI(t)

	out, _, code := h.run("categories")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Comida")
	assert.Contains(t, out, "Salario")

	_, _, code = h.run("set-budget", "-category", "comida", "-amount", "500")
	require.Equal(t, 0, code)
	_, _, code = h.run("add-tx", "-category", "Comida", "-amount", "620", "-date", "2024-05-10", "-desc", "Mercado")
	require.Equal(t, 0, code)

	out, _, code = h.run("status")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Mayo 2024")
	assert.Contains(t, out, "-120.00")
	assert.Contains(t, out, "excedido")

	out, _, code = h.run("set-budget", "-category", "Comida", "-amount", "700")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "80.00")

	out, _, code = h.run("txs", "-search", "merc")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Mercado")
	assert.Contains(t, out, "-620.00")

	out, _, code = h.run("projection")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Mar 2024")
	assert.Contains(t, out, "Jul 2024")
	assert.NotContains(t, out, "Ago 2024")

	out, _, code = h.run("dashboard")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Egresos por categoría")
	assert.Contains(t, out, "No hay ingresos registrados para este mes.")
}

func TestRun_ErrorsAreReported(t *testing.T) {
	h := newCLI(t)

	_, errOut, code := h.run("add-tx", "-category", "Comdia", "-amount", "5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `did you mean "Comida"`)

	_, errOut, code = h.run("add-tx", "-category", "Comida", "-amount", "-5")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Datos inválidos")
	assert.Equal(t, 1, strings.Count(errOut, "\n"), "reported once")

	_, _, code = h.run("add-category", "Mascotas")
	require.Equal(t, 0, code)
	_, errOut, code = h.run("add-category", "mascotas")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "ya existe")
}
