package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/models"
)

func TestResolveID(t *testing.T) {
	ids := []string{"a1b2c3", "a1ffff", "b00000"}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"exact", "b00000", "b00000", false},
		{"unique prefix", "a1b", "a1b2c3", false},
		{"ambiguous prefix", "a1", "", true},
		{"unknown", "zz", "", true},
		{"empty", " ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveID("vehicle", tt.ref, ids)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := resolveID("leg", "zz", ids)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReportRange(t *testing.T) {
	start, end, err := reportRange("", "", "", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)

	start, end, err = reportRange("", "", "2023-12", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", start)
	assert.Equal(t, "2023-12-31", end)

	start, end, err = reportRange("2024-01-05", "2024-01-05", "", "2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", start)
	assert.Equal(t, "2024-01-05", end)

	_, _, err = reportRange("2024-01-05", "", "", "2024-02")
	assert.Error(t, err)

	_, _, err = reportRange("2024-02-01", "2024-01-01", "", "2024-02")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, _, err = reportRange("", "", "2024-13", "")
	assert.ErrorIs(t, err, models.ErrInvalidMonth)
}

func TestParseAssignments(t *testing.T) {
	data, err := parseAssignments([]string{"startPlace=Home", " endPlace = Office ", "note="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"startPlace": "Home", "endPlace": "Office", "note": ""}, data)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestSmallHelpers(t *testing.T) {
	assert.Equal(t, []string{"work", "munich"}, splitTags(" work, ,munich "))
	assert.Nil(t, splitTags(""))

	assert.Equal(t, "-", dash("  "))
	assert.Equal(t, "x", dash("x"))
	assert.Equal(t, "abcdefgh", shortID("abcdefghijkl"))
	assert.Equal(t, "?", odometerText(nil))
	assert.Equal(t, "1050.5", odometerText(models.Float(1050.5)))

	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))

	lang, err := canonicalLanguage("de-ch")
	require.NoError(t, err)
	assert.Equal(t, "de-CH", lang)
	_, err = canonicalLanguage("not a language")
	assert.Error(t, err)
}

func TestReadYes(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"yes":   true,
	} {
		got, err := readYes(strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}

	ok, err := confirm("Delete?", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDescribeError(t *testing.T) {
	err := fmt.Errorf("commit: %w", models.NewValidationError(models.ErrCodeInvalidRange, "odoEnd", models.ErrInvalidRange))
	assert.Equal(t, "odoEnd: odometer end is before odometer start", describeError(err))

	result := errorResult(err)
	assert.Equal(t, false, result["success"])
	assert.Equal(t, models.ErrCodeInvalidRange, result["code"])
	assert.Equal(t, "odoEnd", result["field"])

	assert.Equal(t, "boom", describeError(fmt.Errorf("boom")))
}

func TestCommandsRecordTripAndExportCSV(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "triplog.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(
		"storage:\n  backend: json\n  data_dir: %s\nlog:\n  level: error\n", dir)), 0o600))

	run := func(args ...string) error {
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		return rootCmd.Execute()
	}

	require.NoError(t, run("vehicle", "add", "--name", "Golf", "--plate", "B-XY 12"))
	require.NoError(t, run("trip", "start", "--title", "Client Visit", "--date", "2024-03-01"))
	require.NoError(t, run("leg", "add", "--from", "Home", "--to", "Office", "--odo-start", "1000", "--odo-end", "1050"))
	require.NoError(t, run("trip", "end"))
	require.NoError(t, run("report", "--from", "2024-03-01", "--to", "2024-03-31", "--format", "csv"))

	data, err := os.ReadFile(filepath.Join(dir, "exports", "trips_2024-03-01_2024-03-31.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2024-03-01","Client Visit","Home","Office"`)
	assert.Contains(t, string(data), `"50"`)

	_, err = os.Stat(filepath.Join(dir, "state"))
	assert.NoError(t, err, "json backend keeps its files under the data dir")
}
