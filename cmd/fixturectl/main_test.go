package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const roster = `
event:
  name: Sonbahar Kupası
  sport: masa tenisi
  system: round_robin
  genders: [male, female]
  game_types: [singles]
  start_date: "2026-09-12"
  schedule:
    courts: 2
    match_minutes: 20
    day_start: "09:00"
    day_end: "12:00"
participants:
  - {id: m1, name: Kerem, gender: male}
  - {id: m2, name: Emre, gender: male}
  - {id: m3, name: Onur, gender: male}
  - {id: f1, name: Deniz, gender: female}
  - {id: f2, name: Selin, gender: female}
`

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"fixturectl"}, args...))
	return out.String(), err
}

func TestPartitionCommand(t *testing.T) {
	out, err := run(t, "partition", "--roster", writeRoster(t, roster))
	require.NoError(t, err)
	assert.Contains(t, out, "Erkekler Tekler")
	assert.Contains(t, out, "Kadınlar Tekler")
	assert.Contains(t, out, "Kerem")
	assert.Contains(t, out, "outcome: succeeded (5 processed)")
}

func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "-r", writeRoster(t, roster))
	require.NoError(t, err)
	// Three men play three matches, two women one.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1+4)
	assert.Contains(t, out, "Deniz")
}

func TestScheduleCommandWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.xlsx")
	out, err := run(t, "schedule", "--roster", writeRoster(t, roster), "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "12.09.2026")
	assert.Contains(t, out, "outcome: succeeded")
	assert.Contains(t, out, "workbook written to "+path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("12.09.2026")
	require.NoError(t, err)
	assert.Len(t, rows, 1+4)
}

func TestRosterErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty roster", "event: {name: x}\n", "no participants"},
		{"duplicate id", "event: {name: x}\nparticipants:\n  - {id: a, name: A, gender: male}\n  - {id: a, name: B, gender: male}\n", "listed twice"},
		{"bad date", "event: {name: x, start_date: 12/09/2026}\nparticipants:\n  - {id: a, name: A, gender: male}\n", "start_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "partition", "--roster", writeRoster(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
