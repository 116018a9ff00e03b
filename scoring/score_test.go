package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

var (
	tennis   = models.SportRules{Name: "tenis", UsesSets: true, MaxSets: 3, WinPoints: 2, LossPoints: 1}
	volley   = models.SportRules{Name: "voleybol", UsesSets: true, MaxSets: 5, WinPoints: 3}
	football = models.SportRules{Name: "futbol", WinPoints: 3, DrawPoints: 1, AllowDraw: true}
	squash   = models.SportRules{Name: "squash", UsesSets: true, MaxSets: 1, WinPoints: 1}
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		sets    int
		a, b    int
		wantErr error
	}{
		{raw: "6-4 3-6 6-2", sets: 3, a: 2, b: 1},
		{raw: "6-4, 3-6, 6-2", sets: 3, a: 2, b: 1},
		{raw: " 6 - 4 ,7 - 5 ", sets: 2, a: 2, b: 0},
		{raw: "3-1", a: 3, b: 1},
		{raw: "", wantErr: ErrMalformedScore},
		{raw: "6-4-2", wantErr: ErrMalformedScore},
		{raw: "six-four", wantErr: ErrMalformedScore},
		{raw: "6:4", wantErr: ErrMalformedScore},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseScore(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got.Sets, tt.sets)
			assert.Equal(t, tt.a, got.A)
			assert.Equal(t, tt.b, got.B)
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		rules     models.SportRules
		allowDraw bool
		winner    int
		for1      int
		for2      int
		margin    int
		wantErr   error
	}{
		{name: "tennis three sets", raw: "6-4 3-6 6-2", rules: tennis, winner: 1, for1: 2, for2: 1, margin: 3},
		{name: "tennis straight sets", raw: "4-6 3-6", rules: tennis, winner: 2, for1: 0, for2: 2, margin: 5},
		{name: "tennis set summary", raw: "2-0", rules: tennis, winner: 1, for1: 2, for2: 0, margin: 2},
		{name: "tennis too few sets", raw: "6-4", rules: tennis, wantErr: ErrSetCount},
		{name: "tennis loser not fewer", raw: "2-2", rules: tennis, wantErr: ErrSetCount},
		{name: "tennis set after decided", raw: "6-4 6-4 6-4", rules: tennis, wantErr: ErrPlayedAfterDone},
		{name: "tennis tied set", raw: "6-6 6-4", rules: tennis, wantErr: ErrTiedSet},
		{name: "volleyball five sets", raw: "25-20 20-25 25-23 23-25 15-10", rules: volley, winner: 1, for1: 3, for2: 2},
		{name: "volleyball short", raw: "25-20 25-20", rules: volley, wantErr: ErrSetCount},
		{name: "single set sport", raw: "11-7", rules: squash, winner: 1, for1: 1, for2: 0, margin: 4},
		{name: "football win", raw: "3-1", rules: football, allowDraw: true, winner: 1, for1: 3, for2: 1, margin: 2},
		{name: "football draw", raw: "2-2", rules: football, allowDraw: true, winner: 0, for1: 2, for2: 2},
		{name: "elimination draw", raw: "2-2", rules: football, allowDraw: false, wantErr: ErrDrawNotAllowed},
		{name: "football in sets", raw: "1-0 2-1", rules: football, allowDraw: true, wantErr: ErrMalformedScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.raw, tt.rules, tt.allowDraw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.winner, d.Winner)
			assert.Equal(t, tt.for1, d.For1)
			assert.Equal(t, tt.for2, d.For2)
			if tt.margin != 0 {
				assert.Equal(t, tt.margin, d.Margin)
			}
		})
	}
}

func TestCheckWinner(t *testing.T) {
	d, err := Decide("6-4 6-4", tennis, false)
	require.NoError(t, err)
	assert.NoError(t, CheckWinner(d, 1))
	assert.NoError(t, CheckWinner(d, 0))
	assert.ErrorIs(t, CheckWinner(d, 2), ErrWinnerMismatch)

	_, err = DecideForfeit(3)
	assert.ErrorIs(t, err, ErrWinnerMismatch)
}
