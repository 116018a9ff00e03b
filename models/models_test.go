package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairIsCanonical(t *testing.T) {
	a := Pair("p9", "p1")
	b := Pair("p1", "p9")

	assert.True(t, a.Equal(b))
	assert.Equal(t, "p1_p9", a.Key())
	assert.Equal(t, []string{"p1", "p9"}, a.Members())
	require.NoError(t, a.Validate())
}

func TestEntrantValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     EntrantRef
		wantErr bool
	}{
		{"single", Single("a"), false},
		{"empty single", EntrantRef{Kind: EntrantSingle}, true},
		{"pair with self", EntrantRef{Kind: EntrantPair, PlayerA: "a", PlayerB: "a"}, true},
		{"pair out of order", EntrantRef{Kind: EntrantPair, PlayerA: "b", PlayerB: "a"}, true},
		{"unknown kind", EntrantRef{Kind: "team", PlayerA: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchStatusTransitions(t *testing.T) {
	assert.True(t, MatchScheduled.CanTransitionTo(MatchInProgress))
	assert.True(t, MatchPendingConfirmation.CanTransitionTo(MatchDisputed))
	assert.True(t, MatchDisputed.CanTransitionTo(MatchPendingConfirmation))
	assert.False(t, MatchCompleted.CanTransitionTo(MatchScheduled))
	assert.False(t, MatchCancelled.CanTransitionTo(MatchScheduled))
	assert.False(t, MatchAwaitingParticipants.CanTransitionTo(MatchCompleted))
	assert.False(t, MatchStatus("done").Valid())
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		tag  CategoryTag
		want string
	}{
		{CategoryTag{GameType: GameSingles, Gender: GenderMale, AgeBracket: 50}, "Erkekler Tekler 50+"},
		{CategoryTag{GameType: GameDoubles, Gender: GenderFemale}, "Kadınlar Çiftler"},
		{CategoryTag{GameType: GameMixed, Gender: GenderMixed, AgeBracket: 60}, "Karışık Çiftler 60+"},
		{CategoryTag{Open: true}, "Açık Kategori"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tag.Label())
	}
}

func TestBracketForAge(t *testing.T) {
	b, ok := BracketForAge(29)
	assert.False(t, ok)
	assert.Zero(t, b)

	b, ok = BracketForAge(64)
	assert.True(t, ok)
	assert.Equal(t, AgeBracket(60), b)

	b, _ = BracketForAge(81)
	assert.Equal(t, AgeBracket(75), b)
}

func TestCompletedInvariant(t *testing.T) {
	p1, p2 := Single("a"), Single("b")
	m := &Match{ID: "m", Participant1: &p1, Participant2: &p2, Status: MatchCompleted, WinnerKey: "c"}
	assert.Error(t, m.CheckCompletedInvariant())

	m.WinnerKey = "b"
	assert.NoError(t, m.CheckCompletedInvariant())
	loser, ok := m.Loser()
	require.True(t, ok)
	assert.Equal(t, "a", loser.Key())
}
