package categories

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

const refYear = 2026

func player(id string, g models.Gender, age int, gts ...models.GameType) models.Participant {
	p := models.Participant{ID: id, Name: gofakeit.Name(), Gender: g, GameTypes: gts}
	if age > 0 {
		by := refYear - age
		p.BirthYear = &by
	}
	return p
}

func withPartner(p models.Participant, gt models.GameType, partner string) models.Participant {
	if gt == models.GameMixed {
		p.MixedPartnerID = partner
	} else {
		p.DoublesPartnerID = partner
	}
	return p
}

func keys(es []models.EntrantRef) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

func reasons(ex []Exclusion) map[string]ExclusionReason {
	out := map[string]ExclusionReason{}
	for _, e := range ex {
		out[e.ParticipantID] = e.Reason
	}
	return out
}

func TestPartitionOpenEvent(t *testing.T) {
	ev := &models.Event{Open: true, System: models.SystemRoundRobin, Genders: []models.Gender{models.GenderMale}}
	roster := []models.Participant{
		player("a", models.GenderMale, 35),
		player("b", models.GenderFemale, 0),
	}

	res, err := Partition(ev, roster)
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "Açık Kategori", res.Categories[0].Label)
	assert.Equal(t, []string{"a", "b"}, keys(res.Categories[0].Entrants))
}

func TestPartitionEliminationWithoutFilters(t *testing.T) {
	for _, system := range []models.MatchSystem{models.SystemSingleElimination, models.SystemDoubleElimination, models.SystemSwiss} {
		ev := &models.Event{System: system}
		res, err := Partition(ev, []models.Participant{player("a", models.GenderMale, 0), player("b", models.GenderFemale, 0)})
		require.NoError(t, err)
		require.Len(t, res.Categories, 1, system)
		assert.True(t, res.Categories[0].Tag.Open)
	}
}

func TestPartitionByGenderAndAge(t *testing.T) {
	ev := &models.Event{
		System:        models.SystemRoundRobin,
		ReferenceYear: refYear,
		Genders:       []models.Gender{models.GenderMale, models.GenderFemale},
		AgeGroups:     []models.AgeBracket{40, 50, 60},
		GameTypes:     []models.GameType{models.GameSingles},
	}
	roster := []models.Participant{
		player("m45", models.GenderMale, 45),
		player("m57", models.GenderMale, 57),
		// 72 folds down to the highest declared group, 60+.
		player("m72", models.GenderMale, 72),
		player("f52", models.GenderFemale, 52),
		player("m33", models.GenderMale, 33),
		player("nob", models.GenderFemale, 0),
	}

	res, err := Partition(ev, roster)
	require.NoError(t, err)

	var labels []string
	for _, c := range res.Categories {
		labels = append(labels, c.Label)
		assert.NotEmpty(t, c.Entrants, "categories are never empty")
	}
	assert.Equal(t, []string{"Erkekler Tekler 40+", "Erkekler Tekler 50+", "Erkekler Tekler 60+", "Kadınlar Tekler 50+"}, labels)
	assert.Equal(t, []string{"m72"}, keys(res.Entrants(models.CategoryTag{GameType: models.GameSingles, Gender: models.GenderMale, AgeBracket: 60}.Key())))

	why := reasons(res.Excluded)
	assert.Equal(t, ReasonBelowAgeGroups, why["m33"])
	assert.Equal(t, ReasonMissingBirthYear, why["nob"])
}

func TestPartitionGenderNotOffered(t *testing.T) {
	ev := &models.Event{System: models.SystemRoundRobin, Genders: []models.Gender{models.GenderFemale}}
	res, err := Partition(ev, []models.Participant{player("m", models.GenderMale, 40), player("f", models.GenderFemale, 40)})
	require.NoError(t, err)

	require.Len(t, res.Categories, 1)
	assert.Equal(t, "Kadınlar Tekler", res.Categories[0].Label)
	assert.Equal(t, ReasonGenderNotOffered, reasons(res.Excluded)["m"])
}

func TestPartitionDoublesUsesYoungerBracket(t *testing.T) {
	ev := &models.Event{
		System:        models.SystemRoundRobin,
		ReferenceYear: refYear,
		Genders:       []models.Gender{models.GenderMale},
		AgeGroups:     []models.AgeBracket{40, 50, 60},
		GameTypes:     []models.GameType{models.GameDoubles},
	}
	roster := []models.Participant{
		withPartner(player("p2", models.GenderMale, 63, models.GameDoubles), models.GameDoubles, "p1"),
		withPartner(player("p1", models.GenderMale, 44, models.GameDoubles), models.GameDoubles, "p2"),
		player("solo", models.GenderMale, 50, models.GameDoubles),
	}

	res, err := Partition(ev, roster)
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)

	cat := res.Categories[0]
	assert.Equal(t, "Erkekler Çiftler 40+", cat.Label)
	require.Len(t, cat.Entrants, 1)
	assert.Equal(t, "p1_p2", cat.Entrants[0].Key())
	assert.Equal(t, models.AgeBracket(40), res.Pairs["p1_p2"].AgeBracket)
	assert.Equal(t, ReasonNoPartner, reasons(res.Excluded)["solo"], "unpartnered players are never turned into singles")
}

func TestPartitionMixed(t *testing.T) {
	ev := &models.Event{System: models.SystemRoundRobin, GameTypes: []models.GameType{models.GameSingles, models.GameMixed}}
	roster := []models.Participant{
		withPartner(player("m", models.GenderMale, 30, models.GameSingles, models.GameMixed), models.GameMixed, "f"),
		player("f", models.GenderFemale, 30, models.GameMixed),
		withPartner(player("m2", models.GenderMale, 30, models.GameMixed), models.GameMixed, "m3"),
		player("m3", models.GenderMale, 30, models.GameMixed),
	}

	res, err := Partition(ev, roster)
	require.NoError(t, err)
	require.Len(t, res.Categories, 2)
	assert.Equal(t, "Tekler", res.Categories[0].Label)
	assert.Equal(t, []string{"m"}, keys(res.Categories[0].Entrants))
	assert.Equal(t, "Karışık Çiftler", res.Categories[1].Label)
	assert.Equal(t, []string{"f_m"}, keys(res.Categories[1].Entrants))
	assert.Equal(t, ReasonPairGender, reasons(res.Excluded)["m2"])
}

func TestResolvePairs(t *testing.T) {
	gt := models.GameDoubles
	tests := []struct {
		name     string
		roster   []models.Participant
		want     []string
		excluded map[string]ExclusionReason
	}{
		{
			name: "mutual",
			roster: []models.Participant{
				withPartner(player("a", models.GenderMale, 0, gt), gt, "b"),
				withPartner(player("b", models.GenderMale, 0, gt), gt, "a"),
			},
			want:     []string{"a_b"},
			excluded: map[string]ExclusionReason{},
		},
		{
			name: "implicit partner named later",
			roster: []models.Participant{
				player("a", models.GenderMale, 0, gt),
				withPartner(player("b", models.GenderMale, 0, gt), gt, "a"),
			},
			want:     []string{"a_b"},
			excluded: map[string]ExclusionReason{},
		},
		{
			name: "partner already claimed",
			roster: []models.Participant{
				withPartner(player("a", models.GenderMale, 0, gt), gt, "b"),
				withPartner(player("c", models.GenderMale, 0, gt), gt, "b"),
				player("b", models.GenderMale, 0, gt),
			},
			want:     []string{"a_b"},
			excluded: map[string]ExclusionReason{"c": ReasonPartnerTaken},
		},
		{
			name: "partner points elsewhere",
			roster: []models.Participant{
				withPartner(player("a", models.GenderMale, 0, gt), gt, "b"),
				withPartner(player("b", models.GenderMale, 0, gt), gt, "c"),
				withPartner(player("c", models.GenderMale, 0, gt), gt, "b"),
			},
			want:     []string{"b_c"},
			excluded: map[string]ExclusionReason{"a": ReasonPartnerTaken},
		},
		{
			name: "unknown and non-playing partners",
			roster: []models.Participant{
				withPartner(player("a", models.GenderMale, 0, gt), gt, "ghost"),
				withPartner(player("b", models.GenderMale, 0, gt), gt, "c"),
				player("c", models.GenderMale, 0, models.GameSingles),
			},
			excluded: map[string]ExclusionReason{"a": ReasonPartnerUnknown, "b": ReasonPartnerDeclined},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, excluded := ResolvePairs(tt.roster, gt)
			var got []string
			for _, p := range pairs {
				got = append(got, p.Ref.Key())
				require.NoError(t, p.Ref.Validate())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.excluded, reasons(excluded))
		})
	}
}

// Every rostered player ends up in at most one category per game type.
func TestPartitionIsDisjoint(t *testing.T) {
	faker := gofakeit.New(11)
	ev := &models.Event{
		System:        models.SystemRoundRobin,
		ReferenceYear: refYear,
		Genders:       []models.Gender{models.GenderMale, models.GenderFemale},
		AgeGroups:     []models.AgeBracket{30, 40, 50, 60, 65, 70, 75},
		GameTypes:     []models.GameType{models.GameSingles},
	}
	var roster []models.Participant
	for i := 0; i < 120; i++ {
		g := models.GenderMale
		if faker.Bool() {
			g = models.GenderFemale
		}
		roster = append(roster, player(faker.UUID(), g, faker.IntRange(20, 85)))
	}

	res, err := Partition(ev, roster)
	require.NoError(t, err)

	seen := map[string]string{}
	for _, c := range res.Categories {
		for _, e := range c.Entrants {
			prev, dup := seen[e.Key()]
			assert.False(t, dup, "%s in %s and %s", e.Key(), prev, c.Label)
			seen[e.Key()] = c.Label
		}
	}
	assert.Equal(t, len(roster), len(seen)+len(res.Excluded))
}

func TestMergeCategories(t *testing.T) {
	a := models.Category{
		Tag:      models.CategoryTag{GameType: models.GameSingles, Gender: models.GenderMale, AgeBracket: 60},
		Label:    "Erkekler Tekler 60+",
		Entrants: []models.EntrantRef{models.Single("x"), models.Single("y")},
	}
	b := models.Category{
		Tag:      models.CategoryTag{GameType: models.GameSingles, Gender: models.GenderMale, AgeBracket: 70},
		Label:    "Erkekler Tekler 70+",
		Entrants: []models.EntrantRef{models.Single("y"), models.Single("z")},
	}

	merged, err := MergeCategories("", a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, keys(merged.Entrants))
	assert.Equal(t, models.AgeBracket(60), merged.Tag.AgeBracket)
	assert.Equal(t, "Erkekler Tekler 60+ + Erkekler Tekler 70+", merged.Label)

	_, err = MergeCategories("solo", a)
	assert.ErrorIs(t, err, ErrNothingToMerge)

	c := b
	c.Tag.GameType = models.GameDoubles
	_, err = MergeCategories("bad", a, c)
	assert.Error(t, err)
}

func TestFoldAgeGroup(t *testing.T) {
	got, _, ok := FoldAgeGroup(65, []models.AgeBracket{40, 60})
	require.True(t, ok)
	assert.Equal(t, models.AgeBracket(60), got)

	_, reason, ok := FoldAgeGroup(30, []models.AgeBracket{40, 60})
	assert.False(t, ok)
	assert.Equal(t, ReasonBelowAgeGroups, reason)
}
