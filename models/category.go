package models

import (
	"fmt"
	"strings"
)

// AgeBracket is keyed by its lower bound. Zero means "no age bracket".
type AgeBracket int

// AgeBrackets lists the bracket lower bounds, youngest first.
var AgeBrackets = []AgeBracket{30, 40, 50, 60, 65, 70, 75}

// BracketForAge maps an age to its bracket; ok is false below the first one.
func BracketForAge(age int) (AgeBracket, bool) {
	found := AgeBracket(0)
	for _, b := range AgeBrackets {
		if age >= int(b) {
			found = b
		}
	}
	return found, found != 0
}

// CategoryTag is the structured partition key carried on groups and matches.
// Downstream code (scheduler priority, bracket builder) reads these fields
// instead of re-parsing the display label.
type CategoryTag struct {
	GameType   GameType   `json:"game_type"`
	Gender     Gender     `json:"gender,omitempty"`
	AgeBracket AgeBracket `json:"age_bracket,omitempty"`
	Open       bool       `json:"open,omitempty"`
}

// Key is a stable machine identifier for the category.
func (c CategoryTag) Key() string {
	if c.Open {
		return "open"
	}
	return fmt.Sprintf("%s/%s/%d", c.GameType, c.Gender, c.AgeBracket)
}

// Label renders the Turkish display name, e.g. "Erkekler Tekler 50+".
func (c CategoryTag) Label() string {
	if c.Open {
		return "Açık Kategori"
	}
	parts := make([]string, 0, 3)
	switch {
	case c.GameType == GameMixed || c.Gender == GenderMixed:
		parts = append(parts, "Karışık")
	case c.Gender == GenderMale:
		parts = append(parts, "Erkekler")
	case c.Gender == GenderFemale:
		parts = append(parts, "Kadınlar")
	}
	switch c.GameType {
	case GameSingles:
		parts = append(parts, "Tekler")
	case GameDoubles, GameMixed:
		parts = append(parts, "Çiftler")
	}
	if c.AgeBracket > 0 {
		parts = append(parts, fmt.Sprintf("%d+", c.AgeBracket))
	}
	return strings.Join(parts, " ")
}

// Category is one partition produced for an event.
type Category struct {
	Tag      CategoryTag  `json:"tag"`
	Label    string       `json:"label"`
	Entrants []EntrantRef `json:"entrants"`
}
