package models

import (
	"fmt"
	"strings"
)

// EntrantKind distinguishes a single player from a doubles pair.
type EntrantKind string

const (
	EntrantSingle EntrantKind = "single"
	EntrantPair   EntrantKind = "pair"
)

const pairKeySeparator = "_"

// EntrantRef is what sits in a match slot, a group roster or a standings row.
// A Pair always stores its two player IDs in canonical (sorted) order, so the
// same two players produce the same Key no matter who registered first.
type EntrantRef struct {
	Kind    EntrantKind `json:"kind"`
	PlayerA string      `json:"player_a"`
	PlayerB string      `json:"player_b,omitempty"`
}

func Single(playerID string) EntrantRef {
	return EntrantRef{Kind: EntrantSingle, PlayerA: playerID}
}

func Pair(a, b string) EntrantRef {
	if b < a {
		a, b = b, a
	}
	return EntrantRef{Kind: EntrantPair, PlayerA: a, PlayerB: b}
}

// Key is the combined identifier used for maps and persisted lookups.
func (e EntrantRef) Key() string {
	if e.Kind == EntrantPair {
		return e.PlayerA + pairKeySeparator + e.PlayerB
	}
	return e.PlayerA
}

func (e EntrantRef) IsZero() bool {
	return e.PlayerA == ""
}

func (e EntrantRef) IsPair() bool {
	return e.Kind == EntrantPair
}

// Members returns the player IDs behind the entrant.
func (e EntrantRef) Members() []string {
	if e.Kind == EntrantPair {
		return []string{e.PlayerA, e.PlayerB}
	}
	if e.PlayerA == "" {
		return nil
	}
	return []string{e.PlayerA}
}

func (e EntrantRef) HasMember(playerID string) bool {
	if playerID == "" {
		return false
	}
	return e.PlayerA == playerID || (e.Kind == EntrantPair && e.PlayerB == playerID)
}

func (e EntrantRef) Equal(o EntrantRef) bool {
	return e.Kind == o.Kind && e.PlayerA == o.PlayerA && e.PlayerB == o.PlayerB
}

func (e EntrantRef) String() string {
	return e.Key()
}

// Validate rejects refs that could not have come from Single or Pair.
func (e EntrantRef) Validate() error {
	switch e.Kind {
	case EntrantSingle:
		if e.PlayerA == "" || e.PlayerB != "" {
			return fmt.Errorf("single entrant must carry exactly one player id")
		}
	case EntrantPair:
		if e.PlayerA == "" || e.PlayerB == "" {
			return fmt.Errorf("pair entrant must carry two player ids")
		}
		if e.PlayerA == e.PlayerB {
			return fmt.Errorf("pair entrant cannot pair player %s with themselves", e.PlayerA)
		}
		if e.PlayerB < e.PlayerA {
			return fmt.Errorf("pair entrant %s/%s is not in canonical order", e.PlayerA, e.PlayerB)
		}
		if strings.Contains(e.PlayerA, pairKeySeparator) || strings.Contains(e.PlayerB, pairKeySeparator) {
			return fmt.Errorf("player ids inside a pair must not contain %q", pairKeySeparator)
		}
	default:
		return fmt.Errorf("unknown entrant kind %q", e.Kind)
	}
	return nil
}

// RefPtr is a small helper for optional match slots.
func RefPtr(e EntrantRef) *EntrantRef {
	return &e
}
