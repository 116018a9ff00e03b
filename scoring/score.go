// Package scoring parses match scores, validates them against sport rules and
// turns a decided match into standings contributions.
package scoring

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
)

var (
	ErrMalformedScore  = errors.New("malformed score")
	ErrSetCount        = errors.New("score does not match the required set count")
	ErrTiedSet         = errors.New("a set cannot end level")
	ErrDrawNotAllowed  = errors.New("draws are not allowed")
	ErrWinnerMismatch  = errors.New("declared winner does not match the score")
	ErrNegativeScore   = errors.New("scores cannot be negative")
	ErrPlayedAfterDone = errors.New("sets recorded after the match was decided")
)

// SetScore is one set, games of side 1 then side 2.
type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Score is a parsed score string. For set sports A and B are sets won;
// otherwise they are the goals or points of each side.
type Score struct {
	Raw  string     `json:"raw"`
	Sets []SetScore `json:"sets,omitempty"`
	A    int        `json:"a"`
	B    int        `json:"b"`
}

var dashSpaces = regexp.MustCompile(`\s*-\s*`)

// ParseScore accepts "6-4 3-6 6-2", "6-4, 3-6, 6-2" or a single "3-1".
// A single pair is returned without Sets; the caller decides whether it is
// a set summary or a points score.
func ParseScore(raw string) (Score, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Score{}, fmt.Errorf("%w: empty", ErrMalformedScore)
	}
	s = dashSpaces.ReplaceAllString(s, "-")
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})

	pairs := make([]SetScore, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(tok, "-")
		if len(parts) != 2 {
			return Score{}, fmt.Errorf("%w: %q", ErrMalformedScore, tok)
		}
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil {
			return Score{}, fmt.Errorf("%w: %q", ErrMalformedScore, tok)
		}
		if a < 0 || b < 0 {
			return Score{}, fmt.Errorf("%w: %q", ErrNegativeScore, tok)
		}
		pairs = append(pairs, SetScore{A: a, B: b})
	}

	out := Score{Raw: raw}
	if len(pairs) == 1 {
		out.A, out.B = pairs[0].A, pairs[0].B
		return out, nil
	}
	out.Sets = pairs
	for _, set := range pairs {
		switch {
		case set.A > set.B:
			out.A++
		case set.B > set.A:
			out.B++
		}
	}
	return out, nil
}

// Decision is a validated match outcome.
type Decision struct {
	Score Score `json:"score"`
	// Winner is 1 or 2, or 0 for a draw.
	Winner int `json:"winner"`
	// For1 and For2 feed the scored/conceded counters: sets won for set
	// sports, goals or points otherwise.
	For1 int `json:"for_1"`
	For2 int `json:"for_2"`
	// Margin is the game or point difference used by margin bonuses.
	Margin  int  `json:"margin"`
	SetDiff int  `json:"set_diff"`
	Forfeit bool `json:"forfeit,omitempty"`
}

func (d Decision) Draw() bool {
	return d.Winner == 0
}

// Decide parses and validates a score. allowDraw must already account for
// the match context (elimination matches never allow draws).
func Decide(raw string, rules models.SportRules, allowDraw bool) (Decision, error) {
	score, err := ParseScore(raw)
	if err != nil {
		return Decision{}, err
	}
	if rules.UsesSets {
		return decideSets(score, rules)
	}
	if len(score.Sets) > 0 {
		return Decision{}, fmt.Errorf("%w: %s is not played in sets", ErrMalformedScore, rules.Name)
	}

	d := Decision{Score: score, For1: score.A, For2: score.B, Margin: abs(score.A - score.B)}
	switch {
	case score.A > score.B:
		d.Winner = 1
	case score.B > score.A:
		d.Winner = 2
	default:
		if !allowDraw || !rules.AllowDraw {
			return Decision{}, fmt.Errorf("%w: %s", ErrDrawNotAllowed, raw)
		}
	}
	return d, nil
}

func decideSets(score Score, rules models.SportRules) (Decision, error) {
	need := rules.SetsToWin()
	maxSets := rules.MaxSets
	if maxSets <= 0 {
		maxSets = 2*need - 1
	}

	if len(score.Sets) == 0 {
		// A lone pair larger than the set count is a one-set game score.
		if score.A > need || score.B > need {
			if need != 1 {
				return Decision{}, fmt.Errorf("%w: %s needs %d sets", ErrSetCount, score.Raw, need)
			}
			score.Sets = []SetScore{{A: score.A, B: score.B}}
			score.A, score.B = 0, 0
			if score.Sets[0].A > score.Sets[0].B {
				score.A = 1
			} else if score.Sets[0].B > score.Sets[0].A {
				score.B = 1
			}
		}
	}

	games1, games2 := 0, 0
	won1, won2 := 0, 0
	for i, set := range score.Sets {
		if set.A == set.B {
			return Decision{}, fmt.Errorf("%w: set %d is %d-%d", ErrTiedSet, i+1, set.A, set.B)
		}
		if won1 == need || won2 == need {
			return Decision{}, fmt.Errorf("%w: set %d", ErrPlayedAfterDone, i+1)
		}
		if set.A > set.B {
			won1++
		} else {
			won2++
		}
		games1 += set.A
		games2 += set.B
	}
	if len(score.Sets) > maxSets {
		return Decision{}, fmt.Errorf("%w: %d sets played, at most %d", ErrSetCount, len(score.Sets), maxSets)
	}

	d := Decision{Score: score, For1: score.A, For2: score.B}
	switch {
	case score.A == need && score.B < need:
		d.Winner = 1
	case score.B == need && score.A < need:
		d.Winner = 2
	default:
		return Decision{}, fmt.Errorf("%w: winner must take exactly %d sets, got %d-%d", ErrSetCount, need, score.A, score.B)
	}
	d.SetDiff = abs(score.A - score.B)
	if len(score.Sets) > 0 {
		d.Margin = abs(games1 - games2)
	} else {
		d.Margin = d.SetDiff
	}
	return d, nil
}

// DecideForfeit records a walkover won by the given side.
func DecideForfeit(winnerSide int) (Decision, error) {
	if winnerSide != 1 && winnerSide != 2 {
		return Decision{}, fmt.Errorf("%w: forfeit needs a winning side", ErrWinnerMismatch)
	}
	return Decision{Winner: winnerSide, Forfeit: true}, nil
}

// CheckWinner verifies a declared winner side against a decision.
func CheckWinner(d Decision, declared int) error {
	if declared == 0 || declared == d.Winner {
		return nil
	}
	return fmt.Errorf("%w: score gives side %d, declared side %d", ErrWinnerMismatch, d.Winner, declared)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
