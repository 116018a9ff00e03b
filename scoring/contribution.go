package scoring

import (
	"errors"

	"github.com/Dosada05/tournament-scheduler/models"
)

// Breakdown keys stored on every contribution entry.
const (
	KeyMatchResult      = "match_result"
	KeyCloseScore       = "close_score_bonus"
	KeyDominantWin      = "dominant_win_bonus"
	KeySetDifference    = "set_difference"
	KeyOpponentStrength = "opponent_strength"
	KeyFairPlay         = "fair_play"
	KeyAttendance       = "attendance"
	KeyStreak           = "streak_bonus"
	KeyNoShow           = "no_show"
)

const (
	ResultWin  = "W"
	ResultLoss = "L"
	ResultDraw = "D"
)

var ErrNotDecided = errors.New("match has no decided participants")

// Input is everything needed to price one finished match.
type Input struct {
	Match    *models.Match
	Decision Decision
	Rules    models.SportRules
	// Custom replaces the sport's win/loss points when enabled.
	Custom *models.CustomScoring
	// Ranks are current standings positions (1 = top) by entrant key, used
	// by the opponent-strength module.
	Ranks map[string]int
	// Appearances are consecutive matches played before this one, by key.
	Appearances map[string]int
}

// Contribute computes what a decided match adds to each side's standings row.
// A bye produces a single entry worth one win.
func Contribute(in Input) (*models.Contribution, error) {
	m := in.Match
	if m == nil || m.Participant1 == nil {
		return nil, ErrNotDecided
	}
	if m.IsBye || m.Participant2 == nil {
		e := models.ContributionEntry{
			EntrantKey: m.Participant1.Key(),
			Entrant:    *m.Participant1,
			Played:     1,
			Wins:       1,
			Points:     winPoints(in),
			Result:     ResultWin,
			Breakdown:  map[string]float64{KeyMatchResult: winPoints(in)},
		}
		stamp(m, &e)
		return &models.Contribution{Entries: []models.ContributionEntry{e}}, nil
	}

	d := in.Decision
	e1 := models.ContributionEntry{
		EntrantKey: m.Participant1.Key(), Entrant: *m.Participant1, Played: 1,
		ScoredFor: d.For1, ScoredAgainst: d.For2, Breakdown: map[string]float64{},
	}
	e2 := models.ContributionEntry{
		EntrantKey: m.Participant2.Key(), Entrant: *m.Participant2, Played: 1,
		ScoredFor: d.For2, ScoredAgainst: d.For1, Breakdown: map[string]float64{},
	}

	var winner, loser *models.ContributionEntry
	switch d.Winner {
	case 1:
		winner, loser = &e1, &e2
	case 2:
		winner, loser = &e2, &e1
	}
	if winner != nil {
		winner.Wins, winner.Result = 1, ResultWin
		loser.Losses, loser.Result = 1, ResultLoss
	} else {
		e1.Draws, e1.Result = 1, ResultDraw
		e2.Draws, e2.Result = 1, ResultDraw
	}

	if in.Custom != nil && in.Custom.Enabled {
		customPoints(in, &e1, &e2, winner, loser)
	} else {
		basePoints(in, &e1, &e2, winner, loser)
	}
	for _, e := range []*models.ContributionEntry{&e1, &e2} {
		for _, v := range e.Breakdown {
			e.Points += v
		}
		stamp(m, e)
	}
	return &models.Contribution{Entries: []models.ContributionEntry{e1, e2}}, nil
}

// stamp records which match an entry came from and when it was completed.
func stamp(m *models.Match, e *models.ContributionEntry) {
	e.MatchID = m.ID
	if m.CompletedAt != nil {
		e.At = *m.CompletedAt
	}
}

func winPoints(in Input) float64 {
	if in.Custom != nil && in.Custom.Enabled && in.Custom.MatchResult.Enabled {
		return in.Custom.MatchResult.Win
	}
	return in.Rules.WinPoints
}

func basePoints(in Input, e1, e2, winner, loser *models.ContributionEntry) {
	if winner == nil {
		e1.Breakdown[KeyMatchResult] = in.Rules.DrawPoints
		e2.Breakdown[KeyMatchResult] = in.Rules.DrawPoints
		return
	}
	winner.Breakdown[KeyMatchResult] = in.Rules.WinPoints
	loser.Breakdown[KeyMatchResult] = in.Rules.LossPoints
}

func customPoints(in Input, e1, e2, winner, loser *models.ContributionEntry) {
	c := in.Custom
	d := in.Decision
	m := in.Match

	if mr := c.MatchResult; mr.Enabled {
		switch {
		case winner == nil:
			e1.Breakdown[KeyMatchResult] = mr.Draw
			e2.Breakdown[KeyMatchResult] = mr.Draw
		case d.Forfeit:
			winner.Breakdown[KeyMatchResult] = mr.ForfeitWin
			loser.Breakdown[KeyMatchResult] = mr.ForfeitLoss
		default:
			winner.Breakdown[KeyMatchResult] = mr.Win
			loser.Breakdown[KeyMatchResult] = mr.Loss
		}
	}

	if sd := c.ScoreDifference; sd.Enabled && winner != nil && !d.Forfeit {
		if d.Margin <= sd.CloseThreshold {
			loser.Breakdown[KeyCloseScore] = sd.CloseBonus
		}
		if d.Margin >= sd.DominantThreshold {
			winner.Breakdown[KeyDominantWin] = sd.DominantBonus
		}
	}

	if sdiff := c.SetDifference; sdiff.Enabled && winner != nil && d.SetDiff > 0 {
		v := float64(d.SetDiff) * sdiff.PointsPerSet
		winner.Breakdown[KeySetDifference] = v
		loser.Breakdown[KeySetDifference] = -v
	}

	if strength := c.OpponentStrength; strength.Enabled && winner != nil {
		wr, lr := in.Ranks[winner.EntrantKey], in.Ranks[loser.EntrantKey]
		// An upset: the winner sits lower in the table than the loser.
		if wr > 0 && lr > 0 && wr > lr {
			gap := wr - lr
			muchGap := strength.MuchHigherGap
			if muchGap <= 0 {
				muchGap = 5
			}
			if gap >= muchGap {
				winner.Breakdown[KeyOpponentStrength] = strength.BeatMuchHigher
			} else {
				winner.Breakdown[KeyOpponentStrength] = strength.BeatHigher
			}
			if strength.LoseToLower != 0 {
				loser.Breakdown[KeyOpponentStrength] = strength.LoseToLower
			}
		}
	}

	if fp := c.FairPlay; fp.Enabled {
		e1.Breakdown[KeyFairPlay] = fairPlayPoints(fp, m.FairPlay1)
		e2.Breakdown[KeyFairPlay] = fairPlayPoints(fp, m.FairPlay2)
	}

	if pp := c.Participation; pp.Enabled {
		for _, e := range []*models.ContributionEntry{e1, e2} {
			if d.Forfeit && e == loser {
				e.Breakdown[KeyNoShow] = pp.NoShow
				continue
			}
			e.Breakdown[KeyAttendance] = pp.Attendance
			after := pp.StreakAfter
			if after <= 0 {
				after = 3
			}
			if in.Appearances[e.EntrantKey]+1 >= after {
				e.Breakdown[KeyStreak] = pp.StreakBonus
			}
		}
	}
}

func fairPlayPoints(fp models.FairPlayPoints, rec models.FairPlay) float64 {
	if rec.Clean() {
		return fp.NoWarnings
	}
	return float64(rec.Warnings)*fp.Warning +
		float64(rec.YellowCards)*fp.YellowCard +
		float64(rec.RedCards)*fp.RedCard +
		float64(rec.Unsportsmanlike)*fp.Unsportsmanlike
}
