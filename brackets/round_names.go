package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-scheduler/models"
)

// EliminationRoundName names a round by the number of matches in it.
func EliminationRoundName(round, matchesInRound int) string {
	switch matchesInRound {
	case 1:
		return "Final"
	case 2:
		return "Yarı Final"
	case 4:
		return "Çeyrek Final"
	case 8:
		return "Son 16"
	case 16:
		return "Son 32"
	}
	return fmt.Sprintf("%d. Tur", round)
}

func eliminationStage(matchesInRound int) models.Stage {
	switch matchesInRound {
	case 1:
		return models.StageFinal
	case 2:
		return models.StageSemifinal
	}
	return models.StageRegular
}

// SideRoundName is the display name used for double-elimination rounds.
func SideRoundName(side models.BracketSide, round, matchesInRound int) string {
	switch side {
	case models.SideWinners:
		return "Üst Tablo " + EliminationRoundName(round, matchesInRound)
	case models.SideLosers:
		return fmt.Sprintf("Alt Tablo %d. Tur", round)
	case models.SideGrandFinal:
		if round > 1 {
			return "Büyük Final (Tekrar)"
		}
		return "Büyük Final"
	}
	return EliminationRoundName(round, matchesInRound)
}

// LeagueRoundName names a round-robin or Swiss round.
func LeagueRoundName(round int) string {
	return fmt.Sprintf("%d. Tur", round)
}
