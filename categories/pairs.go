package categories

import (
	"github.com/Dosada05/tournament-scheduler/models"
)

// ExclusionReason explains why a player is missing from every category.
type ExclusionReason string

const (
	ReasonMissingBirthYear ExclusionReason = "missing_birth_year"
	ReasonBelowAgeGroups   ExclusionReason = "below_age_groups"
	ReasonGenderNotOffered ExclusionReason = "gender_not_offered"
	ReasonNoPartner        ExclusionReason = "no_partner"
	ReasonPartnerUnknown   ExclusionReason = "partner_not_registered"
	ReasonPartnerDeclined  ExclusionReason = "partner_not_playing"
	ReasonPartnerTaken     ExclusionReason = "partner_already_paired"
	ReasonPairGender       ExclusionReason = "pair_gender_mismatch"
)

// Exclusion is one player left out of one game type.
type Exclusion struct {
	ParticipantID string          `json:"participant_id"`
	GameType      models.GameType `json:"game_type"`
	Reason        ExclusionReason `json:"reason"`
}

// ResolvedPair is a pair together with its members' documents.
type ResolvedPair struct {
	models.PairEntry
	First  *models.Participant
	Second *models.Participant
}

// ResolvePairs forms doubles or mixed pairs from declared partners.
//
// The roster is walked in order. A participant pairs with their declared
// partner when the partner is registered for the same game type and either
// names them back or names nobody. A partner already taken by an earlier
// pair is reported rather than re-paired. Nobody is ever turned into a
// singles entrant here.
func ResolvePairs(roster []models.Participant, gt models.GameType) ([]ResolvedPair, []Exclusion) {
	byID := make(map[string]*models.Participant, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}

	paired := map[string]bool{}
	var pairs []ResolvedPair
	var excluded []Exclusion
	exclude := func(id string, reason ExclusionReason) {
		excluded = append(excluded, Exclusion{ParticipantID: id, GameType: gt, Reason: reason})
	}

	for i := range roster {
		p := &roster[i]
		if !plays(p, gt) || paired[p.ID] {
			continue
		}
		partnerID := p.PartnerFor(gt)
		if partnerID == "" {
			// Someone may still claim this player later in the roster.
			if claimedLater(roster[i+1:], p.ID, gt) {
				continue
			}
			exclude(p.ID, ReasonNoPartner)
			continue
		}
		partner, ok := byID[partnerID]
		if !ok || partnerID == p.ID {
			exclude(p.ID, ReasonPartnerUnknown)
			continue
		}
		if !plays(partner, gt) {
			exclude(p.ID, ReasonPartnerDeclined)
			continue
		}
		if back := partner.PartnerFor(gt); back != "" && back != p.ID {
			exclude(p.ID, ReasonPartnerTaken)
			continue
		}
		if paired[partner.ID] {
			exclude(p.ID, ReasonPartnerTaken)
			continue
		}
		if !pairGenderOK(p, partner, gt) {
			exclude(p.ID, ReasonPairGender)
			continue
		}

		paired[p.ID], paired[partner.ID] = true, true
		ref := models.Pair(p.ID, partner.ID)
		first, second := p, partner
		if ref.PlayerA != p.ID {
			first, second = partner, p
		}
		pairs = append(pairs, ResolvedPair{
			PairEntry: models.PairEntry{Ref: ref, Name: first.Name + " / " + second.Name},
			First:     first,
			Second:    second,
		})
	}

	// Players who waited for a claim that never came.
	for i := range roster {
		p := &roster[i]
		if plays(p, gt) && !paired[p.ID] && p.PartnerFor(gt) == "" && claimedLater(roster[i+1:], p.ID, gt) {
			exclude(p.ID, ReasonNoPartner)
		}
	}
	return pairs, excluded
}

func claimedLater(rest []models.Participant, id string, gt models.GameType) bool {
	for i := range rest {
		if plays(&rest[i], gt) && rest[i].PartnerFor(gt) == id {
			return true
		}
	}
	return false
}

func pairGenderOK(a, b *models.Participant, gt models.GameType) bool {
	if a.Gender == "" || b.Gender == "" {
		return true
	}
	if gt == models.GameMixed {
		return a.Gender != b.Gender
	}
	return a.Gender == b.Gender
}

// plays treats a participant without declared game types as a singles player.
func plays(p *models.Participant, gt models.GameType) bool {
	if len(p.GameTypes) == 0 {
		return gt == models.GameSingles
	}
	return p.Plays(gt)
}
