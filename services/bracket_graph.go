package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/models"
)

// bracketGraph links the stored matches of one group. Edges come from the
// feeders recorded at generation and from the advance links written by
// progression, so matches built live join the graph once they exist.
func bracketGraph(list []*models.Match) (*brackets.EliminationGraph, error) {
	known := make(map[string]bool, len(list))
	nodes := make([]string, 0, len(list))
	for _, m := range list {
		known[m.ID] = true
		nodes = append(nodes, m.ID)
	}
	var links []brackets.Link
	for _, m := range list {
		for _, f := range m.Feeders {
			if known[f] {
				links = append(links, brackets.Link{From: f, To: m.ID})
			}
		}
		for _, t := range []string{m.WinnerTo, m.LoserTo} {
			if t != "" && known[t] {
				links = append(links, brackets.Link{From: m.ID, To: t})
			}
		}
	}
	return brackets.NewLinkGraph(nodes, links)
}

// nextMatches returns the matches whose entrants depend on the result of m.
func (s *progressionService) nextMatches(ctx context.Context, m *models.Match) ([]string, error) {
	list, err := s.matches.ListByGroup(ctx, m.GroupID)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(list, func(x *models.Match) bool { return x.ID == m.ID }) {
		list = append(list, m)
	}
	g, err := bracketGraph(list)
	if err != nil {
		return nil, err
	}
	return g.Next(m.ID)
}

// feederIndex maps every stored elimination match of the event to the
// matches feeding it.
func feederIndex(byGroup map[string]*models.Group, matches []*models.Match) (map[string][]string, error) {
	perGroup := map[string][]*models.Match{}
	for _, m := range matches {
		if g, ok := byGroup[m.GroupID]; ok && g.System.Elimination() {
			perGroup[g.ID] = append(perGroup[g.ID], m)
		}
	}
	out := map[string][]string{}
	for id, list := range perGroup {
		g, err := bracketGraph(list)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", id, err)
		}
		for _, m := range list {
			f, err := g.Feeders(m.ID)
			if err != nil {
				return nil, err
			}
			if len(f) > 0 {
				out[m.ID] = f
			}
		}
	}
	return out, nil
}

// possiblePlayers returns everyone who may still end up in a match: its
// known players plus those of every unfinished feeder, recursively.
func possiblePlayers(matches []*models.Match, feeders map[string][]string) func(*models.Match) []string {
	byID := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	memo := map[string][]string{}
	var walk func(m *models.Match) []string
	walk = func(m *models.Match) []string {
		if v, ok := memo[m.ID]; ok {
			return v
		}
		memo[m.ID] = nil
		out := m.Players()
		if !m.Ready() {
			for _, id := range feeders[m.ID] {
				f, ok := byID[id]
				if !ok || f.Status.Terminal() {
					continue
				}
				out = append(out, walk(f)...)
			}
		}
		slices.Sort(out)
		out = slices.Compact(out)
		memo[m.ID] = out
		return out
	}
	return walk
}
