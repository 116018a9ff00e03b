package models

// SportRules drives score validation and standings point values.
type SportRules struct {
	Name       string  `json:"name" yaml:"name"`
	UsesSets   bool    `json:"uses_sets" yaml:"uses_sets"`
	MaxSets    int     `json:"max_sets" yaml:"max_sets"`
	WinPoints  float64 `json:"win_points" yaml:"win_points"`
	LossPoints float64 `json:"loss_points" yaml:"loss_points"`
	DrawPoints float64 `json:"draw_points" yaml:"draw_points"`
	AllowDraw  bool    `json:"allow_draw" yaml:"allow_draw"`
}

// DefaultSportRules is used for sports with no configured rules.
func DefaultSportRules(name string) SportRules {
	return SportRules{Name: name, WinPoints: 3, LossPoints: 0, DrawPoints: 1, AllowDraw: true}
}

// SetsToWin is the number of sets that decides a match.
func (r SportRules) SetsToWin() int {
	if r.MaxSets <= 0 {
		return 2
	}
	return r.MaxSets/2 + 1
}
