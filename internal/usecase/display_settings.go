package usecase

import "strings"

const DefaultLanguage = "en"

var supportedLanguages = map[string]struct{}{
	"it": {},
	"de": {},
	"en": {},
}

// DisplaySettings is the configuration pushed by the display client.
type DisplaySettings struct {
	Language      string  `json:"language" validate:"omitempty,max=16"`
	ShowStandings bool    `json:"showStandings"`
	ShowDetails   bool    `json:"showDetails"`
	ShowTables    bool    `json:"showTables"`
	ShowScorers   bool    `json:"showScorers"`
	Leagues       []int64 `json:"leagues" validate:"dive,gt=0"`
}

// NormalizeLanguage maps unsupported or empty tags to DefaultLanguage.
func NormalizeLanguage(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, ok := supportedLanguages[value]; ok {
		return value
	}
	return DefaultLanguage
}

// Normalize applies the effective flags: details need standings, language
// falls back to DefaultLanguage and duplicate leagues are dropped.
func (d DisplaySettings) Normalize() DisplaySettings {
	out := d
	out.Language = NormalizeLanguage(d.Language)
	out.ShowDetails = d.ShowStandings && d.ShowDetails

	seen := make(map[int64]struct{}, len(d.Leagues))
	out.Leagues = make([]int64, 0, len(d.Leagues))
	for _, id := range d.Leagues {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out.Leagues = append(out.Leagues, id)
	}
	return out
}
