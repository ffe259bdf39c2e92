package handlers

import (
	"strings"
	"unicode"

	"conatel.gouv.ht/web/internal/cms"
)

// LeaderCard is one former director-general. Initials stand in for a
// missing portrait.
type LeaderCard struct {
	Name     string
	Term     string
	Image    string
	Initials string
}

// AboutView is the about page payload.
type AboutView struct {
	FormerDGs []LeaderCard
}

func BuildAboutView(leaders []cms.Leader) AboutView {
	v := AboutView{FormerDGs: make([]LeaderCard, 0, len(leaders))}
	for _, l := range leaders {
		v.FormerDGs = append(v.FormerDGs, LeaderCard{
			Name:     l.Name,
			Term:     l.Term,
			Image:    l.Image,
			Initials: initials(l.Name),
		})
	}
	return v
}

// initials takes the first letter of the first and last words, splitting
// hyphenated given names too: "Jean-Marie Buteau" is "JB".
func initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return unicode.IsSpace(r) || r == '-' })
	if len(words) == 0 {
		return ""
	}
	pick := []string{words[0]}
	if len(words) > 1 {
		pick = append(pick, words[len(words)-1])
	}
	var b strings.Builder
	for _, w := range pick {
		for _, r := range w {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}
