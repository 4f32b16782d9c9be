package profile

import "strings"

const maxHighlights = 2

// HasHighlights reports whether the profile carries local highlight data.
func (p *Profile) HasHighlights() bool {
	return len(p.Local) > 0 || len(p.Featured) > 0
}

// Highlights returns up to two local names (medalists, champion teams) to
// show next to a listing of the given category in city.
//
// Lookup order: featured names for the category in the city, then in its
// state; local highlights mentioning the category; generated
// "<City> <Category> Champions" names. Without a category the first local
// highlights are returned.
func (p *Profile) Highlights(city, category string) []string {
	key := cityKey(city)
	state := p.States[key]
	local := p.Local[key]
	if len(local) == 0 && state != "" {
		local = p.Local[state]
	}
	name := titleCase(key)

	cat := strings.ToLower(strings.TrimSpace(category))
	if cat == "" {
		if len(local) > 0 {
			return first(local)
		}
		return []string{name + " Local Champions", name + " Regional Medalists"}
	}

	if featured := p.Featured[cat][key]; len(featured) > 0 {
		return first(featured)
	}
	if featured := p.Featured[cat][state]; state != "" && len(featured) > 0 {
		return first(featured)
	}

	var matched []string
	for _, h := range local {
		if strings.Contains(strings.ToLower(h), cat) {
			matched = append(matched, h)
		}
	}
	if len(matched) > 0 {
		return first(matched)
	}

	label := titleCase(cat)
	return []string{name + " " + label + " Champions", name + " " + label + " Stars"}
}

func first(names []string) []string {
	if len(names) > maxHighlights {
		names = names[:maxHighlights]
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}
