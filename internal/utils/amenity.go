package utils

import (
	"sort"
	"strings"
	"unicode"
)

// amenityAliases maps the word a buyer uses to the phrases catalogue
// amenities are written with.
var amenityAliases = map[string][]string{
	"pool":       {"swimming pool", "pool"},
	"swimming":   {"swimming pool", "pool"},
	"gym":        {"gym", "gymnasium", "fitness"},
	"spa":        {"spa", "wellness"},
	"clubhouse":  {"clubhouse", "club house"},
	"lounge":     {"lounge"},
	"garden":     {"garden", "landscaped"},
	"jogging":    {"jogging", "running track"},
	"kids":       {"children", "play area", "playground"},
	"playground": {"children", "play area", "playground"},
	"security":   {"security", "24/7"},
	"lift":       {"lift", "elevator"},
	"elevator":   {"lift", "elevator"},
	"coworking":  {"co-working", "coworking", "business center", "work zone"},
	"co-working": {"co-working", "coworking", "business center", "work zone"},
	"internet":   {"internet", "wi-fi", "wifi"},
	"concierge":  {"concierge", "valet"},
	"hall":       {"hall", "function room"},
	"games":      {"games room", "indoor games"},
}

// AmenityMentions returns the alias keys named in text, in a stable order.
// Matching is by whole word, with a trailing plural "s" allowed.
func AmenityMentions(text string) []string {
	padded := " " + normalizePhrase(text) + " "
	var found []string
	for _, key := range sortedAliasKeys() {
		if containsPhrase(padded, key) {
			found = append(found, key)
		}
	}
	return found
}

// MatchAmenity reports whether amenity is described by alias key.
func MatchAmenity(key, amenity string) bool {
	key = normalizePhrase(key)
	if key == "" {
		return false
	}
	padded := " " + normalizePhrase(amenity) + " "
	if containsPhrase(padded, key) {
		return true
	}
	for _, alias := range amenityAliases[key] {
		if containsPhrase(padded, normalizePhrase(alias)) {
			return true
		}
	}
	return false
}

// MatchingAmenities keeps the amenities that match any alias named in
// query. Order follows amenities; duplicates are dropped.
func MatchingAmenities(query string, amenities []string) []string {
	keys := AmenityMentions(query)
	if len(keys) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, a := range amenities {
		if seen[a] {
			continue
		}
		for _, k := range keys {
			if MatchAmenity(k, a) {
				out = append(out, a)
				seen[a] = true
				break
			}
		}
	}
	return out
}

// normalizePhrase lowercases s and collapses punctuation to single spaces,
// so "Spa & Wellness" becomes "spa wellness" and "co-working" stays whole.
func normalizePhrase(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '/'
	})
	return strings.Join(fields, " ")
}

// containsPhrase expects padded to be wrapped in single spaces.
func containsPhrase(padded, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(padded, " "+phrase+" ") || strings.Contains(padded, " "+phrase+"s ")
}

func sortedAliasKeys() []string {
	keys := make([]string, 0, len(amenityAliases))
	for k := range amenityAliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
