package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const maxTripDays = 30

var (
	daysPattern = regexp.MustCompile(`(?i)(\d{1,2})\s*-?\s*(?:день|дн[а-яё]*|сут[а-яё]*|days?)`)
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
	cityPattern = regexp.MustCompile(`(?:^|[\s,.;:!?(])(?:в|во|по|на|in|to)\s+([A-ZА-ЯЁ][\p{L}]+(?:-[\p{L}]+)*(?:\s[A-ZА-ЯЁ][\p{L}]+)?)`)
)

// TripSlots is the destination and duration inferred from a user utterance.
type TripSlots struct {
	City      string
	Days      int
	CityFound bool
	DaysFound bool
}

// ExtractSlots infers the city and trip length from text. Cities known to the
// catalog are preferred; otherwise a capitalized word after a preposition is
// taken. Missing values fall back to defaultCity and defaultDays.
func ExtractSlots(text string, knownCities []string, defaultCity string, defaultDays int) TripSlots {
	slots := TripSlots{City: defaultCity, Days: defaultDays}

	if m := daysPattern.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			if n > maxTripDays {
				n = maxTripDays
			}
			slots.Days = n
			slots.DaysFound = true
		}
	}

	if city := matchKnownCity(text, knownCities); city != "" {
		slots.City = city
		slots.CityFound = true
	} else if m := cityPattern.FindStringSubmatch(text); m != nil {
		slots.City = strings.TrimSpace(m[1])
		slots.CityFound = true
	}

	return slots
}

// matchKnownCity returns the longest catalog city mentioned in text. Text and
// names are case-folded and compared word by word. The last word of a name
// may carry a short inflected ending ("в Москве", "в Риме").
func matchKnownCity(text string, cities []string) string {
	words := wordPattern.FindAllString(cases.Fold().String(text), -1)

	best := ""
	for _, city := range cities {
		name := wordPattern.FindAllString(cases.Fold().String(city), -1)
		if len(name) == 0 || len(name) > len(words) {
			continue
		}
		for i := 0; i+len(name) <= len(words); i++ {
			if matchWords(words[i:i+len(name)], name) {
				if len(city) > len(best) {
					best = city
				}
				break
			}
		}
	}
	return best
}

func matchWords(words, name []string) bool {
	last := len(name) - 1
	for i := 0; i < last; i++ {
		if words[i] != name[i] {
			return false
		}
	}
	return matchInflected(words[last], name[last])
}

// matchInflected accepts word == base, or base (minus its final letter when it
// is longer than four letters) followed by at most two more letters.
func matchInflected(word, base string) bool {
	if word == base {
		return true
	}
	stem := base
	if utf8.RuneCountInString(stem) > 4 {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	if !strings.HasPrefix(word, stem) {
		return false
	}
	extra := utf8.RuneCountInString(word) - utf8.RuneCountInString(stem)
	return extra >= 0 && extra <= 2
}
