package textutil

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// lowercases, trims and strips all whitespace so that course names
// coming from config, tool arguments and scraped markup compare equal
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var numberRegex = regexp.MustCompile(`\d+\.?\d*`)

// FirstNumber pulls the first run of digits (with an optional decimal
// part) out of free-form text. "85.5%" yields 85.5, a letter grade
// like "B+" yields no number at all.
func FirstNumber(s string) (float64, bool) {
	match := numberRegex.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
