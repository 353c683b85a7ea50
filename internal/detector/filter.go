package detector

import (
	"fmt"
	"regexp"

	"bilidyn/internal/model"
)

// Passes checks an item against a subscription's filters. An empty type
// filter accepts every category; an empty regex list accepts every text.
// A non-empty regex list passes the item if at least one pattern matches
// its extracted text.
func Passes(sub *model.Subscription, item *model.Dynamic) bool {
	if len(sub.FilterTypes) > 0 && !containsTag(sub.FilterTypes, item.FilterTag()) {
		return false
	}
	if len(sub.FilterRegex) > 0 && !matchesAny(sub.FilterRegex, item.TextContent()) {
		return false
	}
	return true
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, text string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}

// ValidateFilterTypes rejects category tags outside the fixed set.
func ValidateFilterTypes(tags []string) error {
	for _, t := range tags {
		if !model.ValidFilterTypes[t] {
			return fmt.Errorf("unknown filter type %q", t)
		}
	}
	return nil
}
