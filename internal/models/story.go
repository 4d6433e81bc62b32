package models

import (
	"fmt"
	"strings"
)

// Style is the narrative genre selected by the user
type Style string

const (
	StyleComedy    Style = "Comedy"
	StyleThriller  Style = "Thriller"
	StyleFairyTale Style = "Fairy Tale"
	StyleSciFi     Style = "Sci-Fi"
	StyleMystery   Style = "Mystery"
	StyleAdventure Style = "Adventure"
	StyleMorale    Style = "Morale"
)

// AllStyles lists the selectable styles in display order
var AllStyles = []Style{
	StyleComedy,
	StyleThriller,
	StyleFairyTale,
	StyleSciFi,
	StyleMystery,
	StyleAdventure,
	StyleMorale,
}

// ParseStyle maps a selector label onto a Style.
// Matching is exact after trimming surrounding whitespace.
func ParseStyle(label string) (Style, error) {
	label = strings.TrimSpace(label)
	for _, s := range AllStyles {
		if string(s) == label {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown story style: %q", label)
}

// String returns the selector label
func (s Style) String() string {
	return string(s)
}

// Heading returns the heading shown above a generated story
func (s Style) Heading() string {
	return fmt.Sprintf("Your %s Story:", s)
}

// Special section tags a story may end with
const (
	TagMoral    = "[MORAL]:"
	TagSolution = "[SOLUTION]:"
	TagTwist    = "[TWIST]:"
)

// ExtractTitle returns the story's first non-empty line without markdown
// emphasis or a leading "Title:" label. Returns "" for an empty story.
func ExtractTitle(story string) string {
	for _, line := range strings.Split(story, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "# ")
		line = strings.Trim(line, "*_ ")
		if len(line) >= len("title:") && strings.EqualFold(line[:len("title:")], "title:") {
			line = strings.TrimSpace(line[len("title:"):])
		}
		return strings.Trim(line, "*_\" ")
	}
	return ""
}
