package command

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// chatInputName matches the characters Discord accepts in slash command and option names.
var chatInputName = regexp.MustCompile(`^[-_\p{L}\p{N}]+$`)

// NormalizeName lowercases a name and replaces spaces with underscores.
// Surrounding whitespace is dropped first, so "  My Command " becomes "my_command".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = cases.Lower(language.Und).String(name)
	return strings.Join(strings.Fields(name), "_")
}

// checkName validates an already normalized name at the given path.
func checkName(p *problems, path, name string) {
	switch {
	case name == "":
		p.add(path, "name is empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		p.add(path, "name %q is longer than %d characters", name, MaxNameLength)
	case !chatInputName.MatchString(name):
		p.add(path, "name %q contains characters that are not allowed", name)
	}
}

// checkDescription validates a description; required controls whether an empty one is an error.
func checkDescription(p *problems, path, description string, required bool) {
	switch {
	case description == "" && required:
		p.add(path, "description is required")
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		p.add(path, "description is longer than %d characters", MaxDescriptionLength)
	}
}

// checkMenuName validates a context menu name, which may use any printable characters.
func checkMenuName(p *problems, path, name string) {
	switch {
	case name == "":
		p.add(path, "name is empty")
	case utf8.RuneCountInString(name) > MaxNameLength:
		p.add(path, "name %q is longer than %d characters", name, MaxNameLength)
	}
}
