package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

var aliases = map[string]string{
	"q":     "quit",
	"exit":  "quit",
	"h":     "help",
	"?":     "help",
	"s":     "search",
	"find":  "search",
	"lang":  "language",
	"group": "new",
}

// ParseCommand parses a command string (without the leading ':'). Aliases
// resolve to their full command name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if full, ok := aliases[cmd.Name]; ok {
		cmd.Name = full
	}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Fields splits the arguments on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}
