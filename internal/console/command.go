package console

import "strings"

// command is a slash command typed at the prompt.
type command int

const (
	cmdNone command = iota // plain chat text
	cmdClear
	cmdLogout
	cmdQuit
	cmdHelp
	cmdUnknown
)

// parseCommand classifies one input line. Anything not starting with a
// slash is chat text; the rest of the line after the command is returned
// as the argument.
func parseCommand(line string) (command, string) {
	if !strings.HasPrefix(line, "/") {
		return cmdNone, line
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	switch strings.ToLower(name) {
	case "clear":
		return cmdClear, arg
	case "logout":
		return cmdLogout, arg
	case "quit", "exit":
		return cmdQuit, arg
	case "help":
		return cmdHelp, arg
	default:
		return cmdUnknown, arg
	}
}
