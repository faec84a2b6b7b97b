package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type command struct {
	name string
	keep int
	path string
}

var errUnknownCommand = errors.New("unknown command, try /help")

const helpText = "/stats  /clear  /keep N  /export [path]  ·  ctrl+r refresh  ctrl+l logout  ctrl+c quit"

// parseCommand reads a slash command line.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return command{}, errUnknownCommand
	}

	cmd := command{name: strings.ToLower(fields[0])}
	args := fields[1:]
	switch cmd.name {
	case "help", "stats", "clear":
		if len(args) != 0 {
			return command{}, fmt.Errorf("/%s takes no arguments", cmd.name)
		}
	case "keep":
		if len(args) != 1 {
			return command{}, errors.New("usage: /keep N")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return command{}, fmt.Errorf("usage: /keep N (%q is not a number)", args[0])
		}
		cmd.keep = n
	case "export":
		if len(args) > 1 {
			return command{}, errors.New("usage: /export [path]")
		}
		if len(args) == 1 {
			cmd.path = args[0]
		}
	default:
		return command{}, errUnknownCommand
	}
	return cmd, nil
}
