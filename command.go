package chat

import "strings"

// CommandKind identifies a parsed client command.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdCapLs
	CmdNick
	CmdUser
	CmdQuit
	CmdJoin
	CmdPart
	CmdPrivMsg
	CmdMode
	CmdWho
	CmdNames
	CmdOp
	CmdDeop
	CmdPing
	CmdPong
)

// SentinelUnknown stands in for a missing optional argument. Handlers
// treat it as "no valid target" and reply with an error instead of
// acting on it.
const SentinelUnknown = "unknown"

// Command is the typed result of parsing one protocol line.
type Command struct {
	Kind    CommandKind
	Nick    string // NICK argument
	User    string // USER argument
	Channel string // JOIN, PART, MODE, WHO, NAMES, OP, DEOP argument
	Target  string // PRIVMSG recipient or MODE subject nickname
	Mode    string // MODE flag (+o / -o)
	Text    string // PRIVMSG body, or PING token when present
	Raw     string // original line, kept for unknown-command echoes
}

// ParseCommand translates a raw protocol line into a Command. Parsing is
// total: every input maps to exactly one Command, malformed input maps
// to CmdUnknown, and no input mutates state or returns an error.
func ParseCommand(line string) Command {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{Kind: CmdUnknown, Raw: line}
	}

	switch strings.ToUpper(parts[0]) {
	case "CAP":
		if len(parts) == 3 &&
			strings.EqualFold(parts[1], "LS") && parts[2] == "302" {
			return Command{Kind: CmdCapLs}
		}
	case "NICK":
		return Command{Kind: CmdNick, Nick: argOr(parts, 1)}
	case "USER":
		return Command{Kind: CmdUser, User: argOr(parts, 1)}
	case "QUIT":
		return Command{Kind: CmdQuit}
	case "JOIN":
		return Command{Kind: CmdJoin, Channel: argOr(parts, 1)}
	case "PART":
		return Command{Kind: CmdPart, Channel: argOr(parts, 1)}
	case "PRIVMSG":
		if len(parts) >= 3 {
			return Command{
				Kind:   CmdPrivMsg,
				Target: parts[1],
				Text:   strings.TrimPrefix(strings.Join(parts[2:], " "), ":"),
			}
		}
	case "MODE":
		if len(parts) >= 3 {
			return Command{
				Kind:    CmdMode,
				Channel: parts[1],
				Mode:    parts[2],
				Target:  argOr(parts, 3),
			}
		}
	case "WHO":
		if len(parts) >= 2 {
			return Command{Kind: CmdWho, Channel: parts[1]}
		}
	case "NAMES":
		return Command{Kind: CmdNames, Channel: argOr(parts, 1)}
	case "OP":
		return Command{Kind: CmdOp, Channel: argOr(parts, 1)}
	case "DEOP":
		return Command{Kind: CmdDeop, Channel: argOr(parts, 1)}
	case "PING":
		cmd := Command{Kind: CmdPing}
		if len(parts) > 1 {
			cmd.Text = strings.TrimPrefix(parts[1], ":")
		}
		return cmd
	case "PONG":
		return Command{Kind: CmdPong}
	}

	return Command{Kind: CmdUnknown, Raw: line}
}

// argOr returns the i-th whitespace token or the sentinel when absent.
func argOr(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return SentinelUnknown
}
