package chat

import (
	"fmt"
	"strings"
)

// Numeric reply codes used on the wire (RFC 1459 subset).
const (
	RPL_WELCOME       = 1
	RPL_YOURHOST      = 2
	RPL_CREATED       = 3
	RPL_MYINFO        = 4
	RPL_ISUPPORT      = 5
	RPL_ENDOFWHO      = 315
	RPL_WHOREPLY      = 352
	RPL_NAMREPLY      = 353
	RPL_ENDOFNAMES    = 366
	RPL_MOTD          = 372
	RPL_MOTDSTART     = 375
	RPL_ENDOFMOTD     = 376
	ERR_NOSUCHNICK    = 401
	ERR_NOSUCHCHANNEL = 403
	ERR_UNKNOWNCMD    = 421
	ERR_NONICKGIVEN   = 431
	ERR_ERRONEUSNICK  = 432
	ERR_NICKINUSE     = 433
	ERR_NOTONCHANNEL  = 442
	ERR_NOTREGISTERED = 451
	ERR_CHANOPNEEDED  = 482
)

// MessageKind enumerates every outbound message the dispatcher can
// request. Rendering them into wire text is the transport layer's job.
type MessageKind int

const (
	MsgWelcome MessageKind = iota
	MsgCapAck
	MsgNickTaken
	MsgBadNick
	MsgNoNickGiven
	MsgNotRegistered
	MsgJoinNotice
	MsgNames
	MsgWho
	MsgPartNotice
	MsgPrivMsg
	MsgNoSuchTarget
	MsgNoSuchChannel
	MsgModeChange
	MsgNotOperator
	MsgNoOperator
	MsgNotMember
	MsgPong
	MsgUnknown
	MsgFarewell
	MsgQuitNotice
)

// Message is one addressed outbound message, parameterized by kind.
// From is the originating nickname for notices, Target the channel or
// nickname parameter, Text free-form content, Members a membership
// listing for NAMES/WHO.
type Message struct {
	Kind    MessageKind
	From    string
	Target  string
	Text    string
	Flag    string
	Members []Member
}

// ServerInfo holds the fixed template values baked into registration
// and MOTD replies.
type ServerInfo struct {
	Name    string
	Network string
	Version string
	Created string
	MOTD    string
}

// RenderLines renders a message into wire lines addressed to the named
// recipient. Numeric replies carry the recipient nickname in the first
// parameter position, "*" while unregistered.
func (m Message) RenderLines(recipient string, info ServerInfo) []string {
	if recipient == "" {
		recipient = "*"
	}

	numeric := func(code int, rest string) string {
		return fmt.Sprintf(":%s %03d %s %s", info.Name, code, recipient, rest)
	}

	switch m.Kind {
	case MsgWelcome:
		return []string{
			numeric(RPL_WELCOME, fmt.Sprintf(":Welcome to the %s Network, %s", info.Network, m.Target)),
			numeric(RPL_YOURHOST, fmt.Sprintf(":Your host is %s, running version %s", info.Name, info.Version)),
			numeric(RPL_CREATED, fmt.Sprintf(":This server was created %s", info.Created)),
			numeric(RPL_MYINFO, fmt.Sprintf("%s %s iws imn", info.Name, info.Version)),
			numeric(RPL_ISUPPORT, fmt.Sprintf(":Try server %s", info.Name)),
			numeric(RPL_MOTDSTART, fmt.Sprintf(":- %s Message of the day -", info.Name)),
			numeric(RPL_MOTD, fmt.Sprintf(":- %s", info.MOTD)),
			numeric(RPL_ENDOFMOTD, ":End of /MOTD command."),
		}
	case MsgCapAck:
		return []string{"CAP * LS :"}
	case MsgNickTaken:
		return []string{numeric(ERR_NICKINUSE, fmt.Sprintf("%s :Nickname is already in use", m.Target))}
	case MsgBadNick:
		return []string{numeric(ERR_ERRONEUSNICK, fmt.Sprintf("%s :Erroneous nickname", m.Target))}
	case MsgNoNickGiven:
		return []string{numeric(ERR_NONICKGIVEN, ":No nickname given")}
	case MsgNotRegistered:
		return []string{numeric(ERR_NOTREGISTERED, ":You have not registered")}
	case MsgJoinNotice:
		return []string{fmt.Sprintf(":%s JOIN %s", m.From, m.Target)}
	case MsgNames:
		return []string{
			numeric(RPL_NAMREPLY, fmt.Sprintf("= %s :%s", m.Target, memberList(m.Members, true))),
			numeric(RPL_ENDOFNAMES, fmt.Sprintf("%s :End of /NAMES list.", m.Target)),
		}
	case MsgWho:
		lines := make([]string, 0, len(m.Members)+1)
		for _, member := range m.Members {
			flags := "H"
			if member.IsOperator {
				flags += "@"
			}
			lines = append(lines, numeric(RPL_WHOREPLY,
				fmt.Sprintf("%s %s %s %s %s :0 %s", m.Target, member.Nick, info.Name, info.Name, flags, member.Nick)))
		}
		return append(lines, numeric(RPL_ENDOFWHO, fmt.Sprintf("%s :End of /WHO list.", m.Target)))
	case MsgPartNotice:
		return []string{fmt.Sprintf(":%s PART %s", m.From, m.Target)}
	case MsgPrivMsg:
		return []string{fmt.Sprintf(":%s PRIVMSG %s :%s", m.From, m.Target, m.Text)}
	case MsgNoSuchTarget:
		return []string{numeric(ERR_NOSUCHNICK, fmt.Sprintf("%s :No such nick/channel", m.Target))}
	case MsgNoSuchChannel:
		return []string{numeric(ERR_NOSUCHCHANNEL, fmt.Sprintf("%s :No such channel", m.Target))}
	case MsgModeChange:
		return []string{fmt.Sprintf(":%s MODE %s %s %s", m.From, m.Target, m.Flag, m.Text)}
	case MsgNotOperator:
		return []string{numeric(ERR_CHANOPNEEDED, fmt.Sprintf("%s :You're not a channel operator", m.Target))}
	case MsgNoOperator:
		return []string{numeric(ERR_CHANOPNEEDED, fmt.Sprintf("%s :Channel has no operator", m.Target))}
	case MsgNotMember:
		return []string{numeric(ERR_NOTONCHANNEL, fmt.Sprintf("%s :You're not on that channel", m.Target))}
	case MsgPong:
		if m.Text != "" {
			return []string{fmt.Sprintf("PONG :%s", m.Text)}
		}
		return []string{"PONG"}
	case MsgUnknown:
		cmd := m.Text
		if fields := strings.Fields(cmd); len(fields) > 0 {
			cmd = fields[0]
		}
		return []string{numeric(ERR_UNKNOWNCMD, fmt.Sprintf("%s :Unknown command", cmd))}
	case MsgFarewell:
		return []string{"ERROR :Goodbye"}
	case MsgQuitNotice:
		return []string{fmt.Sprintf(":%s QUIT :%s", m.From, m.Text)}
	}
	return nil
}

// memberList joins a membership snapshot for 353 replies, prefixing the
// operator with "@".
func memberList(members []Member, markOps bool) string {
	var sb strings.Builder
	for i, m := range members {
		if i > 0 {
			sb.WriteString(" ")
		}
		if markOps && m.IsOperator {
			sb.WriteString("@")
		}
		sb.WriteString(m.Nick)
	}
	return sb.String()
}
