package chat

import "errors"

// Delivery is one addressed outbound message computed by the
// dispatcher. The connection loop renders and writes it; the dispatcher
// itself performs no I/O.
type Delivery struct {
	To  *Session
	Msg Message
}

// Dispatcher turns a parsed command from one session into registry
// operations plus the resulting set of addressed messages. Every branch
// produces either an issuer-only reply or an issuer reply plus a
// broadcast to a recipient set captured inside the registry call.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Registry returns the dispatcher's backing registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch executes cmd on behalf of sess and returns the messages to
// deliver. The second return value is true when the connection should
// be closed after delivery (QUIT).
func (d *Dispatcher) Dispatch(sess *Session, cmd Command) ([]Delivery, bool) {
	switch cmd.Kind {
	case CmdCapLs:
		return reply(sess, Message{Kind: MsgCapAck}), false
	case CmdPing:
		return reply(sess, Message{Kind: MsgPong, Text: cmd.Text}), false
	case CmdPong:
		return nil, false
	case CmdNick:
		return d.handleNick(sess, cmd), false
	case CmdUser:
		if cmd.User != SentinelUnknown {
			sess.SetUsername(cmd.User)
		}
		return nil, false
	case CmdQuit:
		return d.handleQuit(sess), true
	case CmdJoin:
		return d.registeredOnly(sess, cmd, d.handleJoin), false
	case CmdPart:
		return d.registeredOnly(sess, cmd, d.handlePart), false
	case CmdPrivMsg:
		return d.registeredOnly(sess, cmd, d.handlePrivMsg), false
	case CmdMode:
		return d.registeredOnly(sess, cmd, d.handleMode), false
	case CmdOp:
		return d.registeredOnly(sess, cmd, d.handleOpAlias), false
	case CmdDeop:
		return d.registeredOnly(sess, cmd, d.handleOpAlias), false
	case CmdWho:
		return d.registeredOnly(sess, cmd, d.handleWho), false
	case CmdNames:
		return d.registeredOnly(sess, cmd, d.handleNames), false
	}
	return reply(sess, Message{Kind: MsgUnknown, Text: cmd.Raw}), false
}

// registeredOnly rejects channel-affecting commands from sessions that
// have not claimed a nickname yet.
func (d *Dispatcher) registeredOnly(sess *Session, cmd Command, h func(*Session, Command) []Delivery) []Delivery {
	if !sess.Registered() {
		return reply(sess, Message{Kind: MsgNotRegistered})
	}
	return h(sess, cmd)
}

func (d *Dispatcher) handleNick(sess *Session, cmd Command) []Delivery {
	if cmd.Nick == SentinelUnknown {
		return reply(sess, Message{Kind: MsgNoNickGiven})
	}
	if !isValidNickname(cmd.Nick) {
		return reply(sess, Message{Kind: MsgBadNick, Target: cmd.Nick})
	}
	if err := d.registry.ClaimNickname(sess, cmd.Nick); err != nil {
		return reply(sess, Message{Kind: MsgNickTaken, Target: cmd.Nick})
	}
	return reply(sess, Message{Kind: MsgWelcome, Target: cmd.Nick})
}

func (d *Dispatcher) handleJoin(sess *Session, cmd Command) []Delivery {
	if !isValidChannelName(cmd.Channel) {
		return reply(sess, Message{Kind: MsgNoSuchChannel, Target: cmd.Channel})
	}

	nick := sess.Nickname()
	snap := d.registry.Join(nick, cmd.Channel)

	join := Message{Kind: MsgJoinNotice, From: nick, Target: cmd.Channel}
	deliveries := []Delivery{
		{To: sess, Msg: join},
		{To: sess, Msg: Message{Kind: MsgNames, Target: cmd.Channel, Members: snap.Members}},
	}
	for _, other := range snap.Others {
		deliveries = append(deliveries, Delivery{To: other, Msg: join})
	}
	if snap.Granted {
		mode := Message{Kind: MsgModeChange, From: nick, Target: cmd.Channel, Flag: "+o", Text: nick}
		deliveries = append(deliveries, Delivery{To: sess, Msg: mode})
		for _, other := range snap.Others {
			deliveries = append(deliveries, Delivery{To: other, Msg: mode})
		}
	}
	return deliveries
}

func (d *Dispatcher) handlePart(sess *Session, cmd Command) []Delivery {
	nick := sess.Nickname()
	res, err := d.registry.Part(nick, cmd.Channel)
	if err != nil {
		return reply(sess, Message{Kind: MsgNotMember, Target: cmd.Channel})
	}

	// Departure notices go to the members remaining after removal.
	part := Message{Kind: MsgPartNotice, From: nick, Target: cmd.Channel}
	deliveries := []Delivery{{To: sess, Msg: part}}
	for _, member := range res.Remaining {
		deliveries = append(deliveries, Delivery{To: member, Msg: part})
	}
	return deliveries
}

func (d *Dispatcher) handlePrivMsg(sess *Session, cmd Command) []Delivery {
	nick := sess.Nickname()
	msg := Message{Kind: MsgPrivMsg, From: nick, Target: cmd.Target, Text: cmd.Text}

	if isChannelTarget(cmd.Target) {
		members, err := d.registry.MemberSessions(cmd.Target, nick)
		if err != nil {
			return reply(sess, Message{Kind: MsgNoSuchChannel, Target: cmd.Target})
		}
		deliveries := make([]Delivery, 0, len(members))
		for _, member := range members {
			deliveries = append(deliveries, Delivery{To: member, Msg: msg})
		}
		return deliveries
	}

	target, ok := d.registry.LookupSession(cmd.Target)
	if !ok {
		return reply(sess, Message{Kind: MsgNoSuchTarget, Target: cmd.Target})
	}
	return []Delivery{{To: target, Msg: msg}}
}

func (d *Dispatcher) handleMode(sess *Session, cmd Command) []Delivery {
	var grant bool
	switch cmd.Mode {
	case "+o":
		grant = true
	case "-o":
		grant = false
	default:
		return reply(sess, Message{Kind: MsgUnknown, Text: "MODE"})
	}
	if cmd.Target == SentinelUnknown {
		return reply(sess, Message{Kind: MsgNoSuchTarget, Target: cmd.Target})
	}
	return d.changeOperator(sess, cmd.Channel, cmd.Target, grant)
}

// handleOpAlias services the OP/DEOP shorthand commands as operator
// changes targeting the issuer itself.
func (d *Dispatcher) handleOpAlias(sess *Session, cmd Command) []Delivery {
	grant := cmd.Kind == CmdOp
	return d.changeOperator(sess, cmd.Channel, sess.Nickname(), grant)
}

func (d *Dispatcher) changeOperator(sess *Session, channel, target string, grant bool) []Delivery {
	nick := sess.Nickname()
	res, err := d.registry.SetOperator(nick, channel, target, grant)
	if err != nil {
		return reply(sess, operatorError(err, channel, target))
	}

	flag := "-o"
	if grant {
		flag = "+o"
	}
	mode := Message{Kind: MsgModeChange, From: nick, Target: channel, Flag: flag, Text: target}
	deliveries := []Delivery{{To: sess, Msg: mode}}
	for _, other := range res.Others {
		deliveries = append(deliveries, Delivery{To: other, Msg: mode})
	}
	return deliveries
}

// operatorError maps a SetOperator failure to the issuer-facing reply.
func operatorError(err error, channel, target string) Message {
	switch {
	case errors.Is(err, ErrNoSuchChannel):
		return Message{Kind: MsgNoSuchChannel, Target: channel}
	case errors.Is(err, ErrNoOperator):
		return Message{Kind: MsgNoOperator, Target: channel}
	case errors.Is(err, ErrNotMember):
		return Message{Kind: MsgNoSuchTarget, Target: target}
	default:
		return Message{Kind: MsgNotOperator, Target: channel}
	}
}

func (d *Dispatcher) handleWho(sess *Session, cmd Command) []Delivery {
	members, err := d.registry.SnapshotMembers(cmd.Channel)
	if err != nil {
		return reply(sess, Message{Kind: MsgNoSuchChannel, Target: cmd.Channel})
	}
	return reply(sess, Message{Kind: MsgWho, Target: cmd.Channel, Members: members})
}

func (d *Dispatcher) handleNames(sess *Session, cmd Command) []Delivery {
	members, err := d.registry.SnapshotMembers(cmd.Channel)
	if err != nil {
		return reply(sess, Message{Kind: MsgNoSuchChannel, Target: cmd.Channel})
	}
	return reply(sess, Message{Kind: MsgNames, Target: cmd.Channel, Members: members})
}

func (d *Dispatcher) handleQuit(sess *Session) []Delivery {
	deliveries := []Delivery{{To: sess, Msg: Message{Kind: MsgFarewell}}}

	nick := sess.Nickname()
	if nick == "" {
		return deliveries
	}

	res := d.registry.Release(sess)
	quit := Message{Kind: MsgQuitNotice, From: nick, Text: "Client quit"}
	for _, member := range res.Notified {
		deliveries = append(deliveries, Delivery{To: member, Msg: quit})
	}
	return deliveries
}

func reply(sess *Session, msg Message) []Delivery {
	return []Delivery{{To: sess, Msg: msg}}
}
