/*
Package chat implements a line-oriented, text-protocol chat server:
clients connect over TCP, claim a nickname, join named channels,
exchange messages, and manage per-channel operator privilege.

# Architecture

The package is organized around four components:

  - Command parser: pure translation of a raw protocol line into a
    typed Command. Parsing is total; malformed input becomes an
    unknown-command value, never an error.
  - Session: the per-connection handle, holding the claimed nickname
    and the outbound line sink bound to that connection.
  - Registry: the single shared source of truth for nicknames, channel
    membership, and operator assignment. Every operation is atomic and
    linearizable; broadcast targets are captured inside the same
    critical section that mutates state.
  - Dispatcher: maps one parsed command from one session to registry
    operations and the resulting set of addressed outbound messages.

The connection loop in server.go ties them together: one goroutine per
connection reads lines, dispatches, and writes the addressed messages
through each target session's sink. No registry lock is ever held
across a sink write, so a stalled client cannot block the others.

# Commands

The supported command subset: CAP LS 302, NICK, USER, QUIT, JOIN, PART,
PRIVMSG (nickname and channel targets), MODE +o/-o, OP, DEOP, WHO,
NAMES, PING, PONG. The first member to join a channel becomes its
operator; when the operator leaves, the channel has none until someone
is granted the role or a new member joins an empty channel.

# Usage

	cfg := config.Default()
	server := chat.NewServer(cfg)
	if err := server.Start(); err != nil {
	    log.Fatalf("Failed to start server: %v", err)
	}

For configuration files and environment overrides, see the config
subpackage; for the HTTP status and metrics surface, see admind.
*/
package chat
