package chat

import "strings"

// isValidNickname checks nickname shape before any registry call.
func isValidNickname(nick string) bool {
	if len(nick) < 1 || len(nick) > 30 {
		return false
	}

	for i, ch := range nick {
		// First character can't be a number
		if i == 0 && ch >= '0' && ch <= '9' {
			return false
		}

		if !((ch >= 'A' && ch <= 'Z') ||
			(ch >= 'a' && ch <= 'z') ||
			(ch >= '0' && ch <= '9') ||
			strings.ContainsRune("-_[]{}|\\", ch)) {
			return false
		}
	}

	return true
}

// isValidChannelName checks channel-name shape. Names share the
// nickname namespace on PRIVMSG targets, so the leading # or & is what
// routes a message to a channel instead of a user.
func isValidChannelName(name string) bool {
	if len(name) < 2 {
		return false
	}

	if name[0] != '#' && name[0] != '&' {
		return false
	}

	// No spaces, bell, commas, colons, or NULs
	if strings.ContainsAny(name, " ,:\x00\x07") {
		return false
	}

	return true
}

// isChannelTarget reports whether a PRIVMSG target names a channel.
func isChannelTarget(target string) bool {
	return len(target) > 0 && (target[0] == '#' || target[0] == '&')
}
