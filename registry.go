package chat

import "sync"

// channel is the registry-internal record for one named channel.
// Member nicknames keep insertion order for NAMES/WHO listings. An
// empty operator string means the channel currently has no operator.
type channel struct {
	name     string
	members  []string
	operator string
}

func (ch *channel) hasMember(nick string) bool {
	for _, m := range ch.members {
		if m == nick {
			return true
		}
	}
	return false
}

func (ch *channel) removeMember(nick string) bool {
	for i, m := range ch.members {
		if m == nick {
			ch.members = append(ch.members[:i], ch.members[i+1:]...)
			return true
		}
	}
	return false
}

// Member is one entry of a channel membership snapshot.
type Member struct {
	Nick       string
	IsOperator bool
}

// ChannelSnapshot captures a channel's state at the linearization point
// of a Join, for reply construction and broadcast fan-out.
type ChannelSnapshot struct {
	Name     string
	Members  []Member
	Operator string
	Granted  bool // the joiner was granted operator by this join

	// Others holds the sessions of every member that was already in the
	// channel when the join took effect. Broadcast targets are captured
	// here, under the registry lock, so delivery happens outside it.
	Others []*Session
}

// Registry is the single shared source of truth for nicknames, channel
// membership, and operator assignment. One mutex guards both maps;
// every exported operation is a single critical section, so concurrent
// calls are linearizable. No operation performs I/O while holding the
// lock: mutating operations return the recipient sessions they
// computed, and the dispatcher writes to those sinks after the call
// returns.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	channels map[string]*channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		channels: make(map[string]*channel),
	}
}

// ClaimNickname installs requested as the session's nickname. It fails
// with ErrNameTaken iff another live session currently holds the name.
// When the session already had a nickname this is a rename: the old
// mapping is removed and every channel member list and operator slot
// holding the old name is rewritten, so membership and operator
// invariants survive a mid-session NICK.
func (r *Registry) ClaimNickname(s *Session, requested string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, exists := r.sessions[requested]; exists {
		if holder == s {
			return nil // re-claiming our own nickname is a no-op
		}
		return ErrNameTaken
	}

	old := s.Nickname()
	if old != "" {
		delete(r.sessions, old)
		for _, ch := range r.channels {
			for i, m := range ch.members {
				if m == old {
					ch.members[i] = requested
				}
			}
			if ch.operator == old {
				ch.operator = requested
			}
		}
	}

	r.sessions[requested] = s
	s.setNickname(requested)
	return nil
}

// Join adds nick to the named channel, creating the channel if absent.
// Joining a channel the nick is already in is idempotent. If the
// channel has no operator the joiner becomes operator, which covers
// both channel creation and adoption of an operator-less channel.
func (r *Registry) Join(nick, name string) ChannelSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[name]
	if !exists {
		ch = &channel{name: name}
		r.channels[name] = ch
	}

	snap := ChannelSnapshot{Name: name}
	for _, m := range ch.members {
		if m == nick {
			continue
		}
		if sess, ok := r.sessions[m]; ok {
			snap.Others = append(snap.Others, sess)
		}
	}

	if !ch.hasMember(nick) {
		ch.members = append(ch.members, nick)
	}
	if ch.operator == "" {
		ch.operator = nick
		snap.Granted = true
	}

	snap.Operator = ch.operator
	snap.Members = membersLocked(ch)
	return snap
}

// PartResult carries the fan-out targets of a successful Part: the
// sessions of the members remaining after removal.
type PartResult struct {
	Remaining []*Session
}

// Part removes nick from the named channel. It fails with ErrNotMember
// when the channel does not exist or the nick is not a member, leaving
// the registry unchanged. If the departing nick held the operator role
// the channel is left without one (no auto-succession), and an emptied
// channel is removed.
func (r *Registry) Part(nick, name string) (PartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[name]
	if !exists || !ch.hasMember(nick) {
		return PartResult{}, ErrNotMember
	}

	ch.removeMember(nick)
	if ch.operator == nick {
		ch.operator = ""
	}

	var res PartResult
	for _, m := range ch.members {
		if sess, ok := r.sessions[m]; ok {
			res.Remaining = append(res.Remaining, sess)
		}
	}

	if len(ch.members) == 0 {
		delete(r.channels, name)
	}
	return res, nil
}

// ModeResult carries the fan-out targets of a successful operator
// change: the sessions of every member other than the requester.
type ModeResult struct {
	Others []*Session
}

// SetOperator grants or revokes the channel operator role. Only the
// current operator may change it, and revocation is restricted to the
// operator demoting itself; a grant requires the target to be a member.
func (r *Registry) SetOperator(requester, name, target string, grant bool) (ModeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[name]
	if !exists {
		return ModeResult{}, ErrNoSuchChannel
	}
	if ch.operator == "" {
		return ModeResult{}, ErrNoOperator
	}
	if ch.operator != requester {
		return ModeResult{}, ErrNotOperator
	}

	if grant {
		if !ch.hasMember(target) {
			return ModeResult{}, ErrNotMember
		}
		ch.operator = target
	} else {
		if target != requester {
			return ModeResult{}, ErrNotOperator
		}
		ch.operator = ""
	}

	var res ModeResult
	for _, m := range ch.members {
		if m == requester {
			continue
		}
		if sess, ok := r.sessions[m]; ok {
			res.Others = append(res.Others, sess)
		}
	}
	return res, nil
}

// LeaveResult carries the sessions that shared at least one channel
// with a departed nick, for optional departure notices.
type LeaveResult struct {
	Notified []*Session
}

// LeaveAll removes nick from every channel it occupies, clears any
// operator role it held, removes emptied channels, and releases the
// nickname mapping.
func (r *Registry) LeaveAll(nick string) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveAllLocked(nick)
}

// Release is LeaveAll keyed by session identity: it is a no-op unless
// the registry still maps the session's nickname to this session. QUIT
// dispatch and connection teardown both call it, and the identity check
// keeps the second call from evicting another session that reclaimed
// the nickname in between.
func (r *Registry) Release(s *Session) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	nick := s.Nickname()
	if nick == "" || r.sessions[nick] != s {
		return LeaveResult{}
	}
	return r.leaveAllLocked(nick)
}

func (r *Registry) leaveAllLocked(nick string) LeaveResult {
	seen := make(map[*Session]bool)
	var res LeaveResult
	for name, ch := range r.channels {
		if !ch.removeMember(nick) {
			continue
		}
		if ch.operator == nick {
			ch.operator = ""
		}
		for _, m := range ch.members {
			if sess, ok := r.sessions[m]; ok && !seen[sess] {
				seen[sess] = true
				res.Notified = append(res.Notified, sess)
			}
		}
		if len(ch.members) == 0 {
			delete(r.channels, name)
		}
	}

	delete(r.sessions, nick)
	return res
}

// SnapshotMembers returns the ordered member list of a channel with
// operator marking, or ErrNoSuchChannel.
func (r *Registry) SnapshotMembers(name string) ([]Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, exists := r.channels[name]
	if !exists {
		return nil, ErrNoSuchChannel
	}
	return membersLocked(ch), nil
}

// MemberSessions returns the sessions of the named channel's members,
// excluding exclude when non-empty.
func (r *Registry) MemberSessions(name, exclude string) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, exists := r.channels[name]
	if !exists {
		return nil, ErrNoSuchChannel
	}

	var sessions []*Session
	for _, m := range ch.members {
		if m == exclude {
			continue
		}
		if sess, ok := r.sessions[m]; ok {
			sessions = append(sessions, sess)
		}
	}
	return sessions, nil
}

// LookupSession resolves a nickname to its session.
func (r *Registry) LookupSession(nick string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[nick]
	return sess, ok
}

// SessionCount returns the number of registered nicknames.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ChannelCount returns the number of live channels.
func (r *Registry) ChannelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// ChannelNames returns the names of all live channels.
func (r *Registry) ChannelNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}

func membersLocked(ch *channel) []Member {
	members := make([]Member, len(ch.members))
	for i, m := range ch.members {
		members[i] = Member{Nick: m, IsOperator: m == ch.operator}
	}
	return members
}
