package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullSink struct{}

func (nullSink) SendLine(string) error { return nil }

func newNamedSession(t *testing.T, reg *Registry, nick string) *Session {
	t.Helper()
	s := NewSession(nullSink{})
	require.NoError(t, reg.ClaimNickname(s, nick))
	return s
}

func TestClaimNicknameUniqueness(t *testing.T) {
	reg := NewRegistry()

	a := NewSession(nullSink{})
	b := NewSession(nullSink{})

	assert.NoError(t, reg.ClaimNickname(a, "alice"))
	assert.ErrorIs(t, reg.ClaimNickname(b, "alice"), ErrNameTaken)
	assert.Equal(t, "alice", a.Nickname())
	assert.Equal(t, "", b.Nickname())
}

func TestClaimNicknameConcurrentRace(t *testing.T) {
	const n = 32
	reg := NewRegistry()

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = reg.ClaimNickname(NewSession(nullSink{}), "highlander")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrNameTaken)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent claim should win")
}

func TestClaimNicknameRenameRewritesChannels(t *testing.T) {
	reg := NewRegistry()
	a := newNamedSession(t, reg, "alice")
	newNamedSession(t, reg, "bob")

	reg.Join("alice", "#team")
	reg.Join("bob", "#team")

	require.NoError(t, reg.ClaimNickname(a, "alice2"))

	members, err := reg.SnapshotMembers("#team")
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{Nick: "alice2", IsOperator: true},
		{Nick: "bob", IsOperator: false},
	}, members)

	_, ok := reg.LookupSession("alice")
	assert.False(t, ok)
	got, ok := reg.LookupSession("alice2")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestJoinFirstJoinerBecomesOperator(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")

	snap := reg.Join("alice", "#team")
	assert.True(t, snap.Granted)
	assert.Equal(t, "alice", snap.Operator)
	assert.Equal(t, []Member{{Nick: "alice", IsOperator: true}}, snap.Members)
	assert.Empty(t, snap.Others)
}

func TestJoinSecondJoinerKeepsOperator(t *testing.T) {
	reg := NewRegistry()
	a := newNamedSession(t, reg, "alice")
	newNamedSession(t, reg, "bob")

	reg.Join("alice", "#team")
	snap := reg.Join("bob", "#team")

	assert.False(t, snap.Granted)
	assert.Equal(t, "alice", snap.Operator)
	require.Len(t, snap.Others, 1)
	assert.Same(t, a, snap.Others[0])
	assert.Equal(t, []Member{
		{Nick: "alice", IsOperator: true},
		{Nick: "bob", IsOperator: false},
	}, snap.Members)
}

func TestJoinIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")

	reg.Join("alice", "#team")
	snap := reg.Join("alice", "#team")

	assert.Len(t, snap.Members, 1)
	assert.Empty(t, snap.Others, "rejoining must not count self as an existing member")
}

func TestJoinOperatorlessChannelGrantsOperator(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	newNamedSession(t, reg, "bob")

	reg.Join("alice", "#team")
	reg.Join("bob", "#team")
	_, err := reg.Part("alice", "#team") // operator leaves, no succession
	require.NoError(t, err)

	members, err := reg.SnapshotMembers("#team")
	require.NoError(t, err)
	assert.Equal(t, []Member{{Nick: "bob", IsOperator: false}}, members)

	// The next joiner adopts the vacant operator role.
	snap := reg.Join("carol", "#team")
	assert.True(t, snap.Granted)
	assert.Equal(t, "carol", snap.Operator)
}

func TestPartNotMemberLeavesStateUnchanged(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	reg.Join("alice", "#team")

	before, err := reg.SnapshotMembers("#team")
	require.NoError(t, err)

	_, err = reg.Part("bob", "#team")
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = reg.Part("alice", "#nowhere")
	assert.ErrorIs(t, err, ErrNotMember)

	after, err := reg.SnapshotMembers("#team")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, reg.ChannelCount())
}

func TestPartRemovesEmptyChannel(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	reg.Join("alice", "#team")

	res, err := reg.Part("alice", "#team")
	require.NoError(t, err)
	assert.Empty(t, res.Remaining)

	_, err = reg.SnapshotMembers("#team")
	assert.ErrorIs(t, err, ErrNoSuchChannel)
}

func TestPartReturnsRemainingMembers(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	b := newNamedSession(t, reg, "bob")
	c := newNamedSession(t, reg, "carol")
	reg.Join("alice", "#team")
	reg.Join("bob", "#team")
	reg.Join("carol", "#team")

	res, err := reg.Part("alice", "#team")
	require.NoError(t, err)
	assert.ElementsMatch(t, []*Session{b, c}, res.Remaining)
}

func TestSetOperatorAuthorization(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	newNamedSession(t, reg, "bob")
	newNamedSession(t, reg, "mallory")
	reg.Join("alice", "#team")
	reg.Join("bob", "#team")

	// Non-operator cannot grant.
	_, err := reg.SetOperator("bob", "#team", "bob", true)
	assert.ErrorIs(t, err, ErrNotOperator)

	// Grant target must be a member.
	_, err = reg.SetOperator("alice", "#team", "mallory", true)
	assert.ErrorIs(t, err, ErrNotMember)

	// Operator may not demote a third party, only itself.
	_, err = reg.SetOperator("alice", "#team", "bob", false)
	assert.ErrorIs(t, err, ErrNotOperator)

	// Unknown channel.
	_, err = reg.SetOperator("alice", "#nowhere", "bob", true)
	assert.ErrorIs(t, err, ErrNoSuchChannel)

	members, err := reg.SnapshotMembers("#team")
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{Nick: "alice", IsOperator: true},
		{Nick: "bob", IsOperator: false},
	}, members, "failed operations must not change state")
}

func TestSetOperatorGrantTransfersRole(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	b := newNamedSession(t, reg, "bob")
	reg.Join("alice", "#team")
	reg.Join("bob", "#team")

	res, err := reg.SetOperator("alice", "#team", "bob", true)
	require.NoError(t, err)
	assert.Equal(t, []*Session{b}, res.Others)

	members, _ := reg.SnapshotMembers("#team")
	assert.Equal(t, []Member{
		{Nick: "alice", IsOperator: false},
		{Nick: "bob", IsOperator: true},
	}, members)

	// The old operator lost its authority with the transfer.
	_, err = reg.SetOperator("alice", "#team", "alice", true)
	assert.ErrorIs(t, err, ErrNotOperator)
}

func TestSetOperatorSelfRevoke(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	reg.Join("alice", "#team")

	_, err := reg.SetOperator("alice", "#team", "alice", false)
	require.NoError(t, err)

	members, _ := reg.SnapshotMembers("#team")
	assert.Equal(t, []Member{{Nick: "alice", IsOperator: false}}, members)

	// With the role vacant, nobody is authorized anymore.
	_, err = reg.SetOperator("alice", "#team", "alice", true)
	assert.ErrorIs(t, err, ErrNoOperator)
}

func TestLeaveAllCleansEverything(t *testing.T) {
	reg := NewRegistry()
	newNamedSession(t, reg, "alice")
	b := newNamedSession(t, reg, "bob")
	reg.Join("alice", "#x")
	reg.Join("alice", "#y")
	reg.Join("bob", "#x")

	res := reg.LeaveAll("alice")
	assert.Equal(t, []*Session{b}, res.Notified)

	members, err := reg.SnapshotMembers("#x")
	require.NoError(t, err)
	assert.Equal(t, []Member{{Nick: "bob", IsOperator: false}}, members, "operator role must be cleared, not inherited")

	_, err = reg.SnapshotMembers("#y")
	assert.ErrorIs(t, err, ErrNoSuchChannel, "emptied channel is removed")

	_, ok := reg.LookupSession("alice")
	assert.False(t, ok)
}

func TestReleaseDoesNotEvictReclaimedNickname(t *testing.T) {
	reg := NewRegistry()
	a := newNamedSession(t, reg, "alice")

	reg.Release(a)
	_, ok := reg.LookupSession("alice")
	require.False(t, ok)

	// A new session reclaims the name; releasing the old session again
	// must not touch it.
	b := NewSession(nullSink{})
	require.NoError(t, reg.ClaimNickname(b, "alice"))
	reg.Release(a)

	got, ok := reg.LookupSession("alice")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestOperatorMembershipInvariantUnderChurn(t *testing.T) {
	reg := NewRegistry()
	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nick := fmt.Sprintf("user%d", i)
			s := NewSession(nullSink{})
			if err := reg.ClaimNickname(s, nick); err != nil {
				return
			}
			for j := 0; j < 50; j++ {
				reg.Join(nick, "#churn")
				if j%3 == 0 {
					reg.Part(nick, "#churn")
				}
				if j%7 == 0 {
					reg.LeaveAll(nick)
					reg.ClaimNickname(s, nick)
				}
			}
		}(i)
	}
	wg.Wait()

	// The operator, when present, must be a member.
	members, err := reg.SnapshotMembers("#churn")
	if err != nil {
		return // channel emptied out, nothing left to check
	}
	opCount := 0
	for _, m := range members {
		if m.IsOperator {
			opCount++
		}
	}
	assert.LessOrEqual(t, opCount, 1)
}
