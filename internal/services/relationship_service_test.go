package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRelationshipService(t *testing.T) (*RelationshipService, *sql.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewRelationshipService(db, NewEventService(db, nil)), db
}

func TestSendFriendRequest(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.Equal(t, alice, request.SenderID)
	require.Equal(t, bob, request.RecipientID)
	require.Equal(t, "pending", request.Status)
	require.NotEmpty(t, request.ID)

	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friend_requests WHERE status = 'pending'"))
}

func TestSendFriendRequestToSelf(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	_, err := svc.SendFriendRequest(alice, alice)
	require.ErrorIs(t, err, ErrSelfReference)
}

func TestSendFriendRequestToMissingUser(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	_, err := svc.SendFriendRequest(alice, "no-such-user")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSendFriendRequestDuplicate(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	_, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)

	// Same direction.
	_, err = svc.SendFriendRequest(alice, bob)
	require.ErrorIs(t, err, ErrDuplicateRequest)

	// Opposite direction counts as the same pending pair.
	_, err = svc.SendFriendRequest(bob, alice)
	require.ErrorIs(t, err, ErrDuplicateRequest)

	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friend_requests"))
}

func TestSendFriendRequestWhenAlreadyFriends(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	_, err = svc.SendFriendRequest(alice, bob)
	require.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestSendFriendRequestBlockedEitherDirection(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	require.NoError(t, svc.BlockUser(alice, bob))

	// The block is directional but the check is symmetric.
	_, err := svc.SendFriendRequest(bob, alice)
	require.ErrorIs(t, err, ErrBlocked)

	_, err = svc.SendFriendRequest(alice, bob)
	require.ErrorIs(t, err, ErrBlocked)
}

func TestAcceptFriendRequest(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)

	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	require.True(t, areFriendsDB(t, db, alice, bob))

	var status string
	require.NoError(t, db.QueryRow("SELECT status FROM friend_requests WHERE id = ?", request.ID).Scan(&status))
	require.Equal(t, "accepted", status)
}

func TestAcceptFriendRequestOnlyRecipient(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)

	// The sender cannot self-accept.
	err = svc.AcceptFriendRequest(alice, request.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.False(t, areFriendsDB(t, db, alice, bob))
}

func TestAcceptFriendRequestMissing(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	err := svc.AcceptFriendRequest(alice, "no-such-request")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptFriendRequestTwice(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	err = svc.AcceptFriendRequest(bob, request.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	// Friendship entries must not duplicate.
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?", alice, bob))
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?", bob, alice))
}

func TestAcceptFriendRequestAfterBlock(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	// Bob sends Alice a request, then Alice blocks Bob. The pending row is
	// deliberately left in place, but accepting it must fail.
	request, err := svc.SendFriendRequest(bob, alice)
	require.NoError(t, err)
	require.NoError(t, svc.BlockUser(alice, bob))

	err = svc.AcceptFriendRequest(alice, request.ID)
	require.ErrorIs(t, err, ErrBlocked)
	require.False(t, areFriendsDB(t, db, alice, bob))
}

func TestCancelFriendRequest(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)

	require.NoError(t, svc.CancelFriendRequest(alice, request.ID))
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM friend_requests"))
}

func TestCancelFriendRequestOnlySender(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	carol := insertUser(t, db, "Carol")

	// Carol received the request; she can reject by ignoring, not cancel.
	request, err := svc.SendFriendRequest(alice, carol)
	require.NoError(t, err)

	err = svc.CancelFriendRequest(carol, request.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friend_requests"))
}

func TestCancelAcceptedRequest(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	err = svc.CancelFriendRequest(alice, request.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestUnfriendPurgesHistory(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	require.NoError(t, svc.Unfriend(alice, bob))

	require.False(t, areFriendsDB(t, db, alice, bob))
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM friend_requests"))

	// A fresh request is not blocked by residue.
	_, err = svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
}

func TestUnfriendSelf(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	require.ErrorIs(t, svc.Unfriend(alice, alice), ErrSelfReference)
}

func TestUnfriendMissingTarget(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	require.ErrorIs(t, svc.Unfriend(alice, "no-such-user"), ErrNotFound)
}

func TestBlockRemovesFriendshipBothSides(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))
	require.True(t, areFriendsDB(t, db, alice, bob))

	require.NoError(t, svc.BlockUser(bob, alice))

	require.False(t, areFriendsDB(t, db, alice, bob))
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM blocks WHERE blocker_id = ? AND blocked_id = ?", bob, alice))
	// Directional: Alice has not blocked Bob.
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM blocks WHERE blocker_id = ? AND blocked_id = ?", alice, bob))
}

func TestBlockIsIdempotent(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	require.NoError(t, svc.BlockUser(alice, bob))
	require.NoError(t, svc.BlockUser(alice, bob))
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM blocks"))
}

func TestBlockSelf(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	require.ErrorIs(t, svc.BlockUser(alice, alice), ErrSelfReference)
}

func TestBlockMissingTarget(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")

	require.ErrorIs(t, svc.BlockUser(alice, "no-such-user"), ErrNotFound)
}

func TestBlockLeavesPendingRequestInPlace(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	_, err := svc.SendFriendRequest(bob, alice)
	require.NoError(t, err)

	require.NoError(t, svc.BlockUser(alice, bob))

	// The pending row survives; the accept path rejects it instead.
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM friend_requests WHERE status = 'pending'"))
}

func TestBlockPurgesAcceptedRequest(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	require.NoError(t, svc.BlockUser(alice, bob))

	// The accepted record goes with the friendship. Leaving it behind
	// would let the maintenance repair rebuild the friendship after an
	// unblock.
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM friend_requests WHERE status = 'accepted'"))
}

func TestUnblockRestoresNothing(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))
	require.NoError(t, svc.BlockUser(alice, bob))

	require.NoError(t, svc.UnblockUser(alice, bob))

	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM blocks"))
	// The friendship severed by the block stays severed.
	require.False(t, areFriendsDB(t, db, alice, bob))

	// But a new request can now be sent.
	_, err = svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
}

// The full lifecycle scenario: sign up, request, accept, unfriend, re-request.
func TestFriendshipLifecycle(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.Equal(t, alice, request.SenderID)

	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))
	require.True(t, areFriendsDB(t, db, alice, bob))

	require.NoError(t, svc.Unfriend(alice, bob))
	require.False(t, areFriendsDB(t, db, alice, bob))
	require.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM friend_requests"))

	_, err = svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
}

func TestRelationshipEventsRecorded(t *testing.T) {
	svc, db := newRelationshipService(t)
	alice := insertUser(t, db, "Alice")
	bob := insertUser(t, db, "Bob")

	request, err := svc.SendFriendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptFriendRequest(bob, request.ID))

	// Request-sent notifies the recipient, accept notifies the sender.
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM events WHERE type = 'friend.request.sent' AND subject_id = ?", bob))
	require.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM events WHERE type = 'friend.request.accepted' AND subject_id = ?", alice))
}
