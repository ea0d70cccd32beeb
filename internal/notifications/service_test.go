package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediport/mediport/internal/platform/httpx"
)

type mockNotificationRepo struct {
	byID   map[int64]*Notification
	nextID int64
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{byID: make(map[int64]*Notification), nextID: 1}
}

func (m *mockNotificationRepo) Insert(_ context.Context, n Notification) (*Notification, error) {
	n.ID = m.nextID
	n.CreatedAt = time.Now()
	m.nextID++
	m.byID[n.ID] = &n
	copied := n
	return &copied, nil
}

func (m *mockNotificationRepo) ListForUser(_ context.Context, userID int64) ([]Notification, error) {
	var out []Notification
	for _, n := range m.byID {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID int64) (*Notification, error) {
	n, ok := m.byID[id]
	if !ok || n.UserID != userID {
		return nil, httpx.ErrNotFound
	}
	n.IsRead = true
	copied := *n
	return &copied, nil
}

func (m *mockNotificationRepo) DeleteAllForUser(_ context.Context, userID int64) error {
	for id, n := range m.byID {
		if n.UserID == userID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *mockNotificationRepo) forUser(userID int64) []Notification {
	out, _ := m.ListForUser(context.Background(), userID)
	return out
}

func TestAppointmentConfirmedNotifiesBothParties(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	date := time.Date(2026, time.March, 5, 14, 30, 0, 0, time.UTC)
	require.NoError(t, svc.AppointmentConfirmed(context.Background(), 7, 3, date))

	patient := repo.forUser(7)
	require.Len(t, patient, 1)
	assert.Equal(t, TypeAppointmentConfirmed, patient[0].Type)
	assert.Equal(t, "Your appointment scheduled for March 05, 2026 at 02:30 PM has been confirmed.", patient[0].Message)

	doctor := repo.forUser(3)
	require.Len(t, doctor, 1)
	assert.Equal(t, "You have been assigned an appointment on March 05, 2026 at 02:30 PM.", doctor[0].Message)
}

func TestAppointmentRejectedIncludesReason(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	date := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, svc.AppointmentRejected(context.Background(), 7, date, "no free slots"))

	inbox := repo.forUser(7)
	require.Len(t, inbox, 1)
	assert.Equal(t, TypeAppointmentRejected, inbox[0].Type)
	assert.Equal(t, "Your appointment scheduled for March 05, 2026 at 09:00 AM has been rejected. Reason: no free slots", inbox[0].Message)
}

func TestCommentNotifications(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	require.NoError(t, svc.CommentLiked(context.Background(), 7, 3, "Nora Haddad", "great advice"))
	require.NoError(t, svc.CommentReplied(context.Background(), 7, 4, "Sami Alaoui", "great advice"))
	require.NoError(t, svc.CommentDeleted(context.Background(), 7, 1, "spam text", "Violated community guidelines"))

	inbox := repo.forUser(7)
	require.Len(t, inbox, 3)

	messages := make(map[string]string, 3)
	for _, n := range inbox {
		messages[n.Type] = n.Message
	}
	assert.Equal(t, "Nora Haddad liked your comment.", messages[TypeCommentLike])
	assert.Equal(t, "Sami Alaoui replied to your comment.", messages[TypeCommentReply])
	assert.Equal(t, "Your comment was removed by a moderator. Reason: Violated community guidelines", messages[TypeCommentDeleted])
}

func TestDocumentUploadedMessage(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	require.NoError(t, svc.DocumentUploaded(context.Background(), 7, 3, "Greg House", "results.pdf"))

	inbox := repo.forUser(7)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Dr. Greg House has uploaded a document: results.pdf", inbox[0].Message)
	require.NotNil(t, inbox[0].ActorID)
	assert.Equal(t, int64(3), *inbox[0].ActorID)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), 7, "welcome")
	require.NoError(t, err)
	assert.False(t, created.IsRead)

	_, err = svc.MarkRead(context.Background(), created.ID, 8)
	assert.ErrorIs(t, err, httpx.ErrNotFound, "another user's notification is out of reach")

	updated, err := svc.MarkRead(context.Background(), created.ID, 7)
	require.NoError(t, err)
	assert.True(t, updated.IsRead)
}

func TestClearAllEmptiesOnlyOwnInbox(t *testing.T) {
	repo := newMockNotificationRepo()
	svc := NewService(repo)

	_, _ = svc.Create(context.Background(), 7, "one")
	_, _ = svc.Create(context.Background(), 7, "two")
	_, _ = svc.Create(context.Background(), 8, "keep")

	require.NoError(t, svc.ClearAll(context.Background(), 7))
	assert.Empty(t, repo.forUser(7))
	assert.Len(t, repo.forUser(8), 1)
}
