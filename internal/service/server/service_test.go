package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	api "github.com/oshokin/attendance-notifier/internal/api/http/attendance"
	"github.com/oshokin/attendance-notifier/internal/config"
	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/provider"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// newTestService returns a service over an empty roster file and a test-mode sender.
func newTestService(t *testing.T) (*service, *provider.TestMode) {
	t.Helper()

	store := roster.NewFileRepository(filepath.Join(t.TempDir(), "roster.yaml"))
	sender := provider.NewTestMode(config.MessageKindSMS)

	return newService(store, dispatch.New(sender, "OO학원"), "OO학원", true), sender
}

// TestService_PresenceLifecycle covers add, check-in, conflict and check-out.
func TestService_PresenceLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, sender := newTestService(t)

	added, err := s.AddStudent(ctx, " 김철수 ", "010-1234-5678", "")
	require.NoError(t, err)
	require.Equal(t, "김철수", added.Name)
	require.Equal(t, domain.CheckedOut, added.Status)

	record, preview, err := s.SetPresence(ctx, added.Row, domain.CheckedIn)
	require.NoError(t, err)
	require.Equal(t, domain.CheckedIn, record.Status)
	require.Equal(t, `"김철수"님이 "OO학원"에 등원하였습니다.`, preview)

	_, _, err = s.SetPresence(ctx, added.Row, domain.CheckedIn)
	require.ErrorIs(t, err, api.ErrAlreadyInState)

	_, preview, err = s.SetPresence(ctx, added.Row, domain.CheckedOut)
	require.NoError(t, err)
	require.Contains(t, preview, "하원")

	// Presence changes are notified by the poll loop only.
	require.Empty(t, sender.Sent())

	records, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.CheckedOut, records[0].Status)
}

// TestService_PresenceWithoutLoop ensures no notification preview is promised when no poll loop runs.
func TestService_PresenceWithoutLoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := roster.NewFileRepository(filepath.Join(t.TempDir(), "roster.yaml"))
	sender := provider.NewTestMode(config.MessageKindSMS)
	s := newService(store, dispatch.New(sender, "OO학원"), "OO학원", false)

	added, err := s.AddStudent(ctx, "김철수", "01012345678", "")
	require.NoError(t, err)

	record, preview, err := s.SetPresence(ctx, added.Row, domain.CheckedIn)
	require.NoError(t, err)
	require.Equal(t, domain.CheckedIn, record.Status)
	require.Empty(t, preview)
	require.Empty(t, sender.Sent())
}

// TestService_EditsAndManualSend covers phone, payment, manual messages and deletion.
func TestService_EditsAndManualSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, sender := newTestService(t)

	added, err := s.AddStudent(ctx, "A", "0101", "")
	require.NoError(t, err)

	record, err := s.SetPaymentDate(ctx, added.Row, "2024-03-01")
	require.NoError(t, err)
	require.Equal(t, "paid", record.PaymentStatus())

	record, err = s.SetPhone(ctx, added.Row, "0202")
	require.NoError(t, err)
	require.Equal(t, "0202", record.Phone)

	_, outcome, err := s.SendMessage(ctx, added.Row, render.ManualPaymentRequest, "")
	require.NoError(t, err)
	require.Equal(t, dispatch.StatusDelivered, outcome.Status)
	require.Len(t, sender.Sent(), 1)
	require.Equal(t, "0202", sender.Sent()[0].Phone)
	require.Len(t, s.Deliveries(ctx), 1)

	_, err = s.DeleteStudent(ctx, added.Row)
	require.NoError(t, err)

	_, err = s.DeleteStudent(ctx, added.Row)
	require.ErrorIs(t, err, roster.ErrNotFound)
}

// TestService_SendMessageWithoutPhone checks the no-recipient rejection.
func TestService_SendMessageWithoutPhone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, sender := newTestService(t)

	added, err := s.AddStudent(ctx, "A", "", "")
	require.NoError(t, err)

	_, _, err = s.SendMessage(ctx, added.Row, render.ManualCheckIn, "")
	require.ErrorIs(t, err, api.ErrNoRecipient)
	require.Empty(t, sender.Sent())
}

// TestResolveListenAddress checks override precedence and validation.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	address, err := resolveListenAddress(":5000", "")
	require.NoError(t, err)
	require.Equal(t, ":5000", address)

	address, err = resolveListenAddress(":5000", "127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", address)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoListenAddress)

	_, err = resolveListenAddress("5000", "")
	require.Error(t, err)
}
