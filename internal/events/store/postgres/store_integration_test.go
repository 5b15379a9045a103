//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"employee-compass/internal/events"
	"employee-compass/pkg/testutil/containers"
	id "employee-compass/pkg/domain"
)

func TestSaveAndListRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../../migrations")
	store := New(pg.DB)
	ctx := context.Background()

	recipient := id.NewUserID()
	subject := id.NewEmployeeID()
	readAt := time.Now().UTC().Truncate(time.Microsecond)

	event := events.Event{
		ID:         1,
		Recipient:  recipient,
		Category:   events.CategoryNotification,
		Kind:       events.KindHighRisk,
		Title:      "Employee flagged",
		Body:       "Risk score crossed the high band",
		SubjectRef: subject,
		Metadata:   map[string]string{"score": "87"},
		NavigateTo: "/employees/" + subject.String(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		Read:       true,
		ReadAt:     &readAt,
	}
	require.NoError(t, store.Save(ctx, event))

	got, err := store.ListByRecipient(ctx, recipient, events.CategoryNotification)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, event.ID, got[0].ID)
	require.Equal(t, event.Kind, got[0].Kind)
	require.Equal(t, event.Title, got[0].Title)
	require.Equal(t, event.SubjectRef, got[0].SubjectRef)
	require.Equal(t, "87", got[0].Metadata["score"])
	require.True(t, got[0].Read)
	require.NotNil(t, got[0].ReadAt)
}

func TestSaveIsIdempotent(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../../migrations")
	store := New(pg.DB)
	ctx := context.Background()

	recipient := id.NewUserID()
	event := events.Event{
		ID:        7,
		Recipient: recipient,
		Category:  events.CategoryAudit,
		Kind:      events.KindLogin,
		Title:     "Session login",
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Save(ctx, event))
	require.NoError(t, store.Save(ctx, event))

	got, err := store.ListByRecipient(ctx, recipient, events.CategoryAudit)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListOrdersNewestFirst(t *testing.T) {
	pg := containers.NewPostgresContainer(t, "../../../../migrations")
	store := New(pg.DB)
	ctx := context.Background()

	recipient := id.NewUserID()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.Save(ctx, events.Event{
			ID:        i,
			Recipient: recipient,
			Category:  events.CategoryNotification,
			Kind:      events.KindInfo,
			CreatedAt: time.Now().UTC(),
		}))
	}

	got, err := store.ListByRecipient(ctx, recipient, events.CategoryNotification)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(3), got[0].ID)
	require.Equal(t, int64(1), got[2].ID)
}
