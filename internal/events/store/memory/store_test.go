package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"employee-compass/internal/events"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	user  id.UserID
	other id.UserID
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.store = New()
	s.user = id.NewUserID()
	s.other = id.NewUserID()
}

func (s *StoreSuite) append(kind events.Kind) events.Event {
	event, err := s.store.Append(context.Background(), events.AppendRequest{
		Recipient: s.user,
		Kind:      kind,
		Title:     "title",
	})
	s.Require().NoError(err)
	return event
}

func (s *StoreSuite) TestAppend() {
	ctx := context.Background()

	s.Run("assigns strictly increasing ids starting at 1", func() {
		first := s.append(events.KindInfo)
		second := s.append(events.KindLogin)
		third := s.append(events.KindHighRisk)

		s.Equal(int64(1), first.ID)
		s.Equal(int64(2), second.ID)
		s.Equal(int64(3), third.ID)
	})

	s.Run("derives category from kind", func() {
		notif := s.append(events.KindEvaluation)
		audit := s.append(events.KindRecordEdit)

		s.Equal(events.CategoryNotification, notif.Category)
		s.Equal(events.CategoryAudit, audit.Category)
	})

	s.Run("notifications start unread, audit entries carry no read state", func() {
		notif := s.append(events.KindSystem)
		audit := s.append(events.KindLogout)

		s.False(notif.Read)
		s.Nil(notif.ReadAt)
		s.False(audit.Read)
		s.Nil(audit.ReadAt)
	})

	s.Run("unknown kind is rejected before any state change", func() {
		before := s.store.Len()
		_, err := s.store.Append(ctx, events.AppendRequest{
			Recipient: s.user,
			Kind:      events.Kind("promotion"),
		})

		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
		s.Equal(before, s.store.Len())
	})

	s.Run("missing recipient is rejected before any state change", func() {
		before := s.store.Len()
		_, err := s.store.Append(ctx, events.AppendRequest{
			Kind: events.KindInfo,
		})

		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
		s.Equal(before, s.store.Len())
	})

	s.Run("metadata is copied, not aliased", func() {
		meta := map[string]string{"key": "value"}
		event, err := s.store.Append(ctx, events.AppendRequest{
			Recipient: s.user,
			Kind:      events.KindInfo,
			Metadata:  meta,
		})
		s.Require().NoError(err)

		meta["key"] = "mutated"
		s.Equal("value", event.Metadata["key"])
	})
}

func (s *StoreSuite) TestAppendMonotonicTimestamps() {
	times := []time.Time{
		time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), // clock went backwards
		time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
	i := 0
	store := New(WithClock(func() time.Time {
		t := times[i]
		i++
		return t
	}))

	var created []time.Time
	for range times {
		event, err := store.Append(context.Background(), events.AppendRequest{
			Recipient: s.user,
			Kind:      events.KindInfo,
		})
		s.Require().NoError(err)
		created = append(created, event.CreatedAt)
	}

	s.Equal(times[0], created[0])
	// Clamped to the previous timestamp instead of going backwards.
	s.Equal(times[0], created[1])
	s.Equal(times[2], created[2])
}

func (s *StoreSuite) TestList() {
	ctx := context.Background()

	s.Run("returns newest first filtered by category and recipient", func() {
		n1 := s.append(events.KindInfo)
		a1 := s.append(events.KindLogin)
		n2 := s.append(events.KindHighRisk)

		_, err := s.store.Append(ctx, events.AppendRequest{
			Recipient: s.other,
			Kind:      events.KindInfo,
		})
		s.Require().NoError(err)

		notifs, err := s.store.List(ctx, s.user, events.CategoryNotification, events.Page{})
		s.Require().NoError(err)
		s.Len(notifs, 2)
		s.Equal(n2.ID, notifs[0].ID)
		s.Equal(n1.ID, notifs[1].ID)

		audits, err := s.store.List(ctx, s.user, events.CategoryAudit, events.Page{})
		s.Require().NoError(err)
		s.Len(audits, 1)
		s.Equal(a1.ID, audits[0].ID)
	})

	s.Run("paginates with limit and before_id cursor", func() {
		store := New()
		user := id.NewUserID()
		for i := 0; i < 5; i++ {
			_, err := store.Append(ctx, events.AppendRequest{
				Recipient: user,
				Kind:      events.KindInfo,
			})
			s.Require().NoError(err)
		}

		page1, err := store.List(ctx, user, events.CategoryNotification, events.Page{Limit: 2})
		s.Require().NoError(err)
		s.Len(page1, 2)
		s.Equal(int64(5), page1[0].ID)
		s.Equal(int64(4), page1[1].ID)

		page2, err := store.List(ctx, user, events.CategoryNotification, events.Page{Limit: 2, BeforeID: page1[1].ID})
		s.Require().NoError(err)
		s.Len(page2, 2)
		s.Equal(int64(3), page2[0].ID)
		s.Equal(int64(2), page2[1].ID)

		page3, err := store.List(ctx, user, events.CategoryNotification, events.Page{Limit: 2, BeforeID: page2[1].ID})
		s.Require().NoError(err)
		s.Len(page3, 1)
		s.Equal(int64(1), page3[0].ID)
	})

	s.Run("unknown recipient returns empty, not error", func() {
		list, err := s.store.List(ctx, id.NewUserID(), events.CategoryNotification, events.Page{})
		s.NoError(err)
		s.Empty(list)
	})

	s.Run("invalid category is rejected", func() {
		_, err := s.store.List(ctx, s.user, events.Category("alerts"), events.Page{})
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})
}

func (s *StoreSuite) TestMarkRead() {
	ctx := context.Background()

	s.Run("transitions a notification and stays true on repeat", func() {
		event := s.append(events.KindInfo)

		ok, err := s.store.MarkRead(ctx, event.ID)
		s.NoError(err)
		s.True(ok)

		list, err := s.store.List(ctx, s.user, events.CategoryNotification, events.Page{})
		s.Require().NoError(err)
		s.True(list[0].Read)
		s.NotNil(list[0].ReadAt)
		readAt := *list[0].ReadAt

		// Idempotent: second call reports true and does not bump ReadAt.
		ok, err = s.store.MarkRead(ctx, event.ID)
		s.NoError(err)
		s.True(ok)

		list, err = s.store.List(ctx, s.user, events.CategoryNotification, events.Page{})
		s.Require().NoError(err)
		s.Equal(readAt, *list[0].ReadAt)
	})

	s.Run("unknown id is a benign no-op", func() {
		ok, err := s.store.MarkRead(ctx, 9999)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("audit entries have no read state", func() {
		audit := s.append(events.KindLogin)
		ok, err := s.store.MarkRead(ctx, audit.ID)
		s.NoError(err)
		s.False(ok)
	})
}

func (s *StoreSuite) TestMarkAllRead() {
	ctx := context.Background()

	s.Run("transitions every unread notification and reports the count", func() {
		s.append(events.KindInfo)
		s.append(events.KindHighRisk)
		read := s.append(events.KindSystem)
		s.append(events.KindLogin) // audit, untouched

		ok, err := s.store.MarkRead(ctx, read.ID)
		s.Require().NoError(err)
		s.Require().True(ok)

		changed, err := s.store.MarkAllRead(ctx, s.user, events.CategoryNotification)
		s.NoError(err)
		s.Equal(2, changed)

		changed, err = s.store.MarkAllRead(ctx, s.user, events.CategoryNotification)
		s.NoError(err)
		s.Equal(0, changed)
	})

	s.Run("audit category always reports zero", func() {
		s.append(events.KindLogin)
		changed, err := s.store.MarkAllRead(ctx, s.user, events.CategoryAudit)
		s.NoError(err)
		s.Equal(0, changed)
	})
}

func (s *StoreSuite) TestUnreadCount() {
	ctx := context.Background()

	s.Run("tracks appends and read transitions exactly", func() {
		count, err := s.store.UnreadCount(ctx, s.user)
		s.Require().NoError(err)
		s.Equal(0, count)

		n1 := s.append(events.KindInfo)
		s.append(events.KindHighRisk)
		s.append(events.KindLogin) // audit never counts

		count, err = s.store.UnreadCount(ctx, s.user)
		s.Require().NoError(err)
		s.Equal(2, count)

		_, err = s.store.MarkRead(ctx, n1.ID)
		s.Require().NoError(err)

		count, err = s.store.UnreadCount(ctx, s.user)
		s.Require().NoError(err)
		s.Equal(1, count)

		_, err = s.store.MarkAllRead(ctx, s.user, events.CategoryNotification)
		s.Require().NoError(err)

		count, err = s.store.UnreadCount(ctx, s.user)
		s.Require().NoError(err)
		s.Equal(0, count)
	})

	s.Run("counters are per recipient", func() {
		s.append(events.KindInfo)

		count, err := s.store.UnreadCount(ctx, s.other)
		s.Require().NoError(err)
		s.Equal(0, count)
	})
}
