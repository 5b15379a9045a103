package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"employee-compass/internal/events"
	"employee-compass/internal/events/bus"
	"employee-compass/internal/events/store/memory"
	id "employee-compass/pkg/domain"
	dErrors "employee-compass/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	bus     *bus.Bus
	service *Service
	user    id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.bus = bus.New()
	svc, err := New(s.store, s.bus)
	s.Require().NoError(err)
	s.service = svc
	s.user = id.NewUserID()
}

func (s *ServiceSuite) TestNewRequiresCollaborators() {
	_, err := New(nil, bus.New())
	s.Error(err)

	_, err = New(memory.New(), nil)
	s.Error(err)
}

func (s *ServiceSuite) TestAppendPublishesAfterStore() {
	ctx := context.Background()

	var delivered []events.Event
	s.service.Subscribe(s.user, func(e events.Event) {
		delivered = append(delivered, e)

		// By the time a subscriber sees the event it is already listable.
		list, err := s.store.List(ctx, s.user, events.CategoryNotification, events.Page{})
		s.NoError(err)
		s.NotEmpty(list)
	})

	event, err := s.service.Append(ctx, events.AppendRequest{
		Recipient: s.user,
		Kind:      events.KindInfo,
		Title:     "hello",
	})
	s.Require().NoError(err)

	s.Require().Len(delivered, 1)
	s.Equal(event.ID, delivered[0].ID)
	s.Equal("hello", delivered[0].Title)
}

func (s *ServiceSuite) TestAppendRejectionDoesNotPublish() {
	delivered := 0
	s.service.SubscribeAll(func(events.Event) { delivered++ })

	_, err := s.service.Append(context.Background(), events.AppendRequest{
		Recipient: s.user,
		Kind:      events.Kind("promotion"),
	})
	s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	s.Equal(0, delivered)
}

func (s *ServiceSuite) TestAppendQueuesForPersistence() {
	inbox := make(chan events.Event, 1)
	svc, err := New(memory.New(), bus.New(), WithPersistInbox(inbox))
	s.Require().NoError(err)

	event, err := svc.Append(context.Background(), events.AppendRequest{
		Recipient: s.user,
		Kind:      events.KindLogin,
	})
	s.Require().NoError(err)

	select {
	case queued := <-inbox:
		s.Equal(event.ID, queued.ID)
	default:
		s.Fail("event was not queued for persistence")
	}
}

func (s *ServiceSuite) TestAppendSurvivesFullPersistInbox() {
	// Zero-capacity inbox with no worker: every enqueue would block, so the
	// service must drop from the persistence path instead.
	inbox := make(chan events.Event)
	svc, err := New(memory.New(), bus.New(), WithPersistInbox(inbox))
	s.Require().NoError(err)

	event, err := svc.Append(context.Background(), events.AppendRequest{
		Recipient: s.user,
		Kind:      events.KindInfo,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), event.ID)

	// The in-memory commit stands even though persistence dropped it.
	count, err := svc.UnreadCount(context.Background(), s.user)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *ServiceSuite) TestReadStatePassthrough() {
	ctx := context.Background()

	event, err := s.service.Append(ctx, events.AppendRequest{
		Recipient: s.user,
		Kind:      events.KindHighRisk,
	})
	s.Require().NoError(err)

	ok, err := s.service.MarkRead(ctx, event.ID)
	s.Require().NoError(err)
	s.True(ok)

	count, err := s.service.UnreadCount(ctx, s.user)
	s.Require().NoError(err)
	s.Equal(0, count)

	changed, err := s.service.MarkAllRead(ctx, s.user, events.CategoryNotification)
	s.Require().NoError(err)
	s.Equal(0, changed)
}
