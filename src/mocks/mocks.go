package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gracecoe/placement-portal/src/events"
	"github.com/gracecoe/placement-portal/src/models"
)

// MockUserDirectory implements models.UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDirectory) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDirectory) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserDirectory) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockPublisher implements events.Publisher and records what it saw.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingPublisher is a plain capture sink for tests that only care
// about the sequence of published events.
type RecordingPublisher struct {
	Events []events.Event
}

func (p *RecordingPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}
