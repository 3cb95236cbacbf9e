package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
)

// MockAutomationProvider is a mock implementation of automation.Provider.
type MockAutomationProvider struct {
	mock.Mock
}

func (m *MockAutomationProvider) CreateSession(ctx context.Context, opts automation.SessionOptions) (*models.RemoteSession, error) {
	args := m.Called(ctx, opts)

	if session := args.Get(0); session != nil {
		return session.(*models.RemoteSession), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAutomationProvider) Execute(ctx context.Context, session *models.RemoteSession, task string, cb automation.Callbacks) (*automation.Result, error) {
	args := m.Called(ctx, session, task, cb)

	if result := args.Get(0); result != nil {
		return result.(*automation.Result), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockAutomationProvider) CloseSession(ctx context.Context, session *models.RemoteSession) error {
	args := m.Called(ctx, session)

	return args.Error(0)
}
