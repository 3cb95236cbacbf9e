package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLanguageModelProvider is a mock implementation of
// languagemodel.Provider.
type MockLanguageModelProvider struct {
	mock.Mock
}

func (m *MockLanguageModelProvider) SynthesizeSteps(ctx context.Context, analysis, extraInfo string) ([]string, error) {
	args := m.Called(ctx, analysis, extraInfo)

	if steps := args.Get(0); steps != nil {
		return steps.([]string), args.Error(1)
	}

	return nil, args.Error(1)
}
