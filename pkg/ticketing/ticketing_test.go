package ticketing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform/platformtest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	guildG    = "G"
	categoryC = "C"
	roleR     = "R"
	userU     = "U"
	staffS    = "S"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e *events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, key string, data []byte) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

type fixture struct {
	store     dataaccess.Store
	platform  *platformtest.Platform
	policy    *Policy
	publisher *mockPublisher
	registry  *Registry
	manager   *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		store:     dataaccess.NewMemoryStore(l),
		platform:  platformtest.New(),
		policy:    DefaultPolicy(),
		publisher: new(mockPublisher),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	f.platform.AddCategory(guildG, categoryC)
	f.platform.AddChannel(guildG, "panel-channel")

	f.registry = NewRegistry(l, f.store, f.platform, f.policy, f.publisher)
	f.manager = NewManager(l, f.store, f.platform, f.policy, f.publisher, nil)
	f.manager.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return f
}

// buyPanel sets up the panel with the Buy option in category C.
func (f *fixture) buyPanel(t *testing.T) *entities.Panel {
	t.Helper()
	ctx := context.Background()

	p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.NoError(t, f.registry.AddOption(ctx, p, "Buy", "💸", roleR))
	require.NoError(t, f.registry.SetCategory(ctx, p, categoryC))
	return p
}

func requester() *Actor {
	return &Actor{UserID: userU, Username: "alice"}
}

func staff() *Actor {
	return &Actor{UserID: staffS, Username: "sam", RoleIDs: []string{roleR}}
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)

	_, ok := UserMessage(err)
	require.True(t, ok, "error is not reportable: %v", err)
}
