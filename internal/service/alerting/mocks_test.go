package alerting

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/notification"
)

type mockPrefRepo struct {
	mock.Mock
}

func (m *mockPrefRepo) ListSubscribed(ctx context.Context) ([]*notification.NotificationPreference, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.NotificationPreference), args.Error(1)
}

func (m *mockPrefRepo) GetByUserID(ctx context.Context, userID string) (*notification.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.NotificationPreference), args.Error(1)
}

// fakeSender records calls and optionally fails, shared by all four channel
// sender interfaces.
type fakeSender struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSender) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return f.record("email:" + to)
}

func (f *fakeSender) SendSMS(ctx context.Context, to, body string) error {
	return f.record("sms:" + to)
}

func (f *fakeSender) SendInApp(ctx context.Context, userID, title, body string) error {
	return f.record("in_app:" + userID)
}

func (f *fakeSender) SendWebhook(ctx context.Context, url string, payload interface{}) error {
	return f.record("webhook:" + url)
}
