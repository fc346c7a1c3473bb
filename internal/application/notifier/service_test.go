package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/NemoKam/VSrapInformer/internal/domain"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueue_DeliversEmail(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", "a@b.com", "Verify", "code 123456").Return(nil)

	svc := New(ml, nil, discardLogger())
	svc.Start(context.Background())
	svc.Enqueue(domain.Notification{
		Channel: domain.ChannelEmail, Recipient: "a@b.com", Subject: "Verify", Body: "code 123456",
	})
	svc.Close()

	ml.AssertExpectations(t)
}

func TestEnqueue_DeliversSMS(t *testing.T) {
	sms := &mockSMSSender{}
	sms.On("SendSMS", mock.Anything, "+79990000000", "code 123456").Return(nil)

	svc := New(&mockMailer{}, sms, discardLogger())
	svc.Start(context.Background())
	svc.Enqueue(domain.Notification{
		Channel: domain.ChannelPhone, Recipient: "+79990000000", Body: "code 123456",
	})
	svc.Close()

	sms.AssertExpectations(t)
}

func TestEnqueue_DeliveryFailureIsSwallowed(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("relay down"))

	svc := New(ml, nil, discardLogger())
	svc.Start(context.Background())
	assert.NotPanics(t, func() {
		svc.Enqueue(domain.Notification{Channel: domain.ChannelEmail, Recipient: "a@b.com"})
		svc.Close()
	})
	ml.AssertExpectations(t)
}

func TestEnqueue_SMSWithoutSenderIsDropped(t *testing.T) {
	svc := New(&mockMailer{}, nil, discardLogger())
	svc.Start(context.Background())
	assert.NotPanics(t, func() {
		svc.Enqueue(domain.Notification{Channel: domain.ChannelPhone, Recipient: "+79990000000"})
		svc.Close()
	})
}
