package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestWelcomeHandlerSendsGreeting(t *testing.T) {
	mailer := &recordingMailer{}
	handler := WelcomeHandler(mailer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewWelcomeTask(WelcomePayload{UserID: "u1", Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)
	require.Equal(t, TaskWelcomeEmail, task.Type())

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "ann@x.com", mailer.sent[0].To)
	require.Contains(t, mailer.sent[0].Body, "Hi Ann")
}

func TestWelcomeHandlerSkipsMalformedPayload(t *testing.T) {
	mailer := &recordingMailer{}
	handler := WelcomeHandler(mailer, nil, nil)

	err := handler(context.Background(), asynq.NewTask(TaskWelcomeEmail, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(context.Background(), asynq.NewTask(TaskWelcomeEmail, []byte(`{"user_id":"u1"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, mailer.sent)
}

func TestWelcomeHandlerSurfacesDeliveryFailure(t *testing.T) {
	boom := errors.New("relay unavailable")
	handler := WelcomeHandler(&recordingMailer{err: boom}, nil, nil)
	task, err := NewWelcomeTask(WelcomePayload{UserID: "u1", Email: "ann@x.com"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestNewWelcomeTaskRequiresRecipient(t *testing.T) {
	_, err := NewWelcomeTask(WelcomePayload{UserID: "u1", Email: "  "})
	require.Error(t, err)
}

func TestWelcomeMessageFallsBackToGenericName(t *testing.T) {
	msg := WelcomeMessage(WelcomePayload{Email: "ann@x.com"})
	require.Contains(t, msg.Body, "Hi there")
	require.Equal(t, "Welcome to Inkwell", msg.Subject)
}

func TestSMTPMailerRendersAndRelays(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPConfig{Host: "mail.local", Port: 2525, Username: "bot", Password: "pw", From: "noreply@inkwell.dev"})
	require.NoError(t, err)
	mailer.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	var gotAddr string
	var gotTo []string
	var gotMsg string
	var gotAuth smtp.Auth
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	require.NoError(t, mailer.Send(context.Background(), Message{To: "ann@x.com", Subject: "Hi", Body: "line1\nline2"}))
	require.Equal(t, "mail.local:2525", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, []string{"ann@x.com"}, gotTo)
	require.True(t, strings.HasPrefix(gotMsg, "From: noreply@inkwell.dev\r\nTo: ann@x.com\r\nSubject: Hi\r\n"))
	require.Contains(t, gotMsg, "Date: Wed, 01 May 2024 08:00:00 +0000\r\n")
	require.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nline1\r\nline2"))
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPConfig{Host: "mail.local", From: "noreply@inkwell.dev"})
	require.NoError(t, err)
	mailer.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("relay must not be contacted")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, mailer.Send(ctx, Message{To: "ann@x.com"}), context.Canceled)
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{From: "noreply@inkwell.dev"})
	require.Error(t, err)
	_, err = NewSMTPMailer(SMTPConfig{Host: "mail.local"})
	require.Error(t, err)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		code      int
		body      string
		mediaType string
	}{
		{name: "no inspector", code: http.StatusOK, body: `{"queue":"default","pending":0,"retry":0,"failed":0}`},
		{name: "queue stats", inspector: stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1}}, code: http.StatusOK, body: `{"queue":"default","pending":3,"retry":1,"failed":0}`},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial tcp")}, code: http.StatusServiceUnavailable, body: `{"title":"Queue unavailable","status":503,"detail":"job queue state could not be read"}`, mediaType: "application/problem+json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.code, rr.Code)
			if tc.body != "" {
				require.JSONEq(t, tc.body, rr.Body.String())
			}
			if tc.mediaType != "" {
				require.Equal(t, tc.mediaType, rr.Header().Get("Content-Type"))
			}
		})
	}
}
