package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithpod/portal/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var testConf = &core.Config{
	AppName: "Faithpod",
	Email:   core.EmailConfig{DefaultFrom: "Faithpod <noreply@faithpod.org>"},
}

func reportMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Board", Address: "board@karen.org"}},
		Subject: "Church Contributions Report",
		BodyStr: "Please find the report attached.",
	}
	require.NoError(t, msg.Attach(bytes.NewReader([]byte("xlsx bytes")), "2024_03_01_CONTRIBUTIONS_REPORT.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	return msg
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, nopLogger{})
	svc.SendMessages(
		reportMessage(t),
		&core.EmailMessage{Subject: "nobody", BodyStr: "lost"},
		&core.EmailMessage{To: []mail.Address{{Address: "jo@x.com"}}, Subject: "empty"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Church Contributions Report", sent[0].Subject)
	assert.Equal(t, "Please find the report attached.", sent[0].TextContent)
	assert.Len(t, sent[0].Attachments, 1)
}

func TestConsoleService_format(t *testing.T) {
	svc := NewConsoleServiceMock(testConf, nopLogger{})
	msg := reportMessage(t)
	require.NoError(t, msg.Render())

	body, err := svc.format(*msg)
	require.NoError(t, err)
	assert.Contains(t, body, "From: \"Faithpod\" <noreply@faithpod.org>\r\n")
	assert.Contains(t, body, "Subject: [Faithpod] Church Contributions Report\r\n")
	assert.Contains(t, body, "To: \"Board\" <board@karen.org>\r\n")
	assert.NotContains(t, body, "CC:")
	assert.Contains(t, body, "Please find the report attached.")
	assert.Contains(t, body, `filename="2024_03_01_CONTRIBUTIONS_REPORT.xlsx"`)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, nopLogger{})

	t.Run("default sender", func(t *testing.T) {
		msg := reportMessage(t)
		msg.Cc = []mail.Address{{Address: "pastor@karen.org"}}
		require.NoError(t, msg.Render())

		m, err := svc.prepare(*msg)
		require.NoError(t, err)
		assert.Equal(t, "noreply@faithpod.org", m.From.Address)
		assert.Equal(t, "Faithpod", m.From.Name)
		require.Len(t, m.Personalizations, 1)
		p := m.Personalizations[0]
		assert.Equal(t, "[Faithpod] Church Contributions Report", p.Subject)
		require.Len(t, p.To, 1)
		assert.Equal(t, "board@karen.org", p.To[0].Address)
		require.Len(t, p.CC, 1)
		assert.Empty(t, p.CustomArgs)
		assert.Empty(t, m.Categories)

		require.Len(t, m.Content, 1) // no html
		assert.Equal(t, "text/plain", m.Content[0].Type)
		require.Len(t, m.Attachments, 1)
		assert.Equal(t, "attachment", m.Attachments[0].Disposition)
		assert.Equal(t, "2024_03_01_CONTRIBUTIONS_REPORT.xlsx", m.Attachments[0].Filename)
	})

	t.Run("tenant sender", func(t *testing.T) {
		msg := reportMessage(t)
		msg.FromName = "Karen SDA"
		msg.Tags = map[string]string{"tenant": "karen", "report": "contributions"}
		require.NoError(t, msg.Render())

		m, err := svc.prepare(*msg)
		require.NoError(t, err)
		assert.Equal(t, "Karen SDA", m.From.Name)
		assert.Equal(t, "noreply@faithpod.org", m.From.Address)
		p := m.Personalizations[0]
		assert.Equal(t, "[Karen SDA] Church Contributions Report", p.Subject)
		assert.Equal(t, map[string]string{"tenant": "karen", "report": "contributions"}, p.CustomArgs)
		assert.Equal(t, []string{"contributions", "karen"}, m.Categories)
	})

	t.Run("attachments too large", func(t *testing.T) {
		msg := reportMessage(t)
		msg.Attachments[0].Content = bytes.NewBuffer(make([]byte, maxAttachmentsSize+1))

		_, err := svc.prepare(*msg)
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), "attachments too large")
		}
	})
}

type errLogger struct {
	nopLogger
	errs []string
}

func (l *errLogger) Error(msg string, _ ...interface{}) { l.errs = append(l.errs, msg) }

func TestSendgridService_send(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{name: "delivered", wantCalls: 1},
		{
			name:      "retried when throttled",
			failures:  []error{&deliveryError{status: 429}, &deliveryError{status: 503}},
			wantCalls: 3,
		},
		{
			name:      "gives up after 3 attempts",
			failures:  []error{&deliveryError{status: 500}, &deliveryError{status: 502}, &deliveryError{status: 503}},
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:      "rejected",
			failures:  []error{&deliveryError{status: 400, body: "bad request"}},
			wantCalls: 1,
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(errLogger)
			svc := NewSendgridService(testConf, logger)
			svc.retryDelay = 0

			var calls int
			svc.deliver = func(m *sgmail.SGMailV3) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}

			msg := reportMessage(t)
			require.NoError(t, msg.Render())
			svc.send(*msg)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Len(t, logger.errs, 1)
			} else {
				assert.Empty(t, logger.errs)
			}
		})
	}
}
