package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/faithpod/portal/core"
)

const (
	// SendGrid rejects messages over 30MB, attachments included.
	maxAttachmentsSize = 30 << 20
	sendAttempts       = 3
)

// deliveryError is a rejected delivery; temporary ones are retried.
type deliveryError struct {
	status int
	body   string
}

func (e *deliveryError) Error() string {
	return fmt.Sprintf("sendgrid status %d: %s", e.status, e.body)
}

func (e *deliveryError) temporary() bool {
	return e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

type sendgridService struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	deliver    func(m *sgmail.SGMailV3) error
	retryDelay time.Duration
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	client := sendgrid.NewSendClient(conf.Email.SendgridApiKey)
	return &sendgridService{
		from:       conf.Email.DefaultFromEmail(),
		subjPrefix: conf.AppName,
		logger:     logger,
		retryDelay: 2 * time.Second,
		deliver: func(m *sgmail.SGMailV3) error {
			res, err := client.Send(m)
			if err != nil {
				return errors.Wrap(err, "calling sendgrid")
			}
			if res.StatusCode >= http.StatusBadRequest {
				return &deliveryError{status: res.StatusCode, body: res.Body}
			}
			return nil
		},
	}
}

func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
				return
			}
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				svc.send(*msg)
			}
		}()
	}
}

// prepare builds the v3 payload of msg. Reports go out under the organization's name,
// tagged with their tenant so the activity feed can be filtered per church.
func (svc *sendgridService) prepare(msg core.EmailMessage) (*sgmail.SGMailV3, error) {
	if size := msg.AttachmentsSize(); size > maxAttachmentsSize {
		return nil, errors.Errorf("attachments too large: %d bytes", size)
	}

	prefix := svc.subjPrefix
	if msg.FromName != "" {
		prefix = msg.FromName
	}
	p := sgmail.NewPersonalization()
	p.Subject = "[" + prefix + "] " + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgmail.NewEmail(cc.Name, cc.Address))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgmail.NewEmail(bcc.Name, bcc.Address))
	}
	for k, v := range msg.Tags {
		p.SetCustomArg(k, v)
	}

	from := msg.From(svc.from)
	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(from.Name, from.Address))
	m.AddPersonalizations(p)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	if len(msg.Tags) > 0 {
		keys := make([]string, 0, len(msg.Tags))
		for k := range msg.Tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.AddCategories(msg.Tags[k])
		}
	}

	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m, nil
}

func (svc *sendgridService) send(msg core.EmailMessage) {
	m, err := svc.prepare(msg)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("preparing email %q: %v", msg.Subject, err), err)
		return
	}

	for attempt := 1; ; attempt++ {
		err = svc.deliver(m)
		derr, ok := errors.Cause(err).(*deliveryError)
		if err == nil || !ok || !derr.temporary() || attempt == sendAttempts {
			break
		}
		time.Sleep(time.Duration(attempt) * svc.retryDelay)
	}
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
	}
}
