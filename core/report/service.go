package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/core/treasury"
)

const defaultHistoryLimit = 50

type (
	// Renderer writes a Report in one Format.
	Renderer interface {
		Render(w io.Writer, r Report) error
	}

	// Repository stores the export audit log.
	Repository interface {
		CreateExport(ctx context.Context, rec ExportRecord) error
		QueryExports(ctx context.Context, tenant string, limit int) ([]ExportRecord, error)
	}

	// File is a rendered report.
	File struct {
		Name        string
		ContentType string
		Data        []byte
	}

	Service struct {
		repo      Repository
		renderers map[Format]Renderer
		mailSvc   core.EmailService
		logger    core.Logger
		nowFunc   func() time.Time
	}

	templateData struct {
		Subject      string
		Organization string
		Title        string
		Rows         int
		Currency     string
		Total        string
		GeneratedOn  string
		RequestedBy  string
	}
)

func NewService(repo Repository, renderers map[Format]Renderer, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, renderers: renderers, mailSvc: mailSvc, logger: logger, nowFunc: time.Now}
}

// Export renders r in format and records the export.
func (svc *Service) Export(ctx context.Context, r Report, format Format, usr access.User) (File, error) {
	f, err := svc.render(r, format)
	if err != nil {
		return File{}, err
	}
	svc.record(ctx, r, format, usr, "")
	return f, nil
}

// Email renders r in format and mails it to the given address as an attachment.
func (svc *Service) Email(ctx context.Context, r Report, format Format, usr access.User, to mail.Address) error {
	f, err := svc.render(r, format)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - %s", r.Title, r.GeneratedAt.Format("02 January 2006"))
	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      subject,
		FromName:     r.Organization,
		Tags:         map[string]string{"tenant": tenant.IDFromContext(ctx), "report": string(r.Kind)},
		TemplateName: "report",
		TemplateData: templateData{
			Subject:      subject,
			Organization: r.Organization,
			Title:        r.Title,
			Rows:         r.Len(),
			Currency:     r.Currency,
			Total:        treasury.FormatAmount(r.Total),
			GeneratedOn:  r.GeneratedAt.Format("January 2, 2006 at 03:04 PM"),
			RequestedBy:  r.RequestedBy,
		},
	}
	if err := msg.Attach(bytes.NewReader(f.Data), f.Name, f.ContentType); err != nil {
		return errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	svc.record(ctx, r, format, usr, to.Address)
	return nil
}

// History returns the latest exports of the tenant of ctx, newest first.
func (svc *Service) History(ctx context.Context, limit int) ([]ExportRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}
	recs, err := svc.repo.QueryExports(ctx, tenant.IDFromContext(ctx), limit)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []ExportRecord{}
	}
	return recs, nil
}

func (svc *Service) render(r Report, format Format) (File, error) {
	if r.Len() == 0 {
		return File{}, ErrEmptyReport
	}
	renderer, ok := svc.renderers[format]
	if !ok {
		return File{}, ErrUnknownFormat
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, r); err != nil {
		return File{}, errors.Wrapf(err, "rendering %s report", format)
	}
	return File{Name: r.FileName(format), ContentType: format.ContentType(), Data: buf.Bytes()}, nil
}

// record writes the audit line; a failure is logged, never returned.
func (svc *Service) record(ctx context.Context, r Report, format Format, usr access.User, emailedTo string) {
	rec := ExportRecord{
		ID:        uuid.New(),
		Tenant:    tenant.IDFromContext(ctx),
		UserID:    usr.ID,
		UserEmail: usr.Email,
		Kind:      r.Kind,
		Format:    format,
		Rows:      r.Len(),
		Total:     r.Total,
		EmailedTo: emailedTo,
		CreatedAt: svc.nowFunc().UTC(),
	}
	if err := svc.repo.CreateExport(ctx, rec); err != nil {
		person := usr.Person()
		person.Tenant = rec.Tenant
		svc.logger.Error("recording report export: "+err.Error(), err, person)
	}
}
