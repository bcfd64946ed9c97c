package echoapi

import (
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/report"
	"github.com/faithpod/portal/core/tenant"
	"github.com/faithpod/portal/core/treasury"
)

type reportApi struct {
	conf        *core.Config
	svc         *report.Service
	treasurySvc *treasury.Service
	tenantSvc   *tenant.Service
	logger      core.Logger
	validate    *validator.Validate
}

func registerReportAPI(
	g *echo.Group,
	auth echo.MiddlewareFunc,
	conf *core.Config,
	svc *report.Service,
	treasurySvc *treasury.Service,
	tenantSvc *tenant.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := reportApi{
		conf:        conf,
		svc:         svc,
		treasurySvc: treasurySvc,
		tenantSvc:   tenantSvc,
		logger:      logger,
		validate:    validate,
	}

	rg := g.Group("/reports", auth, permissionMiddleware(access.CanViewContributions))
	rg.GET("/exports", api.history)
	rg.GET("/:kind", api.export)
	rg.POST("/:kind/email", api.email)
}

type EmailReportRequest struct {
	Email  string `json:"email" validate:"omitempty,email"`
	Format string `json:"format"`
}

// Handlers

func (api *reportApi) export(ctx echo.Context) error {
	format, err := report.ParseFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	r, err := api.build(ctx, usr)
	if err != nil {
		return err
	}

	f, err := api.svc.Export(ctx.Request().Context(), r, format, usr)
	if err != nil {
		return errors.Wrap(err, "exporting report")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+f.Name+`"`)
	return ctx.Blob(http.StatusOK, f.ContentType, f.Data)
}

func (api *reportApi) email(ctx echo.Context) error {
	var data EmailReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailReportRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	format, err := report.ParseFormat(data.Format)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	to := mail.Address{Name: usr.FullName(), Address: usr.Email}
	if data.Email != "" {
		to = mail.Address{Address: data.Email}
	}
	if to.Address == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "email is required"})
	}

	r, err := api.build(ctx, usr)
	if err != nil {
		return err
	}
	if err = api.svc.Email(ctx.Request().Context(), r, format, usr, to); err != nil {
		return errors.Wrap(err, "emailing report")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report will be sent to " + to.Address + "."})
}

func (api *reportApi) history(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	recs, err := api.svc.History(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying export history")
	}
	return ctx.JSON(http.StatusOK, recs)
}

// build fetches the rows of the requested report kind, filtered by the query.
func (api *reportApi) build(ctx echo.Context, usr access.User) (report.Report, error) {
	kind, err := report.ParseKind(ctx.Param("kind"))
	if err != nil {
		return report.Report{}, err
	}
	f, err := bindFilter(ctx, api.validate)
	if err != nil {
		return report.Report{}, err
	}

	rctx := ctx.Request().Context()
	meta := report.Meta{
		Organization: api.organization(ctx),
		Currency:     api.conf.Reports.Currency,
		RequestedBy:  usr.FullName(),
		GeneratedAt:  time.Now(),
	}

	if kind == report.Transactions {
		txns, total, err := api.treasurySvc.FilteredPaybill(rctx, f)
		if err != nil {
			return report.Report{}, errors.Wrap(err, "filtering paybill transactions")
		}
		return report.FromPaybill(txns, total, meta)
	}
	contribs, total, err := api.treasurySvc.FilteredContributions(rctx, f)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "filtering contributions")
	}
	return report.FromContributions(contribs, total, meta)
}

// organization names the church in report headers, from its API when it answers.
func (api *reportApi) organization(ctx echo.Context) string {
	info, err := api.tenantSvc.Info(ctx.Request().Context())
	if err != nil || info.Name == "" {
		if err != nil {
			api.logger.Warn("fetching tenant info: " + err.Error())
		}
		return api.conf.Reports.Organization
	}
	return info.Name
}
