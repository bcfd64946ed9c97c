package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/treasury"
)

type treasuryApi struct {
	svc      *treasury.Service
	validate *validator.Validate
}

func registerTreasuryAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *treasury.Service, validate *validator.Validate) {
	api := treasuryApi{
		svc:      svc,
		validate: validate,
	}

	canView := permissionMiddleware(access.CanViewContributions)

	cg := g.Group("/contribution-categories", auth)
	cg.GET("", api.queryCategories, permissionMiddleware(access.CanViewCategories))
	cg.POST("", api.createCategory, permissionMiddleware(access.CanCreateCategory))
	cg.GET("/chart", api.categoriesChart, permissionMiddleware(access.CanViewCategories))
	cg.GET("/:id", api.retrieveCategory, permissionMiddleware(access.CanViewCategories))
	cg.PUT("/:id", api.updateCategory, permissionMiddleware(access.CanEditCategory))
	cg.DELETE("/:id", api.destroyCategory, permissionMiddleware(access.CanEditCategory))
	cg.GET("/:id/chart", api.categoryChart, permissionMiddleware(access.CanViewCategories))

	colg := g.Group("/collections", auth)
	colg.GET("", api.queryCollections, canView)
	colg.GET("/:date", api.retrieveCollection, canView)
	colg.DELETE("/:id", api.destroyCollection, permissionMiddleware(access.CanEditContribution))
	colg.POST("/:id/mail", api.mailCollection, canView)

	ctg := g.Group("/contributions", auth)
	ctg.GET("", api.queryContributions, canView)
	ctg.POST("", api.addContributions, permissionMiddleware(access.CanCreateContribution))
	ctg.GET("/chart", api.chart, canView)
	ctg.GET("/total", api.total, canView)

	// self service, any member
	mg := g.Group("/me", auth)
	mg.POST("/contributions", api.addMpesaContributions)
	mg.GET("/transactions", api.transactionStatus)
	mg.GET("/transactions/wait", api.waitTransaction)

	g.GET("/paybill-transactions", api.queryPaybill, auth, canView)
}

// Categories

func (api *treasuryApi) queryCategories(ctx echo.Context) error {
	var (
		cats []treasury.Category
		err  error
	)
	if active, _ := strconv.ParseBool(ctx.QueryParam("active")); active {
		cats, err = api.svc.ActiveCategories(ctx.Request().Context())
	} else {
		cats, err = api.svc.Categories(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *treasuryApi) createCategory(ctx echo.Context) error {
	var data treasury.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *treasuryApi) retrieveCategory(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	cat, err := api.svc.Category(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding category by ID")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *treasuryApi) updateCategory(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data treasury.NewCategory
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.UpdateCategory(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *treasuryApi) destroyCategory(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCategory(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *treasuryApi) categoryChart(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	period, err := periodParam(ctx)
	if err != nil {
		return err
	}
	series, err := api.svc.CategoryChart(ctx.Request().Context(), id, period)
	if err != nil {
		return errors.Wrap(err, "charting category")
	}
	return ctx.JSON(http.StatusOK, series)
}

func (api *treasuryApi) categoriesChart(ctx echo.Context) error {
	period, err := periodParam(ctx)
	if err != nil {
		return err
	}
	series, err := api.svc.CategoriesChart(ctx.Request().Context(), period)
	if err != nil {
		return errors.Wrap(err, "charting categories")
	}
	return ctx.JSON(http.StatusOK, series)
}

// Collections

func (api *treasuryApi) queryCollections(ctx echo.Context) error {
	cols, err := api.svc.Collections(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying collections")
	}
	return ctx.JSON(http.StatusOK, cols)
}

func (api *treasuryApi) retrieveCollection(ctx echo.Context) error {
	date := ctx.Param("date")
	if err := api.validate.Var(date, "date"); err != nil {
		return errHttpNotFound
	}
	col, err := api.svc.Collection(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "finding collection by date")
	}
	return ctx.JSON(http.StatusOK, col)
}

func (api *treasuryApi) destroyCollection(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCollection(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting collection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *treasuryApi) mailCollection(ctx echo.Context) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.MailCollection(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "mailing collection")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The collection report is on its way."})
}

// Contributions

func (api *treasuryApi) queryContributions(ctx echo.Context) error {
	f, err := bindFilter(ctx, api.validate)
	if err != nil {
		return err
	}
	var params ListParams
	params.Bind(ctx)

	page, err := api.svc.Contributions(ctx.Request().Context(), f, params.Page, core.DefaultPageSize)
	if err != nil {
		return errors.Wrap(err, "querying contributions")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *treasuryApi) addContributions(ctx echo.Context) error {
	var data treasury.ContributionBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContributionBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.AddContributions(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "adding contributions")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "Contributions added."})
}

func (api *treasuryApi) chart(ctx echo.Context) error {
	period, err := periodParam(ctx)
	if err != nil {
		return err
	}
	series, err := api.svc.Chart(ctx.Request().Context(), period)
	if err != nil {
		return errors.Wrap(err, "charting contributions")
	}
	return ctx.JSON(http.StatusOK, series)
}

func (api *treasuryApi) total(ctx echo.Context) error {
	total, err := api.svc.Total(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "totaling collections")
	}
	return ctx.JSON(http.StatusOK, total)
}

// Self service

func (api *treasuryApi) addMpesaContributions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data treasury.ContributionBatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContributionBatch")
	}
	data = data.ForUser(usr.ID)
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.AddMpesaContributions(ctx.Request().Context(), usr.ID, data); err != nil {
		return errors.Wrap(err, "adding mpesa contributions")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "Check your phone and enter your Mpesa pin to complete the payment."})
}

func (api *treasuryApi) transactionStatus(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	status, err := api.svc.TransactionStatus(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "fetching transaction status")
	}
	return ctx.JSON(http.StatusOK, status)
}

// waitTransaction holds the request until Mpesa settles the member's last payment.
func (api *treasuryApi) waitTransaction(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	status, err := api.svc.WaitTransaction(ctx.Request().Context(), usr.ID)
	if errors.Cause(err) == treasury.ErrTransactionPending {
		return ctx.JSON(http.StatusAccepted, PendingResponse{Status: status.Status, Message: err.Error()})
	}
	if err != nil {
		return errors.Wrap(err, "waiting for transaction")
	}
	return ctx.JSON(http.StatusOK, status)
}

// Paybill

func (api *treasuryApi) queryPaybill(ctx echo.Context) error {
	f, err := bindFilter(ctx, api.validate)
	if err != nil {
		return err
	}
	var params ListParams
	params.Bind(ctx)

	page, err := api.svc.PaybillTransactions(ctx.Request().Context(), f, params.Page, core.DefaultPageSize)
	if err != nil {
		return errors.Wrap(err, "querying paybill transactions")
	}
	return ctx.JSON(http.StatusOK, page)
}

type PendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
