package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/fellowship"
	"github.com/faithpod/portal/core/member"
	"github.com/faithpod/portal/core/treasury"
)

type dashboardApi struct {
	memberSvc     *member.Service
	fellowshipSvc *fellowship.Service
	treasurySvc   *treasury.Service
}

// Dashboard is the landing page summary of a church.
type Dashboard struct {
	Members         int                      `json:"members"`
	GenderCount     member.GenderCount       `json:"gender_count"`
	MembershipCount member.MembershipCount   `json:"membership_count"`
	Groups          int                      `json:"groups"`
	Prayercells     int                      `json:"prayercells"`
	Total           treasury.CollectionTotal `json:"total"`
	Contributions   treasury.Series          `json:"contributions"`
}

func registerDashboardAPI(g *echo.Group, auth echo.MiddlewareFunc, memberSvc *member.Service, fellowshipSvc *fellowship.Service, treasurySvc *treasury.Service) {
	api := dashboardApi{
		memberSvc:     memberSvc,
		fellowshipSvc: fellowshipSvc,
		treasurySvc:   treasurySvc,
	}
	g.GET("/dashboard", api.summary, auth, permissionMiddleware(access.CanViewUsers, access.CanViewContributions))
}

func (api *dashboardApi) summary(ctx echo.Context) error {
	period, err := periodParam(ctx)
	if err != nil {
		return err
	}

	var d Dashboard
	eg, ectx := errgroup.WithContext(ctx.Request().Context())
	eg.Go(func() (err error) {
		d.Members, err = api.memberSvc.Count(ectx)
		return errors.Wrap(err, "counting members")
	})
	eg.Go(func() (err error) {
		d.GenderCount, err = api.memberSvc.GenderCount(ectx)
		return errors.Wrap(err, "counting genders")
	})
	eg.Go(func() (err error) {
		d.MembershipCount, err = api.memberSvc.MembershipCount(ectx)
		return errors.Wrap(err, "counting memberships")
	})
	eg.Go(func() (err error) {
		d.Groups, err = api.fellowshipSvc.Count(ectx, fellowship.Groups)
		return errors.Wrap(err, "counting groups")
	})
	eg.Go(func() (err error) {
		d.Prayercells, err = api.fellowshipSvc.Count(ectx, fellowship.Prayercells)
		return errors.Wrap(err, "counting prayercells")
	})
	eg.Go(func() (err error) {
		d.Total, err = api.treasurySvc.Total(ectx)
		return errors.Wrap(err, "totaling collections")
	})
	eg.Go(func() (err error) {
		d.Contributions, err = api.treasurySvc.Chart(ectx, period)
		return errors.Wrap(err, "charting contributions")
	})
	if err = eg.Wait(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}
