package treasury

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/cache"
)

// cache keys
const (
	collectionsKey        = "collections"
	contributionsKey      = "contributions"
	chartKey              = "contributions_chart"
	totalKey              = "contributions_total"
	categoriesKey         = "contribution_categories"
	categoriesChartKey    = "contribution_categories_all_chart"
	paybillKey            = "paybill_transactions"
	transactionsKeyPrefix = "transactions_"
)

var (
	collectionsPattern   = regexp.MustCompile(`^collections`)
	contributionsPattern = regexp.MustCompile(`^contributions`)
	categoriesPattern    = regexp.MustCompile(`^contribution_categories`)
	transactionsPattern  = regexp.MustCompile(`^transactions`)

	ErrTransactionPending = errors.New("transaction not completed, please try again")
)

type (
	Repository interface {
		QueryAllCategories(ctx context.Context) ([]Category, error)
		GetCategory(ctx context.Context, id int) (Category, error)
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		UpdateCategory(ctx context.Context, id int, nc NewCategory) (Category, error)
		DeleteCategory(ctx context.Context, id int) error
		CategoryChart(ctx context.Context, id int) ([]Point, error)
		CategoriesChart(ctx context.Context) ([]CategoryPoints, error)

		QueryAllCollections(ctx context.Context) ([]Collection, error)
		GetCollection(ctx context.Context, date string) (Collection, error)
		QueryAllContributions(ctx context.Context) ([]Contribution, error)
		ContributionChart(ctx context.Context) ([]Point, error)
		CollectionTotal(ctx context.Context) (CollectionTotal, error)
		AddContributions(ctx context.Context, cb ContributionBatch) error
		AddMpesaContributions(ctx context.Context, cb ContributionBatch) error
		DeleteCollection(ctx context.Context, id int) error
		MailCollection(ctx context.Context, id int) error

		// TransactionStatus reports the Mpesa status of the session user's last contribution.
		TransactionStatus(ctx context.Context) (TransactionStatus, error)
		QueryAllPaybillTransactions(ctx context.Context) ([]PaybillTransaction, error)
	}

	// TTLs per kind of data.
	TTLs struct {
		Default      time.Duration
		Reference    time.Duration
		Transactions time.Duration
	}

	// Polling drives WaitTransaction.
	Polling struct {
		Delay    time.Duration // grace period for the member to enter their Mpesa pin
		Interval time.Duration
		Attempts int
	}

	Service struct {
		repo    Repository
		cache   *cache.Cache
		ttls    TTLs
		polling Polling
	}

	// ContributionPage is a page of filtered contributions plus the total of all matches.
	ContributionPage struct {
		core.Page[Contribution]
		Total decimal.Decimal `json:"total_amount"`
	}

	PaybillPage struct {
		core.Page[PaybillTransaction]
		Total decimal.Decimal `json:"total_amount"`
	}
)

// DefaultPolling waits 10s then checks the status every 5s, 8 times at most.
var DefaultPolling = Polling{Delay: 10 * time.Second, Interval: 5 * time.Second, Attempts: 8}

func NewService(repo Repository, c *cache.Cache, ttls TTLs, polling Polling) *Service {
	return &Service{repo: repo, cache: c, ttls: ttls, polling: polling}
}

// Categories

func (svc *Service) Categories(ctx context.Context) ([]Category, error) {
	cats, err := cache.Fetch(ctx, svc.cache, categoriesKey, svc.ttls.Reference, svc.repo.QueryAllCategories)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []Category{}
	}
	return cats, nil
}

// ActiveCategories leaves out archived categories.
func (svc *Service) ActiveCategories(ctx context.Context) ([]Category, error) {
	cats, err := svc.Categories(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Category, 0, len(cats))
	for _, c := range cats {
		if !c.Archived {
			active = append(active, c)
		}
	}
	return active, nil
}

// Category returns the category with its contributions.
func (svc *Service) Category(ctx context.Context, id int) (Category, error) {
	key := categoriesKey + "_" + strconv.Itoa(id)
	return cache.Fetch(ctx, svc.cache, key, svc.ttls.Default, func(ctx context.Context) (Category, error) {
		return svc.repo.GetCategory(ctx, id)
	})
}

func (svc *Service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	cat, err := svc.repo.CreateCategory(ctx, nc)
	if err != nil {
		return Category{}, err
	}
	svc.cache.ClearPattern(ctx, categoriesPattern)
	return cat, nil
}

func (svc *Service) UpdateCategory(ctx context.Context, id int, nc NewCategory) (Category, error) {
	cat, err := svc.repo.UpdateCategory(ctx, id, nc)
	if err != nil {
		return Category{}, err
	}
	svc.cache.ClearPattern(ctx, categoriesPattern)
	return cat, nil
}

func (svc *Service) DeleteCategory(ctx context.Context, id int) error {
	if err := svc.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	svc.cache.ClearPattern(ctx, categoriesPattern)
	return nil
}

func (svc *Service) CategoryChart(ctx context.Context, id int, period Period) (Series, error) {
	key := categoriesKey + "_chart_" + strconv.Itoa(id)
	points, err := cache.Fetch(ctx, svc.cache, key, svc.ttls.Default, func(ctx context.Context) ([]Point, error) {
		return svc.repo.CategoryChart(ctx, id)
	})
	if err != nil {
		return Series{}, err
	}
	return Aggregate(points, period), nil
}

// CategoriesChart aggregates the contributions of every category.
func (svc *Service) CategoriesChart(ctx context.Context, period Period) ([]CategorySeries, error) {
	cats, err := cache.Fetch(ctx, svc.cache, categoriesChartKey, svc.ttls.Default, svc.repo.CategoriesChart)
	if err != nil {
		return nil, err
	}
	series := make([]CategorySeries, 0, len(cats))
	for _, c := range cats {
		series = append(series, CategorySeries{ID: c.ID, Name: c.Name, Series: Aggregate(c.Contributions, period)})
	}
	return series, nil
}

// Collections

func (svc *Service) Collections(ctx context.Context) ([]Collection, error) {
	cols, err := cache.Fetch(ctx, svc.cache, collectionsKey, svc.ttls.Default, svc.repo.QueryAllCollections)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		cols = []Collection{}
	}
	return cols, nil
}

// Collection returns the collection of date (YYYY-MM-DD).
func (svc *Service) Collection(ctx context.Context, date string) (Collection, error) {
	return cache.Fetch(ctx, svc.cache, collectionsKey+"_"+date, svc.ttls.Default, func(ctx context.Context) (Collection, error) {
		return svc.repo.GetCollection(ctx, date)
	})
}

// FilteredContributions returns every contribution matching f, newest first, and their total.
func (svc *Service) FilteredContributions(ctx context.Context, f Filter) ([]Contribution, decimal.Decimal, error) {
	contribs, err := cache.Fetch(ctx, svc.cache, contributionsKey, svc.ttls.Default, svc.repo.QueryAllContributions)
	if err != nil {
		return nil, decimal.Zero, err
	}
	filtered, total := FilterContributions(contribs, f)
	return filtered, total, nil
}

func (svc *Service) Contributions(ctx context.Context, f Filter, page, size int) (ContributionPage, error) {
	filtered, total, err := svc.FilteredContributions(ctx, f)
	if err != nil {
		return ContributionPage{}, err
	}
	return ContributionPage{Page: core.Paginate(filtered, page, size), Total: total}, nil
}

func (svc *Service) Chart(ctx context.Context, period Period) (Series, error) {
	points, err := cache.Fetch(ctx, svc.cache, chartKey, svc.ttls.Default, svc.repo.ContributionChart)
	if err != nil {
		return Series{}, err
	}
	return Aggregate(points, period), nil
}

func (svc *Service) Total(ctx context.Context) (CollectionTotal, error) {
	return cache.Fetch(ctx, svc.cache, totalKey, svc.ttls.Default, svc.repo.CollectionTotal)
}

// AddContributions records contributions on behalf of members.
func (svc *Service) AddContributions(ctx context.Context, cb ContributionBatch) error {
	if err := svc.repo.AddContributions(ctx, cb); err != nil {
		return err
	}
	svc.cache.ClearPattern(ctx, contributionsPattern, collectionsPattern)
	return nil
}

func (svc *Service) DeleteCollection(ctx context.Context, id int) error {
	if err := svc.repo.DeleteCollection(ctx, id); err != nil {
		return err
	}
	svc.cache.ClearPattern(ctx, collectionsPattern, contributionsPattern)
	return nil
}

// MailCollection asks the church API to email the collection report.
func (svc *Service) MailCollection(ctx context.Context, id int) error {
	return svc.repo.MailCollection(ctx, id)
}

// Self service

// AddMpesaContributions starts an Mpesa payment for userID's own contributions.
// The user of every contribution is forced to userID.
func (svc *Service) AddMpesaContributions(ctx context.Context, userID int, cb ContributionBatch) error {
	if err := svc.repo.AddMpesaContributions(ctx, cb.ForUser(userID)); err != nil {
		return err
	}
	svc.cache.ClearPattern(ctx, contributionsPattern, collectionsPattern, transactionsPattern)
	return nil
}

func (svc *Service) TransactionStatus(ctx context.Context, userID int) (TransactionStatus, error) {
	key := transactionsKeyPrefix + strconv.Itoa(userID)
	return cache.Fetch(ctx, svc.cache, key, svc.ttls.Transactions, svc.repo.TransactionStatus)
}

// WaitTransaction polls the church API until the Mpesa payment of userID settles.
// It returns ErrTransactionPending when every attempt saw a pending status.
func (svc *Service) WaitTransaction(ctx context.Context, userID int) (TransactionStatus, error) {
	timer := time.NewTimer(svc.polling.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return TransactionStatus{}, ctx.Err()
	case <-timer.C:
	}

	ticker := time.NewTicker(svc.polling.Interval)
	defer ticker.Stop()

	var last TransactionStatus
	for attempt := 1; attempt <= svc.polling.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-ticker.C:
			}
		}

		status, err := svc.repo.TransactionStatus(ctx)
		if err != nil {
			return last, errors.Wrap(err, "fetching transaction status")
		}
		last = status
		if status.Settled() {
			svc.cache.Clear(ctx, transactionsKeyPrefix+strconv.Itoa(userID))
			return status, nil
		}
	}
	return last, ErrTransactionPending
}

// Paybill

func (svc *Service) FilteredPaybill(ctx context.Context, f Filter) ([]PaybillTransaction, decimal.Decimal, error) {
	txns, err := cache.Fetch(ctx, svc.cache, paybillKey, svc.ttls.Default, svc.repo.QueryAllPaybillTransactions)
	if err != nil {
		return nil, decimal.Zero, err
	}
	filtered, total := FilterPaybill(txns, f)
	return filtered, total, nil
}

func (svc *Service) PaybillTransactions(ctx context.Context, f Filter, page, size int) (PaybillPage, error) {
	filtered, total, err := svc.FilteredPaybill(ctx, f)
	if err != nil {
		return PaybillPage{}, err
	}
	return PaybillPage{Page: core.Paginate(filtered, page, size), Total: total}, nil
}
