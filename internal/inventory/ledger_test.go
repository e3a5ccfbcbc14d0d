package inventory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/internal/products"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/dbtest"
	"github.com/handcar/handcar-backend/pkg/db/models"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/metrics"
)

// flakyStock loses the compare-and-set race a fixed number of times.
type flakyStock struct {
	*products.Repository
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyStock) DecrementIfVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, version, qty int) (bool, error) {
	f.mu.Lock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return false, nil
	}
	f.mu.Unlock()
	return f.Repository.DecrementIfVersion(ctx, tx, id, version, qty)
}

func newLedger(t *testing.T, client *db.Client, stock stockRepository, maxRetries uint64) *Ledger {
	t.Helper()
	ledger, err := NewLedger(LedgerParams{
		DB:         client,
		Stock:      stock,
		Logger:     logger.Nop(),
		MaxRetries: maxRetries,
		RetryBase:  time.Millisecond,
	})
	require.NoError(t, err)
	return ledger
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, stock int, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestReserveAndDecrementCapturesPriceAndDecrements(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ledger := newLedger(t, client, products.NewRepository(conn), 3)

	a := seedProduct(t, conn, "Air filter", 5, "35.50")
	b := seedProduct(t, conn, "Coolant", 2, "18.00")

	committed, err := ledger.ReserveAndDecrement(context.Background(), []Line{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
		{ProductID: a.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, committed, 3)
	assert.Equal(t, a.ID, committed[0].ProductID)
	assert.Equal(t, "Air filter", committed[0].Name)
	assert.True(t, decimal.RequireFromString("35.50").Equal(committed[0].UnitPrice))
	assert.Equal(t, 1, committed[2].Quantity)

	assert.Equal(t, 2, stockOf(t, conn, a.ID))
	assert.Equal(t, 0, stockOf(t, conn, b.ID))
}

func TestAggregatedLinesExceedingStockDecrementNothing(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ledger := newLedger(t, client, products.NewRepository(conn), 3)

	a := seedProduct(t, conn, "Wheel nut", 10, "2.00")
	b := seedProduct(t, conn, "Fuse", 3, "1.00")

	_, err := ledger.ReserveAndDecrement(context.Background(), []Line{
		{ProductID: a.ID, Quantity: 4},
		{ProductID: b.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	details, ok := typed.Details().(pkgerrors.StockDetails)
	require.True(t, ok, "details %T", typed.Details())
	assert.Equal(t, b.ID.String(), details.ProductID)

	assert.Equal(t, 10, stockOf(t, conn, a.ID))
	assert.Equal(t, 3, stockOf(t, conn, b.ID))
}

func TestCommitRollsBackWhenFollowUpFails(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ledger := newLedger(t, client, products.NewRepository(conn), 3)
	a := seedProduct(t, conn, "Horn", 4, "60.00")

	boom := errors.New("persist failed")
	_, err := ledger.Commit(context.Background(), []Line{{ProductID: a.ID, Quantity: 1}}, func(tx *gorm.DB, committed []CommittedLine) error {
		require.Len(t, committed, 1)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 4, stockOf(t, conn, a.ID))
}

func TestCommitValidation(t *testing.T) {
	client := dbtest.Client(t)
	ledger := newLedger(t, client, products.NewRepository(client.DB()), 3)
	ctx := context.Background()

	cases := map[string][]Line{
		"empty":         nil,
		"zero quantity": {{ProductID: uuid.New(), Quantity: 0}},
		"nil product":   {{Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ledger.ReserveAndDecrement(ctx, lines)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	_, err := ledger.ReserveAndDecrement(ctx, []Line{{ProductID: uuid.New(), Quantity: 1}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestCommitRejectsQuantitiesAboveTheBound(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ledger := newLedger(t, client, products.NewRepository(conn), 3)
	a := seedProduct(t, conn, "Spark plug", 5, "12.00")
	ctx := context.Background()

	cases := map[string][]Line{
		"wrapping sum": {
			{ProductID: a.ID, Quantity: math.MaxInt},
			{ProductID: a.ID, Quantity: math.MaxInt},
		},
		"single line":   {{ProductID: a.ID, Quantity: MaxQuantity + 1}},
		"split product": {{ProductID: a.ID, Quantity: MaxQuantity}, {ProductID: a.ID, Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ledger.ReserveAndDecrement(ctx, lines)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			assert.Equal(t, 5, stockOf(t, conn, a.ID))
		})
	}

	_, err := ledger.ReserveAndDecrement(ctx, []Line{{ProductID: a.ID, Quantity: 3}, {ProductID: a.ID, Quantity: 3}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	assert.Equal(t, 5, stockOf(t, conn, a.ID))
}

func TestCommitFailureMetricMatchesReturnedCode(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	reg := prometheus.NewRegistry()
	ledger, err := NewLedger(LedgerParams{
		DB:      client,
		Stock:   products.NewRepository(conn),
		Logger:  logger.Nop(),
		Metrics: metrics.New(reg),
	})
	require.NoError(t, err)
	a := seedProduct(t, conn, "Fuse", 4, "2.00")

	_, err = ledger.Commit(context.Background(), []Line{{ProductID: a.ID, Quantity: 1}}, func(*gorm.DB, []CommittedLine) error {
		return errors.New("disk full")
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(1), commitFailures(mfs, string(pkgerrors.CodeDependency)))
	assert.Zero(t, commitFailures(mfs, string(pkgerrors.CodeInternal)))
}

func commitFailures(mfs []*dto.MetricFamily, reason string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != "inventory_commit_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" && lp.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCommitRetriesLostRace(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	stock := &flakyStock{Repository: products.NewRepository(conn), failures: 2}
	ledger := newLedger(t, client, stock, 3)
	a := seedProduct(t, conn, "Mirror", 3, "75.00")

	_, err := ledger.ReserveAndDecrement(context.Background(), []Line{{ProductID: a.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 3, stock.calls)
	assert.Equal(t, 2, stockOf(t, conn, a.ID))
}

func TestCommitExhaustedRetriesIsConcurrencyError(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	stock := &flakyStock{Repository: products.NewRepository(conn), failures: 100}
	ledger := newLedger(t, client, stock, 2)
	a := seedProduct(t, conn, "Jack", 3, "90.00")

	_, err := ledger.ReserveAndDecrement(context.Background(), []Line{{ProductID: a.ID, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConcurrency), "got %v", err)
	assert.Equal(t, 3, stock.calls)
	assert.Equal(t, 3, stockOf(t, conn, a.ID))
}

// The sqlite test pool holds one connection, so the two commits below run one
// after the other and the loser sees stock 0 on its first read. The lost
// compare-and-set path is covered by TestCommitRetriesLostRace.
func TestConcurrentCommitsForLastUnit(t *testing.T) {
	client := dbtest.Client(t)
	conn := client.DB()
	ledger := newLedger(t, client, products.NewRepository(conn), 5)
	a := seedProduct(t, conn, "Last tyre", 1, "400.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.ReserveAndDecrement(context.Background(), []Line{{ProductID: a.ID, Quantity: 1}})
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, stockOf(t, conn, a.ID))
}
