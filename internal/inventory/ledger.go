package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/pkg/db/models"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/metrics"
)

const (
	defaultMaxRetries = 5
	defaultRetryBase  = 10 * time.Millisecond
	maxBackoff        = 250 * time.Millisecond
	tracerName        = "github.com/handcar/handcar-backend/internal/inventory"

	// MaxQuantity bounds a single line and the total requested per product.
	MaxQuantity = 10000
)

var errVersionConflict = errors.New("product stock changed concurrently")

// Line requests Quantity units of ProductID.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// CommittedLine is a decremented line with the product data captured before the decrement.
type CommittedLine struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockRepository interface {
	LoadStock(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Product, error)
	DecrementIfVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, version, qty int) (bool, error)
}

type LedgerParams struct {
	DB         txRunner
	Stock      stockRepository
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	MaxRetries uint64
	RetryBase  time.Duration
}

// Ledger decrements stock atomically across a set of lines. Concurrent callers are
// serialized by the per-row version check; losers retry against fresh stock.
type Ledger struct {
	db         txRunner
	stock      stockRepository
	logg       *logger.Logger
	metrics    *metrics.Metrics
	maxRetries uint64
	retryBase  time.Duration
}

func NewLedger(params LedgerParams) (*Ledger, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxRetries := params.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	base := params.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	return &Ledger{
		db:         params.DB,
		stock:      params.Stock,
		logg:       params.Logger,
		metrics:    params.Metrics,
		maxRetries: maxRetries,
		retryBase:  base,
	}, nil
}

// ReserveAndDecrement commits lines on their own.
func (l *Ledger) ReserveAndDecrement(ctx context.Context, lines []Line) ([]CommittedLine, error) {
	return l.Commit(ctx, lines, nil)
}

// Commit decrements stock for lines and then runs then inside the same transaction.
// An error from then rolls the decrement back. then may run more than once when a
// concurrent writer forces a retry, so it must only write through tx.
func (l *Ledger) Commit(ctx context.Context, lines []Line, then func(tx *gorm.DB, committed []CommittedLine) error) ([]CommittedLine, error) {
	requested, ids, err := aggregate(lines)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "inventory.Commit")
	defer span.End()
	span.SetAttributes(attribute.Int("inventory.lines", len(lines)), attribute.Int("inventory.products", len(ids)))

	var committed []CommittedLine
	attempt := 0
	backoff := retry.WithMaxRetries(l.maxRetries,
		retry.WithCappedDuration(maxBackoff,
			retry.WithJitter(l.retryBase, retry.NewExponential(l.retryBase))))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			l.metrics.IncCASRetry()
		}
		txErr := l.db.WithTx(ctx, func(tx *gorm.DB) error {
			out, err := l.apply(ctx, tx, lines, requested, ids)
			if err != nil {
				return err
			}
			if then != nil {
				if err := then(tx, out); err != nil {
					return err
				}
			}
			committed = out
			return nil
		})
		if errors.Is(txErr, errVersionConflict) {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	span.SetAttributes(attribute.Int("inventory.attempts", attempt))
	if err == nil {
		return committed, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "inventory commit failed")
	if errors.Is(err, errVersionConflict) {
		l.metrics.IncCommitFailure(string(pkgerrors.CodeConcurrency))
		l.logg.Warn(l.logg.WithField(ctx, "attempts", attempt), "stock commit exhausted retries")
		return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "stock is changing too quickly, retry the request")
	}
	if typed := pkgerrors.As(err); typed != nil {
		l.metrics.IncCommitFailure(string(typed.Code()))
		return nil, err
	}
	l.metrics.IncCommitFailure(string(pkgerrors.CodeDependency))
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit stock")
}

// apply is one attempt. It returns errVersionConflict when any row moved underneath it.
func (l *Ledger) apply(ctx context.Context, tx *gorm.DB, lines []Line, requested map[uuid.UUID]int, ids []uuid.UUID) ([]CommittedLine, error) {
	rows, err := l.stock.LoadStock(ctx, tx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]string{"productId": line.ProductID.String()})
		}
		if want := requested[line.ProductID]; want > product.Stock {
			return nil, pkgerrors.InsufficientStock(line.ProductID.String(), want, product.Stock)
		}
	}

	for _, id := range ids {
		product := byID[id]
		ok, err := l.stock.DecrementIfVersion(ctx, tx, id, product.Version, requested[id])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !ok {
			return nil, errVersionConflict
		}
	}

	out := make([]CommittedLine, 0, len(lines))
	for _, line := range lines {
		product := byID[line.ProductID]
		out = append(out, CommittedLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
	}
	return out, nil
}

// aggregate validates lines and sums quantities per product. ids come back in
// ascending order, the order in which rows are updated.
func aggregate(lines []Line) (map[uuid.UUID]int, []uuid.UUID, error) {
	if len(lines) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	requested := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: productId is required", i)
		}
		if line.Quantity < 1 {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity must be at least 1", i).
				WithDetails(map[string]any{"productId": line.ProductID.String(), "quantity": line.Quantity})
		}
		total, seen := requested[line.ProductID]
		if !seen {
			ids = append(ids, line.ProductID)
		}
		if line.Quantity > MaxQuantity-total {
			return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d: quantity per product must not exceed %d", i, MaxQuantity).
				WithDetails(map[string]any{"productId": line.ProductID.String(), "max": MaxQuantity})
		}
		requested[line.ProductID] = total + line.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return requested, ids, nil
}
