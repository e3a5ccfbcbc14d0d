package orders

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/handcar/handcar-backend/internal/addresses"
	"github.com/handcar/handcar-backend/internal/inventory"
	"github.com/handcar/handcar-backend/internal/notifications"
	"github.com/handcar/handcar-backend/pkg/db"
	"github.com/handcar/handcar-backend/pkg/db/models"
	"github.com/handcar/handcar-backend/pkg/enums"
	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"github.com/handcar/handcar-backend/pkg/logger"
	"github.com/handcar/handcar-backend/pkg/metrics"
	"github.com/handcar/handcar-backend/pkg/outbox"
	"github.com/handcar/handcar-backend/pkg/outbox/payloads"
	"github.com/handcar/handcar-backend/pkg/pagination"
	"github.com/handcar/handcar-backend/pkg/types"
)

const tracerName = "github.com/handcar/handcar-backend/internal/orders"

// Service orchestrates order placement and the fulfilment lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string, actor *Actor) (*OrderDTO, error)
	Get(ctx context.Context, orderID, customerID uuid.UUID) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error)
	ListAll(ctx context.Context, input ListAllInput) (*OrderList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

type stockLedger interface {
	Commit(ctx context.Context, lines []inventory.Line, then func(tx *gorm.DB, committed []inventory.CommittedLine) error) ([]inventory.CommittedLine, error)
}

type addressBook interface {
	Get(ctx context.Context, customerID, addressID uuid.UUID) (*addresses.AddressDTO, error)
}

type cartStore interface {
	Lines(ctx context.Context, customerID uuid.UUID) ([]inventory.Line, error)
	Clear(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) error
}

type ServiceParams struct {
	Repo    Repository
	DB      txRunner
	Ledger  stockLedger
	Cart      cartStore
	Addresses addressBook
	Outbox    outboxPublisher
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
}

type service struct {
	repo    Repository
	tx      txRunner
	ledger  stockLedger
	cart      cartStore
	addresses addressBook
	outbox    outboxPublisher
	logg      *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewService wires the order dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Addresses == nil {
		return nil, fmt.Errorf("address book required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.DB,
		ledger:    params.Ledger,
		cart:      params.Cart,
		addresses: params.Addresses,
		outbox:    params.Outbox,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}, nil
}

// PlaceOrder decrements stock, persists the order, clears the cart and queues
// order_placed in a single transaction. Totals are always computed here.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity required")
	}
	contactName := strings.TrimSpace(input.ContactName)
	contact := strings.TrimSpace(input.Contact)
	address := strings.TrimSpace(input.Address)
	if input.AddressID != nil {
		entry, err := s.addresses.Get(ctx, input.CustomerID, *input.AddressID)
		if err != nil {
			return nil, err
		}
		address = entry.Line()
		if contactName == "" {
			contactName = entry.Name
		}
		if contact == "" {
			contact = entry.Phone
		}
	}
	if contactName == "" || contact == "" || address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contactName, contact and address are required")
	}
	coupon, err := normalizeCoupon(input.Coupon)
	if err != nil {
		return nil, err
	}

	lines := input.Lines
	if len(lines) == 0 {
		lines, err = s.cart.Lines(ctx, input.CustomerID)
		if err != nil {
			return nil, err
		}
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "orders.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int("orders.lines", len(lines)))

	var placed models.Order
	_, err = s.ledger.Commit(ctx, lines, func(tx *gorm.DB, committed []inventory.CommittedLine) error {
		snapshot, err := buildSnapshot(committed, coupon)
		if err != nil {
			return err
		}
		encoded, err := snapshot.Encode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order snapshot")
		}

		now := s.now()
		order := models.Order{
			ID:          uuid.New(),
			CustomerID:  input.CustomerID,
			ContactName: contactName,
			Contact:     contact,
			Address:     address,
			AddressID:   input.AddressID,
			Snapshot:    encoded,
			TotalPrice:  snapshot.Total.Decimal,
			Status:      enums.OrderStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.cart.Clear(ctx, tx, input.CustomerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		itemCount := 0
		for _, line := range committed {
			itemCount += line.Quantity
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.CustomerID, Role: enums.RoleCustomer.String()},
			Data: payloads.OrderPlacedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				TotalPrice: snapshot.Total.String(),
				ItemCount:  itemCount,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order placed")
		}
		placed = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("orders.id", placed.ID.String()))

	s.metrics.IncOrdersPlaced()
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":    placed.ID.String(),
		"customer_id": placed.CustomerID.String(),
		"total":       placed.TotalPrice.StringFixed(2),
	})
	s.logg.Info(ctx, "order placed")

	dto, err := toDTO(placed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order snapshot")
	}
	return &dto, nil
}

// UpdateStatus advances the order exactly one step. Entering confirmed also queues
// the invoice notification.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string, actor *Actor) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
			WithDetails(map[string]any{"allowed": enums.OrderStatuses()})
	}

	var updated models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		from := order.Status
		if !from.CanTransitionTo(target) {
			return transitionConflict(from, target)
		}
		now := s.now()
		ok, err := repo.TransitionStatus(ctx, order.ID, from, target, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return transitionConflict(from, target)
		}
		order.Status = target
		order.UpdatedAt = now

		events := []outbox.DomainEvent{{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				From:       from,
				To:         target,
			},
		}}
		if target == enums.OrderStatusConfirmed {
			confirmed, err := confirmedEvent(*order, actor)
			if err != nil {
				return err
			}
			events = append(events, confirmed)
		}
		if err := s.outbox.Emit(ctx, tx, events...); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit status change")
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(target.String())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": updated.ID.String(),
		"status":   target.String(),
	})
	s.logg.Info(ctx, "order status updated")

	dto, err := toDTO(updated)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order snapshot")
	}
	return &dto, nil
}

// confirmedEvent carries the rendered invoice so the notifier needs no DB access.
func confirmedEvent(order models.Order, actor *Actor) (outbox.DomainEvent, error) {
	snapshot, err := types.DecodeOrderSnapshot(order.Snapshot)
	if err != nil {
		return outbox.DomainEvent{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order snapshot")
	}
	invoice := notifications.RenderInvoice(snapshot, notifications.InvoiceOrder{
		ID:          order.ID,
		ContactName: order.ContactName,
		Contact:     order.Contact,
		Address:     order.Address,
		CreatedAt:   order.CreatedAt,
	})
	return outbox.DomainEvent{
		EventType:     enums.EventOrderConfirmed,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Data: payloads.OrderConfirmedEvent{
			OrderID:         order.ID,
			CustomerID:      order.CustomerID,
			ContactName:     order.ContactName,
			Contact:         order.Contact,
			InvoiceFilename: notifications.InvoiceFilename(order.ID),
			InvoiceBase64:   base64.StdEncoding.EncodeToString(invoice),
			ConfirmedAt:     order.UpdatedAt,
		},
	}, nil
}

// Get returns the order when it belongs to customerID.
func (s *service) Get(ctx context.Context, orderID, customerID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto, err := toDTO(*order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order snapshot")
	}
	return &dto, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toDTOs(rows)
}

func (s *service) ListAll(ctx context.Context, input ListAllInput) (*OrderList, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *input.Status)
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListQuery{
		Status: input.Status,
		Cursor: cursor,
		Limit:  pagination.LimitWithBuffer(input.Limit),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	out := &OrderList{}
	rows, out.NextCursor = pagination.Trim(rows, input.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	out.Orders, err = toDTOs(rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toDTOs(rows []models.Order) ([]OrderDTO, error) {
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := toDTO(row)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order snapshot").
				WithDetails(map[string]string{"orderId": row.ID.String()})
		}
		out = append(out, dto)
	}
	return out, nil
}

func normalizeCoupon(coupon *CouponInput) (*types.SnapshotCoupon, error) {
	if coupon == nil {
		return nil, nil
	}
	code := strings.TrimSpace(coupon.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if coupon.DiscountAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon discount must not be negative")
	}
	return &types.SnapshotCoupon{
		Code:           code,
		Name:           strings.TrimSpace(coupon.Name),
		DiscountAmount: types.NewMoney(coupon.DiscountAmount.Decimal),
	}, nil
}

func buildSnapshot(committed []inventory.CommittedLine, coupon *types.SnapshotCoupon) (types.OrderSnapshot, error) {
	lines := make([]types.SnapshotLine, 0, len(committed))
	for _, line := range committed {
		lines = append(lines, types.SnapshotLine{
			ProductID: line.ProductID.String(),
			Name:      line.Name,
			UnitPrice: types.NewMoney(line.UnitPrice),
			Quantity:  line.Quantity,
		})
	}
	snapshot := types.NewOrderSnapshot(lines, coupon)
	if snapshot.Total.IsNegative() {
		return types.OrderSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon discount exceeds order subtotal").
			WithDetails(map[string]string{
				"subtotal": snapshot.Subtotal.String(),
				"discount": snapshot.Discount.String(),
			})
	}
	return snapshot, nil
}

func transitionConflict(from, to enums.OrderStatus) error {
	details := map[string]string{"from": from.String(), "to": to.String()}
	if next, ok := from.Next(); ok {
		details["allowed"] = next.String()
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot move from %s to %s", from, to).
		WithDetails(details)
}
