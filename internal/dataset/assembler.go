package dataset

import (
	"context"
	"log/slog"
	"time"

	apperrors "ecomlytics/internal/errors"
	"ecomlytics/pkg/contracts/domain"
)

// Assembler joins the raw record sets into the denormalized analysis table
// and applies the window filter on the order purchase timestamp. It holds no
// state between calls; the same inputs always produce the same rows.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler creates an assembler
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// Assemble produces one analysis row per order item whose order was purchased
// inside the window. Order, product and customer references are inner joins:
// an item whose reference is missing yields no row. Reviews join left; a
// missing review leaves the score nil. A window matching zero rows is a valid
// empty result, not an error.
func (a *Assembler) Assemble(ctx context.Context, raw domain.RawSets, spec domain.WindowSpec) ([]domain.AnalysisRow, domain.Window, error) {
	start := time.Now()

	window, err := spec.Normalize()
	if err != nil {
		return nil, domain.Window{}, apperrors.NewConfigError("invalid window specification", err)
	}

	if err := validateRawSets(raw); err != nil {
		return nil, domain.Window{}, err
	}

	ordersByID := make(map[string]domain.Order, len(raw.Orders))
	for _, order := range raw.Orders {
		ordersByID[order.ID] = order
	}

	productsByID := make(map[string]domain.Product, len(raw.Products))
	for _, product := range raw.Products {
		productsByID[product.ID] = product
	}

	customersByID := make(map[string]domain.Customer, len(raw.Customers))
	for _, customer := range raw.Customers {
		customersByID[customer.ID] = customer
	}

	// First review wins when an order unexpectedly carries several
	reviewsByOrder := make(map[string]int, len(raw.Reviews))
	for _, review := range raw.Reviews {
		if _, ok := reviewsByOrder[review.OrderID]; !ok {
			reviewsByOrder[review.OrderID] = review.Score
		}
	}

	rows := make([]domain.AnalysisRow, 0, len(raw.OrderItems))
	var droppedRefs int

	for _, item := range raw.OrderItems {
		order, ok := ordersByID[item.OrderID]
		if !ok {
			droppedRefs++
			continue
		}
		if !window.Contains(order.PurchaseTimestamp) {
			continue
		}
		product, ok := productsByID[item.ProductID]
		if !ok {
			droppedRefs++
			continue
		}
		customer, ok := customersByID[order.CustomerID]
		if !ok {
			droppedRefs++
			continue
		}

		row := domain.AnalysisRow{
			OrderID:            item.OrderID,
			CustomerID:         order.CustomerID,
			Status:             order.Status,
			PurchaseTimestamp:  order.PurchaseTimestamp,
			DeliveredTimestamp: order.DeliveredTimestamp,
			ProductID:          item.ProductID,
			Category:           product.CategoryOrDefault(),
			CustomerState:      customer.State,
			CustomerCity:       customer.City,
			Price:              item.Price,
			FreightValue:       item.FreightValue,
		}
		if score, ok := reviewsByOrder[item.OrderID]; ok {
			s := score
			row.ReviewScore = &s
		}
		rows = append(rows, row)
	}

	if droppedRefs > 0 {
		a.logger.WarnContext(ctx, "dropped order items with unresolved references",
			slog.Int("count", droppedRefs))
	}

	a.logger.InfoContext(ctx, "analysis dataset assembled",
		slog.String("window", window.String()),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", time.Since(start)),
	)

	return rows, window, nil
}

// validateRawSets checks every required raw set is present. A nil slice
// marks an absent set; an empty one is a present set with no records.
func validateRawSets(raw domain.RawSets) error {
	sets := []struct {
		name   string
		absent bool
	}{
		{"orders", raw.Orders == nil},
		{"order items", raw.OrderItems == nil},
		{"products", raw.Products == nil},
		{"customers", raw.Customers == nil},
		{"reviews", raw.Reviews == nil},
	}
	for _, set := range sets {
		if set.absent {
			return apperrors.NewLoadError("required raw set "+set.name+" is absent", nil)
		}
	}
	return nil
}
