package dataset

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ecomlytics/internal/errors"
	"ecomlytics/internal/shared/testutil"
	"ecomlytics/pkg/contracts/domain"
)

func ts(day int) time.Time {
	return time.Date(2023, 6, day, 12, 0, 0, 0, time.UTC)
}

func testRawSets() domain.RawSets {
	delivered := ts(5).Add(96 * time.Hour)
	return domain.RawSets{
		Orders: []domain.Order{
			{ID: "O1", CustomerID: "C1", Status: domain.OrderStatusDelivered, PurchaseTimestamp: ts(5), DeliveredTimestamp: &delivered},
			{ID: "O2", CustomerID: "C2", Status: domain.OrderStatusCanceled, PurchaseTimestamp: ts(10)},
			{ID: "O3", CustomerID: "C1", Status: domain.OrderStatusDelivered, PurchaseTimestamp: time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)},
		},
		OrderItems: []domain.OrderItem{
			{OrderID: "O1", ProductID: "P1", Price: 100, FreightValue: 10},
			{OrderID: "O1", ProductID: "P2", Price: 20, FreightValue: 2},
			{OrderID: "O2", ProductID: "P1", Price: 50, FreightValue: 5},
			{OrderID: "O3", ProductID: "P1", Price: 70, FreightValue: 7}, // outside June
			{OrderID: "O9", ProductID: "P1", Price: 1, FreightValue: 1}, // unknown order
		},
		Products: []domain.Product{
			{ID: "P1", Category: "toys"},
			{ID: "P2"}, // no category
		},
		Customers: []domain.Customer{
			{ID: "C1", State: "SP", City: "sao paulo"},
			{ID: "C2", State: "RJ", City: "rio de janeiro"},
		},
		Reviews: []domain.Review{
			{OrderID: "O1", Score: 5},
		},
	}
}

func TestAssembler_Assemble(t *testing.T) {
	rows, window, err := NewAssembler(nil).Assemble(context.Background(), testRawSets(), domain.NewMonthSpec(2023, 6))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), window.Start)
	require.Len(t, rows, 3)

	// O1 items enriched with order, product, customer and review data
	first := rows[0]
	assert.Equal(t, "O1", first.OrderID)
	assert.Equal(t, domain.OrderStatusDelivered, first.Status)
	assert.Equal(t, "toys", first.Category)
	assert.Equal(t, "SP", first.CustomerState)
	require.NotNil(t, first.ReviewScore)
	assert.Equal(t, 5, *first.ReviewScore)
	require.NotNil(t, first.DeliveredTimestamp)

	// missing category becomes the explicit uncategorized label
	assert.Equal(t, domain.UncategorizedLabel, rows[1].Category)

	// canceled order still yields rows (status filtering is per-metric), no review
	third := rows[2]
	assert.Equal(t, "O2", third.OrderID)
	assert.Equal(t, domain.OrderStatusCanceled, third.Status)
	assert.Nil(t, third.ReviewScore)
	assert.Nil(t, third.DeliveredTimestamp)
}

func TestAssembler_WindowFiltersOnPurchaseTimestamp(t *testing.T) {
	rows, _, err := NewAssembler(nil).Assemble(context.Background(), testRawSets(), domain.NewMonthSpec(2023, 8))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "O3", rows[0].OrderID)
}

func TestAssembler_EmptyWindowIsNotAnError(t *testing.T) {
	rows, _, err := NewAssembler(nil).Assemble(context.Background(), testRawSets(), domain.NewYearSpec(2019))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAssembler_AbsentRawSetFails(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawSets)
	}{
		{"orders", func(r *domain.RawSets) { r.Orders = nil }},
		{"order items", func(r *domain.RawSets) { r.OrderItems = nil }},
		{"products", func(r *domain.RawSets) { r.Products = nil }},
		{"customers", func(r *domain.RawSets) { r.Customers = nil }},
		{"reviews", func(r *domain.RawSets) { r.Reviews = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := testRawSets()
			tt.mutate(&raw)

			_, _, err := NewAssembler(nil).Assemble(context.Background(), raw, domain.NewYearSpec(2023))
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeLoad, appErr.Type)
		})
	}
}

func TestAssembler_InvalidWindowSpecFails(t *testing.T) {
	_, _, err := NewAssembler(nil).Assemble(context.Background(), testRawSets(), domain.WindowSpec{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
}

func TestAssembler_WarnsOnUnresolvedReferences(t *testing.T) {
	handler := testutil.NewBufferedSlogHandler(t)

	// the fixture contains one order item referencing an unknown order
	_, _, err := NewAssembler(slog.New(handler)).Assemble(
		context.Background(), testRawSets(), domain.NewYearSpec(2023))
	require.NoError(t, err)

	assert.True(t, handler.ContainsMessage("dropped order items"))
	assert.True(t, handler.ContainsAttr("count", int64(1)))
	assert.Len(t, handler.RecordsByLevel(slog.LevelWarn), 1, "one warning per dropped set")
}

func TestAssembler_Deterministic(t *testing.T) {
	raw := testRawSets()
	spec := domain.NewMonthSpec(2023, 6)

	first, _, err := NewAssembler(nil).Assemble(context.Background(), raw, spec)
	require.NoError(t, err)
	second, _, err := NewAssembler(nil).Assemble(context.Background(), raw, spec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
