// Package dataset loads the raw e-commerce record sets and assembles them
// into the denormalized analysis table the metrics engine consumes.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "ecomlytics/internal/errors"
	"ecomlytics/pkg/contracts/domain"
)

// Raw set file names inside the data directory
const (
	ordersFile     = "orders_dataset.csv"
	orderItemsFile = "order_items_dataset.csv"
	productsFile   = "products_dataset.csv"
	customersFile  = "customers_dataset.csv"
	reviewsFile    = "order_reviews_dataset.csv"
)

// Timestamp layouts accepted in the raw CSVs
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Loader reads the five raw record sets from a directory of CSV files.
// A missing file or a schema violation (missing column, unparsable value)
// is fatal; no partial load is returned.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads all raw sets from dir
func (l *Loader) Load(ctx context.Context, dir string) (domain.RawSets, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return domain.RawSets{}, err
	}

	l.logger.InfoContext(ctx, "loading raw record sets", slog.String("dir", dir))

	if _, err := os.Stat(dir); err != nil {
		return domain.RawSets{}, apperrors.NewLoadError(fmt.Sprintf("data directory %s is not accessible", dir), err)
	}

	var raw domain.RawSets
	var err error

	if raw.Orders, err = l.loadOrders(filepath.Join(dir, ordersFile)); err != nil {
		return domain.RawSets{}, err
	}
	if raw.OrderItems, err = l.loadOrderItems(filepath.Join(dir, orderItemsFile)); err != nil {
		return domain.RawSets{}, err
	}
	if raw.Products, err = l.loadProducts(filepath.Join(dir, productsFile)); err != nil {
		return domain.RawSets{}, err
	}
	if raw.Customers, err = l.loadCustomers(filepath.Join(dir, customersFile)); err != nil {
		return domain.RawSets{}, err
	}
	if raw.Reviews, err = l.loadReviews(filepath.Join(dir, reviewsFile)); err != nil {
		return domain.RawSets{}, err
	}

	l.logger.InfoContext(ctx, "raw record sets loaded",
		slog.Int("orders", len(raw.Orders)),
		slog.Int("order_items", len(raw.OrderItems)),
		slog.Int("products", len(raw.Products)),
		slog.Int("customers", len(raw.Customers)),
		slog.Int("reviews", len(raw.Reviews)),
		slog.Duration("duration", time.Since(start)),
	)

	return raw, nil
}

// table is one parsed CSV file with header-indexed column access
type table struct {
	file    string
	columns map[string]int
	rows    [][]string
}

// readTable parses a CSV file and validates the required columns are present
func readTable(path string, required []string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewLoadError(fmt.Sprintf("required raw set %s is missing", filepath.Base(path)), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: cannot read header", filepath.Base(path)), err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("%s: required column %q is missing", filepath.Base(path), name), nil)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s: malformed CSV", filepath.Base(path)), err)
		}
		rows = append(rows, record)
	}

	return &table{file: filepath.Base(path), columns: columns, rows: rows}, nil
}

func (t *table) get(row []string, column string) string {
	idx := t.columns[column]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (t *table) rowError(line int, column, message string, cause error) error {
	return apperrors.NewParsingError(
		fmt.Sprintf("%s row %d: column %q %s", t.file, line, column, message), cause)
}

func (l *Loader) loadOrders(path string) ([]domain.Order, error) {
	t, err := readTable(path, []string{
		"order_id", "customer_id", "order_status",
		"order_purchase_timestamp", "order_delivered_customer_date",
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(t.rows))
	for i, row := range t.rows {
		purchase, err := parseTimestamp(t.get(row, "order_purchase_timestamp"))
		if err != nil {
			return nil, t.rowError(i+2, "order_purchase_timestamp", "is not a timestamp", err)
		}
		order := domain.Order{
			ID:                t.get(row, "order_id"),
			CustomerID:        t.get(row, "customer_id"),
			Status:            domain.OrderStatus(t.get(row, "order_status")),
			PurchaseTimestamp: purchase,
		}
		if raw := t.get(row, "order_delivered_customer_date"); raw != "" {
			delivered, err := parseTimestamp(raw)
			if err != nil {
				return nil, t.rowError(i+2, "order_delivered_customer_date", "is not a timestamp", err)
			}
			order.DeliveredTimestamp = &delivered
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (l *Loader) loadOrderItems(path string) ([]domain.OrderItem, error) {
	t, err := readTable(path, []string{"order_id", "product_id", "price", "freight_value"})
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(t.rows))
	for i, row := range t.rows {
		price, err := parseNonNegative(t.get(row, "price"))
		if err != nil {
			return nil, t.rowError(i+2, "price", "is not a non-negative number", err)
		}
		freight, err := parseNonNegative(t.get(row, "freight_value"))
		if err != nil {
			return nil, t.rowError(i+2, "freight_value", "is not a non-negative number", err)
		}
		items = append(items, domain.OrderItem{
			OrderID:      t.get(row, "order_id"),
			ProductID:    t.get(row, "product_id"),
			Price:        price,
			FreightValue: freight,
		})
	}
	return items, nil
}

func (l *Loader) loadProducts(path string) ([]domain.Product, error) {
	t, err := readTable(path, []string{"product_id", "product_category_name"})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(t.rows))
	for _, row := range t.rows {
		products = append(products, domain.Product{
			ID:       t.get(row, "product_id"),
			Category: t.get(row, "product_category_name"),
		})
	}
	return products, nil
}

func (l *Loader) loadCustomers(path string) ([]domain.Customer, error) {
	t, err := readTable(path, []string{"customer_id", "customer_state", "customer_city"})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(t.rows))
	for _, row := range t.rows {
		customers = append(customers, domain.Customer{
			ID:    t.get(row, "customer_id"),
			State: t.get(row, "customer_state"),
			City:  t.get(row, "customer_city"),
		})
	}
	return customers, nil
}

func (l *Loader) loadReviews(path string) ([]domain.Review, error) {
	t, err := readTable(path, []string{"order_id", "review_score"})
	if err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, 0, len(t.rows))
	for i, row := range t.rows {
		score, err := strconv.Atoi(t.get(row, "review_score"))
		if err != nil {
			return nil, t.rowError(i+2, "review_score", "is not an integer", err)
		}
		if score < domain.MinReviewScore || score > domain.MaxReviewScore {
			return nil, t.rowError(i+2, "review_score",
				fmt.Sprintf("is outside scale %d-%d", domain.MinReviewScore, domain.MaxReviewScore), nil)
		}
		reviews = append(reviews, domain.Review{
			OrderID: t.get(row, "order_id"),
			Score:   score,
		})
	}
	return reviews, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseNonNegative(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %.2f", v)
	}
	return v, nil
}
