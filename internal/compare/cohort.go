package compare

import (
	"sort"
	"time"

	"ecomlytics/pkg/contracts/domain"
)

// CohortRow tracks one acquisition cohort: customers whose first delivered
// purchase fell in CohortMonth, with distinct-customer counts per month
// offset from that first purchase. Customers[0] is the cohort size.
type CohortRow struct {
	CohortMonth string `json:"cohort_month"`
	Customers   []int  `json:"customers"`
}

type monthKey struct{ year, month int }

func (k monthKey) less(other monthKey) bool {
	if k.year != other.year {
		return k.year < other.year
	}
	return k.month < other.month
}

// Cohorts builds a customer retention table from delivered rows. Each
// customer is assigned to the calendar month of their first purchase; cell
// (cohort, p) counts distinct customers of that cohort who purchased again p
// months later.
func Cohorts(rows []domain.AnalysisRow) []CohortRow {
	firstPurchase := make(map[string]monthKey)
	purchases := make(map[string]map[monthKey]struct{})

	for _, row := range rows {
		if !row.IsDelivered() {
			continue
		}
		key := monthKey{row.PurchaseTimestamp.Year(), int(row.PurchaseTimestamp.Month())}
		if months, ok := purchases[row.CustomerID]; ok {
			months[key] = struct{}{}
			if key.less(firstPurchase[row.CustomerID]) {
				firstPurchase[row.CustomerID] = key
			}
		} else {
			purchases[row.CustomerID] = map[monthKey]struct{}{key: {}}
			firstPurchase[row.CustomerID] = key
		}
	}

	counts := make(map[monthKey]map[int]int)
	for customer, months := range purchases {
		first := firstPurchase[customer]
		if counts[first] == nil {
			counts[first] = make(map[int]int)
		}
		for key := range months {
			period := (key.year-first.year)*12 + key.month - first.month
			counts[first][period]++
		}
	}

	cohortKeys := make([]monthKey, 0, len(counts))
	for key := range counts {
		cohortKeys = append(cohortKeys, key)
	}
	sort.Slice(cohortKeys, func(i, j int) bool { return cohortKeys[i].less(cohortKeys[j]) })

	table := make([]CohortRow, 0, len(cohortKeys))
	for _, key := range cohortKeys {
		maxPeriod := 0
		for period := range counts[key] {
			if period > maxPeriod {
				maxPeriod = period
			}
		}
		row := CohortRow{
			CohortMonth: time.Date(key.year, time.Month(key.month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
			Customers:   make([]int, maxPeriod+1),
		}
		for period, count := range counts[key] {
			row.Customers[period] = count
		}
		table = append(table, row)
	}

	return table
}
