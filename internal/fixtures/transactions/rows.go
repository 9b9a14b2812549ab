// Package transactions builds CSV payloads of transaction rows for tests.
package transactions

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"maps"

	"github.com/entuziaz/csvup-server/pkg/ingest"
)

var baseRow = map[string]string{
	"timestamp":                      "2024-03-01 10:30:00",
	"account_age_days":               "365",
	"customer_tier":                  "gold",
	"kyc_level":                      "full",
	"has_multiple_accounts":          "0",
	"linked_card_count":              "2",
	"transaction_amount":             "120.50",
	"transaction_currency":           "USD",
	"transaction_type":               "purchase",
	"merchant_category":              "electronics",
	"merchant_id":                    "m-001",
	"merchant_risk_score":            "0.15",
	"transaction_hour":               "10",
	"transaction_day_of_week":        "Friday",
	"is_weekend_transaction":         "0",
	"is_nighttime_transaction":       "0",
	"device_id":                      "d-001",
	"device_os":                      "android",
	"device_type":                    "mobile",
	"is_vpn_used":                    "0",
	"is_proxy_used":                  "0",
	"ip_address":                     "192.168.0.10",
	"ip_risk_score":                  "0.05",
	"location_country":               "NG",
	"location_city":                  "Lagos",
	"is_new_device":                  "0",
	"is_new_location":                "0",
	"num_failed_attempts_24h":        "0",
	"prev_avg_txn_amount":            "100.00",
	"txn_amount_deviation":           "20.50",
	"daily_avg_spend":                "80.00",
	"total_spend_last_7d":            "560.00",
	"transaction_recency":            "3.5",
	"txn_velocity_1h":                "1",
	"txn_velocity_24h":               "4",
	"transaction_success_rate_24h":   "0.98",
	"has_multiple_devices":           "0",
	"is_blacklisted_card":            "0",
	"is_blacklisted_device":          "0",
	"is_high_risk_country":           "0",
	"distance_from_last_transaction": "2.4",
	"has_chargeback_history":         "0",
	"previous_fraudulent_activity":   "0",
	"account_fraud_reported":         "0",
	"is_high_risk_behavior":          "0",
	"label":                          "0",
}

// Row returns a complete, valid row for id. overrides replace single cells.
func Row(id string, overrides map[string]string) map[string]string {
	row := maps.Clone(baseRow)
	row["transaction_id"] = id
	row["user_id"] = "user-" + id
	maps.Copy(row, overrides)
	return row
}

// Rows returns n valid rows with ids prefix-0001 onwards.
func Rows(prefix string, n int) []map[string]string {
	rows := make([]map[string]string, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, Row(fmt.Sprintf("%s-%04d", prefix, i), nil))
	}
	return rows
}

// CSV renders rows under the full expected header.
func CSV(rows ...map[string]string) []byte {
	return CSVWithColumns(ingest.ExpectedColumns(), rows...)
}

// CSVWithColumns renders rows under the given header; cells of absent
// columns are dropped.
func CSVWithColumns(columns []string, rows ...map[string]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(columns)
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = row[c]
		}
		_ = w.Write(record)
	}
	w.Flush()
	return buf.Bytes()
}
