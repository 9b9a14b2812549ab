package ingest

import (
	"fmt"
	"slices"

	"github.com/entuziaz/csvup-server/pkg/domain"
)

var expectedColumns = []string{
	"transaction_id", "timestamp", "user_id", "account_age_days", "customer_tier",
	"kyc_level", "has_multiple_accounts", "linked_card_count", "transaction_amount",
	"transaction_currency", "transaction_type", "merchant_category", "merchant_id",
	"merchant_risk_score", "transaction_hour", "transaction_day_of_week",
	"is_weekend_transaction", "is_nighttime_transaction", "device_id", "device_os",
	"device_type", "is_vpn_used", "is_proxy_used", "ip_address", "ip_risk_score",
	"location_country", "location_city", "is_new_device", "is_new_location",
	"num_failed_attempts_24h", "prev_avg_txn_amount", "txn_amount_deviation",
	"daily_avg_spend", "total_spend_last_7d", "transaction_recency", "txn_velocity_1h",
	"txn_velocity_24h", "transaction_success_rate_24h", "has_multiple_devices",
	"is_blacklisted_card", "is_blacklisted_device", "is_high_risk_country",
	"distance_from_last_transaction", "has_chargeback_history",
	"previous_fraudulent_activity", "account_fraud_reported", "is_high_risk_behavior", "label",
}

// ExpectedColumns returns a copy of the required column names in canonical order.
func ExpectedColumns() []string {
	return slices.Clone(expectedColumns)
}

// ValidateSchema reports whether every expected column is present in columns.
// Missing names are returned in canonical order; extra columns are ignored.
func ValidateSchema(columns []string) (bool, []string) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	for _, c := range expectedColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return len(missing) == 0, missing
}

// SchemaError is returned when a payload header lacks required columns.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("Missing columns: %v", e.Missing)
}

// Is makes SchemaError match domain.ErrMissingColumns.
func (e *SchemaError) Is(target error) bool {
	return target == domain.ErrMissingColumns
}
