package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the integer code of a transaction weekday, Monday=0 through Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayCodes = map[string]Weekday{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"saturday":  Saturday,
	"sunday":    Sunday,
}

// ParseWeekday maps a weekday name to its code. Unknown names are an error;
// there is no default weekday.
func ParseWeekday(name string) (Weekday, error) {
	code, ok := weekdayCodes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return code, nil
}

// Transaction is a fully typed transaction record keyed by TransactionID.
//
// Every field except TransactionID is mutable: a re-submission with the same
// key replaces all of them.
type Transaction struct {
	TransactionID string     `mapstructure:"transaction_id" validate:"required"`
	Timestamp     *time.Time `mapstructure:"timestamp"`
	UserID        string     `mapstructure:"user_id"`

	AccountAgeDays      int64  `mapstructure:"account_age_days"`
	CustomerTier        string `mapstructure:"customer_tier"`
	KYCLevel            string `mapstructure:"kyc_level"`
	HasMultipleAccounts bool   `mapstructure:"has_multiple_accounts"`
	LinkedCardCount     int64  `mapstructure:"linked_card_count"`

	TransactionAmount      float64 `mapstructure:"transaction_amount"`
	TransactionCurrency    string  `mapstructure:"transaction_currency"`
	TransactionType        string  `mapstructure:"transaction_type"`
	MerchantCategory       string  `mapstructure:"merchant_category"`
	MerchantID             string  `mapstructure:"merchant_id"`
	MerchantRiskScore      float64 `mapstructure:"merchant_risk_score"`
	TransactionHour        int64   `mapstructure:"transaction_hour"`
	TransactionDayOfWeek   Weekday `mapstructure:"transaction_day_of_week"`
	IsWeekendTransaction   bool    `mapstructure:"is_weekend_transaction"`
	IsNighttimeTransaction bool    `mapstructure:"is_nighttime_transaction"`

	DeviceID        string  `mapstructure:"device_id"`
	DeviceOS        string  `mapstructure:"device_os"`
	DeviceType      string  `mapstructure:"device_type"`
	IsVPNUsed       bool    `mapstructure:"is_vpn_used"`
	IsProxyUsed     bool    `mapstructure:"is_proxy_used"`
	IPAddress       string  `mapstructure:"ip_address"`
	IPRiskScore     float64 `mapstructure:"ip_risk_score"`
	LocationCountry string  `mapstructure:"location_country"`
	LocationCity    string  `mapstructure:"location_city"`
	IsNewDevice     bool    `mapstructure:"is_new_device"`
	IsNewLocation   bool    `mapstructure:"is_new_location"`

	NumFailedAttempts24h      int64   `mapstructure:"num_failed_attempts_24h"`
	PrevAvgTxnAmount          float64 `mapstructure:"prev_avg_txn_amount"`
	TxnAmountDeviation        float64 `mapstructure:"txn_amount_deviation"`
	DailyAvgSpend             float64 `mapstructure:"daily_avg_spend"`
	TotalSpendLast7d          float64 `mapstructure:"total_spend_last_7d"`
	TransactionRecency        float64 `mapstructure:"transaction_recency"`
	TxnVelocity1h             float64 `mapstructure:"txn_velocity_1h"`
	TxnVelocity24h            float64 `mapstructure:"txn_velocity_24h"`
	TransactionSuccessRate24h float64 `mapstructure:"transaction_success_rate_24h"`

	HasMultipleDevices          bool    `mapstructure:"has_multiple_devices"`
	IsBlacklistedCard           bool    `mapstructure:"is_blacklisted_card"`
	IsBlacklistedDevice         bool    `mapstructure:"is_blacklisted_device"`
	IsHighRiskCountry           bool    `mapstructure:"is_high_risk_country"`
	DistanceFromLastTransaction float64 `mapstructure:"distance_from_last_transaction"`
	HasChargebackHistory        bool    `mapstructure:"has_chargeback_history"`
	PreviousFraudulentActivity  bool    `mapstructure:"previous_fraudulent_activity"`
	AccountFraudReported        bool    `mapstructure:"account_fraud_reported"`
	IsHighRiskBehavior          bool    `mapstructure:"is_high_risk_behavior"`
	Label                       float64 `mapstructure:"label"`
}
