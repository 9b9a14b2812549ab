package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transaction represents a persisted transaction record.
//
// TransactionID is the business key; every other column is overwritten when a
// record with the same key is submitted again.
type Transaction struct {
	ID            uint       `gorm:"primaryKey"`
	TransactionID string     `gorm:"column:transaction_id;type:varchar(255);uniqueIndex;not null"`
	Timestamp     *time.Time `gorm:"column:timestamp"`
	UserID        string     `gorm:"column:user_id;type:varchar(255);index"`

	AccountAgeDays      int64  `gorm:"column:account_age_days"`
	CustomerTier        string `gorm:"column:customer_tier"`
	KYCLevel            string `gorm:"column:kyc_level"`
	HasMultipleAccounts bool   `gorm:"column:has_multiple_accounts"`
	LinkedCardCount     int64  `gorm:"column:linked_card_count"`

	TransactionAmount      float64 `gorm:"column:transaction_amount"`
	TransactionCurrency    string  `gorm:"column:transaction_currency"`
	TransactionType        string  `gorm:"column:transaction_type"`
	MerchantCategory       string  `gorm:"column:merchant_category"`
	MerchantID             string  `gorm:"column:merchant_id"`
	MerchantRiskScore      float64 `gorm:"column:merchant_risk_score"`
	TransactionHour        int64   `gorm:"column:transaction_hour"`
	TransactionDayOfWeek   int     `gorm:"column:transaction_day_of_week"`
	IsWeekendTransaction   bool    `gorm:"column:is_weekend_transaction"`
	IsNighttimeTransaction bool    `gorm:"column:is_nighttime_transaction"`

	DeviceID        string  `gorm:"column:device_id"`
	DeviceOS        string  `gorm:"column:device_os"`
	DeviceType      string  `gorm:"column:device_type"`
	IsVPNUsed       bool    `gorm:"column:is_vpn_used"`
	IsProxyUsed     bool    `gorm:"column:is_proxy_used"`
	IPAddress       string  `gorm:"column:ip_address"`
	IPRiskScore     float64 `gorm:"column:ip_risk_score"`
	LocationCountry string  `gorm:"column:location_country"`
	LocationCity    string  `gorm:"column:location_city"`
	IsNewDevice     bool    `gorm:"column:is_new_device"`
	IsNewLocation   bool    `gorm:"column:is_new_location"`

	NumFailedAttempts24h      int64   `gorm:"column:num_failed_attempts_24h"`
	PrevAvgTxnAmount          float64 `gorm:"column:prev_avg_txn_amount"`
	TxnAmountDeviation        float64 `gorm:"column:txn_amount_deviation"`
	DailyAvgSpend             float64 `gorm:"column:daily_avg_spend"`
	TotalSpendLast7d          float64 `gorm:"column:total_spend_last_7d"`
	TransactionRecency        float64 `gorm:"column:transaction_recency"`
	TxnVelocity1h             float64 `gorm:"column:txn_velocity_1h"`
	TxnVelocity24h            float64 `gorm:"column:txn_velocity_24h"`
	TransactionSuccessRate24h float64 `gorm:"column:transaction_success_rate_24h"`

	HasMultipleDevices          bool    `gorm:"column:has_multiple_devices"`
	IsBlacklistedCard           bool    `gorm:"column:is_blacklisted_card"`
	IsBlacklistedDevice         bool    `gorm:"column:is_blacklisted_device"`
	IsHighRiskCountry           bool    `gorm:"column:is_high_risk_country"`
	DistanceFromLastTransaction float64 `gorm:"column:distance_from_last_transaction"`
	HasChargebackHistory        bool    `gorm:"column:has_chargeback_history"`
	PreviousFraudulentActivity  bool    `gorm:"column:previous_fraudulent_activity"`
	AccountFraudReported        bool    `gorm:"column:account_fraud_reported"`
	IsHighRiskBehavior          bool    `gorm:"column:is_high_risk_behavior"`
	Label                       float64 `gorm:"column:label"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

// UploadHistory is the audit row written for every ingestion call.
type UploadHistory struct {
	ID            uint           `gorm:"primaryKey"`
	UploadID      uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	Filename      string         `gorm:"type:varchar(255);not null"`
	UploadedAt    time.Time      `gorm:"not null;index"`
	RowsProcessed int            `gorm:"not null"`
	Status        string         `gorm:"type:varchar(16);not null;index"`
	Details       datatypes.JSON `gorm:"column:details"`
	FinishedAt    *time.Time
}

// TableName specifies the table name for the UploadHistory model.
func (UploadHistory) TableName() string {
	return "upload_histories"
}
