package repository

import (
	"encoding/json"
	"fmt"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/entuziaz/csvup-server/pkg/dto"
	"gorm.io/datatypes"
)

func mapTransactionToModel(t domain.Transaction) Transaction {
	return Transaction{
		TransactionID:               t.TransactionID,
		Timestamp:                   t.Timestamp,
		UserID:                      t.UserID,
		AccountAgeDays:              t.AccountAgeDays,
		CustomerTier:                t.CustomerTier,
		KYCLevel:                    t.KYCLevel,
		HasMultipleAccounts:         t.HasMultipleAccounts,
		LinkedCardCount:             t.LinkedCardCount,
		TransactionAmount:           t.TransactionAmount,
		TransactionCurrency:         t.TransactionCurrency,
		TransactionType:             t.TransactionType,
		MerchantCategory:            t.MerchantCategory,
		MerchantID:                  t.MerchantID,
		MerchantRiskScore:           t.MerchantRiskScore,
		TransactionHour:             t.TransactionHour,
		TransactionDayOfWeek:        int(t.TransactionDayOfWeek),
		IsWeekendTransaction:        t.IsWeekendTransaction,
		IsNighttimeTransaction:      t.IsNighttimeTransaction,
		DeviceID:                    t.DeviceID,
		DeviceOS:                    t.DeviceOS,
		DeviceType:                  t.DeviceType,
		IsVPNUsed:                   t.IsVPNUsed,
		IsProxyUsed:                 t.IsProxyUsed,
		IPAddress:                   t.IPAddress,
		IPRiskScore:                 t.IPRiskScore,
		LocationCountry:             t.LocationCountry,
		LocationCity:                t.LocationCity,
		IsNewDevice:                 t.IsNewDevice,
		IsNewLocation:               t.IsNewLocation,
		NumFailedAttempts24h:        t.NumFailedAttempts24h,
		PrevAvgTxnAmount:            t.PrevAvgTxnAmount,
		TxnAmountDeviation:          t.TxnAmountDeviation,
		DailyAvgSpend:               t.DailyAvgSpend,
		TotalSpendLast7d:            t.TotalSpendLast7d,
		TransactionRecency:          t.TransactionRecency,
		TxnVelocity1h:               t.TxnVelocity1h,
		TxnVelocity24h:              t.TxnVelocity24h,
		TransactionSuccessRate24h:   t.TransactionSuccessRate24h,
		HasMultipleDevices:          t.HasMultipleDevices,
		IsBlacklistedCard:           t.IsBlacklistedCard,
		IsBlacklistedDevice:         t.IsBlacklistedDevice,
		IsHighRiskCountry:           t.IsHighRiskCountry,
		DistanceFromLastTransaction: t.DistanceFromLastTransaction,
		HasChargebackHistory:        t.HasChargebackHistory,
		PreviousFraudulentActivity:  t.PreviousFraudulentActivity,
		AccountFraudReported:        t.AccountFraudReported,
		IsHighRiskBehavior:          t.IsHighRiskBehavior,
		Label:                       t.Label,
	}
}

func mapTransactionModelToDomain(m Transaction) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:               m.TransactionID,
		Timestamp:                   m.Timestamp,
		UserID:                      m.UserID,
		AccountAgeDays:              m.AccountAgeDays,
		CustomerTier:                m.CustomerTier,
		KYCLevel:                    m.KYCLevel,
		HasMultipleAccounts:         m.HasMultipleAccounts,
		LinkedCardCount:             m.LinkedCardCount,
		TransactionAmount:           m.TransactionAmount,
		TransactionCurrency:         m.TransactionCurrency,
		TransactionType:             m.TransactionType,
		MerchantCategory:            m.MerchantCategory,
		MerchantID:                  m.MerchantID,
		MerchantRiskScore:           m.MerchantRiskScore,
		TransactionHour:             m.TransactionHour,
		TransactionDayOfWeek:        domain.Weekday(m.TransactionDayOfWeek),
		IsWeekendTransaction:        m.IsWeekendTransaction,
		IsNighttimeTransaction:      m.IsNighttimeTransaction,
		DeviceID:                    m.DeviceID,
		DeviceOS:                    m.DeviceOS,
		DeviceType:                  m.DeviceType,
		IsVPNUsed:                   m.IsVPNUsed,
		IsProxyUsed:                 m.IsProxyUsed,
		IPAddress:                   m.IPAddress,
		IPRiskScore:                 m.IPRiskScore,
		LocationCountry:             m.LocationCountry,
		LocationCity:                m.LocationCity,
		IsNewDevice:                 m.IsNewDevice,
		IsNewLocation:               m.IsNewLocation,
		NumFailedAttempts24h:        m.NumFailedAttempts24h,
		PrevAvgTxnAmount:            m.PrevAvgTxnAmount,
		TxnAmountDeviation:          m.TxnAmountDeviation,
		DailyAvgSpend:               m.DailyAvgSpend,
		TotalSpendLast7d:            m.TotalSpendLast7d,
		TransactionRecency:          m.TransactionRecency,
		TxnVelocity1h:               m.TxnVelocity1h,
		TxnVelocity24h:              m.TxnVelocity24h,
		TransactionSuccessRate24h:   m.TransactionSuccessRate24h,
		HasMultipleDevices:          m.HasMultipleDevices,
		IsBlacklistedCard:           m.IsBlacklistedCard,
		IsBlacklistedDevice:         m.IsBlacklistedDevice,
		IsHighRiskCountry:           m.IsHighRiskCountry,
		DistanceFromLastTransaction: m.DistanceFromLastTransaction,
		HasChargebackHistory:        m.HasChargebackHistory,
		PreviousFraudulentActivity:  m.PreviousFraudulentActivity,
		AccountFraudReported:        m.AccountFraudReported,
		IsHighRiskBehavior:          m.IsHighRiskBehavior,
		Label:                       m.Label,
	}
}

func mapTransactionsToModels(records []domain.Transaction) []Transaction {
	models := make([]Transaction, 0, len(records))
	for _, r := range records {
		models = append(models, mapTransactionToModel(r))
	}
	return models
}

func mapUploadCreateToModel(create dto.UploadCreate) UploadHistory {
	return UploadHistory{
		UploadID:   create.UploadID,
		Filename:   create.Filename,
		UploadedAt: create.UploadedAt,
		Status:     string(domain.UploadProcessing),
	}
}

func mapUploadModelToDomain(m UploadHistory) (*domain.UploadHistory, error) {
	h := &domain.UploadHistory{
		UploadID:      m.UploadID,
		Filename:      m.Filename,
		UploadedAt:    m.UploadedAt,
		RowsProcessed: m.RowsProcessed,
		Status:        domain.UploadStatus(m.Status),
		FinishedAt:    m.FinishedAt,
	}
	if len(m.Details) > 0 {
		var details domain.UploadDetails
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return nil, fmt.Errorf("failed to decode details of upload %s: %w", m.UploadID, err)
		}
		h.Details = &details
	}
	return h, nil
}

func encodeDetails(details domain.UploadDetails) (datatypes.JSON, error) {
	if details.Errors == nil {
		details.Errors = []domain.FieldError{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
