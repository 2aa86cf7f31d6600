package domain

import (
	"time"
)

var (
	MessageSuccessGetStatistics   = "user statistics retrieved successfully"
	MessageSuccessGetAnalytics    = "user analytics retrieved successfully"
	MessageSuccessGetUsageHistory = "usage history retrieved successfully"

	MessageFailedGetStatistics   = "failed to retrieve user statistics"
	MessageFailedGetAnalytics    = "failed to retrieve user analytics"
	MessageFailedGetUsageHistory = "failed to retrieve usage history"
)

type (
	UserStatisticsResponse struct {
		TotalProductsAdded       int `json:"total_products_added"`
		TotalProductsUsed        int `json:"total_products_used"`
		TotalProductsExpired     int `json:"total_products_expired"`
		ActiveProducts           int `json:"active_products"`
		ProductsUsedBeforeExpiry int `json:"products_used_before_expiry"`
		ProductsUsedAfterExpiry  int `json:"products_used_after_expiry"`
	}

	// UserAnalyticsResponse extends the raw statistics with derived
	// percentages for the stats screen.
	UserAnalyticsResponse struct {
		UserStatisticsResponse
		UsagePercentage float64 `json:"usage_percentage"`
	}

	UsageHistoryItem struct {
		ID               string    `json:"id"`
		ProductName      string    `json:"product_name"`
		ProductCategory  string    `json:"product_category"`
		QuantityUsed     int       `json:"quantity_used"`
		WasExpired       bool      `json:"was_expired"`
		DaysBeforeExpiry int       `json:"days_before_expiry"`
		UsageNotes       string    `json:"usage_notes,omitempty"`
		UsedAt           time.Time `json:"used_at"`
	}
)
