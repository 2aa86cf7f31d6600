package productcache

import (
	"strconv"
)

// Query kinds. Every cached read is keyed by user, kind and an optional
// argument (category name, expiry window, search query).
const (
	KindAll          = "all"
	KindCategory     = "category"
	KindExpiring     = "expiring"
	KindSearch       = "search"
	KindCategories   = "categories"
	KindStatistics   = "statistics"
	KindAnalytics    = "analytics"
	KindUsageHistory = "usage_history"
)

type queryKey struct {
	UserID string
	Kind   string
	Arg    string
}

func keyAll(userID string) queryKey {
	return queryKey{UserID: userID, Kind: KindAll}
}

func keyCategory(userID, category string) queryKey {
	return queryKey{UserID: userID, Kind: KindCategory, Arg: category}
}

func keyExpiring(userID string, withinDays int) queryKey {
	return queryKey{UserID: userID, Kind: KindExpiring, Arg: strconv.Itoa(withinDays)}
}

func keySearch(userID, query string) queryKey {
	return queryKey{UserID: userID, Kind: KindSearch, Arg: query}
}

func keyCategories(userID string) queryKey {
	return queryKey{UserID: userID, Kind: KindCategories}
}

func keyStatistics(userID string) queryKey {
	return queryKey{UserID: userID, Kind: KindStatistics}
}

func keyAnalytics(userID string) queryKey {
	return queryKey{UserID: userID, Kind: KindAnalytics}
}

func keyUsageHistory(userID string) queryKey {
	return queryKey{UserID: userID, Kind: KindUsageHistory}
}

func (k queryKey) String() string {
	return k.UserID + "/" + k.Kind + "/" + k.Arg
}
