package constants

import "time"

const (
	UserCachePrefix = "user:"        // Single cache by user ID
	UserCacheExpiry = 24 * time.Hour // Cleared on update, bounded for safety
)
