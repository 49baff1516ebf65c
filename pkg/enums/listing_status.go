package enums

import (
	"fmt"
	"strings"
)

// ListingStatus reflects whether a listing is visible in the catalog.
type ListingStatus string

const (
	ListingStatusListed   ListingStatus = "LISTED"
	ListingStatusUnlisted ListingStatus = "UNLISTED"
)

var validListingStatuses = []ListingStatus{
	ListingStatusListed,
	ListingStatusUnlisted,
}

// String implements fmt.Stringer.
func (l ListingStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known ListingStatus.
func (l ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into a ListingStatus, defaulting to LISTED.
func ParseListingStatus(value string) (ListingStatus, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return ListingStatusListed, nil
	}
	for _, candidate := range validListingStatuses {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
