package enums

import "fmt"

// CollectMode selects the traversal strategy of a collection run.
type CollectMode string

const (
	CollectModeListing CollectMode = "listing"
	CollectModeSearch  CollectMode = "search"
)

// Variant is the file name suffix used for the mode's output files.
func (m CollectMode) Variant() string {
	if m == CollectModeListing {
		return "all_posts"
	}
	return "posts"
}

func ParseCollectMode(s string) (CollectMode, error) {
	switch m := CollectMode(s); m {
	case CollectModeListing, CollectModeSearch:
		return m, nil
	}
	return "", fmt.Errorf("invalid collect mode: %q", s)
}

type ListingSort string

const (
	ListingSortNew           ListingSort = "new"
	ListingSortHot           ListingSort = "hot"
	ListingSortTop           ListingSort = "top"
	ListingSortControversial ListingSort = "controversial"
)

// Chronological reports whether the listing is ordered newest-first, which is
// the only ordering where a post older than the window ends the traversal.
func (s ListingSort) Chronological() bool {
	return s == ListingSortNew
}

// TakesTimeFilter reports whether the endpoint accepts the t= parameter.
func (s ListingSort) TakesTimeFilter() bool {
	return s == ListingSortTop || s == ListingSortControversial
}

// ParseListingSort falls back to new for unknown values.
func ParseListingSort(s string) ListingSort {
	switch l := ListingSort(s); l {
	case ListingSortNew, ListingSortHot, ListingSortTop, ListingSortControversial:
		return l
	}
	return ListingSortNew
}

type TimeFilter string

const (
	TimeFilterHour  TimeFilter = "hour"
	TimeFilterDay   TimeFilter = "day"
	TimeFilterWeek  TimeFilter = "week"
	TimeFilterMonth TimeFilter = "month"
	TimeFilterYear  TimeFilter = "year"
	TimeFilterAll   TimeFilter = "all"
)

func ParseTimeFilter(s string) (TimeFilter, error) {
	switch t := TimeFilter(s); t {
	case TimeFilterHour, TimeFilterDay, TimeFilterWeek, TimeFilterMonth, TimeFilterYear, TimeFilterAll:
		return t, nil
	}
	return "", fmt.Errorf("invalid time filter: %q", s)
}
