// Package collection filters, sorts and paginates presentation summaries for
// the dashboard. Every function here is pure: inputs are never modified.
package collection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"slidegenie/internal/config"
	"slidegenie/internal/domain/models"
)

// SortKey selects the ordering of results.
type SortKey string

const (
	SortModified SortKey = "modified"
	SortName     SortKey = "name"
	SortDate     SortKey = "date"
)

// DateRange is a "modified within" bucket.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

var rangeDays = map[DateRange]int{
	RangeToday: 1,
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

// All is the filter value that imposes no constraint.
const All = "all"

// Query describes one dashboard view. Empty fields mean "no constraint".
type Query struct {
	Search    string
	Template  string
	Status    string
	DateRange DateRange
	Sort      SortKey
	Page      int
	PageSize  int
}

// Page is one page of results plus the numbers pagination controls need.
type Page struct {
	Items      []models.PresentationSummary
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Apply runs search, filters, sort and pagination over items. now anchors
// the date-range buckets.
func Apply(items []models.PresentationSummary, q Query, now time.Time) Page {
	matched := Filter(items, q, now)
	Sort(matched, q.Sort)
	return Paginate(matched, q.Page, q.PageSize)
}

// Filter returns the items matching every set constraint of q, in input order.
func Filter(items []models.PresentationSummary, q Query, now time.Time) []models.PresentationSummary {
	search := strings.ToLower(q.Search)
	days, byDate := rangeDays[q.DateRange]
	window := time.Duration(days) * 24 * time.Hour

	out := make([]models.PresentationSummary, 0, len(items))
	for _, it := range items {
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Title), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		if set(q.Template) && it.Template != q.Template {
			continue
		}
		if set(q.Status) && string(it.Status) != q.Status {
			continue
		}
		if byDate && now.Sub(it.LastModified) > window {
			continue
		}
		out = append(out, it)
	}
	return out
}

func set(filter string) bool {
	return filter != "" && filter != All
}

// Sort orders items in place. Ties keep their input order.
func Sort(items []models.PresentationSummary, key SortKey) {
	switch key {
	case SortName:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	case SortDate:
		sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].LastModified.After(items[j].LastModified) })
	}
}

// created falls back to the modification time for rows without a creation stamp.
func created(s models.PresentationSummary) time.Time {
	if s.CreatedAt.IsZero() {
		return s.LastModified
	}
	return s.CreatedAt
}

// Paginate slices items into the requested page. page is clamped to
// [1, TotalPages]; an empty list still has one (empty) page.
func Paginate(items []models.PresentationSummary, page, size int) Page {
	if size <= 0 {
		size = config.PageSize
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page = min(max(page, 1), totalPages)

	start := (page - 1) * size
	end := min(start+size, total)
	return Page{
		Items:      append([]models.PresentationSummary(nil), items[start:end]...),
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// Templates returns the distinct template names in first-seen order, for
// building the template filter.
func Templates(items []models.PresentationSummary) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Template != "" && !seen[it.Template] {
			seen[it.Template] = true
			out = append(out, it.Template)
		}
	}
	return out
}

// Duplicate returns a new list with a copy of item id prepended. The copy
// gets newID, a " (Copy)" title suffix, draft status and now as both stamps.
func Duplicate(items []models.PresentationSummary, id, newID string, now time.Time) ([]models.PresentationSummary, error) {
	for _, it := range items {
		if it.ID != id {
			continue
		}
		dup := it
		dup.ID = newID
		dup.Title = it.Title + " (Copy)"
		dup.Status = models.SummaryStatusDraft
		dup.CreatedAt = now
		dup.LastModified = now
		out := make([]models.PresentationSummary, 0, len(items)+1)
		out = append(out, dup)
		return append(out, items...), nil
	}
	return nil, fmt.Errorf("presentation %s not in list", id)
}

// Remove returns a new list without item id.
func Remove(items []models.PresentationSummary, id string) []models.PresentationSummary {
	out := make([]models.PresentationSummary, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// ParseSort maps user input to a SortKey, defaulting to SortModified.
func ParseSort(s string) SortKey {
	switch SortKey(s) {
	case SortName, SortDate:
		return SortKey(s)
	}
	return SortModified
}
