package trust

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/civicline/incident-admin/internal/model"
)

// Sort keys accepted by ListOptions.SortBy.
const (
	SortByName    = "name"
	SortByScore   = "score"
	SortByReports = "reports"
	SortByCreated = "created"
)

// ListOptions filters and orders the reporter listing.
type ListOptions struct {
	// Tier restricts results to scores inside one tier's bounds.
	Tier *Tier

	// Flagged, when set, keeps only flagged (true) or unflagged (false)
	// reporters.
	Flagged *bool

	// Search matches case-insensitively against name and email.
	Search string

	// SortBy is one of the SortBy* keys; empty means name.
	SortBy string

	// Desc reverses the sort order.
	Desc bool
}

// List returns reporters filtered and sorted per opts. Records are
// normalized on the way out so tier filtering sees in-range scores.
func (a *Admin) List(ctx context.Context, opts ListOptions) ([]model.Reporter, error) {
	reporters, err := a.store.ListReporters(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "trust: list reporters")
	}

	filtered := reporters[:0]
	search := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, r := range reporters {
		r.Normalize()
		if opts.Tier != nil {
			min, max := opts.Tier.Bounds()
			if r.TrustScore < min || r.TrustScore >= max {
				continue
			}
		}
		if opts.Flagged != nil && r.Flagged != *opts.Flagged {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Email), search) {
			continue
		}
		filtered = append(filtered, r)
	}

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = SortByName
	}
	cmp := func(x, y *model.Reporter) int {
		switch sortBy {
		case SortByScore:
			return x.TrustScore - y.TrustScore
		case SortByReports:
			return x.ReportCount - y.ReportCount
		case SortByCreated:
			return x.CreatedAt.Compare(y.CreatedAt)
		default:
			return strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name))
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		c := cmp(&filtered[i], &filtered[j])
		if opts.Desc {
			return c > 0
		}
		return c < 0
	})

	return filtered, nil
}
