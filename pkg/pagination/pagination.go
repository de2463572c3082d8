package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Params holds pagination and sort parameters extracted from a query string.
type Params struct {
	Page      int
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// Default returns the baseline parameters: page 1, ten rows, newest first.
func Default() Params {
	return Params{
		Page:      1,
		Limit:     defaultLimit,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// FromRequest extracts page, limit, sortBy, and sortOrder from the request
// query string. sortBy is only accepted if it appears in allowedSorts; this
// is the whitelist that keeps user input out of ORDER BY clauses.
func FromRequest(r *http.Request, allowedSorts ...string) Params {
	p := Default()
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			p.Limit = n
		}
	}

	if v := q.Get("sortBy"); v != "" {
		for _, allowed := range allowedSorts {
			if v == allowed {
				p.SortBy = v
				break
			}
		}
	}
	if v := strings.ToLower(q.Get("sortOrder")); v == "asc" || v == "desc" {
		p.SortOrder = v
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}
