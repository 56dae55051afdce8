package ranking

import (
	"fmt"
	"strings"
	"time"

	"github.com/hnstar/hnstar/internal/weberr"
)

// IntFilter is a half-open or closed range over an int column.
type IntFilter struct {
	Gt *int32 `json:"gt,omitempty"`
	Lt *int32 `json:"lt,omitempty"`
}

// BigIntFilter is a range over a bigint column (epoch seconds).
type BigIntFilter struct {
	Gt *int64 `json:"gt,omitempty"`
	Lt *int64 `json:"lt,omitempty"`
}

// FloatFilter is a range over a computed float expression.
type FloatFilter struct {
	Gt *float64 `json:"gt,omitempty"`
	Lt *float64 `json:"lt,omitempty"`
}

// Regex is a case-insensitive POSIX regex filter with an optional negation.
type Regex struct {
	Regex string `json:"regex"`
	Not   bool   `json:"not"`
}

// SortKey orders the result by one allow-listed field.
type SortKey struct {
	Sort string `json:"sort"`
	Asc  bool   `json:"asc"`
}

// Filter is the declarative query specification sent by clients. It is
// request-scoped and never persisted.
type Filter struct {
	Timestamp  *BigIntFilter `json:"timestamp,omitempty"`
	PageSize   *int32        `json:"page_size,omitempty"`
	PageNumber *int32        `json:"page_number,omitempty"`
	Title      *Regex        `json:"title,omitempty"`
	URL        *Regex        `json:"url,omitempty"`
	Comment    *Regex        `json:"comment,omitempty"`
	Score      *IntFilter    `json:"score,omitempty"`
	ZScore     *FloatFilter  `json:"z_score,omitempty"`
	Status     *int32        `json:"status,omitempty"`
	Flags      *int32        `json:"flags,omitempty"`
	Stars      *IntFilter    `json:"stars,omitempty"`
	Sort       []SortKey     `json:"sort,omitempty"`
}

// Query pairs parameterized query text with its ordered parameter vector.
// The placeholder count always equals len(Params); that pairing is the
// compiler's core invariant.
type Query struct {
	Text   string
	Params []any
}

const (
	defaultRecency  = 10 * 24 * time.Hour
	defaultPageSize = 100
	maxPageSize     = 500
)

// sortFields is the allow-list of sort keys. Sort fields are structural
// query text, never bound parameters, so nothing outside this list may ever
// reach the query string.
var sortFields = map[string]bool{
	"timestamp": true,
	"score":     true,
	"stars":     true,
}

const zScoreExpr = "((cast(s.score as float) - s.mean_score) / s.stddev_score)"

// Compile translates a filter and the caller's user id into one
// parameterized query. Pure: no I/O, no store access.
func Compile(f Filter, userID int32) (Query, error) {
	return compile(f, userID, time.Now())
}

func compile(f Filter, userID int32, now time.Time) (Query, error) {
	ts := f.Timestamp
	if ts == nil {
		gt := now.Add(-defaultRecency).Unix()
		ts = &BigIntFilter{Gt: &gt}
	}
	if ts.Gt == nil && ts.Lt == nil {
		// an unbounded full-table scan is never permitted
		return Query{}, weberr.Validation("must specify timestamp filter")
	}

	params := []any{userID}
	var statsWhere []string // bare column refs, for the stats CTE
	var where []string      // qualified refs, for the outer query

	// timestamp bounds are bound once and referenced from both the stats
	// window and the outer predicate, so the aggregates always cover the
	// same recency window as the rows themselves
	if ts.Gt != nil {
		params = append(params, *ts.Gt)
		statsWhere = append(statsWhere, fmt.Sprintf("timestamp > $%d", len(params)))
		where = append(where, fmt.Sprintf("s.timestamp > $%d", len(params)))
	}
	if ts.Lt != nil {
		params = append(params, *ts.Lt)
		statsWhere = append(statsWhere, fmt.Sprintf("timestamp < $%d", len(params)))
		where = append(where, fmt.Sprintf("s.timestamp < $%d", len(params)))
	}

	from := fmt.Sprintf(`with stats as (
    select avg(score) mean_score, stddev(score) stddev_score
    from story
    where %s
), scored_stories as (
    select * from story, stats
)
select s.story_id, s.score, s.timestamp, s.title, s.url, s.status, s.descendants,
       r.stars, r.flags, r.comment, count(*) over () total_count
from scored_stories s
left join story_user_rank r
    on r.story_id = s.story_id and r.user_main_id = $1`,
		strings.Join(statsWhere, " and "))

	// text-pattern filters OR together inside one group; the group ANDs
	// against every other category
	var textGroup []string
	appendRegex := func(rx *Regex, column string) {
		if rx == nil {
			return
		}
		params = append(params, rx.Regex)
		op := "~*"
		if rx.Not {
			op = "!~*"
		}
		textGroup = append(textGroup, fmt.Sprintf("%s %s $%d", column, op, len(params)))
	}
	appendRegex(f.Title, "s.title")
	appendRegex(f.Comment, "r.comment")
	appendRegex(f.URL, "s.url")
	if len(textGroup) > 0 {
		where = append(where, "("+strings.Join(textGroup, " or ")+")")
	}

	if f.Score != nil {
		if f.Score.Gt != nil {
			params = append(params, *f.Score.Gt)
			where = append(where, fmt.Sprintf("s.score > $%d", len(params)))
		}
		if f.Score.Lt != nil {
			params = append(params, *f.Score.Lt)
			where = append(where, fmt.Sprintf("s.score < $%d", len(params)))
		}
	}

	// mean and stddev come precomputed from the stats CTE
	if f.ZScore != nil {
		if f.ZScore.Gt != nil {
			params = append(params, *f.ZScore.Gt)
			where = append(where, fmt.Sprintf("%s >= $%d", zScoreExpr, len(params)))
		}
		if f.ZScore.Lt != nil {
			params = append(params, *f.ZScore.Lt)
			where = append(where, fmt.Sprintf("%s <= $%d", zScoreExpr, len(params)))
		}
	}

	if f.Stars != nil {
		if f.Stars.Gt != nil {
			params = append(params, *f.Stars.Gt)
			where = append(where, fmt.Sprintf("r.stars > $%d", len(params)))
		}
		if f.Stars.Lt != nil {
			params = append(params, *f.Stars.Lt)
			where = append(where, fmt.Sprintf("r.stars < $%d", len(params)))
		}
	}

	if f.Status != nil {
		params = append(params, *f.Status)
		where = append(where, fmt.Sprintf("s.status = $%d", len(params)))
	}
	if f.Flags != nil {
		params = append(params, *f.Flags)
		where = append(where, fmt.Sprintf("r.flags = $%d", len(params)))
	}

	// sort keys outside the allow-list are dropped, not rejected
	var sorts []string
	for _, k := range f.Sort {
		if !sortFields[k.Sort] {
			continue
		}
		dir := "desc"
		if k.Asc {
			dir = "asc"
		}
		sorts = append(sorts, k.Sort+" "+dir)
	}
	if len(sorts) == 0 {
		sorts = []string{"timestamp desc"}
	}

	size := clampPageSize(f.PageSize)
	page := int32(0)
	if f.PageNumber != nil && *f.PageNumber > 0 {
		page = *f.PageNumber
	}
	params = append(params, size)
	limit := fmt.Sprintf("limit $%d", len(params))
	// int64 so a large page number cannot overflow into a negative offset
	params = append(params, int64(page)*int64(size))
	offset := fmt.Sprintf("offset $%d", len(params))

	text := fmt.Sprintf("%s\nwhere %s\norder by %s\n%s %s",
		from, strings.Join(where, " and "), strings.Join(sorts, ", "), limit, offset)
	return Query{Text: text, Params: params}, nil
}

func clampPageSize(v *int32) int32 {
	if v == nil {
		return defaultPageSize
	}
	if *v < 1 {
		return 1
	}
	if *v > maxPageSize {
		return maxPageSize
	}
	return *v
}
