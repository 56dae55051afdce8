package entity

import "github.com/hnstar/hnstar/internal/weberr"

// SetStory is one entry of a ranking mutation batch. Absent optional fields
// preserve the stored value on conflict.
type SetStory struct {
	StoryID int64   `json:"story_id"`
	Stars   *int32  `json:"stars,omitempty"`
	Flags   *int32  `json:"flags,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// Validate enforces the write invariants: stars in [0,10], flags >= 0.
func (s SetStory) Validate() error {
	if s.StoryID <= 0 {
		return weberr.Validation("invalid story_id")
	}
	if s.Stars != nil && (*s.Stars < 0 || *s.Stars > 10) {
		return weberr.Validation("invalid star count")
	}
	if s.Flags != nil && *s.Flags < 0 {
		return weberr.Validation("invalid flags")
	}
	return nil
}

// StoryRow is one result row of a ranking query: the story's own columns,
// the caller's nullable ranking columns, and the total match count of the
// whole window.
type StoryRow struct {
	StoryID     int64   `db:"story_id" json:"story_id"`
	Score       int32   `db:"score" json:"score"`
	Timestamp   int64   `db:"timestamp" json:"timestamp"`
	Title       string  `db:"title" json:"title"`
	URL         string  `db:"url" json:"url"`
	Status      int32   `db:"status" json:"status"`
	Descendants int32   `db:"descendants" json:"descendants"`
	Stars       *int32  `db:"stars" json:"stars"`
	Flags       *int32  `db:"flags" json:"flags"`
	Comment     *string `db:"comment" json:"comment"`
	TotalCount  int64   `db:"total_count" json:"total_count"`
}
