package entity

// Item is one Hacker News item as the Firebase API returns it. Only the
// fields the store cares about are decoded.
type Item struct {
	ID          int64  `json:"id"`
	By          string `json:"by"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int32  `json:"score"`
	Descendants int32  `json:"descendants"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}
