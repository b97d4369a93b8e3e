package domain

import (
	"sort"
	"strconv"
	"time"
)

// Token is the credential returned by a successful code exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// Item states accepted by ListQuery.State
const (
	ItemStateUnread  = "unread"
	ItemStateArchive = "archive"
	ItemStateAll     = "all"
)

// Sort orders accepted by ListQuery.Sort
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
	SortSite   = "site"
)

// Detail types accepted by ListQuery.DetailType
const (
	DetailSimple   = "simple"
	DetailComplete = "complete"
)

// ListQuery holds the optional filters of a list retrieval. Zero values and
// nil pointers are omitted from the request.
type ListQuery struct {
	State       string
	Favorite    *bool
	Tag         string
	ContentType string
	Sort        string
	DetailType  string
	Search      string
	Domain      string
	Since       *time.Time
	Count       int
	Offset      int
}

// Item is a saved article.
type Item struct {
	ItemID        string `json:"item_id"`
	ResolvedTitle string `json:"resolved_title"`
	GivenTitle    string `json:"given_title"`
	ResolvedURL   string `json:"resolved_url"`
	GivenURL      string `json:"given_url"`
	Excerpt       string `json:"excerpt"`
	WordCount     string `json:"word_count"`
	Favorite      string `json:"favorite"`
	Status        string `json:"status"`
	TimeAdded     string `json:"time_added"`
	SortID        int    `json:"sort_id"`
}

// Title returns the best available title for display.
func (i *Item) Title() string {
	switch {
	case i.ResolvedTitle != "":
		return i.ResolvedTitle
	case i.GivenTitle != "":
		return i.GivenTitle
	default:
		return i.URL()
	}
}

// URL returns the best available link for the item.
func (i *Item) URL() string {
	if i.ResolvedURL != "" {
		return i.ResolvedURL
	}
	return i.GivenURL
}

// IsFavorite reports whether the item is starred.
func (i *Item) IsFavorite() bool {
	return i.Favorite == "1"
}

// AddedAt parses the unix timestamp of when the item was saved.
func (i *Item) AddedAt() (time.Time, bool) {
	sec, err := strconv.ParseInt(i.TimeAdded, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// ListPage is one page of list results.
type ListPage struct {
	Items  []Item
	Offset int
	Count  int
	// HasMore is true when the page was full, so another page may exist.
	HasMore bool
}

// SortItems orders items by the server-provided sort_id.
func SortItems(items []Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].SortID < items[b].SortID
	})
}
