package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/linkbox/internal/models"
)

var (
	_ list.Item = bookmarkItem{}
)

// bookmarkItem wraps [models.Bookmark] to implement [list.Item].
type bookmarkItem struct {
	bookmark models.Bookmark
}

func (i bookmarkItem) FilterValue() string { return i.bookmark.Title }
func (i bookmarkItem) Title() string       { return i.bookmark.Title }
func (i bookmarkItem) Description() string {
	if i.bookmark.CreatedAt.IsZero() {
		return i.bookmark.URL
	}
	return fmt.Sprintf("%s • %s", i.bookmark.URL, i.bookmark.CreatedAt.Local().Format("Jan 2 2006 15:04"))
}

func bookmarkItems(bs []models.Bookmark) []list.Item {
	items := make([]list.Item, len(bs))
	for i, b := range bs {
		items[i] = bookmarkItem{bookmark: b}
	}
	return items
}
