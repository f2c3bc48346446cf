package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/emx/internal/models"
)

var _ list.Item = emojiItem{}

// emojiItem wraps a catalog entry to implement [list.Item].
type emojiItem struct {
	name string
	url  string
}

func (i emojiItem) FilterValue() string { return i.name }
func (i emojiItem) Title() string       { return fmt.Sprintf(":%s:", i.name) }
func (i emojiItem) Description() string {
	return fmt.Sprintf("%s • %s", models.ExtensionFromURL(i.url), i.url)
}

// catalogItems converts a catalog into list items in name order.
func catalogItems(c models.Catalog) []list.Item {
	names := c.Names()
	items := make([]list.Item, len(names))
	for i, name := range names {
		items[i] = emojiItem{name: name, url: c[name]}
	}
	return items
}
