package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = eventItem{}
)

// eventItem is one received broadcast, rendered in the history view.
type eventItem struct {
	at      time.Time
	event   string
	title   string
	artists string
	detail  string
}

func (i eventItem) FilterValue() string { return i.title }
func (i eventItem) Title() string       { return fmt.Sprintf("%s  %s", i.at.Format("15:04:05"), i.title) }
func (i eventItem) Description() string {
	desc := i.event
	if i.artists != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.artists)
	}
	if i.detail != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.detail)
	}
	return desc
}
