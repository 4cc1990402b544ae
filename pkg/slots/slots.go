// Package slots collects widget injections for micro-frontend plugin slots
// and renders them as MFE build-time or runtime configuration.
package slots

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Operation is what a plugin does to a slot.
type Operation string

const (
	OpInsert Operation = "Insert"
	OpHide   Operation = "Hide"
	OpModify Operation = "Modify"
	OpWrap   Operation = "Wrap"
)

// WidgetType selects how the shell loads the widget.
type WidgetType string

const (
	DirectPlugin WidgetType = "DIRECT_PLUGIN"
	IframePlugin WidgetType = "IFRAME_PLUGIN"
)

var (
	ErrInvalidItem   = errors.New("slots: invalid item")
	ErrDuplicateItem = errors.New("slots: widget already registered in slot")
)

// Widget references the component injected into a slot.
type Widget struct {
	ID       string     `json:"id"`
	Type     WidgetType `json:"type"`
	Priority int        `json:"priority"`
	// Component is the JS identifier rendered as RenderWidget.
	Component string `json:"renderWidget,omitempty"`
	// Import is the module Component is imported from.
	Import string `json:"-"`
	URL    string `json:"url,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Item is one injection into a named slot of a named MFE.
type Item struct {
	MFE    string    `json:"mfe"`
	SlotID string    `json:"slotId"`
	Op     Operation `json:"op"`
	Widget Widget    `json:"widget"`
	// KeepDefault keeps the slot's default content next to the plugin.
	KeepDefault bool `json:"keepDefault"`
}

// Validate checks the item is well formed.
func (i Item) Validate() error {
	switch {
	case i.MFE == "":
		return fmt.Errorf("%w: mfe is required", ErrInvalidItem)
	case i.SlotID == "":
		return fmt.Errorf("%w: slot id is required", ErrInvalidItem)
	case i.Widget.ID == "":
		return fmt.Errorf("%w: widget id is required", ErrInvalidItem)
	}
	switch i.Op {
	case OpInsert:
		switch i.Widget.Type {
		case DirectPlugin:
			if i.Widget.Component == "" {
				return fmt.Errorf("%w: direct plugin %s needs a component", ErrInvalidItem, i.Widget.ID)
			}
		case IframePlugin:
			if i.Widget.URL == "" {
				return fmt.Errorf("%w: iframe plugin %s needs a url", ErrInvalidItem, i.Widget.ID)
			}
		default:
			return fmt.Errorf("%w: unknown widget type %q", ErrInvalidItem, i.Widget.Type)
		}
	case OpHide, OpModify, OpWrap:
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidItem, i.Op)
	}
	return nil
}

type entry struct {
	item Item
	seq  int
}

// Registry accumulates slot items from every installed plugin.
type Registry struct {
	mu    sync.RWMutex
	items []entry
	seq   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add validates and stores items.
func (r *Registry) Add(items ...Item) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		for _, existing := range r.items {
			if existing.item.MFE == item.MFE && existing.item.SlotID == item.SlotID && existing.item.Widget.ID == item.Widget.ID {
				return fmt.Errorf("%w: %s/%s/%s", ErrDuplicateItem, item.MFE, item.SlotID, item.Widget.ID)
			}
		}
		r.seq++
		r.items = append(r.items, entry{item: item, seq: r.seq})
	}
	return nil
}

// Items returns the items for an MFE ordered by slot, then ascending
// priority, then registration order.
func (r *Registry) Items(mfe string) []Item {
	r.mu.RLock()
	matched := make([]entry, 0, len(r.items))
	for _, e := range r.items {
		if e.item.MFE == mfe {
			matched = append(matched, e)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.item.SlotID != b.item.SlotID {
			return a.item.SlotID < b.item.SlotID
		}
		if a.item.Widget.Priority != b.item.Widget.Priority {
			return a.item.Widget.Priority < b.item.Widget.Priority
		}
		return a.seq < b.seq
	})

	out := make([]Item, len(matched))
	for i, e := range matched {
		out[i] = e.item
	}
	return out
}

// MFEs lists every MFE with at least one item.
func (r *Registry) MFEs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range r.items {
		if _, ok := seen[e.item.MFE]; ok {
			continue
		}
		seen[e.item.MFE] = struct{}{}
		out = append(out, e.item.MFE)
	}
	sort.Strings(out)
	return out
}
