// Package carousel owns the ordered screen rotation list and its cursor
package carousel

import (
	"errors"
	"fmt"
)

// Kind identifies what a carousel item displays.
type Kind int

const (
	KindLocation Kind = iota
	KindCountdown
	KindCustomText
	KindStatsFeed
)

func (k Kind) String() string {
	switch k {
	case KindLocation:
		return "location"
	case KindCountdown:
		return "countdown"
	case KindCustomText:
		return "custom"
	case KindStatsFeed:
		return "stats"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name back to its kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "location":
		return KindLocation, nil
	case "countdown":
		return KindCountdown, nil
	case "custom":
		return KindCustomText, nil
	case "stats":
		return KindStatsFeed, nil
	default:
		return 0, fmt.Errorf("unknown carousel item kind %q", s)
	}
}

// Capacity limits. The total bound keeps a full rotation under a couple
// of minutes at the default cycle time.
const (
	MaxItems = 9

	MaxLocationItems   = 3
	MaxCountdownItems  = 3
	MaxCustomTextItems = 3
	MaxStatsFeedItems  = 1
)

// Sub-screen counts. A location expands to current conditions plus two
// forecast pages when the forecast setting is on.
const (
	locationSubScreens = 3
	singleSubScreen    = 1
)

var (
	ErrCarouselFull = errors.New("carousel is full")
	ErrOutOfRange   = errors.New("carousel index out of range")
)

// Item is one entry in the rotation. DataIndex points into the
// per-kind configuration arrays (locations, countdowns, custom screens).
type Item struct {
	Kind      Kind `json:"kind"`
	DataIndex int  `json:"dataIndex"`
}

// Cursor addresses the currently rendered sub-screen.
type Cursor struct {
	ItemIndex int `json:"itemIndex"`
	SubIndex  int `json:"subIndex"`
}

// Sequencer maintains insertion-ordered items and the advance cursor.
// It is owned by the engine goroutine and is not safe for concurrent
// use.
type Sequencer struct {
	items        []Item
	cursor       Cursor
	showForecast bool
}

// New builds a sequencer from a persisted item list. Items beyond the
// capacity bounds are dropped rather than rejected so that a corrupt
// document can never wedge boot.
func New(items []Item, showForecast bool) *Sequencer {
	s := &Sequencer{showForecast: showForecast}
	for _, item := range items {
		if err := s.Add(item); err != nil {
			continue
		}
	}
	return s
}

// Items returns a copy of the rotation in display order.
func (s *Sequencer) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items in the rotation.
func (s *Sequencer) Len() int {
	return len(s.items)
}

// Cursor returns the current position.
func (s *Sequencer) Cursor() Cursor {
	return s.cursor
}

// Current returns the active item. ok is false when the carousel is
// empty and the caller should render the default location instead.
func (s *Sequencer) Current() (Item, Cursor, bool) {
	if len(s.items) == 0 {
		return Item{}, Cursor{}, false
	}
	return s.items[s.cursor.ItemIndex], s.cursor, true
}

// SetShowForecast toggles location items between one and three
// sub-screens. The cursor is clamped so a shrinking sub-screen count
// cannot leave it past the end.
func (s *Sequencer) SetShowForecast(show bool) {
	s.showForecast = show
	s.clampCursor()
}

// ShowForecast reports whether location items expand to forecast pages.
func (s *Sequencer) ShowForecast() bool {
	return s.showForecast
}

// SubScreens returns how many sub-screens an item expands to.
func (s *Sequencer) SubScreens(item Item) int {
	if item.Kind == KindLocation && s.showForecast {
		return locationSubScreens
	}
	return singleSubScreen
}

// TotalSubScreens returns the length of one full rotation.
func (s *Sequencer) TotalSubScreens() int {
	total := 0
	for _, item := range s.items {
		total += s.SubScreens(item)
	}
	return total
}

// Advance moves the cursor one sub-screen forward, wrapping sub-screens
// within an item and items within the rotation. Advancing an empty
// carousel is a no-op.
func (s *Sequencer) Advance() {
	if len(s.items) == 0 {
		return
	}

	s.cursor.SubIndex++
	if s.cursor.SubIndex >= s.SubScreens(s.items[s.cursor.ItemIndex]) {
		s.cursor.SubIndex = 0
		s.cursor.ItemIndex++
		if s.cursor.ItemIndex >= len(s.items) {
			s.cursor.ItemIndex = 0
		}
	}
}

// kindCap returns the capacity for a single kind.
func kindCap(k Kind) int {
	switch k {
	case KindLocation:
		return MaxLocationItems
	case KindCountdown:
		return MaxCountdownItems
	case KindCustomText:
		return MaxCustomTextItems
	case KindStatsFeed:
		return MaxStatsFeedItems
	default:
		return 0
	}
}

// CountKind returns how many items of a kind are in the rotation.
func (s *Sequencer) CountKind(k Kind) int {
	count := 0
	for _, item := range s.items {
		if item.Kind == k {
			count++
		}
	}
	return count
}

// Add appends an item, enforcing the total and per-kind capacities.
func (s *Sequencer) Add(item Item) error {
	if len(s.items) >= MaxItems {
		return ErrCarouselFull
	}
	if s.CountKind(item.Kind) >= kindCap(item.Kind) {
		return fmt.Errorf("carousel already holds %d %s items", kindCap(item.Kind), item.Kind)
	}
	if item.DataIndex < 0 {
		return fmt.Errorf("negative data index %d: %w", item.DataIndex, ErrOutOfRange)
	}
	s.items = append(s.items, item)
	return nil
}

// RemoveAt deletes the item at index, preserving the order of the rest.
func (s *Sequencer) RemoveAt(index int) error {
	if index < 0 || index >= len(s.items) {
		return ErrOutOfRange
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.clampCursor()
	return nil
}

// Move relocates the item at from to position to, shifting the items in
// between.
func (s *Sequencer) Move(from, to int) error {
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}

	item := s.items[from]
	s.items = append(s.items[:from], s.items[from+1:]...)

	rest := make([]Item, 0, len(s.items)+1)
	rest = append(rest, s.items[:to]...)
	rest = append(rest, item)
	rest = append(rest, s.items[to:]...)
	s.items = rest

	s.clampCursor()
	return nil
}

// RemoveKindData drops every item referencing (kind, dataIndex) and
// re-indexes items pointing past it. Called when the referenced
// location/countdown/custom screen is deleted from configuration.
func (s *Sequencer) RemoveKindData(k Kind, dataIndex int) {
	kept := s.items[:0]
	for _, item := range s.items {
		if item.Kind == k {
			if item.DataIndex == dataIndex {
				continue
			}
			if item.DataIndex > dataIndex {
				item.DataIndex--
			}
		}
		kept = append(kept, item)
	}
	s.items = kept
	s.clampCursor()
}

// Reset moves the cursor back to the first sub-screen of the first
// item.
func (s *Sequencer) Reset() {
	s.cursor = Cursor{}
}

// clampCursor pulls the cursor back inside bounds after any mutation
// that may have shrunk the rotation. The next render must never index
// past the item list.
func (s *Sequencer) clampCursor() {
	if len(s.items) == 0 {
		s.cursor = Cursor{}
		return
	}
	if s.cursor.ItemIndex >= len(s.items) {
		s.cursor = Cursor{}
		return
	}
	if s.cursor.SubIndex >= s.SubScreens(s.items[s.cursor.ItemIndex]) {
		s.cursor.SubIndex = 0
	}
}
