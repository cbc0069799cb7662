package billing

import (
	"iter"
	"strconv"
	"strings"

	"pahana-billing/internal/domain"
)

// MaxQuantity bounds the units on a single line.
const MaxQuantity = 1_000_000

// CartLine is one item on the bill. SellPrice is captured when the line is
// created so later catalog price changes do not alter it.
type CartLine struct {
	Item      domain.Item
	SellPrice int64
	Unit      int
}

func (l CartLine) SubTotal() int64 {
	return l.SellPrice * int64(l.Unit)
}

// Builder accumulates cart lines and the staging area used to add or edit them.
type Builder struct {
	catalog    []domain.Item
	lines      []CartLine
	candidate  *domain.Item
	quantity   int
	searchText string
	editIndex  int
}

func NewBuilder(catalog []domain.Item) *Builder {
	return &Builder{catalog: catalog, quantity: 1, editIndex: -1}
}

// SetCatalog replaces the items available to Search, Select and EditLine.
func (b *Builder) SetCatalog(items []domain.Item) {
	b.catalog = items
}

// Search returns the catalog items matching query. The sequence is lazy and may
// be ranged over any number of times.
func (b *Builder) Search(query string) iter.Seq[domain.Item] {
	catalog := b.catalog
	return func(yield func(domain.Item) bool) {
		for _, it := range catalog {
			if !Matches(it, query) {
				continue
			}
			if !yield(it) {
				return
			}
		}
	}
}

// Matches reports whether query hits the item's name or description
// (case-insensitive substring) or equals its identifier.
func Matches(it domain.Item, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	if strconv.FormatInt(it.ID, 10) == q {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(it.Name), q) ||
		strings.Contains(strings.ToLower(it.Description), q)
}

// SetSearchText records the search box contents. Typing drops the staged candidate.
func (b *Builder) SetSearchText(text string) {
	b.searchText = text
	b.candidate = nil
}

// Select stages item for addition with a quantity of one.
func (b *Builder) Select(item domain.Item) {
	staged := item
	b.candidate = &staged
	b.quantity = 1
	b.searchText = item.Name
}

func (b *Builder) SetQuantity(n int) {
	b.quantity = n
}

// AddOrUpdate commits the staged candidate. In edit mode the edited line is
// replaced; otherwise the quantity is merged into an existing line for the same
// item or a new line is appended. It returns false when nothing was committed,
// including when the line would exceed MaxQuantity.
func (b *Builder) AddOrUpdate() bool {
	if b.candidate == nil || b.quantity < 1 || b.quantity > MaxQuantity {
		return false
	}
	item := *b.candidate

	if b.editing() {
		if idx := b.indexOf(item.ID); idx >= 0 && idx != b.editIndex {
			// one line per item; the other line must be edited instead
			return false
		}
		b.lines[b.editIndex] = CartLine{Item: item, SellPrice: item.Price, Unit: b.quantity}
	} else if idx := b.indexOf(item.ID); idx >= 0 {
		if b.lines[idx].Unit > MaxQuantity-b.quantity {
			return false
		}
		b.lines[idx].Unit += b.quantity
	} else {
		b.lines = append(b.lines, CartLine{Item: item, SellPrice: item.Price, Unit: b.quantity})
	}

	b.clearStaging()
	return true
}

// EditLine stages the line at index for editing. The item is re-read from the
// catalog so an edit picks up the current price.
func (b *Builder) EditLine(index int) bool {
	if index < 0 || index >= len(b.lines) {
		return false
	}
	line := b.lines[index]
	item, ok := b.catalogItem(line.Item.ID)
	if !ok {
		item = line.Item
		item.Price = line.SellPrice
	}
	b.candidate = &item
	b.quantity = line.Unit
	b.searchText = item.Name
	b.editIndex = index
	return true
}

// RemoveLine deletes the line at index. Removing the line under edit also
// abandons the edit.
func (b *Builder) RemoveLine(index int) bool {
	if index < 0 || index >= len(b.lines) {
		return false
	}
	b.lines = append(b.lines[:index:index], b.lines[index+1:]...)
	switch {
	case index == b.editIndex:
		b.clearStaging()
	case index < b.editIndex:
		b.editIndex--
	}
	return true
}

// Clear empties the cart and the staging area.
func (b *Builder) Clear() {
	b.lines = nil
	b.clearStaging()
}

// Lines returns a copy of the current lines in insertion order.
func (b *Builder) Lines() []CartLine {
	out := make([]CartLine, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Builder) Len() int {
	return len(b.lines)
}

// GrandTotal sums the line subtotals.
func (b *Builder) GrandTotal() int64 {
	var total int64
	for _, l := range b.lines {
		total += l.SubTotal()
	}
	return total
}

// EditIndex returns the index under edit and whether an edit is in progress.
func (b *Builder) EditIndex() (int, bool) {
	return b.editIndex, b.editing()
}

func (b *Builder) Candidate() (domain.Item, bool) {
	if b.candidate == nil {
		return domain.Item{}, false
	}
	return *b.candidate, true
}

func (b *Builder) Quantity() int {
	return b.quantity
}

func (b *Builder) SearchText() string {
	return b.searchText
}

func (b *Builder) editing() bool {
	return b.editIndex >= 0 && b.editIndex < len(b.lines)
}

func (b *Builder) clearStaging() {
	b.candidate = nil
	b.quantity = 1
	b.searchText = ""
	b.editIndex = -1
}

func (b *Builder) indexOf(itemID int64) int {
	for i, l := range b.lines {
		if l.Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (b *Builder) catalogItem(id int64) (domain.Item, bool) {
	for _, it := range b.catalog {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Item{}, false
}
