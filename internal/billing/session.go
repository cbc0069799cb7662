package billing

import (
	"context"
	"slices"

	"pahana-billing/internal/domain"
)

// CustomerLookup resolves an account number to a customer record.
type CustomerLookup interface {
	ResolveCustomer(ctx context.Context, accountNumber string) (*domain.Customer, error)
}

// Session is one operator's billing context. It is not safe for concurrent
// use; callers serialise access.
type Session struct {
	resolver Resolver
	cart     *Builder
	checkout *Coordinator
}

func NewSession(catalog []domain.Item, sales SaleCreator, receipts ReceiptRenderer) *Session {
	return &Session{
		cart:     NewBuilder(catalog),
		checkout: NewCoordinator(sales, receipts),
	}
}

// LineView is a cart line as presented to the operator.
type LineView struct {
	ItemID    int64  `json:"itemId"`
	ItemName  string `json:"itemName"`
	SellPrice int64  `json:"sellPrice"`
	Unit      int    `json:"unit"`
	SubTotal  int64  `json:"subTotal"`
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Customer    CustomerRef  `json:"customer"`
	SearchText  string       `json:"searchText"`
	Candidate   *domain.Item `json:"candidate,omitempty"`
	Quantity    int          `json:"quantity"`
	EditIndex   *int         `json:"editIndex,omitempty"`
	Lines       []LineView   `json:"lines"`
	GrandTotal  int64        `json:"grandTotal"`
	CanAdd      bool         `json:"canAdd"`
	CanCheckout bool         `json:"canCheckout"`
	Phase       Phase        `json:"phase"`
	LastOutcome *Outcome     `json:"lastOutcome,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	lines := s.cart.Lines()
	views := make([]LineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, LineView{
			ItemID:    l.Item.ID,
			ItemName:  l.Item.Name,
			SellPrice: l.SellPrice,
			Unit:      l.Unit,
			SubTotal:  l.SubTotal(),
		})
	}
	snap := Snapshot{
		Customer:    s.resolver.Customer(),
		SearchText:  s.cart.SearchText(),
		Quantity:    s.cart.Quantity(),
		Lines:       views,
		GrandTotal:  s.cart.GrandTotal(),
		CanAdd:      s.resolver.Ready(),
		CanCheckout: s.checkout.Ready(&s.resolver, s.cart),
		Phase:       s.checkout.Phase(),
	}
	if item, ok := s.cart.Candidate(); ok {
		snap.Candidate = &item
	}
	if idx, ok := s.cart.EditIndex(); ok {
		snap.EditIndex = &idx
	}
	if last := s.checkout.Last(); last != nil {
		out := *last
		snap.LastOutcome = &out
	}
	return snap
}

// SetCatalog refreshes the items the cart can search and select.
func (s *Session) SetCatalog(items []domain.Item) Snapshot {
	s.cart.SetCatalog(items)
	return s.Snapshot()
}

// BeginLookup records a new account number and returns the lookup to run, if any.
func (s *Session) BeginLookup(raw string) (Lookup, bool) {
	return s.resolver.Begin(raw)
}

// CompleteLookup applies a lookup result; stale results leave the state unchanged.
func (s *Session) CompleteLookup(l Lookup, c *domain.Customer, err error) (Snapshot, bool) {
	applied := s.resolver.Complete(l, c, err)
	return s.Snapshot(), applied
}

// Resolve runs a lookup for raw synchronously.
func (s *Session) Resolve(ctx context.Context, customers CustomerLookup, raw string) Snapshot {
	l, ok := s.resolver.Begin(raw)
	if !ok {
		return s.Snapshot()
	}
	c, err := customers.ResolveCustomer(ctx, l.AccountNumber)
	snap, _ := s.CompleteLookup(l, c, err)
	return snap
}

// Search updates the search text and returns the matching catalog items.
func (s *Session) Search(query string) []domain.Item {
	if !s.resolver.Ready() {
		return nil
	}
	s.cart.SetSearchText(query)
	return slices.Collect(s.cart.Search(query))
}

// Select stages the catalog item with id itemID.
func (s *Session) Select(itemID int64) (Snapshot, error) {
	if !s.resolver.Ready() {
		return s.Snapshot(), nil
	}
	item, ok := s.cart.catalogItem(itemID)
	if !ok {
		return s.Snapshot(), domain.ErrNotFound
	}
	s.cart.Select(item)
	return s.Snapshot(), nil
}

func (s *Session) SetQuantity(n int) Snapshot {
	if s.resolver.Ready() {
		s.cart.SetQuantity(n)
	}
	return s.Snapshot()
}

func (s *Session) AddOrUpdate() Snapshot {
	if s.resolver.Ready() {
		s.cart.AddOrUpdate()
	}
	return s.Snapshot()
}

func (s *Session) EditLine(index int) Snapshot {
	s.cart.EditLine(index)
	return s.Snapshot()
}

func (s *Session) RemoveLine(index int) Snapshot {
	s.cart.RemoveLine(index)
	return s.Snapshot()
}

// Checkout submits the cart after confirm accepts the summary.
func (s *Session) Checkout(ctx context.Context, confirm Confirmer) (Snapshot, Outcome) {
	out := s.checkout.Checkout(ctx, &s.resolver, s.cart, confirm)
	return s.Snapshot(), out
}

// Close invalidates in-flight lookups so late results are discarded.
func (s *Session) Close() {
	s.resolver.Reset()
	s.cart.Clear()
}
