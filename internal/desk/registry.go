// Package desk hosts interactive billing sessions for checkout operators.
package desk

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pahana-billing/internal/billing"
	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

// ErrUnknownSession is returned for ids that were never issued, were deleted,
// or have expired.
var ErrUnknownSession = errors.New("unknown session")

// Backend is the system of record the desk bills against.
type Backend interface {
	billing.CustomerLookup
	billing.SaleCreator
	GetSale(ctx context.Context, id int64) (*domain.Bill, error)
}

// Catalog supplies the items operators can add to a cart.
type Catalog interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
}

// invalidator is implemented by catalogs that keep a copy of the item list.
type invalidator interface {
	Invalidate(ctx context.Context)
}

// Options tune a Registry. Zero values select defaults.
type Options struct {
	TTL           time.Duration
	LookupTimeout time.Duration
	Logger        *zap.Logger
}

type entry struct {
	mu       sync.Mutex
	session  *billing.Session
	receipt  string
	billID   int64
	lastUsed atomic.Int64

	// ctx is cancelled when the session goes away; lookups run under it.
	ctx    context.Context
	cancel context.CancelFunc
}

// Registry owns the live sessions. Each session is driven by one goroutine at a
// time; customer lookups run in the background and land through the session's
// resolver, which drops results that arrive after a newer input.
type Registry struct {
	backend  Backend
	catalog  Catalog
	receipts billing.ReceiptRenderer

	ttl           time.Duration
	lookupTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	lookups  sync.WaitGroup
}

func NewRegistry(backend Backend, catalog Catalog, receipts billing.ReceiptRenderer, opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 10 * time.Second
	}
	return &Registry{
		backend:       backend,
		catalog:       catalog,
		receipts:      receipts,
		ttl:           opts.TTL,
		lookupTimeout: opts.LookupTimeout,
		logger:        logging.OrNop(opts.Logger).Named("desk"),
		now:           time.Now,
		sessions:      make(map[string]*entry),
	}
}

// Create opens a session with the current catalog.
func (r *Registry) Create(ctx context.Context) (string, billing.Snapshot, error) {
	items, err := r.catalog.ListItems(ctx)
	if err != nil {
		return "", billing.Snapshot{}, err
	}
	lookupCtx, cancel := context.WithCancel(context.Background())
	e := &entry{
		session: billing.NewSession(items, r.backend, r.receipts),
		ctx:     lookupCtx,
		cancel:  cancel,
	}
	e.lastUsed.Store(r.now().UnixNano())
	id := uuid.NewString()

	r.mu.Lock()
	r.sessions[id] = e
	r.mu.Unlock()

	r.logger.Info("session opened", zap.String("session_id", id), zap.Int("catalog", len(items)))
	return id, e.session.Snapshot(), nil
}

// Delete closes a session. Lookups still in flight are cancelled and their
// results discarded.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	r.close(id, e)
	return nil
}

func (r *Registry) Snapshot(id string) (billing.Snapshot, error) {
	var snap billing.Snapshot
	err := r.with(id, func(e *entry) {
		snap = e.session.Snapshot()
	})
	return snap, err
}

// SetCustomer records the typed account number and starts resolving it.
// The returned snapshot shows the pending state; poll Snapshot for the result.
func (r *Registry) SetCustomer(id, accountNumber string) (billing.Snapshot, error) {
	var snap billing.Snapshot
	err := r.with(id, func(e *entry) {
		lookup, ok := e.session.BeginLookup(accountNumber)
		snap = e.session.Snapshot()
		if ok {
			r.startLookup(id, e, lookup)
		}
	})
	return snap, err
}

func (r *Registry) startLookup(id string, e *entry, l billing.Lookup) {
	r.lookups.Add(1)
	go func() {
		defer r.lookups.Done()
		ctx, cancel := context.WithTimeout(e.ctx, r.lookupTimeout)
		defer cancel()

		c, err := r.backend.ResolveCustomer(ctx, l.AccountNumber)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn("customer lookup failed", zap.String("session_id", id), zap.Error(err))
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ctx.Err() != nil {
			return
		}
		if _, applied := e.session.CompleteLookup(l, c, err); !applied {
			r.logger.Debug("stale lookup dropped", zap.String("session_id", id), zap.Uint64("seq", l.Seq))
		}
	}()
}

// Search refreshes the session catalog and returns the items matching query.
func (r *Registry) Search(ctx context.Context, id, query string) ([]domain.Item, error) {
	items, err := r.catalog.ListItems(ctx)
	if err != nil {
		r.logger.Warn("catalog refresh failed", zap.String("session_id", id), zap.Error(err))
		items = nil
	}
	var found []domain.Item
	err = r.with(id, func(e *entry) {
		if items != nil {
			e.session.SetCatalog(items)
		}
		found = e.session.Search(query)
	})
	return found, err
}

// Select stages an item, optionally with a quantity other than one.
func (r *Registry) Select(id string, itemID int64, quantity *int) (billing.Snapshot, error) {
	var (
		snap   billing.Snapshot
		selErr error
	)
	err := r.with(id, func(e *entry) {
		snap, selErr = e.session.Select(itemID)
		if selErr == nil && quantity != nil && snap.Candidate != nil {
			snap = e.session.SetQuantity(*quantity)
		}
	})
	if err != nil {
		return snap, err
	}
	return snap, selErr
}

func (r *Registry) SetQuantity(id string, n int) (billing.Snapshot, error) {
	return r.apply(id, func(s *billing.Session) billing.Snapshot { return s.SetQuantity(n) })
}

func (r *Registry) AddOrUpdate(id string) (billing.Snapshot, error) {
	return r.apply(id, (*billing.Session).AddOrUpdate)
}

func (r *Registry) EditLine(id string, index int) (billing.Snapshot, error) {
	return r.apply(id, func(s *billing.Session) billing.Snapshot { return s.EditLine(index) })
}

func (r *Registry) RemoveLine(id string, index int) (billing.Snapshot, error) {
	return r.apply(id, func(s *billing.Session) billing.Snapshot { return s.RemoveLine(index) })
}

// Checkout submits the session's cart when confirmed is true.
func (r *Registry) Checkout(ctx context.Context, id string, confirmed bool) (billing.Snapshot, billing.Outcome, error) {
	var (
		snap billing.Snapshot
		out  billing.Outcome
	)
	confirm := billing.ConfirmFunc(func(context.Context, billing.Summary) bool { return confirmed })
	err := r.with(id, func(e *entry) {
		snap, out = e.session.Checkout(ctx, confirm)
		switch out.Kind {
		case billing.OutcomeSucceeded:
			e.receipt = out.Receipt
			e.billID = out.Bill.ID
			if inv, ok := r.catalog.(invalidator); ok {
				inv.Invalidate(ctx)
			}
			r.logger.Info("checkout succeeded",
				zap.String("session_id", id),
				zap.Int64("bill_id", out.Bill.ID),
				zap.Int64("grand_total", out.Bill.GrandTotal),
				zap.String("receipt", out.Receipt),
				zap.String("render_error", out.RenderError),
			)
		case billing.OutcomeFailed:
			r.logger.Warn("checkout failed", zap.String("session_id", id), zap.String("message", out.Message))
		}
	})
	return snap, out, err
}

// Receipt returns the path of the receipt for the session's last sale. When
// the file has gone missing the bill is fetched again and re-rendered.
func (r *Registry) Receipt(ctx context.Context, id string) (string, error) {
	var (
		path string
		rerr error
	)
	err := r.with(id, func(e *entry) {
		path, rerr = r.receiptFor(ctx, id, e)
	})
	if err != nil {
		return "", err
	}
	return path, rerr
}

func (r *Registry) receiptFor(ctx context.Context, id string, e *entry) (string, error) {
	if e.billID == 0 {
		return "", domain.ErrNotFound
	}
	if e.receipt != "" {
		_, err := os.Stat(e.receipt)
		if err == nil {
			return e.receipt, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	if r.receipts == nil {
		return "", domain.ErrNotFound
	}

	bill, err := r.backend.GetSale(ctx, e.billID)
	if err != nil {
		return "", err
	}
	path, err := r.receipts.Render(ctx, *bill)
	if err != nil {
		return "", err
	}
	r.logger.Info("receipt re-rendered", zap.String("session_id", id), zap.Int64("bill_id", bill.ID), zap.String("receipt", path))
	e.receipt = path
	return path, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and reports how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	expired := make(map[string]*entry)

	r.mu.Lock()
	for id, e := range r.sessions {
		if time.Unix(0, e.lastUsed.Load()).Before(cutoff) {
			expired[id] = e
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for id, e := range expired {
		r.close(id, e)
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done, then closes
// every remaining session.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("sessions expired", zap.Int("count", n))
			}
		}
	}
}

// Wait blocks until every background lookup has finished.
func (r *Registry) Wait() {
	r.lookups.Wait()
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*entry)
	r.mu.Unlock()
	for id, e := range all {
		r.close(id, e)
	}
}

func (r *Registry) close(id string, e *entry) {
	e.cancel()
	e.mu.Lock()
	e.session.Close()
	e.mu.Unlock()
	r.logger.Info("session closed", zap.String("session_id", id))
}

func (r *Registry) apply(id string, fn func(*billing.Session) billing.Snapshot) (billing.Snapshot, error) {
	var snap billing.Snapshot
	err := r.with(id, func(e *entry) {
		snap = fn(e.session)
	})
	return snap, err
}

func (r *Registry) with(id string, fn func(*entry)) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return ErrUnknownSession
	}
	e.lastUsed.Store(r.now().UnixNano())
	fn(e)
	return nil
}
