package billing

import (
	"context"
	"errors"
	"fmt"

	"pahana-billing/internal/domain"
)

const (
	MsgNetworkError   = "network error"
	MsgCheckoutFailed = "checkout failed"
)

// SaleCreator persists a sale and returns the authoritative bill.
type SaleCreator interface {
	CreateSale(ctx context.Context, req domain.SaleRequest) (*domain.Bill, error)
}

// ReceiptRenderer turns a persisted bill into an output artifact and returns
// its location.
type ReceiptRenderer interface {
	Render(ctx context.Context, bill domain.Bill) (string, error)
}

// Rejection is implemented by errors that carry a message from the server.
type Rejection interface {
	RejectionMessage() string
}

// Summary is what the operator is asked to confirm before submission.
type Summary struct {
	CustomerID    int64  `json:"customerId"`
	CustomerName  string `json:"customerName"`
	AccountNumber string `json:"accountNumber"`
	Lines         int    `json:"lines"`
	GrandTotal    int64  `json:"grandTotal"`
}

// Confirmer is the human acknowledgement gate in front of checkout.
type Confirmer interface {
	Confirm(ctx context.Context, s Summary) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, s Summary) bool

func (f ConfirmFunc) Confirm(ctx context.Context, s Summary) bool {
	return f(ctx, s)
}

// Phase is the coordinator's position in idle -> submitting -> idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	if p == PhaseSubmitting {
		return "submitting"
	}
	return "idle"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "submitting":
		*p = PhaseSubmitting
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// OutcomeKind classifies how a checkout attempt ended.
type OutcomeKind int

const (
	OutcomeBlocked OutcomeKind = iota
	OutcomeDeclined
	OutcomeFailed
	OutcomeSucceeded
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeDeclined:
		return "declined"
	case OutcomeFailed:
		return "failed"
	case OutcomeSucceeded:
		return "succeeded"
	default:
		return "blocked"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for _, v := range []OutcomeKind{OutcomeBlocked, OutcomeDeclined, OutcomeFailed, OutcomeSucceeded} {
		if v.String() == string(text) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Outcome reports one checkout attempt. RenderError is set when the sale went
// through but the receipt could not be produced.
type Outcome struct {
	Kind        OutcomeKind  `json:"kind"`
	Message     string       `json:"message,omitempty"`
	Bill        *domain.Bill `json:"bill,omitempty"`
	Receipt     string       `json:"receipt,omitempty"`
	RenderError string       `json:"renderError,omitempty"`
}

// Coordinator submits a finished cart and settles the session afterwards.
type Coordinator struct {
	sales    SaleCreator
	receipts ReceiptRenderer
	phase    Phase
	last     *Outcome
}

func NewCoordinator(sales SaleCreator, receipts ReceiptRenderer) *Coordinator {
	return &Coordinator{sales: sales, receipts: receipts}
}

func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Last returns the most recent non-blocked outcome, if any.
func (c *Coordinator) Last() *Outcome {
	return c.last
}

// Ready reports whether checkout may leave idle for the given session parts.
func (c *Coordinator) Ready(r *Resolver, cart *Builder) bool {
	return c.phase == PhaseIdle && r.Ready() && cart.Len() > 0
}

// Checkout runs one attempt. When the preconditions are not met nothing
// happens and OutcomeBlocked is returned. On success the cart and the customer
// are reset; on failure both are left as they were.
func (c *Coordinator) Checkout(ctx context.Context, r *Resolver, cart *Builder, confirm Confirmer) Outcome {
	if !c.Ready(r, cart) {
		return Outcome{Kind: OutcomeBlocked}
	}

	customer := r.Customer()
	summary := Summary{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		AccountNumber: customer.AccountNumber,
		Lines:         cart.Len(),
		GrandTotal:    cart.GrandTotal(),
	}
	if confirm == nil || !confirm.Confirm(ctx, summary) {
		return c.settle(Outcome{Kind: OutcomeDeclined})
	}

	req := BuildSaleRequest(customer.ID, cart.Lines())

	c.phase = PhaseSubmitting
	bill, err := c.sales.CreateSale(ctx, req)
	if err != nil {
		return c.settle(Outcome{Kind: OutcomeFailed, Message: failureMessage(err)})
	}
	if bill == nil {
		return c.settle(Outcome{Kind: OutcomeFailed, Message: MsgCheckoutFailed})
	}

	out := Outcome{Kind: OutcomeSucceeded, Bill: bill}
	if c.receipts != nil {
		location, err := c.receipts.Render(ctx, *bill)
		if err != nil {
			out.RenderError = err.Error()
		} else {
			out.Receipt = location
		}
	}

	cart.Clear()
	r.Reset()
	return c.settle(out)
}

func (c *Coordinator) settle(out Outcome) Outcome {
	c.phase = PhaseIdle
	c.last = &out
	return out
}

// BuildSaleRequest turns cart lines into the submission payload.
func BuildSaleRequest(customerID int64, lines []CartLine) domain.SaleRequest {
	req := domain.SaleRequest{
		CustomerID: customerID,
		SalesItems: make([]domain.SaleRequestLine, 0, len(lines)),
	}
	for _, l := range lines {
		req.SalesItems = append(req.SalesItems, domain.SaleRequestLine{ItemID: l.Item.ID, Unit: l.Unit})
	}
	return req
}

func failureMessage(err error) string {
	var rej Rejection
	if errors.As(err, &rej) {
		if msg := rej.RejectionMessage(); msg != "" {
			return msg
		}
		return MsgCheckoutFailed
	}
	return MsgNetworkError
}
