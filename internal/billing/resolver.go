package billing

import (
	"fmt"
	"strings"

	"pahana-billing/internal/domain"
)

// Status is the validity of the account number typed at the desk.
type Status int

const (
	StatusUnknown Status = iota
	StatusPending
	StatusValid
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{StatusUnknown, StatusPending, StatusValid, StatusInvalid} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// CustomerRef is the customer currently attached to a billing session.
type CustomerRef struct {
	AccountNumber string `json:"accountNumber"`
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Address       string `json:"address,omitempty"`
	Status        Status `json:"status"`
}

// Lookup identifies one resolution request. Seq orders requests; only the
// latest issued Seq may change the resolver state.
type Lookup struct {
	Seq           uint64
	AccountNumber string
}

// Resolver tracks the account number input and the outcome of its lookups.
type Resolver struct {
	ref CustomerRef
	seq uint64
}

// Begin records a new account number input. It returns false when no lookup is
// needed (empty input); any lookup still in flight becomes stale either way.
func (r *Resolver) Begin(raw string) (Lookup, bool) {
	value := strings.TrimSpace(raw)
	r.seq++
	r.ref = CustomerRef{AccountNumber: value}
	if value == "" {
		r.ref.Status = StatusUnknown
		return Lookup{}, false
	}
	r.ref.Status = StatusPending
	return Lookup{Seq: r.seq, AccountNumber: value}, true
}

// Complete applies the result of l. Results for superseded lookups are dropped
// and Complete reports false.
func (r *Resolver) Complete(l Lookup, c *domain.Customer, err error) bool {
	if l.Seq == 0 || l.Seq != r.seq {
		return false
	}
	if err != nil || c == nil {
		r.ref = CustomerRef{AccountNumber: l.AccountNumber, Status: StatusInvalid}
		return true
	}
	r.ref = CustomerRef{
		AccountNumber: l.AccountNumber,
		ID:            c.ID,
		Name:          c.Name,
		PhoneNumber:   c.PhoneNumber,
		Address:       c.Address,
		Status:        StatusValid,
	}
	return true
}

// Reset clears the customer and invalidates every lookup issued so far.
func (r *Resolver) Reset() {
	r.seq++
	r.ref = CustomerRef{}
}

// Ready reports whether a customer has been resolved.
func (r *Resolver) Ready() bool {
	return r.ref.Status == StatusValid
}

func (r *Resolver) Customer() CustomerRef {
	return r.ref
}
