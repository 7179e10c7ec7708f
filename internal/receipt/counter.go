package receipt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bloomelein/m/domain"
)

const (
	dateLayout   = "2006-01-02"
	numberLayout = "060102"

	// DefaultCounterName identifies the shop-wide sequence in the store.
	DefaultCounterName = "receipts"
)

// CounterState is the daily sequence as last issued. A zero value means no
// receipt has been numbered yet.
type CounterState struct {
	LastResetDate string `json:"last_reset_date"`
	Sequence      int64  `json:"sequence"`
}

// Number is an allocated receipt number.
type Number struct {
	Date     time.Time
	Sequence int64
}

// String formats the number as YYMMDD-SEQ with SEQ padded to three digits.
// Sequences past 999 simply widen.
func (n Number) String() string {
	return fmt.Sprintf("%s-%03d", n.Date.Format(numberLayout), n.Sequence)
}

// Advance computes the next number for today. The sequence restarts at 1
// whenever today differs from the stored date.
func Advance(state CounterState, today time.Time) (Number, CounterState) {
	day := today.Format(dateLayout)
	next := CounterState{LastResetDate: day, Sequence: 1}
	if state.LastResetDate == day {
		next.Sequence = state.Sequence + 1
	}
	return Number{Date: today, Sequence: next.Sequence}, next
}

// CounterStore persists counter state between process restarts.
type CounterStore interface {
	LoadCounter(ctx context.Context, name string) (domain.DailyCounter, bool, error)
	SaveCounter(ctx context.Context, counter domain.DailyCounter) error
}

// Counter is the single owner of the daily receipt sequence. All access goes
// through Allocate, State and Reset, which serialize on one mutex so two
// compositions can never read the same sequence.
type Counter struct {
	mu     sync.Mutex
	name   string
	loc    *time.Location
	store  CounterStore
	state  CounterState
	loaded bool
}

// NewCounter creates a counter whose calendar days are measured in loc.
// store may be nil for a purely in-memory counter.
func NewCounter(loc *time.Location, store CounterStore) *Counter {
	if loc == nil {
		loc = time.UTC
	}
	return &Counter{name: DefaultCounterName, loc: loc, store: store}
}

// Location returns the time zone used for day boundaries.
func (c *Counter) Location() *time.Location {
	return c.loc
}

// Allocate issues the next receipt number for the day containing now.
// The in-memory state only advances once the store accepted the write.
func (c *Counter) Allocate(ctx context.Context, now time.Time) (Number, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return Number{}, err
	}

	number, next := Advance(c.state, now.In(c.loc))
	if c.store != nil {
		err := c.store.SaveCounter(ctx, domain.DailyCounter{
			Name:          c.name,
			LastResetDate: next.LastResetDate,
			Sequence:      next.Sequence,
		})
		if err != nil {
			return Number{}, fmt.Errorf("save receipt counter: %w", err)
		}
	}
	c.state = next
	return number, nil
}

// State returns a copy of the current counter state.
func (c *Counter) State(ctx context.Context) (CounterState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadLocked(ctx); err != nil {
		return CounterState{}, err
	}
	return c.state, nil
}

// Reset forgets the stored day so the next allocation starts at 1.
func (c *Counter) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		if err := c.store.SaveCounter(ctx, domain.DailyCounter{Name: c.name}); err != nil {
			return fmt.Errorf("reset receipt counter: %w", err)
		}
	}
	c.state = CounterState{}
	c.loaded = true
	return nil
}

func (c *Counter) loadLocked(ctx context.Context) error {
	if c.loaded || c.store == nil {
		c.loaded = true
		return nil
	}
	stored, ok, err := c.store.LoadCounter(ctx, c.name)
	if err != nil {
		return fmt.Errorf("load receipt counter: %w", err)
	}
	if ok {
		c.state = CounterState{LastResetDate: stored.LastResetDate, Sequence: stored.Sequence}
	}
	c.loaded = true
	return nil
}
