package services

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
)

// EventPublisher delivers expense events to subscribers.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService implements the add, list and delete handlers. Each handler
// is a transformation over an in-memory record sequence; loading and
// saving belong to the caller.
type ExpenseService struct {
	logger    *log.Logger
	now       func() time.Time
	publisher EventPublisher
}

type Option func(*ExpenseService)

// WithClock overrides the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithPublisher enables event publishing after successful saves.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func NewExpenseService(logger *log.Logger, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		logger: logger.WithComponent(log.ComponentExpense),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextID returns one more than the highest id in expenses, or 1.
func NextID(expenses []core.Expense) int64 {
	var highest int64
	for _, e := range expenses {
		if e.ID > highest {
			highest = e.ID
		}
	}
	return highest + 1
}

// Add appends a new expense stamped with the current time. The input slice
// is left untouched.
func (s *ExpenseService) Add(ctx context.Context, expenses []core.Expense, amount core.Amount, category, note string) ([]core.Expense, core.Expense, error) {
	s.logger.InfoContext(ctx, "Running add", log.FieldOperation, log.OpAdd)

	e := core.Expense{
		ID:       NextID(expenses),
		Amount:   amount,
		Category: category,
		Note:     note,
		Date:     core.NewTimestamp(s.now()),
	}
	if err := e.Validate(); err != nil {
		return expenses, core.Expense{}, err
	}

	out := append(slices.Clip(expenses), e)
	s.logger.InfoContext(ctx, "Expense added", expenseFields(log.OpAdd, e).ToSlice()...)
	return out, e, nil
}

// Delete removes the first expense carrying id. Remaining records keep
// their order.
func (s *ExpenseService) Delete(ctx context.Context, expenses []core.Expense, id int64) ([]core.Expense, core.Expense, error) {
	s.logger.InfoContext(ctx, "Running delete", log.FieldOperation, log.OpDelete)

	i := slices.IndexFunc(expenses, func(e core.Expense) bool { return e.ID == id })
	if i < 0 {
		return expenses, core.Expense{}, &core.NotFoundError{ID: id}
	}

	removed := expenses[i]
	out := slices.Delete(slices.Clone(expenses), i, i+1)
	s.logger.InfoContext(ctx, "Deleted expense", expenseFields(log.OpDelete, removed).ToSlice()...)
	return out, removed, nil
}

// List writes the expenses as a fixed-width table.
func (s *ExpenseService) List(ctx context.Context, w io.Writer, expenses []core.Expense) error {
	s.logger.InfoContext(ctx, "Running list", log.FieldOperation, log.OpList)

	if len(expenses) == 0 {
		_, err := io.WriteString(w, "No expenses found\n")
		return err
	}

	var b strings.Builder
	b.WriteString("\nID | DATE                | CATEGORY | AMOUNT | NOTE\n")
	b.WriteString(strings.Repeat("-", 65) + "\n")
	for _, e := range expenses {
		fmt.Fprintf(&b, "%2d | %-19s | %-8s | %7s | %s\n",
			e.ID, e.Date.String(), e.Category, e.Amount.Format(), e.Note)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Notify publishes an event for a saved mutation. Failures are logged and
// swallowed: the data file is already the source of truth.
func (s *ExpenseService) Notify(ctx context.Context, eventType string, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(eventType, e)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish expense event",
			log.NewFields().
				WithOperation(log.OpPublish).
				WithError(err).
				WithErrorType(log.ErrorTypeNetwork).
				ToSlice()...)
	}
}

func expenseFields(op string, e core.Expense) log.LogFields {
	return log.NewFields().
		WithOperation(op).
		WithExpense(e.ID, e.Amount.String(), e.Category, e.Note, e.Date.String())
}
