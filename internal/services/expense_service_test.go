package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
)

var fixedNow = time.Date(2025, 6, 15, 9, 45, 30, 123456789, time.Local)

func newService(opts ...Option) *ExpenseService {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewExpenseService(log.Discard(), opts...)
}

func mustAdd(t *testing.T, s *ExpenseService, expenses []core.Expense, amount float64, category, note string) []core.Expense {
	t.Helper()
	out, _, err := s.Add(context.Background(), expenses, core.NewAmount(amount), category, note)
	if err != nil {
		t.Fatalf("add %v %s: %v", amount, category, err)
	}
	return out
}

func ids(expenses []core.Expense) []int64 {
	out := make([]int64, len(expenses))
	for i, e := range expenses {
		out[i] = e.ID
	}
	return out
}

func TestNextID(t *testing.T) {
	cases := []struct {
		ids  []int64
		want int64
	}{
		{nil, 1},
		{[]int64{1}, 2},
		{[]int64{3, 1}, 4},
		{[]int64{1, 1, 2}, 3},
	}
	for _, tc := range cases {
		var expenses []core.Expense
		for _, id := range tc.ids {
			expenses = append(expenses, core.Expense{ID: id})
		}
		if got := NextID(expenses); got != tc.want {
			t.Fatalf("NextID(%v) = %d, want %d", tc.ids, got, tc.want)
		}
	}
}

func TestAddAssignsIncreasingIDs(t *testing.T) {
	s := newService()
	var expenses []core.Expense
	for i := 0; i < 5; i++ {
		expenses = mustAdd(t, s, expenses, float64(i+1), "cat", "")
	}
	got := ids(expenses)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("ids not strictly increasing: %v", got)
		}
	}
	if got[0] != 1 || got[4] != 5 {
		t.Fatalf("unexpected ids %v", got)
	}
}

func TestAddRecordsFields(t *testing.T) {
	s := newService()
	out, e, err := s.Add(context.Background(), nil, core.NewAmount(12.5), "food", "lunch")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(out) != 1 || out[0] != e {
		t.Fatalf("record not appended: %+v", out)
	}
	if e.ID != 1 || e.Category != "food" || e.Note != "lunch" || e.Amount.Format() != "12.50" {
		t.Fatalf("unexpected record %+v", e)
	}
	if e.Date.String() != "2025-06-15T09:45:30" {
		t.Fatalf("date should be truncated to seconds, got %s", e.Date)
	}
}

func TestAddRejectsNonPositiveAmount(t *testing.T) {
	s := newService()
	start := mustAdd(t, s, nil, 1, "cat", "")

	for _, amount := range []float64{0, -1, -12.5} {
		out, _, err := s.Add(context.Background(), start, core.NewAmount(amount), "cat", "")
		var invalid *core.InvalidAmountError
		if !errors.As(err, &invalid) {
			t.Fatalf("amount %v: expected InvalidAmountError, got %v", amount, err)
		}
		if len(out) != 1 {
			t.Fatalf("amount %v: sequence must be unchanged, got %d records", amount, len(out))
		}
	}
}

func TestAddLeavesInputUntouched(t *testing.T) {
	s := newService()
	base := make([]core.Expense, 1, 4)
	base[0] = core.Expense{ID: 1, Amount: core.NewAmount(1), Category: "a"}

	first, _, _ := s.Add(context.Background(), base, core.NewAmount(2), "b", "")
	second, _, _ := s.Add(context.Background(), base, core.NewAmount(3), "c", "")
	if first[1].Category != "b" || second[1].Category != "c" {
		t.Fatalf("adds from the same base must not share storage: %v / %v", first, second)
	}
}

func TestDelete(t *testing.T) {
	s := newService()
	var expenses []core.Expense
	expenses = mustAdd(t, s, expenses, 1, "a", "")
	expenses = mustAdd(t, s, expenses, 2, "b", "")
	expenses = mustAdd(t, s, expenses, 3, "c", "")

	out, removed, err := s.Delete(context.Background(), expenses, 2)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.ID != 2 || removed.Category != "b" {
		t.Fatalf("unexpected removed record %+v", removed)
	}
	if got := ids(out); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected remaining ids %v", got)
	}
	if got := ids(expenses); len(got) != 3 || got[1] != 2 {
		t.Fatalf("input sequence must not be modified, got %v", got)
	}
}

func TestDeleteNotFound(t *testing.T) {
	s := newService()
	expenses := mustAdd(t, s, nil, 1, "a", "")

	out, _, err := s.Delete(context.Background(), expenses, 99)
	var nf *core.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 99 {
		t.Fatalf("expected NotFoundError for 99, got %v", err)
	}
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("sequence must be unchanged, got %v", out)
	}
}

func TestDeleteRemovesFirstDuplicateOnly(t *testing.T) {
	s := newService()
	expenses := []core.Expense{
		{ID: 1, Category: "first"},
		{ID: 1, Category: "second"},
		{ID: 2, Category: "third"},
	}

	out, removed, err := s.Delete(context.Background(), expenses, 1)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed.Category != "first" {
		t.Fatalf("expected first match removed, got %+v", removed)
	}
	if len(out) != 2 || out[0].Category != "second" || out[1].Category != "third" {
		t.Fatalf("unexpected remaining %v", out)
	}
}

func TestListEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := newService().List(context.Background(), &buf, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	if buf.String() != "No expenses found\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestListTable(t *testing.T) {
	s := newService()
	expenses := mustAdd(t, s, nil, 12.5, "food", "lunch")
	expenses = mustAdd(t, s, expenses, 1234.567, "transport", "")

	var buf bytes.Buffer
	if err := s.List(context.Background(), &buf, expenses); err != nil {
		t.Fatalf("list: %v", err)
	}

	want := "\n" +
		"ID | DATE                | CATEGORY | AMOUNT | NOTE\n" +
		"-----------------------------------------------------------------\n" +
		" 1 | 2025-06-15T09:45:30 | food     |   12.50 | lunch\n" +
		" 2 | 2025-06-15T09:45:30 | transport | 1234.57 | \n"
	if buf.String() != want {
		t.Fatalf("unexpected table:\n%q\nwant:\n%q", buf.String(), want)
	}
}

type recordingPublisher struct {
	events []*amqp.ExpenseEvent
	err    error
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, event *amqp.ExpenseEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestNotify(t *testing.T) {
	pub := &recordingPublisher{}
	s := newService(WithPublisher(pub))

	s.Notify(context.Background(), amqp.EventExpenseCreated, core.Expense{ID: 7})
	if len(pub.events) != 1 || pub.events[0].Type != amqp.EventExpenseCreated || pub.events[0].Expense.ID != 7 {
		t.Fatalf("unexpected events %+v", pub.events)
	}

	pub.err = errors.New("broker down")
	s.Notify(context.Background(), amqp.EventExpenseDeleted, core.Expense{ID: 7})
	if len(pub.events) != 2 {
		t.Fatalf("expected publish attempt, got %d", len(pub.events))
	}
}

func TestNotifyLogsPublishFailureAsNetworkError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Console: &buf})
	s := NewExpenseService(logger, WithPublisher(&recordingPublisher{err: errors.New("dial AMQP: connection refused")}))

	s.Notify(context.Background(), amqp.EventExpenseCreated, core.Expense{ID: 1})

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error_type=network_error") || !strings.Contains(out, "operation=publish") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestNotifyWithoutPublisher(t *testing.T) {
	// Must be a no-op rather than a nil dereference.
	newService().Notify(context.Background(), amqp.EventExpenseCreated, core.Expense{ID: 1})
}
