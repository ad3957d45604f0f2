package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"expenses/internal/core"
	"expenses/internal/log"
)

// JSONFile persists the record sequence as a pretty-printed JSON array.
// The file is neither locked nor swapped atomically: concurrent writers
// race and the last one wins, and a failed write may leave it truncated.
type JSONFile struct {
	path   string
	logger *log.Logger
}

// record mirrors core.Expense on disk, with an optional id so the loader
// can tell which entries predate id assignment.
type record struct {
	ID       *int64         `json:"id"`
	Amount   core.Amount    `json:"amount"`
	Category string         `json:"category"`
	Note     string         `json:"note"`
	Date     core.Timestamp `json:"date"`
}

func NewJSONFile(path string, logger *log.Logger) *JSONFile {
	return &JSONFile{
		path:   path,
		logger: logger.WithComponent(log.ComponentStorage),
	}
}

// Path returns the data file location.
func (s *JSONFile) Path() string {
	return s.path
}

// Load reads the record sequence. A missing file is an empty sequence.
// Records without an id are numbered 1, 2, ... in file order; the counter
// ignores explicit ids, so a backfilled id can duplicate an existing one.
func (s *JSONFile) Load(ctx context.Context) ([]core.Expense, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "Data file not found, starting empty", log.FieldPath, s.path)
		return []core.Expense{}, nil
	}
	if err != nil {
		return nil, s.loadFailed(ctx, err)
	}

	var raw []record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, s.loadFailed(ctx, err)
	}

	expenses := make([]core.Expense, len(raw))
	var nextID int64 = 1
	migrated := 0
	for i, r := range raw {
		e := core.Expense{
			Amount:   r.Amount,
			Category: r.Category,
			Note:     r.Note,
			Date:     r.Date,
		}
		if r.ID != nil {
			e.ID = *r.ID
		} else {
			e.ID = nextID
			nextID++
			migrated++
		}
		expenses[i] = e
	}

	if migrated > 0 {
		fields := log.NewFields().WithOperation(log.OpMigrate).WithPath(s.path)
		fields[log.FieldCount] = migrated
		s.logger.InfoContext(ctx, "Assigned ids to expenses missing one", fields.ToSlice()...)
	}

	fields := log.NewFields().WithOperation(log.OpLoad).WithPath(s.path)
	fields[log.FieldCount] = len(expenses)
	s.logger.DebugContext(ctx, "Loaded expenses", fields.ToSlice()...)
	return expenses, nil
}

func (s *JSONFile) loadFailed(ctx context.Context, err error) error {
	s.logger.ErrorContext(ctx, "Failed to load data file",
		log.NewFields().WithOperation(log.OpLoad).WithPath(s.path).WithError(err).ToSlice()...)
	return &core.DataCorruptionError{Path: s.path, Err: err}
}

// Save overwrites the data file with the full sequence.
func (s *JSONFile) Save(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}

	if err := s.write(expenses); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save data file",
			log.NewFields().WithOperation(log.OpSave).WithPath(s.path).WithError(err).ToSlice()...)
		return &core.PersistenceError{Path: s.path, Err: err}
	}

	s.logger.DebugContext(ctx, "Saved expenses", log.FieldPath, s.path, log.FieldCount, len(expenses))
	return nil
}

func (s *JSONFile) write(expenses []core.Expense) (err error) {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(expenses); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
