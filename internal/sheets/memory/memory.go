// Package memory is an in-process LedgerWriter used by tests and local
// runs without spreadsheet credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "caixa/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.ExportRow
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendPaidInstallment(_ context.Context, row ports.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("row-%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.ExportRow, len(s.rows))
	copy(out, s.rows)
	return out
}
