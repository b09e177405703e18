package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ports "srank/internal/sheets"
)

// Store keeps the last written ranking in memory.
type Store struct {
	mu     sync.Mutex
	header []string
	rows   [][]any
	writes int
}

var _ ports.RankingWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteRanking replaces the stored table and returns a synthetic range reference.
func (s *Store) WriteRanking(_ context.Context, header []string, rows [][]any) (string, error) {
	if len(header) == 0 {
		return "", errors.New("ranking header is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = append([]string(nil), header...)
	s.rows = make([][]any, len(rows))
	for i, r := range rows {
		s.rows[i] = append([]any(nil), r...)
	}
	s.writes++
	return fmt.Sprintf("mem:%d:A1:%d", s.writes, len(rows)+1), nil
}

// Snapshot returns a copy of the last written table.
func (s *Store) Snapshot() (header []string, rows [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	header = append([]string(nil), s.header...)
	rows = make([][]any, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]any(nil), r...)
	}
	return header, rows
}

// Writes counts successful WriteRanking calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
