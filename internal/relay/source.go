package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RowSource returns every data row of the question sheet, header excluded,
// in sheet order.
type RowSource interface {
	Rows(ctx context.Context) ([]Row, error)
}

// StaticSource is an in-memory sheet, used for demos and tests.
type StaticSource struct {
	mu   sync.Mutex
	rows []Row
	err  error
}

func NewStaticSource(rows ...Row) *StaticSource {
	return &StaticSource{rows: rows}
}

func (s *StaticSource) Append(rows ...Row) {
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
}

// Fail makes subsequent reads return err until it is cleared with nil.
func (s *StaticSource) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *StaticSource) Rows(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]Row(nil), s.rows...), nil
}

// rowsFromValues maps a sheet value grid onto rows. The first row is the
// header; the Name and Question columns are found by title.
func rowsFromValues(values [][]any) ([]Row, error) {
	if len(values) == 0 {
		return nil, nil
	}

	nameCol, questionCol := -1, -1
	for i, h := range values[0] {
		switch strings.TrimSpace(fmt.Sprint(h)) {
		case "Name":
			nameCol = i
		case "Question":
			questionCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: Name", ErrMissingColumn)
	}
	if questionCol < 0 {
		return nil, fmt.Errorf("%w: Question", ErrMissingColumn)
	}

	rows := make([]Row, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, Row{Name: cell(v, nameCol), Question: cell(v, questionCol)})
	}
	return rows, nil
}

// cell returns the string value at i; trailing empty cells are omitted by
// the API.
func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return fmt.Sprint(row[i])
}
