package samples

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/posterior/internal/ir"
)

// Row is one scalar draw in long (tidy) form.
type Row struct {
	Variable ir.VariableRef `json:"variable"`
	Chain    int            `json:"chain"`
	Draw     int            `json:"draw"`
	Element  int            `json:"element"`
	Value    float64        `json:"value"`
}

// CSVHeader is the header line written by WriteCSV.
var CSVHeader = []string{"variable", "chain", "draw", "element", "value"}

// Rows flattens the store into long form, ordered by variable display form,
// chain, draw and element. Chain views report their source chain index.
// Draw indices restart at 0 after the adaptation draws unless includeAdapt
// is set.
func (s *Store) Rows(includeAdapt bool) []Row {
	var rows []Row
	s.eachRow(includeAdapt, func(r Row) {
		rows = append(rows, r)
	})
	return rows
}

func (s *Store) eachRow(includeAdapt bool, fn func(Row)) {
	start := s.adapt
	if includeAdapt {
		start = 0
	}
	for _, ref := range s.Keys() {
		e := s.entries[ref.ID()]
		for c := 0; c < s.chains; c++ {
			chainLabel := c
			if s.IsChainView() {
				chainLabel = s.origin
			}
			base := c * s.total() * e.eventSize
			for d := start; d < s.total(); d++ {
				for k := 0; k < e.eventSize; k++ {
					fn(Row{
						Variable: e.ref,
						Chain:    chainLabel,
						Draw:     d - start,
						Element:  k,
						Value:    e.data[base+d*e.eventSize+k],
					})
				}
			}
		}
	}
}

// WriteCSV writes the long form with CSVHeader. Values use the shortest
// representation that round-trips.
func (s *Store) WriteCSV(w io.Writer, includeAdapt bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	var werr error
	s.eachRow(includeAdapt, func(r Row) {
		if werr != nil {
			return
		}
		werr = cw.Write([]string{
			r.Variable.String(),
			strconv.Itoa(r.Chain),
			strconv.Itoa(r.Draw),
			strconv.Itoa(r.Element),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		})
	})
	if werr != nil {
		return fmt.Errorf("write csv row: %w", werr)
	}
	cw.Flush()
	return cw.Error()
}
