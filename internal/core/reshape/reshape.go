// Package reshape pivots nested per-record classification results into a wide
// table with one row per record and one column per label
package reshape

import (
	"strconv"

	perr "zeroshot/internal/platform/errors"
)

// Score is one (label key, score) pair for a record
type Score struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Result is the nested shape produced by a classification run
type Result struct {
	Seq    int64   `json:"seq"`
	Text   string  `json:"text"`
	Scores []Score `json:"scores"`
}

// Row is one wide output row; Cells aligns with Table.Columns
type Row struct {
	Seq   int64     `json:"seq"`
	Text  string    `json:"text"`
	Cells []float64 `json:"cells"`
}

// Table is the wide form: label keys as columns, records as rows
// row order follows the input order of results
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Flatten pivots results into a Table.
// Columns are the union of label keys in order of first appearance. A key
// repeated within one record keeps its first score. Every record must carry a
// score for every column; a gap means the per-record label sets diverged and
// the table would be ragged, which is reported as a schema error naming the
// offending record and label
func Flatten(results []Result) (Table, error) {
	var columns []string
	seen := map[string]struct{}{}
	for _, res := range results {
		for _, s := range res.Scores {
			if _, ok := seen[s.Key]; ok {
				continue
			}
			seen[s.Key] = struct{}{}
			columns = append(columns, s.Key)
		}
	}

	rows := make([]Row, 0, len(results))
	for _, res := range results {
		byKey := make(map[string]float64, len(res.Scores))
		for _, s := range res.Scores {
			if _, dup := byKey[s.Key]; dup {
				continue // first occurrence wins
			}
			byKey[s.Key] = s.Score
		}
		cells := make([]float64, len(columns))
		for i, col := range columns {
			v, ok := byKey[col]
			if !ok {
				return Table{}, perr.Schemaf("record seq %d has no score for label %q", res.Seq, col)
			}
			cells[i] = v
		}
		rows = append(rows, Row{Seq: res.Seq, Text: res.Text, Cells: cells})
	}

	return Table{Columns: columns, Rows: rows}, nil
}

// Records renders the table as CSV-ready string records with a header row
// scores use the shortest round-trippable float form
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	header := make([]string, 0, len(t.Columns)+2)
	header = append(header, "sequence", "text")
	header = append(header, t.Columns...)
	out = append(out, header)

	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Cells)+2)
		rec = append(rec, strconv.FormatInt(r.Seq, 10), r.Text)
		for _, c := range r.Cells {
			rec = append(rec, strconv.FormatFloat(c, 'g', -1, 64))
		}
		out = append(out, rec)
	}
	return out
}
