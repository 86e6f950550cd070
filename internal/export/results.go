package export

import (
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/tracker"
)

// Entity is a tracked record that renders to one or more result lines.
type Entity interface {
	tracker.Record
	ExportRows() [][]string
}

// Results returns the entity columns plus result label and message for every row.
func Results[T Entity](kind model.Kind, rows []tracker.Row[T]) ([]string, [][]string) {
	header := append(model.ExportHeader(kind), "result", "resultMessage")
	var out [][]string
	for _, r := range rows {
		for _, line := range r.Record.ExportRows() {
			out = append(out, append(line, r.Status.Label(), r.Message))
		}
	}
	return header, out
}
