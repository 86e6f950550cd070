package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/tracker"
)

// rowPrinter writes one line per terminal row status as events arrive.
// Events come from every sequencer worker, so writes are serialized.
func rowPrinter[T export.Entity](w io.Writer, t *tracker.Tracker[T], total int) func(tracker.Event) {
	var mu sync.Mutex
	return func(ev tracker.Event) {
		if ev.Type != tracker.EventStatus || ev.Status == model.StatusProcessing {
			return
		}
		id, err := uuid.Parse(ev.RecordID)
		if err != nil {
			return
		}
		row, ok := t.Get(id)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "[%d/%d] %s %s: %s\n", ev.Index+1, total, ev.Status.Label(), rowLabel(row.Record), ev.Message)
	}
}

func rowLabel[T export.Entity](rec T) string {
	lines := rec.ExportRows()
	if len(lines) == 0 || len(lines[0]) == 0 {
		return "-"
	}
	return lines[0][0]
}

func printSummary(w io.Writer, s model.Summary) {
	fmt.Fprintf(w, "%d succeeded, %d failed\n", s.SuccessCount, s.FailCount)
}

// writeExport picks the format from the file extension.
func writeExport[T export.Entity](path string, kind model.Kind, rows []tracker.Row[T]) error {
	format := export.FormatCSV
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		format = export.FormatXLSX
	}
	header, data := export.Results(kind, rows)
	body, err := export.Render(format, header, data)
	if err != nil {
		return errors.Wrap(err, "render export")
	}
	return errors.Wrapf(os.WriteFile(path, body, 0o644), "write %s", path)
}
