package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/paygrid/tx_engine_app/internal/core/domain"
)

// Writer encodes final account snapshots as CSV with columns
// `client, available, held, total, locked`.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteSnapshots writes the header row followed by one row per snapshot, in
// the order given.
func (w *Writer) WriteSnapshots(snapshots []domain.AccountSnapshot) error {
	if err := w.csv.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, snap := range snapshots {
		row := []string{
			strconv.FormatUint(uint64(snap.ClientID), 10),
			snap.Available.String(),
			snap.Held.String(),
			snap.Total.String(),
			strconv.FormatBool(snap.Locked),
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("write snapshot for client %d: %w", snap.ClientID, err)
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}
