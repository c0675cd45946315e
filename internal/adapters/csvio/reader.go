package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/paygrid/tx_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// rawRecord is the pre-validation shape of one CSV row.
type rawRecord struct {
	Type   string `validate:"required,oneof=deposit withdrawal dispute resolve chargeback"`
	Client string `validate:"required,number"`
	Tx     string `validate:"required,number"`
	Amount string `validate:"required_if=Type deposit,required_if=Type withdrawal"`
}

var defaultColumns = map[string]int{"type": 0, "client": 1, "tx": 2, "amount": 3}

// Reader decodes transaction records from a CSV stream with columns
// `type, client, tx, amount`. Arbitrary whitespace around headers and fields
// is tolerated; a header row is optional. Reader implements the record
// source consumed by the stream processor: Next returns io.EOF at end of
// input and a malformed-record error for rows that fail validation, leaving
// the reader usable for the following row.
type Reader struct {
	csv        *csv.Reader
	validate   *validator.Validate
	columns    map[string]int
	headerRead bool
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Reconciliation rows routinely omit the amount column entirely.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{
		csv:      cr,
		validate: validator.New(),
		columns:  defaultColumns,
	}
}

// Next returns the next well-formed transaction record.
func (r *Reader) Next(_ context.Context) (domain.TransactionRecord, error) {
	for {
		row, err := r.csv.Read()
		if err == io.EOF {
			return domain.TransactionRecord{}, io.EOF
		}
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("read csv row: %v: %w", err, apperrors.ErrMalformedRecord)
		}

		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}

		if !r.headerRead {
			r.headerRead = true
			if strings.EqualFold(row[0], "type") {
				r.columns = headerColumns(row)
				continue
			}
		}

		if isBlank(row) {
			continue
		}

		return r.parse(row)
	}
}

func (r *Reader) parse(row []string) (domain.TransactionRecord, error) {
	raw := rawRecord{
		Type:   strings.ToLower(r.field(row, "type")),
		Client: r.field(row, "client"),
		Tx:     r.field(row, "tx"),
		Amount: r.field(row, "amount"),
	}

	if err := r.validate.Struct(raw); err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("row %v: %v: %w", row, err, apperrors.ErrMalformedRecord)
	}

	client, err := strconv.ParseUint(raw.Client, 10, 16)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("client id %q: %w", raw.Client, apperrors.ErrMalformedRecord)
	}
	tx, err := strconv.ParseUint(raw.Tx, 10, 32)
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("tx id %q: %w", raw.Tx, apperrors.ErrMalformedRecord)
	}

	record := domain.TransactionRecord{
		Type:     domain.TransactionType(raw.Type),
		ClientID: uint16(client),
		TxID:     uint32(tx),
		Amount:   decimal.Zero,
	}

	if record.Type.CarriesAmount() {
		amount, err := decimal.NewFromString(raw.Amount)
		if err != nil {
			return domain.TransactionRecord{}, fmt.Errorf("amount %q: %w", raw.Amount, apperrors.ErrMalformedRecord)
		}
		if !domain.ValidAmount(amount) {
			return domain.TransactionRecord{}, fmt.Errorf("amount %q out of shape: %w", raw.Amount, apperrors.ErrMalformedRecord)
		}
		record.Amount = amount
	}
	// A stray amount on a reconciliation row is ignored, not fatal.

	return record, nil
}

func (r *Reader) field(row []string, name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func headerColumns(row []string) map[string]int {
	columns := make(map[string]int, len(row))
	for i, name := range row {
		columns[strings.ToLower(name)] = i
	}
	return columns
}

func isBlank(row []string) bool {
	for _, field := range row {
		if field != "" {
			return false
		}
	}
	return true
}
