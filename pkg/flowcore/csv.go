package flowcore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// CSV — tuple extraction from delimited text. Fields are separated by a
// caller-chosen delimiter; string fields may be quoted; an empty field sets
// the null bit for that attribute rather than being parsed. Grounded on
// io.go's CSVSource/parseCSVValue/formatCSVValue, adapted to emit *Tuple
// (with a null bitmap and a fixed column schema) instead of Record.
// ============================================================================

// FieldType names the Go type a CSV column decodes to.
type FieldType int

const (
	FieldInt64 FieldType = iota
	FieldFloat64
	FieldString
	FieldBool
)

// CSVSchema declares, in column order, the type each CSV field decodes to.
type CSVSchema []FieldType

// parseCSVField decodes one raw CSV field per its declared type. An empty
// field always decodes to (nil, true): a null attribute, regardless of kind.
func parseCSVField(raw string, kind FieldType) (any, bool, error) {
	if raw == "" {
		return nil, true, nil
	}
	switch kind {
	case FieldInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("%w: field %q is not an int64", ErrParse, raw)
		}
		return v, false, nil
	case FieldFloat64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, fmt.Errorf("%w: field %q is not a float64", ErrParse, raw)
		}
		return v, false, nil
	case FieldBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, false, fmt.Errorf("%w: field %q is not a bool", ErrParse, raw)
		}
		return v, false, nil
	case FieldString:
		return raw, false, nil
	default:
		return nil, false, fmt.Errorf("%w: unknown field type %d", ErrSchemaMismatch, kind)
	}
}

// formatCSVField is parseCSVField's inverse, used by WriteTuple.
func formatCSVField(value any, null bool) string {
	if null {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// NewCSVTupleSource builds a Source reading delimiter-separated records from
// r, one Tuple per row, decoded per schema. HasHeader skips the first row.
// A row with a field that does not parse as its declared type is logged and
// skipped; a row whose field count differs from the schema ends the source
// with ErrSchemaMismatch.
func NewCSVTupleSource(name string, r io.Reader, delimiter rune, hasHeader bool, schema CSVSchema) *Source {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	return NewSource(name, func(ctx context.Context, emit func(*Tuple, bool), emitPunct func(*Punctuation)) error {
		if hasHeader {
			if _, err := reader.Read(); err != nil {
				if err == io.EOF {
					return nil
				}
				return fmt.Errorf("%w: reading CSV header: %v", ErrIO, err)
			}
		}
		for {
			row, err := reader.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: reading CSV row: %v", ErrIO, err)
			}
			if len(row) != len(schema) {
				return fmt.Errorf("%w: row has %d fields, schema declares %d", ErrSchemaMismatch, len(row), len(schema))
			}
			values := make([]any, len(row))
			var perr error
			for i, raw := range row {
				v, null, err := parseCSVField(raw, schema[i])
				if err != nil {
					perr = err
					break
				}
				if null {
					values[i] = nil
				} else {
					values[i] = v
				}
			}
			if errors.Is(perr, ErrParse) {
				log.Warn().Err(perr).Str("operator", name).Msg("csv: skipped unparsable row")
				continue
			}
			if perr != nil {
				return perr
			}
			emit(NewTuple(values...), false)
		}
	})
}

// WriteTuple formats t's attributes as one delimited record and writes it.
func WriteTuple(w *csv.Writer, t *Tuple) error {
	attrs := t.Attrs()
	row := make([]string, len(attrs))
	for i, v := range attrs {
		row[i] = formatCSVField(v, t.IsNull(i))
	}
	return w.Write(row)
}
