package odoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by ReadOne for any reason the record could not be produced.
var ErrNotFound = errors.New("record not found")

// ErrMissingID reports an absent or blank identifier.
var ErrMissingID = errors.New("identifier is missing")

// ErrInvalidID reports an identifier that is present but not an integer.
var ErrInvalidID = errors.New("identifier is not numeric")

// ParseID coerces a webhook/record identifier to an integer.
func ParseID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, ErrMissingID
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, ErrInvalidID
		}
		return int64(t), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, ErrMissingID
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrInvalidID
		}
		return n, nil
	}
	return 0, ErrInvalidID
}

// ReadOne resolves a single record. Absent, blank or non-numeric ids, a failed
// read and an empty result all yield ErrNotFound; the cause is logged.
func ReadOne(ctx context.Context, r Reader, model string, id interface{}, fields []string) (Record, error) {
	logger := zerolog.Ctx(ctx)

	n, err := ParseID(id)
	if err != nil {
		logger.Warn().Str("model", model).Interface("id", id).Err(err).Msg("cannot read record")
		return nil, fmt.Errorf("%s %v: %w", model, id, ErrNotFound)
	}

	logger.Info().Str("model", model).Int64("id", n).Msg("reading record")
	rows, err := r.Read(ctx, model, []int64{n}, fields)
	if err != nil {
		logger.Warn().Str("model", model).Int64("id", n).Err(err).Msg("read failed")
		return nil, fmt.Errorf("%s %d: %w", model, n, ErrNotFound)
	}
	if len(rows) == 0 {
		logger.Warn().Str("model", model).Int64("id", n).Msg("record not found")
		return nil, fmt.Errorf("%s %d: %w", model, n, ErrNotFound)
	}
	return rows[0], nil
}
