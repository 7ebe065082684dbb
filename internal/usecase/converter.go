package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"BarPull/internal/domain/models"
	"BarPull/internal/service/schema"
)

// Conversion is the outcome of one batch conversion.
type Conversion struct {
	Bars    []models.Bar
	Dropped int
}

// BarConverter materializes normalized records into Bars. It holds only an
// immutable compiled schema.
type BarConverter struct {
	schema *schema.Schema
}

// NewBarConverter uses s, or the embedded contract when s is nil.
func NewBarConverter(s *schema.Schema) *BarConverter {
	if s == nil {
		s = schema.Default()
	}
	return &BarConverter{schema: s}
}

// ToBars returns the converted bars only.
func (c *BarConverter) ToBars(fr models.FetchResult, validate bool) ([]models.Bar, error) {
	res, err := c.Convert(fr, validate)
	if err != nil {
		return nil, err
	}
	return res.Bars, nil
}

// Convert keeps input order and does not deduplicate. With validate set,
// records failing the contract are dropped and counted. Without it, a record
// that cannot be coerced fails the batch.
func (c *BarConverter) Convert(fr models.FetchResult, validate bool) (Conversion, error) {
	if strings.TrimSpace(fr.Provider) == "" {
		return Conversion{}, &models.SchemaError{Reason: "missing provider", Row: -1}
	}
	if fr.Data == nil {
		return Conversion{}, &models.SchemaError{Reason: "missing data", Row: -1}
	}

	out := Conversion{Bars: make([]models.Bar, 0, len(fr.Data))}
	for i, rec := range fr.Data {
		if validate {
			if err := c.schema.Validate(rec); err != nil {
				out.Dropped++
				continue
			}
		}
		bar, err := coerce(fr.Provider, rec)
		if err != nil {
			if validate {
				out.Dropped++
				continue
			}
			return Conversion{}, &models.SchemaError{Reason: "record not coercible", Row: i, Err: err}
		}
		out.Bars = append(out.Bars, bar)
	}
	return out, nil
}

func coerce(provider string, rec models.NormalizedRecord) (models.Bar, error) {
	ts, err := asInt64(rec[models.FieldTS])
	if err != nil {
		return models.Bar{}, fmt.Errorf("%s: %w", models.FieldTS, err)
	}
	var vals [5]float64
	for i, key := range models.RecordFields[1:] {
		v, err := asFloat64(rec[key])
		if err != nil {
			return models.Bar{}, fmt.Errorf("%s: %w", key, err)
		}
		vals[i] = v
	}
	return models.Bar{
		Provider: provider,
		TS:       ts,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("overflow %d", n)
		}
		return int64(n), nil
	case float64, float32, json.Number, string:
		f, err := asFloat64(n)
		if err != nil {
			return 0, err
		}
		if f > math.MaxInt64 || f < math.MinInt64 {
			return 0, fmt.Errorf("overflow %v", f)
		}
		return int64(math.Trunc(f)), nil
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func asFloat64(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not numeric %q", n)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite")
	}
	return f, nil
}
