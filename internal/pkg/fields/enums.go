package fields

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ErrEnumWithoutTerms is returned when an enum-labelled field carries no term statistics.
var ErrEnumWithoutTerms = errors.New("field has enum labels but no terms")

// EnumTerm is a displayable value of an enumerable field, with its row count when known.
type EnumTerm struct {
	Text  string
	Value any
	Count *int64
}

// JoinEnums joins the enum labels of a field with the term statistics of this field.
//
// With enum labels, terms are matched on their numeric value as an index into the labels,
// and the result is sorted by decreasing count. Without labels, every term is listed
// with its value as text, sorted by numeric value.
//
// A field with neither enum labels nor terms yields an empty list.
func JoinEnums(n *Node) ([]EnumTerm, error) {
	field := n.Field()
	hasEnum := len(field.Enum) > 0
	hasTerms := field.Stats != nil && len(field.Stats.Terms) > 0

	if hasEnum && !hasTerms {
		return nil, fmt.Errorf("%w: %s", ErrEnumWithoutTerms, field.Name)
	}

	if !hasTerms {
		return nil, nil
	}

	if !hasEnum {
		joined := make([]EnumTerm, 0, len(field.Stats.Terms))
		for _, term := range field.Stats.Terms {
			count := term.Count
			joined = append(joined, EnumTerm{
				Text:  fmt.Sprint(term.Value),
				Value: term.Value,
				Count: &count,
			})
		}

		slices.SortStableFunc(joined, func(a, b EnumTerm) int {
			return compareNumericText(a.Text, b.Text)
		})

		return joined, nil
	}

	joined := make([]EnumTerm, 0, len(field.Enum))
	for index, text := range field.Enum {
		term := EnumTerm{Text: text}

		for _, candidate := range field.Stats.Terms {
			value, ok := ToFloat(candidate.Value)
			if !ok || value != float64(index) {
				continue
			}

			count := candidate.Count
			term.Count = &count
			term.Value = candidate.Value

			break
		}

		joined = append(joined, term)
	}

	slices.SortStableFunc(joined, func(a, b EnumTerm) int {
		return cmp.Compare(countOf(b), countOf(a))
	})

	return joined, nil
}

// ToFloat converts a raw JSON value to a number, the way a loosely typed client would:
// numbers pass through, booleans are 0 or 1 and strings are parsed.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint8:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	case interface{ Float64() (float64, error) }:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// HasNumericStats reports whether the field carries usable min, max and mean statistics.
func (n *Node) HasNumericStats() bool {
	stats := n.field.Stats
	if stats == nil || stats.Min == nil || stats.Max == nil || stats.Avg == nil {
		return false
	}

	for _, v := range []float64{*stats.Min, *stats.Max, *stats.Avg} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return *stats.Min != *stats.Max
}

// ShouldUseLogScale decides if a distribution with these bounds and mean is skewed enough
// to be displayed on a log scale.
func ShouldUseLogScale(minValue, maxValue, mean float64) bool {
	const skew = 0.1

	span := maxValue - minValue
	if span <= 0 {
		return false
	}

	skewedMin := (mean-minValue)/span < skew
	skewedMax := (maxValue-mean)/span < skew

	return skewedMin || skewedMax
}

func countOf(t EnumTerm) int64 {
	if t.Count == nil {
		return 0
	}

	return *t.Count
}

func compareNumericText(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)

	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(fa, fb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
