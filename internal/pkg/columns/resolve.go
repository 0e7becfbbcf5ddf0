package columns

import (
	"fmt"
	"math"

	"github.com/fredbi/flathubviz/internal/pkg/fields"
)

// Undefined marks a labelled value whose index falls outside of the enum labels.
type Undefined struct {
	Raw any
}

func (u Undefined) String() string {
	return fmt.Sprintf("undefined(%v)", u.Raw)
}

// Resolve transforms a raw cell value for display.
//
// Labelled enumerable values are indices into the enum labels: the value is coerced to an
// integer index and the matching label is returned. An index that is out of range, or that
// can't be coerced, yields [Undefined]. A missing value stays nil.
//
// All other values pass through unchanged.
func Resolve(kind fields.FieldType, enum []string, raw any) any {
	if !kind.IsLabelled() || raw == nil {
		return raw
	}

	index, ok := fields.ToFloat(raw)
	if !ok || index != math.Trunc(index) || index < 0 || index >= float64(len(enum)) {
		return Undefined{Raw: raw}
	}

	return enum[int(index)]
}
