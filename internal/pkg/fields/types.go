package fields

import (
	"strconv"
	"strings"

	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// FieldType classifies a catalog field from its storage descriptor.
type FieldType string

// Known field types.
const (
	TypeUnknown                   FieldType = "UNKNOWN"
	TypeRoot                      FieldType = "ROOT"
	TypeInteger                   FieldType = "INTEGER"
	TypeFloat                     FieldType = "FLOAT"
	TypeLabelledEnumerableInteger FieldType = "LABELLED_ENUMERABLE_INTEGER"
	TypeLabelledEnumerableBoolean FieldType = "LABELLED_ENUMERABLE_BOOLEAN"
	TypeEnumerableInteger         FieldType = "ENUMERABLE_INTEGER"
	TypeString                    FieldType = "STRING"
	TypeArray                     FieldType = "ARRAY"
)

// String returns the field type as a plain string.
func (t FieldType) String() string {
	return string(t)
}

// IsLabelled reports whether values of this type are indices into a list of enum labels.
func (t FieldType) IsLabelled() bool {
	return t == TypeLabelledEnumerableInteger || t == TypeLabelledEnumerableBoolean
}

// IsNumeric reports whether values of this type may be plotted on a numeric axis.
func (t FieldType) IsNumeric() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeEnumerableInteger:
		return true
	default:
		return false
	}
}

// StorageDescriptor is the part of a field's metadata that determines its [FieldType].
type StorageDescriptor struct {
	Type     string
	Dtype    string
	Base     string
	HasTerms bool
	HasEnum  bool
}

// Descriptor extracts the [StorageDescriptor] of a field.
func Descriptor(f flathub.Field) StorageDescriptor {
	return StorageDescriptor{
		Type:     f.Type,
		Dtype:    f.Dtype,
		Base:     f.Base,
		HasTerms: f.Terms,
		HasEnum:  len(f.Enum) > 0,
	}
}

// Classify resolves the [FieldType] of a storage descriptor.
//
// A descriptor without a logical type is the synthetic root of a field tree.
// An unmatched descriptor yields [TypeUnknown] and false.
func (d StorageDescriptor) Classify() (FieldType, bool) {
	if d.Type == "" {
		return TypeRoot, true
	}

	switch d.key() {
	case "byte_i1_i_false_false",
		"short_i2_i_false_false",
		"integer_i4_i_false_false",
		"long_i8_i_false_false":
		return TypeInteger, true
	case "float_f4_f_false_false",
		"double_f8_f_false_false":
		return TypeFloat, true
	case "byte_i1_i_true_true":
		return TypeLabelledEnumerableInteger, true
	case "boolean_?_b_true_true":
		return TypeLabelledEnumerableBoolean, true
	case "byte_i1_i_true_false",
		"short_i2_i_true_false":
		return TypeEnumerableInteger, true
	case "keyword_S8_s_false_false",
		"keyword_S16_s_false_false",
		"keyword_S20_s_false_false",
		"keyword_S32_s_false_false",
		"keyword_S8_s_true_false":
		return TypeString, true
	case "array float_f4_f_false_false",
		"array integer_i4_i_false_false",
		"array double_f8_f_false_false":
		return TypeArray, true
	default:
		return TypeUnknown, false
	}
}

func (d StorageDescriptor) key() string {
	return strings.Join([]string{
		d.Type,
		d.Dtype,
		d.Base,
		strconv.FormatBool(d.HasTerms),
		strconv.FormatBool(d.HasEnum),
	}, "_")
}
