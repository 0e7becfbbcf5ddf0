package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fredbi/flathubviz/internal/pkg/columns"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// conciseLimit is the magnitude above which numbers are displayed in exponent notation.
const conciseLimit = 1e4

var printer = message.NewPrinter(language.English)

// Concise formats a number with at most precision significant digits.
//
// Numbers below 1e4 in magnitude are displayed with thousands separators and trailing
// zeros trimmed: 1234.56 is "1,235". Larger numbers use exponent notation with 2
// fractional digits: 123456 is "1.23e+5".
func Concise(value float64, precision int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'g', -1, 64)
	}

	if precision <= 0 {
		precision = defaultPrecision
	}

	if math.Abs(value) >= conciseLimit {
		return exponent(strconv.FormatFloat(value, 'e', 2, 64))
	}

	formatted := strconv.FormatFloat(value, 'g', precision, 64)
	if strings.ContainsRune(formatted, 'e') {
		return exponent(formatted)
	}

	return group(formatted)
}

// Commas formats an integer with thousands separators.
func Commas(value int64) string {
	return printer.Sprintf("%d", value)
}

// exponent trims the zeros of a number in exponent notation: 1.20e+05 becomes 1.2e+5.
func exponent(formatted string) string {
	mantissa, exp, found := strings.Cut(formatted, "e")
	if !found {
		return formatted
	}

	if strings.Contains(mantissa, ".") {
		mantissa = strings.TrimRight(strings.TrimRight(mantissa, "0"), ".")
	}

	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}

	return mantissa + "e" + sign + digits
}

// group inserts thousands separators in the integer part of a decimal number.
func group(formatted string) string {
	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign, formatted = "-", formatted[1:]
	}

	integer, fraction, hasFraction := strings.Cut(formatted, ".")
	n, err := strconv.ParseInt(integer, 10, 64)
	if err != nil {
		return sign + formatted
	}

	result := sign + Commas(n)
	if hasFraction {
		result += "." + fraction
	}

	return result
}

// display formats a resolved cell value as text.
func (t *Table) display(leaf *columns.Leaf, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case columns.Undefined:
		return t.UndefinedLabel
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			parts = append(parts, t.display(leaf, elem))
		}

		return strings.Join(parts, ", ")
	}

	if n, ok := value.(json.Number); ok && isInteger(leaf.Type) {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return Commas(i)
		}
	}

	number, ok := fields.ToFloat(value)
	if !ok {
		return printer.Sprint(value)
	}

	if isInteger(leaf.Type) && number == math.Trunc(number) && math.Abs(number) < 1<<53 {
		return Commas(int64(number))
	}

	return Concise(number, t.Precision)
}

func isInteger(kind fields.FieldType) bool {
	return kind == fields.TypeInteger || kind == fields.TypeEnumerableInteger
}
