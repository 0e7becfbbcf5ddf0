package table

const (
	defaultPrecision      = 4
	defaultUndefinedLabel = "undefined"
	defaultSheetName      = "data"

	// maxSheetName is the longest sheet name a spreadsheet accepts.
	maxSheetName = 31
)

// Option configures a [Table].
type Option func(*options)

type options struct {
	Title          string
	Precision      int
	UndefinedLabel string
	SheetName      string
}

// WithTitle sets the table caption.
func WithTitle(title string) Option {
	return func(o *options) {
		o.Title = title
	}
}

// WithPrecision sets the number of significant digits of floating point values.
//
// Values lower than 1 are ignored.
func WithPrecision(precision int) Option {
	return func(o *options) {
		if precision > 0 {
			o.Precision = precision
		}
	}
}

// WithUndefinedLabel sets the text displayed for enum values without a label.
func WithUndefinedLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.UndefinedLabel = label
		}
	}
}

// WithSheetName sets the name of the spreadsheet tab written by [Table.WriteXLSX].
func WithSheetName(name string) Option {
	return func(o *options) {
		if name == "" {
			return
		}

		if r := []rune(name); len(r) > maxSheetName {
			name = string(r[:maxSheetName])
		}

		o.SheetName = name
	}
}

func optionsWithDefaults(opts []Option) options {
	o := options{
		Precision:      defaultPrecision,
		UndefinedLabel: defaultUndefinedLabel,
		SheetName:      defaultSheetName,
	}

	for _, apply := range opts {
		apply(&o)
	}

	return o
}
