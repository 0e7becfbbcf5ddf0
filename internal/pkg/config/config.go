package config

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var efs embed.FS

// Config holds the configuration for flathubviz.
type Config struct {
	Name    string
	Catalog string
	Fields  []string // Fields lists the requested leaf fields, in display order
	Filters map[string]any
	Sort    []Sort
	Count   int
	Offset  int
	Sample  float64
	Seed    int64
	API     API
	Render  Rendering
	Plots   []Plot

	IsOffline bool   `mapstructure:"-"`
	Inputs    Input  `mapstructure:"-"`
	Outputs   Output `mapstructure:"-"`

	plotIndex map[string]Plot
}

// GetPlot retrieves a plot definition by its ID.
func (c Config) GetPlot(id string) (Plot, bool) {
	p, ok := c.plotIndex[id]

	return p, ok
}

// Sampling returns the random sampling settings of the data queries.
func (c Config) Sampling() flathub.Sampling {
	return flathub.Sampling{
		Sample: c.Sample,
		Seed:   c.Seed,
	}
}

// FilterSet converts the configured filters to their wire representation.
//
// A map with "gte" and/or "lte" keys is a [flathub.Range], a map with a "wildcard" key
// is a [flathub.Wildcard]. Any other value is sent as is.
func (c Config) FilterSet() flathub.Filters {
	if len(c.Filters) == 0 {
		return nil
	}

	filters := make(flathub.Filters, len(c.Filters))
	for field, value := range c.Filters {
		filters[field] = filterValue(value)
	}

	return filters
}

// SortOrder converts the configured sort order to its wire representation.
func (c Config) SortOrder() []flathub.Sort {
	if len(c.Sort) == 0 {
		return nil
	}

	order := make([]flathub.Sort, 0, len(c.Sort))
	for _, s := range c.Sort {
		order = append(order, flathub.Sort{Field: s.Field, Order: s.Order})
	}

	return order
}

// EncodeYAML serializes a [Config] to YAML into the provided writer.
//
// Runtime-only fields (IsOffline, Inputs, Outputs) are excluded from the output.
func (c *Config) EncodeYAML(w io.Writer) error {
	var raw map[string]any

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Squash: true,
		Deep:   true,
		Result: &raw,
	})
	if err != nil {
		return fmt.Errorf("creating mapstructure decoder: %w", err)
	}

	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decoding config to map: %w", err)
	}

	return yaml.NewEncoder(w).Encode(raw)
}

// API configures the access to the Flathub service.
type API struct {
	URL     string
	Timeout string
}

// TimeoutDuration parses the Timeout field as a [time.Duration].
func (a API) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if d <= 0 || err != nil {
		return 0
	}

	return d
}

// Sort orders data rows on a field.
type Sort struct {
	Field string
	Order string
}

// Supported sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Rendering holds page rendering settings (theme, table formatting, screenshot).
type Rendering struct {
	Title          string
	Theme          string
	PageSize       int
	Precision      int
	UndefinedLabel string
	Screenshot     Screenshot
}

// Screenshot configures the headless Chrome screenshot used for PNG rendering.
type Screenshot struct {
	Height int64
	Width  int64
	Sleep  string
}

// SleepDuration parses the Sleep field as a [time.Duration].
func (s Screenshot) SleepDuration() time.Duration {
	d, err := time.ParseDuration(s.Sleep)
	if d == 0 || err != nil {
		return 0
	}

	return d
}

// Input holds the local files used instead of the API in offline mode.
type Input struct {
	CatalogFile string
	DataFile    string
}

// Output holds the resolved output file paths.
type Output struct {
	HTMLFile   string
	PngFile    string
	XlsxFile   string
	ReportFile string
	IsTemp     bool
}

// Load a configuration file from the local file system.
func Load(file string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	fsys := os.DirFS(filepath.Dir(file))
	pth := filepath.Join(".", filepath.Base(file))

	return load(fsys, pth, cfg)
}

// LoadDefaults loads the default configuration from the embedded default_config.yaml.
func LoadDefaults() (*Config, error) {
	return loadDefaults()
}

// loadDefaults loads the default configuration from embedded FS.
func loadDefaults() (*Config, error) {
	return load(efs, "default_config.yaml", &Config{})
}

func load(fsys fs.FS, file string, cfg *Config) (*Config, error) {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, err
	}

	var raw any
	err = yaml.Unmarshal(content, &raw)
	if err != nil {
		return nil, err
	}

	err = mapstructure.Decode(raw, cfg)
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration and fills in defaulted values, such as plot titles.
//
// It must be called again whenever the configuration is altered, e.g. by command line flags.
func (c *Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("invalid count: must be positive or zero, got %d", c.Count)
	}

	if c.Offset < 0 {
		return fmt.Errorf("invalid offset: must be positive or zero, got %d", c.Offset)
	}

	if c.Sample < 0 || c.Sample > 1 {
		return fmt.Errorf("invalid sample: must be in [0, 1], got %v", c.Sample)
	}

	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("invalid api.timeout: %w", err)
		}
	}

	if err := c.validateFields(); err != nil {
		return err
	}

	if err := c.validateSort(); err != nil {
		return err
	}

	if err := c.validateFilters(); err != nil {
		return err
	}

	return c.validatePlots()
}

func (c *Config) validateFields() error {
	seen := make(map[string]struct{}, len(c.Fields))
	fields := make([]string, 0, len(c.Fields))

	for i, field := range c.Fields {
		field = strings.TrimSpace(field)
		if field == "" {
			return fmt.Errorf("invalid fields: empty field name found: fields[%d]", i)
		}

		if _, dup := seen[field]; dup {
			continue
		}

		seen[field] = struct{}{}
		fields = append(fields, field)
	}

	c.Fields = fields

	return nil
}

func (c *Config) validateSort() error {
	for i, s := range c.Sort {
		if s.Field == "" {
			return fmt.Errorf("invalid sort: empty field found: sort[%d].field", i)
		}

		switch s.Order {
		case "", OrderAsc, OrderDesc:
		default:
			return fmt.Errorf("invalid sort: sort[%d].order=%q (should be one of %v)", i, s.Order, []string{OrderAsc, OrderDesc})
		}
	}

	return nil
}

func (c *Config) validateFilters() error {
	for field, value := range c.Filters {
		if field == "" {
			return errors.New("invalid filters: empty field name found")
		}

		m, isMap := asMap(value)
		if !isMap {
			continue
		}

		for key := range m {
			switch key {
			case "gte", "lte":
				if _, isWildcard := m["wildcard"]; isWildcard {
					return fmt.Errorf("invalid filters: filters.%s mixes a range with a wildcard", field)
				}
			case "wildcard":
			default:
				return fmt.Errorf("invalid filters: unknown key filters.%s.%s (should be one of %v)", field, key, []string{"gte", "lte", "wildcard"})
			}
		}
	}

	return nil
}

func (c *Config) validatePlots() error {
	c.plotIndex = make(map[string]Plot, len(c.Plots))

	for i, p := range c.Plots {
		if p.ID == "" {
			return fmt.Errorf("invalid plots: empty ID found: plots[%d]", i)
		}

		if _, ok := c.plotIndex[p.ID]; ok {
			return fmt.Errorf("invalid plots: duplicate ID key found: %s", p.ID)
		}

		if !p.Kind.IsValid() {
			return fmt.Errorf("invalid plots: invalid plot kind: plots[%d].kind=%v (should be one of %v)", i, p.Kind, AllPlotKinds())
		}

		for axis, field := range p.Fields() {
			if field == "" {
				return fmt.Errorf("invalid plots: a %s requires %d fields: plots[%d].%s is empty", p.Kind, p.Kind.Axes(), i, axisNames[axis])
			}
		}

		if p.Size < 0 {
			return fmt.Errorf("invalid plots: negative size: plots[%d].size", i)
		}

		if p.Count < 0 {
			return fmt.Errorf("invalid plots: negative count: plots[%d].count", i)
		}

		if p.Title == "" {
			p.Title = titleize(p.ID)
		}

		c.Plots[i] = p
		c.plotIndex[p.ID] = p
	}

	return nil
}

var axisNames = []string{"x", "y", "z"}

func filterValue(value any) any {
	m, isMap := asMap(value)
	if !isMap {
		return value
	}

	if pattern, ok := m["wildcard"]; ok {
		return flathub.Wildcard{Wildcard: fmt.Sprint(pattern)}
	}

	return flathub.Range{
		Gte: m["gte"],
		Lte: m["lte"],
	}
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, v := range m {
			converted[fmt.Sprint(k)] = v
		}

		return converted, true
	default:
		return nil, false
	}
}

type str interface {
	~string
}

func titleize[T str](in T) string {
	caser := cases.Title(language.English, cases.NoLower) // the case is stateful: cannot declare it globally

	return caser.String(strings.Map(func(r rune) rune {
		switch r {
		case '_', '-':
			return ' '
		default:
			return r
		}
	}, string(in),
	))
}

// SplitFields parses a comma-separated list of field names.
func SplitFields(list string) []string {
	parts := strings.Split(list, ",")
	fields := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, part)
		}
	}

	return slices.Clip(fields)
}
