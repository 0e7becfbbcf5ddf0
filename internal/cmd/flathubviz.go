// Package cmd owns the implementation details of the CLI command.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/fredbi/flathubviz/internal/pkg/chart"
	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/explorer"
	"github.com/fredbi/flathubviz/internal/pkg/fields"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/image"
	"github.com/fredbi/flathubviz/internal/pkg/model"
	"github.com/fredbi/flathubviz/internal/pkg/parser"
	"github.com/fredbi/flathubviz/internal/pkg/table"
)

const stdio = "-"

var (
	// ErrNoCatalog is returned when no catalog is configured in online mode.
	ErrNoCatalog = errors.New("no catalog selected")

	// ErrNoCatalogFile is returned in offline mode, when no catalog metadata file is provided.
	ErrNoCatalogFile = errors.New("offline mode requires a catalog metadata file")
)

// Command holds command line flags and executes the flathubviz command.
//
// It knows how to load a configuration file in a [config.Config] and manage CLI flag configuration overrides.
//
// The main purpose of this package is to deal with io's: opening and closing files.
//
// All other invoked functionalities deal with streams, except the offline data parser which may collect several files
// directly.
type Command struct {
	Config         string
	Catalog        string
	Fields         string
	OutputFile     string
	CatalogFile    string
	Offline        bool
	IsNDJSON       bool
	Strict         bool
	Report         bool
	Png            bool
	Xlsx           bool
	GenerateConfig bool
	List           bool
	L              *slog.Logger
}

// NewCommand builds a CLI command with registered flags and an injected logger.
func NewCommand() *Command {
	// inject a structured logger
	cli := &Command{
		L: slog.Default().With(slog.String("module", "main")),
	}

	cli.registerFlags()

	return cli
}

// Parse command line flags and arguments.
func (*Command) Parse() error {
	return flag.CommandLine.Parse(os.Args[1:])
}

// Fatalf logs an error message then exits. The output is spewed on both stderr and the structured logger output.
func (c *Command) Fatalf(err error) {
	c.L.Error(err.Error())
	log.Fatalf("%v", err)
}

// Execute the CLI with flags and extra arguments.
//
// Arguments are data files, only used in offline mode.
// If no argument is passed, command line arguments (i.e. [os.Args]) are used.
func (c *Command) Execute(args ...string) error {
	if args == nil { // passing explicit args allows for testing Execute without altering [os.Args]
		args = c.args()
	}

	ctx := context.Background()

	if c.List {
		// just want to pick a catalog
		return c.listCatalogs(ctx)
	}

	if c.GenerateConfig {
		// just want a starter configuration for a catalog
		return c.generateConfig(ctx)
	}

	cfg, cleanup, err := c.prepareConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	source, p, err := c.prepareSource(cfg, args)
	if err != nil {
		return err
	}

	if c.Report {
		// just want to report about the content of the catalog
		return c.report(ctx, cfg, source, p)
	}

	// 1. query the catalog, then explore its fields, data and plots
	view, err := explorer.New(cfg, source, explorer.WithStrict(c.Strict)).Explore(ctx)
	if err != nil {
		return err
	}

	// 2. build a page with the charts and the data table
	htmlRenderer, err := buildPage(cfg, view)
	if err != nil {
		return err
	}

	// 3. render the page as HTML, possibly to stdout, possibly to temp file
	htmlWriter, htmlCloser, err := getWriter(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}

	if err := htmlRenderer.Render(htmlWriter); err != nil {
		htmlCloser()
		return fmt.Errorf("rendering page: %w", err)
	}

	htmlCloser()

	// 4. export all data rows as a spreadsheet
	if cfg.Outputs.XlsxFile != "" {
		if err := writeSpreadsheet(cfg, view); err != nil {
			return err
		}
	}

	if cfg.Outputs.PngFile == "" {
		// no image: we're done
		return nil
	}

	// 5. convert the HTML page to a PNG image, possibly to stdout
	return renderImage(ctx, cfg)
}

func (*Command) args() []string {
	return flag.CommandLine.Args()
}

func (c *Command) registerFlags() {
	defaults := Command{
		Config:     "flathubviz.yaml",
		OutputFile: stdio,
	}

	flag.StringVar(&c.Config, "config", defaults.Config, "config file")
	flag.StringVar(&c.Config, "c", defaults.Config, "config file (shorthand)")
	flag.StringVar(&c.Catalog, "catalog", defaults.Catalog, "catalog name, overrides the config")
	flag.StringVar(&c.Fields, "fields", defaults.Fields, "comma-separated list of fields, overrides the config")
	flag.StringVar(&c.OutputFile, "output", defaults.OutputFile, "file output or - for standard output")
	flag.StringVar(&c.OutputFile, "o", defaults.OutputFile, "file output or - for standard output (shorthand)")
	flag.BoolVar(&c.Offline, "offline", defaults.Offline, "read catalog metadata and data rows from files instead of the API")
	flag.StringVar(&c.CatalogFile, "catalog-file", defaults.CatalogFile, "catalog metadata JSON file (implies -offline)")
	flag.BoolVar(&c.IsNDJSON, "ndjson", defaults.IsNDJSON, "read offline data rows as newline-delimited JSON")
	flag.BoolVar(&c.Strict, "strict", defaults.Strict, "fail on unknown fields and skipped plots")
	flag.BoolVar(&c.Report, "r", defaults.Report, "report catalog fields only, no rendering (shorthand)")
	flag.BoolVar(&c.Report, "report", defaults.Report, "report catalog fields only")
	flag.BoolVar(&c.Png, "png", defaults.Png, "enable PNG screenshot output")
	flag.BoolVar(&c.Xlsx, "xlsx", defaults.Xlsx, "enable XLSX spreadsheet output")
	flag.BoolVar(&c.List, "list", defaults.List, "list the catalogs available from the API, then exit")
	flag.BoolVar(&c.List, "l", defaults.List, "list the catalogs available from the API, then exit (shorthand)")
	flag.BoolVar(&c.GenerateConfig, "generate-config", defaults.GenerateConfig,
		"write a starter config file for the catalog, then exit",
	)
}

func (c *Command) prepareConfig() (cfg *config.Config, cleanup func(), err error) {
	cfg, err = config.Load(c.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if err = c.setConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("preparing config: %w", err)
	}

	if cfg.Outputs.IsTemp && !c.Report {
		cleanup = func() {
			_ = os.Remove(cfg.Outputs.HTMLFile)
		}

		return cfg, cleanup, err
	}

	return cfg, func() {}, err
}

// apply CLI flags overrides to YAML config.
func (c *Command) setConfig(cfg *config.Config) error {
	if c.Catalog != "" {
		cfg.Catalog = c.Catalog
	}

	if c.Fields != "" {
		cfg.Fields = config.SplitFields(c.Fields)
	}

	cfg.IsOffline = c.Offline || c.CatalogFile != ""
	cfg.Inputs.CatalogFile = c.CatalogFile

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.IsOffline && cfg.Inputs.CatalogFile == "" {
		return ErrNoCatalogFile
	}

	if !cfg.IsOffline && cfg.Catalog == "" {
		c.L.Info("use -list to find out the available catalogs")

		return ErrNoCatalog
	}

	if c.Report {
		cfg.Outputs.ReportFile = stdio
		if c.OutputFile != "" && c.OutputFile != stdio {
			cfg.Outputs.ReportFile = inferFile(c.OutputFile, ".json")
		}

		return nil
	}

	if c.OutputFile != "" && c.OutputFile != stdio {
		// an outfile is defined: infer the PNG and XLSX files from the HTML file provided
		cfg.Outputs.HTMLFile = inferHTMLFile(c.OutputFile)
		if cfg.Outputs.PngFile == "" && c.Png {
			cfg.Outputs.PngFile = inferImageFile(cfg.Outputs.HTMLFile)
		}
		if cfg.Outputs.XlsxFile == "" && c.Xlsx {
			cfg.Outputs.XlsxFile = inferSpreadsheetFile(cfg.Outputs.HTMLFile)
		}
	}

	switch {
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile == "":
		c.L.Info("output sent to standard output as HTML, no PNG image rendered")
		if c.Png || c.Xlsx {
			c.L.Info("set an output file to render a PNG image or a XLSX spreadsheet")
		}
		cfg.Outputs.HTMLFile = stdio
	case cfg.Outputs.HTMLFile == "" && cfg.Outputs.PngFile != "":
		c.L.Info("HTML generated as a temporary file to produce PNG")
		tmp, err := os.CreateTemp("", "flathubviz.*.html")
		if err != nil {
			return err
		}
		cfg.Outputs.HTMLFile = tmp.Name()
		cfg.Outputs.IsTemp = true
		_ = tmp.Close()
	}

	return nil
}

// prepareSource selects the data source: the Flathub API, or local files in offline mode.
//
// In offline mode, the returned [parser.Parser] holds the parsed catalog and rows.
func (c *Command) prepareSource(cfg *config.Config, args []string) (explorer.Source, *parser.Parser, error) {
	p := parser.New(cfg, parser.WithNDJSON(c.IsNDJSON))

	if !cfg.IsOffline {
		if len(args) > 0 {
			c.L.Warn("data files are only read in offline mode", slog.Int("ignored_files", len(args)))
		}

		return flathub.New(cfg.API.URL, flathub.WithTimeout(cfg.API.TimeoutDuration())), p, nil
	}

	if len(args) == 0 { // no data file is provided: assume stdin
		args = append(args, stdio)
	}

	t0 := time.Now()
	catalog, err := p.ParseCatalogFile(cfg.Inputs.CatalogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := p.ParseDataFiles(args...); err != nil {
		return nil, nil, fmt.Errorf("parsing files: %w", err)
	}
	cfg.Inputs.DataFile = strings.Join(args, ",")
	c.L.Info("parsed offline inputs", slog.Duration("duration", time.Since(t0)))

	return explorer.NewFileSource(catalog, p.Rows()), p, nil
}

// report produces a report that explores the fields of the catalog and their presence in data rows.
func (c *Command) report(ctx context.Context, cfg *config.Config, source explorer.Source, p *parser.Parser) error {
	if !cfg.IsOffline {
		// plots play no part in the report
		cfg.Plots = nil

		view, err := explorer.New(cfg, source, explorer.WithStrict(c.Strict)).Explore(ctx)
		if err != nil {
			return err
		}

		p.Load(view.Catalog, view.Rows)
	}

	tree, err := fields.New(p.Catalog())
	if err != nil {
		return fmt.Errorf("catalog %q: %w", p.Catalog().Name, err)
	}

	w, closer, err := getWriter(cfg.Outputs.ReportFile, "report")
	if err != nil {
		return err
	}
	defer closer()

	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")

	return enc.Encode(p.Report(tree))
}

// generateConfig writes a starter configuration for a catalog, fetched from the API or read from a file.
func (c *Command) generateConfig(ctx context.Context) error {
	var (
		catalog *flathub.Catalog
		err     error
	)

	switch {
	case c.CatalogFile != "":
		catalog, err = parser.New(nil).ParseCatalogFile(c.CatalogFile)
	case c.Catalog != "":
		defaults, errDefaults := config.LoadDefaults()
		if errDefaults != nil {
			return fmt.Errorf("loading default config: %w", errDefaults)
		}

		client := flathub.New(defaults.API.URL, flathub.WithTimeout(defaults.API.TimeoutDuration()))
		catalog, err = client.Catalog(ctx, c.Catalog)
	default:
		return ErrNoCatalog
	}
	if err != nil {
		return fmt.Errorf("fetching catalog: %w", err)
	}

	cfg, err := config.Generate(catalog)
	if err != nil {
		return err
	}

	if c.Fields != "" {
		cfg.Fields = config.SplitFields(c.Fields)
	}

	w, closer, err := getWriter(c.Config, "config")
	if err != nil {
		return err
	}
	defer closer()

	if err := cfg.EncodeYAML(w); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	c.L.Info("generated config", slog.String("file", c.Config), slog.String("catalog", catalog.Name))

	return nil
}

// listCatalogs prints the name and title of the catalogs served by the configured API, one per line.
//
// The embedded defaults are used when the config file does not exist.
func (c *Command) listCatalogs(ctx context.Context) error {
	cfg, err := config.Load(c.Config)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.LoadDefaults()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := flathub.New(cfg.API.URL, flathub.WithTimeout(cfg.API.TimeoutDuration()))
	catalogs, err := client.Catalogs(ctx)
	if err != nil {
		return fmt.Errorf("listing catalogs: %w", err)
	}

	w, closer, err := getWriter(c.OutputFile, "catalog list")
	if err != nil {
		return err
	}
	defer closer()

	for _, catalog := range catalogs {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", catalog.Name, catalog.Title); err != nil {
			return fmt.Errorf("writing catalog list: %w", err)
		}
	}

	c.L.Info("listed catalogs", slog.Int("catalogs", len(catalogs)))

	return nil
}

func getReader(file, kind string) (rdr *os.File, cleanup func(), err error) {
	rdr, err = os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = rdr.Close()
	}

	return rdr, cleanup, nil
}

func getWriter(file, kind string) (wrt io.Writer, cleanup func(), err error) {
	if file == stdio || file == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.Create(file)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s file for writing: %q: %w", kind, file, err)
	}

	cleanup = func() {
		_ = f.Close()
	}

	return f, cleanup, nil
}

// buildPage assembles the charts of the view and a data table limited to the configured page size.
func buildPage(cfg *config.Config, view *model.View) (*chart.Page, error) {
	rows := view.Rows
	if size := cfg.Render.PageSize; size > 0 && len(rows) > size {
		rows = rows[:size]
	}

	tbl, err := table.New(view.Columns, rows, tableOptions(cfg, view)...)
	if err != nil {
		return nil, fmt.Errorf("building table: %w", err)
	}

	builder := chart.New(cfg, view)
	page := builder.BuildPage()
	page.SetTable(tbl)

	return page, nil
}

func writeSpreadsheet(cfg *config.Config, view *model.View) error {
	tbl, err := table.New(view.Columns, view.Rows,
		append(tableOptions(cfg, view), table.WithSheetName(view.Name))...,
	)
	if err != nil {
		return fmt.Errorf("building table: %w", err)
	}

	w, closer, err := getWriter(cfg.Outputs.XlsxFile, "XLSX")
	if err != nil {
		return err
	}
	defer closer()

	if err := tbl.WriteXLSX(w); err != nil {
		return fmt.Errorf("rendering spreadsheet: %w", err)
	}

	return nil
}

func renderImage(ctx context.Context, cfg *config.Config) error {
	htmlReader, htmlCloser, err := getReader(cfg.Outputs.HTMLFile, "HTML")
	if err != nil {
		return err
	}
	defer htmlCloser()

	pngWriter, pngCloser, err := getWriter(cfg.Outputs.PngFile, "PNG")
	if err != nil {
		return err
	}
	defer pngCloser()

	shot := cfg.Render.Screenshot
	r := image.New(
		image.WithHeight(shot.Height),
		image.WithWidth(shot.Width),
		image.WithSleep(shot.SleepDuration()),
	)

	if err = r.RenderContext(ctx, pngWriter, htmlReader); err != nil {
		return fmt.Errorf("rendering image: %w", err)
	}

	return nil
}

func tableOptions(cfg *config.Config, view *model.View) []table.Option {
	return []table.Option{
		table.WithTitle(view.Title),
		table.WithPrecision(cfg.Render.Precision),
		table.WithUndefinedLabel(cfg.Render.UndefinedLabel),
	}
}

func inferHTMLFile(base string) string {
	return inferFile(base, ".html")
}

func inferImageFile(base string) string {
	return inferFile(base, ".png")
}

func inferSpreadsheetFile(base string) string {
	return inferFile(base, ".xlsx")
}

func inferFile(base, ext string) string {
	stem, _ := strings.CutSuffix(base, path.Ext(base))

	return stem + ext
}
