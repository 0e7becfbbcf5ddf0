package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
)

// ErrRowShape is returned when a row given as an array does not match the expected fields.
var ErrRowShape = errors.New("row does not match fields")

// Parser reads catalog metadata and data rows from local JSON files.
//
// Files hold the same JSON documents as the responses of the Flathub API.
type Parser struct {
	options

	config  *config.Config
	catalog *flathub.Catalog
	rows    []flathub.Row
	files   []string
	l       *slog.Logger
}

// New [Parser] ready to parse catalog and data files.
func New(cfg *config.Config, opts ...Option) *Parser {
	p := &Parser{
		options: optionsWithDefaults(opts),
		config:  cfg,
		l:       slog.Default().With(slog.String("module", "parser")),
	}

	if len(p.fields) == 0 && cfg != nil {
		p.fields = cfg.Fields
	}

	return p
}

// ParseCatalogFile reads the metadata of a catalog. The file "-" is the standard input.
func (p *Parser) ParseCatalogFile(file string) (*flathub.Catalog, error) {
	reader, closer, err := open(file)
	if err != nil {
		return nil, err
	}
	defer closer()

	catalog, err := p.ParseCatalog(reader)
	if err != nil {
		return nil, fmt.Errorf("catalog file %q: %w", file, err)
	}

	p.l.Info("catalog parsed",
		slog.String("file", file),
		slog.String("catalog", catalog.Name),
		slog.Int("top_level_fields", len(catalog.Fields)),
	)

	return catalog, nil
}

// ParseCatalog reads the metadata of a catalog, as returned by the API.
func (p *Parser) ParseCatalog(r io.Reader) (*flathub.Catalog, error) {
	var catalog flathub.Catalog
	if err := json.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	p.catalog = &catalog

	return &catalog, nil
}

// ParseDataFiles reads data rows from files. Rows of all files are appended in order.
//
// The file "-" is the standard input.
func (p *Parser) ParseDataFiles(files ...string) error {
	for _, file := range files {
		reader, closer, err := open(file)
		if err != nil {
			return err
		}

		rows, err := p.ParseData(reader)
		closer()
		if err != nil {
			return fmt.Errorf("data file %q: %w", file, err)
		}

		p.rows = append(p.rows, rows...)
		p.files = append(p.files, file)
	}

	p.l.Info("data input parsed",
		slog.Int("parsed_files", len(files)),
		slog.Int("rows", len(p.rows)),
	)

	return nil
}

// ParseData reads data rows.
//
// Rows are either objects mapping field names to values, or arrays of values.
// Arrays are reshaped into objects, using the field names listed by a wrapping
// {"fields": [...], "data": [...]} document, or the configured fields otherwise.
func (p *Parser) ParseData(r io.Reader) ([]flathub.Row, error) {
	if p.isNDJSON {
		return p.parseNDJSON(r)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return []flathub.Row{}, nil
	}

	if content[0] == '{' {
		var columnar struct {
			Fields []string          `json:"fields"`
			Data   []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(content, &columnar); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}

		return p.reshape(columnar.Data, columnar.Fields)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}

	return p.reshape(raw, p.fields)
}

// Load registers a catalog and rows obtained elsewhere, e.g. fetched from the API, so they can be reported.
func (p *Parser) Load(catalog *flathub.Catalog, rows []flathub.Row) {
	p.catalog = catalog
	p.rows = append(p.rows, rows...)
}

// Catalog returns the last parsed catalog.
func (p *Parser) Catalog() *flathub.Catalog {
	return p.catalog
}

// Rows returns the rows parsed from all data files.
func (p *Parser) Rows() []flathub.Row {
	return p.rows
}

func (p *Parser) parseNDJSON(r io.Reader) ([]flathub.Row, error) {
	var (
		raw  []json.RawMessage
		line int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for scanner.Scan() {
		line++
		content := bytes.TrimSpace(scanner.Bytes())
		if len(content) == 0 {
			continue
		}

		if !json.Valid(content) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}

		raw = append(raw, json.RawMessage(bytes.Clone(content)))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning input: %w", err)
	}

	return p.reshape(raw, p.fields)
}

const maxLineSize = 16 << 20

func (p *Parser) reshape(raw []json.RawMessage, fields []string) ([]flathub.Row, error) {
	rows := make([]flathub.Row, 0, len(raw))

	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}

		if item[0] == '{' {
			var row flathub.Row
			if err := decodeRow(item, &row); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}

			rows = append(rows, row)

			continue
		}

		var values []any
		if err := decodeRow(item, &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		if len(values) != len(fields) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d fields", ErrRowShape, i, len(values), len(fields))
		}

		row := make(flathub.Row, len(fields))
		for j, field := range fields {
			row[field] = values[j]
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// decodeRow keeps numbers as text, like rows fetched from the API.
func decodeRow(item []byte, target any) error {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()

	return dec.Decode(target)
}

func open(file string) (io.Reader, func(), error) {
	if file == "-" {
		return os.Stdin, func() {}, nil
	}

	reader, err := os.Open(file)
	if err != nil {
		return nil, nil, fmt.Errorf("input file %q: %w", file, err)
	}

	return reader, func() { _ = reader.Close() }, nil
}
