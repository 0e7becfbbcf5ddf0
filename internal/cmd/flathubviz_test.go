package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fredbi/flathubviz/internal/pkg/config"
	"github.com/fredbi/flathubviz/internal/pkg/explorer"
	"github.com/fredbi/flathubviz/internal/pkg/flathub"
	"github.com/fredbi/flathubviz/internal/pkg/parser"

	"github.com/go-openapi/testify/v2/assert"
	"github.com/go-openapi/testify/v2/require"
)

func TestNewCommand(t *testing.T) {
	cli := NewCommand()
	require.NotNil(t, cli)
	assert.NotNil(t, cli.L)
	// Verify defaults from registerFlags
	assert.Equal(t, "flathubviz.yaml", cli.Config)
	assert.Equal(t, "-", cli.OutputFile)
	assert.False(t, cli.Offline)
	assert.False(t, cli.Strict)
}

func TestInferFiles(t *testing.T) {
	tests := []struct {
		input string
		infer func(string) string
		want  string
	}{
		{"output.png", inferHTMLFile, "output.html"},
		{"output.html", inferHTMLFile, "output.html"},
		{"output", inferHTMLFile, "output.html"},
		{"path/to/output.png", inferHTMLFile, "path/to/output.html"},
		{"output.html", inferImageFile, "output.png"},
		{"path/to/output.html", inferImageFile, "path/to/output.png"},
		{"output.html", inferSpreadsheetFile, "output.xlsx"},
		{"output", inferSpreadsheetFile, "output.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.input+"->"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.infer(tt.input))
		})
	}
}

func TestSetConfigOverrides(t *testing.T) {
	cfg := &config.Config{Catalog: "gaiadr3", Fields: []string{"ra"}}
	cli := &Command{
		Catalog: "twomass",
		Fields:  " ra, dec ,,ra",
		L:       newTestLogger(),
	}

	require.NoError(t, cli.setConfig(cfg))

	assert.Equal(t, "twomass", cfg.Catalog)
	assert.Equal(t, []string{"ra", "dec"}, cfg.Fields, "expected fields trimmed and deduplicated")
	assert.False(t, cfg.IsOffline)
}

func TestSetConfigOffline(t *testing.T) {
	t.Run("catalog file implies offline mode", func(t *testing.T) {
		cfg := &config.Config{}
		cli := &Command{CatalogFile: "catalog.json", L: newTestLogger()}

		require.NoError(t, cli.setConfig(cfg))
		assert.True(t, cfg.IsOffline)
		assert.Equal(t, "catalog.json", cfg.Inputs.CatalogFile)
	})

	t.Run("offline mode requires a catalog file", func(t *testing.T) {
		cli := &Command{Offline: true, L: newTestLogger()}

		require.ErrorIs(t, cli.setConfig(&config.Config{}), ErrNoCatalogFile)
	})

	t.Run("online mode requires a catalog", func(t *testing.T) {
		cli := &Command{L: newTestLogger()}

		require.ErrorIs(t, cli.setConfig(&config.Config{}), ErrNoCatalog)
	})
}

func TestSetConfigOutputToStdout(t *testing.T) {
	cfg := &config.Config{Catalog: "gaiadr3"}
	cli := &Command{
		OutputFile: "-",
		Png:        true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.setConfig(cfg))

	// When no output file specified, HTML goes to stdout
	assert.Equal(t, "-", cfg.Outputs.HTMLFile)
	assert.Empty(t, cfg.Outputs.PngFile)
}

func TestSetConfigOutputFiles(t *testing.T) {
	cfg := &config.Config{Catalog: "gaiadr3"}
	cli := &Command{
		OutputFile: "results.png",
		Png:        true,
		Xlsx:       true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.setConfig(cfg))

	assert.Equal(t, "results.html", cfg.Outputs.HTMLFile)
	assert.Equal(t, "results.png", cfg.Outputs.PngFile)
	assert.Equal(t, "results.xlsx", cfg.Outputs.XlsxFile)
}

func TestSetConfigReport(t *testing.T) {
	cfg := &config.Config{Catalog: "gaiadr3"}
	cli := &Command{
		OutputFile: "results.html",
		Report:     true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.setConfig(cfg))

	assert.Equal(t, "results.json", cfg.Outputs.ReportFile)
	assert.Empty(t, cfg.Outputs.HTMLFile)
}

func TestSetConfigTempHTML(t *testing.T) {
	cfg := &config.Config{
		Catalog: "gaiadr3",
		Outputs: config.Output{
			PngFile: "output.png",
		},
	}
	cli := &Command{
		L: newTestLogger(),
	}

	require.NoError(t, cli.setConfig(cfg))

	assert.True(t, cfg.Outputs.IsTemp)
	assert.NotEmpty(t, cfg.Outputs.HTMLFile)
	assert.True(t, strings.Contains(cfg.Outputs.HTMLFile, "flathubviz"),
		"expected temp file name to contain 'flathubviz', got %q", cfg.Outputs.HTMLFile)

	// Clean up temp file
	os.Remove(cfg.Outputs.HTMLFile)
}

func TestPrepareConfig(t *testing.T) {
	cfgFile := writeTestConfig(t, testConfig(""))

	cli := &Command{
		Config:     cfgFile,
		OutputFile: "-",
		L:          newTestLogger(),
	}

	cfg, cleanup, err := cli.prepareConfig()
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, cfg)
	assert.Equal(t, "gaiadr3", cfg.Catalog)
	assert.Equal(t, 2, cfg.Render.PageSize)
	assert.Equal(t, "undefined", cfg.Render.UndefinedLabel, "expected embedded defaults")
}

func TestPrepareConfigMissingFile(t *testing.T) {
	cli := &Command{
		Config: "/nonexistent/config.yaml",
		L:      newTestLogger(),
	}

	_, cleanup, err := cli.prepareConfig()
	require.Error(t, err)
	assert.Nil(t, cleanup)
}

func TestPrepareSourceOffline(t *testing.T) {
	cfg := mustLoadTestConfig(t, testConfig(""))
	cfg.IsOffline = true
	cfg.Inputs.CatalogFile = parserTestdataPath("catalog.json")

	cli := &Command{L: newTestLogger()}
	source, p, err := cli.prepareSource(cfg, []string{parserTestdataPath("objects.json")})
	require.NoError(t, err)

	_, isFile := source.(*explorer.FileSource)
	assert.True(t, isFile)
	assert.Len(t, p.Rows(), 3)
	assert.Equal(t, parserTestdataPath("objects.json"), cfg.Inputs.DataFile)
}

func TestPrepareSourceOnline(t *testing.T) {
	cfg := mustLoadTestConfig(t, testConfig(""))

	cli := &Command{L: newTestLogger()}
	source, p, err := cli.prepareSource(cfg, nil)
	require.NoError(t, err)

	_, isClient := source.(*flathub.Client)
	assert.True(t, isClient)
	assert.Empty(t, p.Rows())
}

func TestExecuteOffline(t *testing.T) {
	cfgFile := writeTestConfig(t, testConfig(""))
	outFile := filepath.Join(t.TempDir(), "output.html")

	cli := &Command{
		Config:      cfgFile,
		CatalogFile: parserTestdataPath("catalog.json"),
		OutputFile:  outFile,
		Xlsx:        true,
		L:           newTestLogger(),
	}

	require.NoError(t, cli.Execute(parserTestdataPath("objects.json")))

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)

	html := string(content)
	assert.Contains(t, html, `class="flathub-table"`)
	assert.Contains(t, html, "Right ascension [deg]")
	assert.Contains(t, html, "Astrometry")
	assert.Contains(t, html, "scatter")

	info, err := os.Stat(filepath.Join(filepath.Dir(outFile), "output.xlsx"))
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestExecuteOfflineStrict(t *testing.T) {
	// histograms are not available from local files
	cfgFile := writeTestConfig(t, testConfig("") + `
  - id: magnitudes
    kind: histogram
    x: phot_g_mean_mag
`)

	cli := &Command{
		Config:      cfgFile,
		CatalogFile: parserTestdataPath("catalog.json"),
		OutputFile:  filepath.Join(t.TempDir(), "output.html"),
		Strict:      true,
		L:           newTestLogger(),
	}

	require.ErrorIs(t, cli.Execute(parserTestdataPath("objects.json")), explorer.ErrStrict)

	cli.Strict = false
	require.NoError(t, cli.Execute(parserTestdataPath("objects.json")))
}

func TestExecuteMissingInput(t *testing.T) {
	cfgFile := writeTestConfig(t, testConfig(""))

	cli := &Command{
		Config:      cfgFile,
		CatalogFile: parserTestdataPath("catalog.json"),
		OutputFile:  filepath.Join(t.TempDir(), "output.html"),
		L:           newTestLogger(),
	}

	require.Error(t, cli.Execute("/nonexistent/file.json"))

	cli.CatalogFile = "/nonexistent/catalog.json"
	require.Error(t, cli.Execute(parserTestdataPath("objects.json")))
}

func TestExecuteOnline(t *testing.T) {
	api := newFakeAPI(t)
	cfgFile := writeTestConfig(t, testConfig(api.URL)+`
  - id: magnitudes
    kind: histogram
    x: phot_g_mean_mag
    logCount: true
`)
	outFile := filepath.Join(t.TempDir(), "output.html")

	cli := &Command{
		Config:     cfgFile,
		OutputFile: outFile,
		Strict:     true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.Execute())

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)

	html := string(content)
	assert.Contains(t, html, `class="flathub-table"`)
	assert.Contains(t, html, "Magnitudes")
	assert.Contains(t, html, "gaiadr3: 3 matching rows")
}

func TestExecuteOnlineAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "catalog not found", http.StatusNotFound)
	}))
	defer srv.Close()

	cli := &Command{
		Config:     writeTestConfig(t, testConfig(srv.URL)),
		OutputFile: filepath.Join(t.TempDir(), "output.html"),
		L:          newTestLogger(),
	}

	require.ErrorIs(t, cli.Execute(), flathub.ErrAPI)
}

func TestListCatalogs(t *testing.T) {
	api := newFakeAPI(t)
	outFile := filepath.Join(t.TempDir(), "catalogs.txt")

	cli := &Command{
		Config:     writeTestConfig(t, testConfig(api.URL)),
		OutputFile: outFile,
		List:       true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.Execute())

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "gaiadr3\tGaia DR3\nsdss\tSDSS DR16\n", string(content))

	t.Run("API errors are reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cli.Config = writeTestConfig(t, testConfig(srv.URL))
		require.ErrorIs(t, cli.Execute(), flathub.ErrAPI)
	})

	t.Run("invalid config is reported", func(t *testing.T) {
		cli.Config = writeTestConfig(t, "count: -1\n")
		require.Error(t, cli.Execute())
	})
}

func TestReportOffline(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "report.json")

	cli := &Command{
		Config:      writeTestConfig(t, testConfig("")),
		CatalogFile: parserTestdataPath("catalog.json"),
		OutputFile:  outFile,
		Report:      true,
		L:           newTestLogger(),
	}

	require.NoError(t, cli.Execute(parserTestdataPath("objects.json")))

	report := readReport(t, outFile)
	assert.Equal(t, "gaiadr3", report.Catalog)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, []string{parserTestdataPath("objects.json")}, report.AnalyzedFiles)
	assert.NotEmpty(t, report.Fields)
}

func TestReportOnline(t *testing.T) {
	api := newFakeAPI(t)
	outFile := filepath.Join(t.TempDir(), "report.json")

	cli := &Command{
		Config:     writeTestConfig(t, testConfig(api.URL)),
		OutputFile: outFile,
		Report:     true,
		L:          newTestLogger(),
	}

	require.NoError(t, cli.Execute())

	report := readReport(t, outFile)
	assert.Equal(t, "gaiadr3", report.Catalog)
	assert.Equal(t, 3, report.Rows)
	assert.Empty(t, report.AnalyzedFiles)
}

func TestGenerateConfigOffline(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "generated.yaml")

	cli := &Command{
		Config:         outFile,
		CatalogFile:    parserTestdataPath("catalog.json"),
		GenerateConfig: true,
		L:              newTestLogger(),
	}

	require.NoError(t, cli.Execute())

	// Verify it loads as a valid config
	cfg, err := config.Load(outFile)
	require.NoError(t, err)
	assert.Equal(t, "gaiadr3", cfg.Catalog)
	assert.Equal(t, "Gaia DR3", cfg.Name)
	assert.Contains(t, cfg.Fields, "ra")
	assert.NotEmpty(t, cfg.Plots)
}

func TestGenerateConfigFields(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "generated.yaml")

	cli := &Command{
		Config:         outFile,
		CatalogFile:    parserTestdataPath("catalog.json"),
		Fields:         "dec,ra",
		GenerateConfig: true,
		L:              newTestLogger(),
	}

	require.NoError(t, cli.Execute())

	cfg, err := config.Load(outFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"dec", "ra"}, cfg.Fields)
}

func TestGenerateConfigMissingInput(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "generated.yaml")

	cli := &Command{
		Config:         outFile,
		GenerateConfig: true,
		L:              newTestLogger(),
	}

	require.ErrorIs(t, cli.Execute(), ErrNoCatalog)

	cli.CatalogFile = "/nonexistent/catalog.json"
	require.Error(t, cli.Execute())

	_, err := os.Stat(outFile)
	assert.True(t, os.IsNotExist(err), "no config should be written on error")
}

// helpers

func newTestLogger() *slog.Logger {
	return slog.Default().With(slog.String("module", "test"))
}

func writeTestConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(yamlContent), 0o600))
	return file
}

func mustLoadTestConfig(t *testing.T, yamlContent string) *config.Config {
	t.Helper()
	file := writeTestConfig(t, yamlContent)
	cfg, err := config.Load(file)
	require.NoError(t, err)
	return cfg
}

func parserTestdataPath(name string) string {
	return filepath.Join("..", "pkg", "parser", "testdata", name)
}

func readReport(t *testing.T, file string) parser.CatalogReport {
	t.Helper()
	content, err := os.ReadFile(file)
	require.NoError(t, err)

	var report parser.CatalogReport
	require.NoError(t, json.Unmarshal(content, &report))

	return report
}

// newFakeAPI serves the test catalog and data rows like the Flathub API does.
func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := os.ReadFile(parserTestdataPath("catalog.json"))
	require.NoError(t, err)
	rows, err := os.ReadFile(parserTestdataPath("objects.json"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name": "gaiadr3", "title": "Gaia DR3"}, {"name": "sdss", "title": "SDSS DR16"}]`)
	})
	mux.HandleFunc("GET /api/gaiadr3", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(catalog)
	})
	mux.HandleFunc("POST /api/gaiadr3/data", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["object"])
		_, _ = w.Write(rows)
	})
	mux.HandleFunc("POST /api/gaiadr3/count", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "3")
	})
	mux.HandleFunc("POST /api/gaiadr3/histogram", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"sizes": [1], "buckets": [{"key": [16], "count": 1}, {"key": [17], "count": 1}, {"key": [19], "count": 1}]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

// testConfig renders a configuration for the test catalog. The plots list is left open for extra plots.
func testConfig(apiURL string) string {
	api := ""
	if apiURL != "" {
		api = fmt.Sprintf("api:\n  url: %s\n  timeout: 5s\n", apiURL)
	}

	return `
name: Test
catalog: gaiadr3
count: 10
` + api + `render:
  pageSize: 2
  precision: 3
plots:
  - id: sky
    kind: scatter
    x: ra
    y: dec`
}
