package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/basiccleaning/internal/artifact"
	"github.com/nao1215/basiccleaning/internal/config"
	"github.com/nao1215/basiccleaning/internal/table"
)

const sampleCSV = `id,price,neighbourhood
1,5,Brooklyn
2,15,Manhattan
3,350,Queens
4,351,Bronx
5,,Harlem
6,20,NA
7,100.5,Brooklyn
`

// testEnv is a local store and configuration file in a temporary directory.
type testEnv struct {
	dir        string
	configPath string
	outputFile string
}

// newTestEnv writes a configuration file pointing the local store, the
// cache and the output file into a temporary directory. extra is appended
// to the file.
func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, config.DefaultConfigFile),
		outputFile: filepath.Join(dir, "work", config.DefaultOutputFile),
	}

	content := fmt.Sprintf(`store:
  backend: local
  dir: %q
  cacheDir: %q
outputFile: %q
log:
  format: json
%s`, filepath.Join(dir, "store"), filepath.Join(dir, "cache"), env.outputFile, extra)

	if err := os.MkdirAll(filepath.Dir(env.outputFile), 0750); err != nil {
		t.Fatalf("failed to create work directory: %v", err)
	}
	if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return env
}

// run executes the root command with the environment's configuration.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"-c", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// putSample registers content as the raw_data artifact sample.csv.
func (e *testEnv) putSample(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(e.dir, "sample.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	if _, _, err := e.run(t, "artifacts", "put", path, "--type", "raw_data", "--description", "Raw listings"); err != nil {
		t.Fatalf("failed to put sample: %v", err)
	}
}

// clean runs the cleaning step on sample.csv:latest with the given bounds.
func (e *testEnv) clean(t *testing.T, minPrice, maxPrice string) (string, string, error) {
	t.Helper()

	return e.run(t,
		"--input_artifact", "sample.csv:latest",
		"--output_artifact", "clean_sample.csv",
		"--output_type", "clean_sample",
		"--output_description", "Data with outliers and null values removed",
		"--min_price", minPrice,
		"--max_price", maxPrice,
	)
}

// fetch copies ref out of the store and returns its content.
func (e *testEnv) fetch(t *testing.T, ref string) string {
	t.Helper()

	dst := filepath.Join(e.dir, "fetched", strings.ReplaceAll(ref, ":", "_"))
	if _, _, err := e.run(t, "artifacts", "get", ref, "-o", dst); err != nil {
		t.Fatalf("failed to get %s: %v", ref, err)
	}
	data, err := os.ReadFile(dst) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to read %s: %v", dst, err)
	}
	return string(data)
}

func TestCleanCommand(t *testing.T) {
	t.Parallel()

	t.Run("publishes cleaned data", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, sampleCSV)

		_, stderr, err := env.clean(t, "10", "350")
		if err != nil {
			t.Fatalf("unexpected error: %v\n%s", err, stderr)
		}

		want := "id,price,neighbourhood\n2,15,Manhattan\n3,350,Queens\n7,100.5,Brooklyn\n"
		if got := env.fetch(t, "clean_sample.csv:v0"); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}

		data, err := os.ReadFile(env.outputFile)
		if err != nil {
			t.Fatalf("expected local output file: %v", err)
		}
		if string(data) != want {
			t.Errorf("expected local output %q, got %q", want, string(data))
		}

		for _, msg := range []string{"downloading input artifact", "reading data", "dropping rows with missing values", "artifact published"} {
			if !strings.Contains(stderr, msg) {
				t.Errorf("expected log %q, got:\n%s", msg, stderr)
			}
		}
	})

	t.Run("published metadata records the run", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, sampleCSV)

		if _, stderr, err := env.clean(t, "10", "350"); err != nil {
			t.Fatalf("unexpected error: %v\n%s", err, stderr)
		}

		stdout, _, err := env.run(t, "artifacts", "history", "clean_sample.csv", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var versions []artifact.Version
		if err := json.Unmarshal([]byte(stdout), &versions); err != nil {
			t.Fatalf("expected JSON history, got %q: %v", stdout, err)
		}
		if len(versions) != 1 {
			t.Fatalf("expected 1 version, got %d", len(versions))
		}

		v := versions[0]
		if v.Type != "clean_sample" {
			t.Errorf("expected type clean_sample, got %q", v.Type)
		}
		if v.Description != "Data with outliers and null values removed" {
			t.Errorf("expected description to be recorded, got %q", v.Description)
		}
		if v.Metadata["job_type"] != "basic_cleaning" {
			t.Errorf("expected job_type basic_cleaning, got %v", v.Metadata["job_type"])
		}
		if v.Metadata["input_artifact"] != "sample.csv:latest" {
			t.Errorf("expected input_artifact sample.csv:latest, got %v", v.Metadata["input_artifact"])
		}
		if v.Metadata["min_price"] != float64(10) || v.Metadata["max_price"] != float64(350) {
			t.Errorf("expected bounds 10 and 350, got %v and %v", v.Metadata["min_price"], v.Metadata["max_price"])
		}
		if v.Metadata["output_rows"] != float64(3) {
			t.Errorf("expected output_rows 3, got %v", v.Metadata["output_rows"])
		}
		if id, _ := v.Metadata["run_id"].(string); id == "" {
			t.Error("expected a run_id")
		}
	})

	t.Run("second identical run keeps the version", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, sampleCSV)

		for range 2 {
			if _, stderr, err := env.clean(t, "10", "350"); err != nil {
				t.Fatalf("unexpected error: %v\n%s", err, stderr)
			}
		}

		stdout, _, err := env.run(t, "artifacts", "history", "clean_sample.csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "(1 versions)") {
			t.Errorf("expected a single version, got:\n%s", stdout)
		}
	})

	t.Run("changed bounds create a new version", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, sampleCSV)

		if _, _, err := env.clean(t, "10", "350"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, _, err := env.clean(t, "10", "100"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "id,price,neighbourhood\n2,15,Manhattan\n"
		if got := env.fetch(t, "clean_sample.csv:latest"); got != want {
			t.Errorf("expected latest %q, got %q", want, got)
		}
		if got := env.fetch(t, "clean_sample.csv:v1"); got != want {
			t.Errorf("expected v1 %q, got %q", want, got)
		}
	})

	t.Run("inverted bounds publish a header only", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, sampleCSV)

		if _, stderr, err := env.clean(t, "100", "10"); err != nil {
			t.Fatalf("expected inverted bounds to succeed, got %v\n%s", err, stderr)
		}
		if got := env.fetch(t, "clean_sample.csv:latest"); got != "id,price,neighbourhood\n" {
			t.Errorf("expected header only, got %q", got)
		}
	})

	t.Run("unknown input artifact", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")

		_, _, err := env.clean(t, "10", "350")
		if !errors.Is(err, artifact.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		var resErr *artifact.ResolutionError
		if !errors.As(err, &resErr) {
			t.Errorf("expected *artifact.ResolutionError, got %T", err)
		}
		if _, statErr := os.Stat(env.outputFile); statErr == nil {
			t.Error("expected no output file")
		}
	})

	t.Run("missing price column", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.putSample(t, "id,cost\n1,10\n")

		_, _, err := env.clean(t, "10", "350")
		if !errors.Is(err, table.ErrColumnNotFound) {
			t.Errorf("expected ErrColumnNotFound, got %v", err)
		}

		stdout, _, err := env.run(t, "artifacts", "list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(stdout, "clean_sample.csv") {
			t.Errorf("expected nothing published, got:\n%s", stdout)
		}
	})

	t.Run("missing required flag", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")

		_, _, err := env.run(t, "--input_artifact", "sample.csv:latest")
		if err == nil {
			t.Fatal("expected error for missing flags")
		}
		if !strings.Contains(err.Error(), "required flag") {
			t.Errorf("expected required flag error, got %v", err)
		}
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")

		_, _, err := env.clean(t, "ten", "350")
		if err == nil {
			t.Fatal("expected error for non-numeric bound")
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		env.configPath = filepath.Join(env.dir, "missing.yaml")

		_, _, err := env.clean(t, "10", "350")
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid backend", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "")
		content := "store:\n  backend: ftp\n"
		if err := os.WriteFile(env.configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, _, err := env.clean(t, "10", "350")
		if !errors.Is(err, config.ErrInvalidBackend) {
			t.Errorf("expected ErrInvalidBackend, got %v", err)
		}
	})
}

func TestCleanCommandReport(t *testing.T) {
	t.Parallel()

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		reportPath := filepath.Join(dir, "reports", "run.md")
		env := newTestEnv(t, fmt.Sprintf("report:\n  format: markdown\n  file: %q\n", reportPath))
		env.putSample(t, sampleCSV)

		stdout, _, err := env.clean(t, "10", "350")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected nothing on stdout, got %q", stdout)
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		for _, want := range []string{"# Basic Cleaning Run", "clean_sample.csv:v0", "```mermaid"} {
			if !strings.Contains(string(data), want) {
				t.Errorf("expected report to contain %q, got:\n%s", want, string(data))
			}
		}
	})

	t.Run("json report to stdout", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "report:\n  format: json\n")
		env.putSample(t, sampleCSV)

		stdout, _, err := env.clean(t, "10", "350")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("expected JSON report, got %q: %v", stdout, err)
		}
		if got["status"] != "Published" {
			t.Errorf("expected status Published, got %v", got["status"])
		}
		if got["out_of_range_rows"] != float64(3) {
			t.Errorf("expected 3 rows out of range, got %v", got["out_of_range_rows"])
		}
		if got["incomplete_rows"] != float64(1) {
			t.Errorf("expected 1 incomplete row, got %v", got["incomplete_rows"])
		}
	})

	t.Run("report is written for failed runs", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "report:\n  format: text\n")
		env.putSample(t, "id,cost\n1,10\n")

		stdout, _, err := env.clean(t, "10", "350")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(stdout, "Status:      Failed") {
			t.Errorf("expected failed status in report, got:\n%s", stdout)
		}
	})

	t.Run("invalid report format", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, "report:\n  format: html\n")

		_, _, err := env.clean(t, "10", "350")
		if !errors.Is(err, config.ErrInvalidReportFormat) {
			t.Errorf("expected ErrInvalidReportFormat, got %v", err)
		}
	})
}
