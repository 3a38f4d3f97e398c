package parser

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/me/jobrun/pkg/model"
)

func testParser() *Parser {
	return New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

var wantConf = &model.Conf{
	Jobs: []model.Job{
		{
			Name:      "build",
			Input:     "a.c",
			Outputs:   []string{"a.o"},
			Command:   []string{"gcc -c {input} -o {outputs}"},
			Variables: map[string]string{"cc": "gcc"},
		},
		{
			Name:      "build-clang",
			Overrides: "build",
			Variables: map[string]string{"cc": "clang"},
		},
	},
	StatsReference: "build",
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "jobs.json", `{
  "jobs": [
    {"name": "build", "input": "a.c", "outputs": ["a.o"],
     "command": ["gcc -c {input} -o {outputs}"], "variables": {"cc": "gcc"}, "overrides": null},
    {"name": "build-clang", "input": null, "overrides": "build", "variables": {"cc": "clang"}}
  ],
  "statsReference": "build"
}`)

	conf, err := testParser().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(wantConf, conf); diff != "" {
		t.Errorf("conf mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "jobs.yaml", `
jobs:
  - name: build
    input: a.c
    outputs: [a.o]
    command:
      - "gcc -c {input} -o {outputs}"
    variables:
      cc: gcc
  - name: build-clang
    overrides: build
    variables:
      cc: clang
statsReference: build
`)

	conf, err := testParser().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(wantConf, conf); diff != "" {
		t.Errorf("conf mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "jobs.toml", `
statsReference = "build"

[[jobs]]
name = "build"
input = "a.c"
outputs = ["a.o"]
command = ["gcc -c {input} -o {outputs}"]
variables = { cc = "gcc" }

[[jobs]]
name = "build-clang"
overrides = "build"
variables = { cc = "clang" }
`)

	conf, err := testParser().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(wantConf, conf); diff != "" {
		t.Errorf("conf mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := testParser().LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	var nf *model.ConfigNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want ConfigNotFoundError", err)
	}
}

func TestLoadFile_Directory(t *testing.T) {
	_, err := testParser().LoadFile(t.TempDir())
	var cu *model.ConfigUnreadableError
	if !errors.As(err, &cu) {
		t.Fatalf("err = %v, want ConfigUnreadableError", err)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"broken json", "jobs.json", `{"jobs": [`},
		{"unknown json key", "jobs.json", `{"jobs": [{"name": "a", "cmd": ["x"]}]}`},
		{"trailing json", "jobs.json", `{"jobs": []} {}`},
		{"jobs not a list", "jobs.json", `{"jobs": {"name": "a"}}`},
		{"unknown yaml key", "jobs.yml", "jobs:\n  - name: a\n    outptus: [x]\n"},
		{"empty yaml", "jobs.yaml", ""},
		{"unknown toml key", "jobs.toml", "[[jobs]]\nname = \"a\"\nshell = \"bash\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := testParser().LoadFile(path)
			var ic *model.InvalidConfigError
			if !errors.As(err, &ic) {
				t.Fatalf("err = %v, want InvalidConfigError", err)
			}
			if ic.Path != path {
				t.Errorf("Path = %q, want %q", ic.Path, path)
			}
		})
	}
}

func TestParse_Validation(t *testing.T) {
	p := testParser()

	_, err := p.Parse([]byte(`{"jobs": [{"name": "a"}, {"name": "a"}]}`), FormatJSON)
	var dup *model.DuplicateJobError
	if !errors.As(err, &dup) {
		t.Errorf("duplicate: err = %v, want DuplicateJobError", err)
	}

	_, err = p.Parse([]byte(`{"jobs": [{"command": ["true"]}]}`), FormatJSON)
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("missing name: err = %v, want ValidationError", err)
	}

	_, err = p.Parse([]byte(`{"jobs": [{"name": "a"}], "statsReference": "b"}`), FormatJSON)
	var ur *model.UnknownReferenceError
	if !errors.As(err, &ur) {
		t.Errorf("reference: err = %v, want UnknownReferenceError", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"jobs.json":     FormatJSON,
		"jobs.YAML":     FormatYAML,
		"ci/jobs.yml":   FormatYAML,
		"jobs.toml":     FormatTOML,
		"jobs":          FormatJSON,
		"jobs.conf.bak": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
