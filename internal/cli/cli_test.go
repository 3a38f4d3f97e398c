package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/me/jobrun/internal/stats"
	"github.com/me/jobrun/pkg/model"
)

// fixture is a working directory holding a jobs config and its files.
type fixture struct {
	dir    string
	config string
	stats  string
}

func newFixture(t *testing.T, conf string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		config: filepath.Join(dir, "jobs.json"),
		stats:  filepath.Join(dir, "stats.json"),
	}
	conf = strings.ReplaceAll(conf, "$DIR", dir)
	if err := os.WriteFile(f.config, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f fixture) path(name string) string { return filepath.Join(f.dir, name) }

// execute runs the root command and returns its stdout.
func (f fixture) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--config-file", f.config,
		"--stats-file", f.stats,
		"--no-color",
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const copyConf = `{
  "jobs": [
    {
      "name": "copy",
      "input": "$DIR/in.txt",
      "outputs": ["$DIR/out.txt"],
      "command": ["cp {input} {outputs}"]
    },
    {
      "name": "copy-twice",
      "overrides": "copy",
      "outputs": ["$DIR/out2.txt"],
      "command": ["cat {input} {input} > {outputs}"]
    },
    {
      "name": "blocked",
      "input": "$DIR/missing.txt",
      "command": ["true"]
    }
  ],
  "statsReference": "copy"
}`

func readStats(t *testing.T, path string) map[string]model.Stat {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stats: %v", err)
	}
	var got map[string]model.Stat
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	return got
}

func TestRun_RecordsStats(t *testing.T) {
	f := newFixture(t, copyConf)

	out, err := f.execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{
		"Running job copy: \n",
		"Running job copy-twice: \n",
		"Running job blocked: job can't run now, skipping\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	got := readStats(t, f.stats)
	if len(got) != 2 {
		t.Fatalf("stats = %+v, want copy and copy-twice", got)
	}
	if got["copy"].Size != 4 || got["copy"].ReturnCode != 0 {
		t.Errorf("copy stat = %+v, want size 4 rc 0", got["copy"])
	}
	if got["copy-twice"].Size != 8 {
		t.Errorf("copy-twice stat = %+v, want size 8", got["copy-twice"])
	}

	out, err = f.execute(t)
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if !strings.Contains(out, "Running job copy: job outputs already generated, skipping\n") {
		t.Errorf("second run did not skip copy:\n%s", out)
	}
}

func TestRun_FailingJobIsNotFatal(t *testing.T) {
	f := newFixture(t, `{"jobs": [
		{"name": "fail", "outputs": ["$DIR/never"], "command": ["exit 3"]},
		{"name": "ok", "outputs": ["$DIR/ok.txt"], "command": ["echo ok > {outputs}"]}
	]}`)

	out, err := f.execute(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "job fail exited with code 3") {
		t.Errorf("output missing failure line:\n%s", out)
	}
	got := readStats(t, f.stats)
	if got["fail"].ReturnCode != 3 {
		t.Errorf("fail stat = %+v, want rc 3", got["fail"])
	}
	if got["ok"].Size != 3 {
		t.Errorf("ok stat = %+v, want size 3", got["ok"])
	}
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t, copyConf)

	out, err := f.execute(t, "--dry-run")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "cp "+f.path("in.txt")+" "+f.path("out.txt")) {
		t.Errorf("dry run did not show the expanded command:\n%s", out)
	}
	if _, err := os.Stat(f.path("out.txt")); !os.IsNotExist(err) {
		t.Errorf("dry run created an output (err=%v)", err)
	}
	if _, err := os.Stat(f.stats); !os.IsNotExist(err) {
		t.Errorf("dry run wrote stats (err=%v)", err)
	}
}

func TestRun_SelectJob(t *testing.T) {
	f := newFixture(t, copyConf)

	if _, err := f.execute(t, "--job", "copy-twice"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(f.path("out.txt")); !os.IsNotExist(err) {
		t.Errorf("unselected job ran (err=%v)", err)
	}
	if _, err := os.Stat(f.path("out2.txt")); err != nil {
		t.Errorf("selected job did not run: %v", err)
	}

	_, err := f.execute(t, "--job", "nope")
	var unknown *model.UnknownJobError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownJobError", err)
	}
}

func TestClean(t *testing.T) {
	f := newFixture(t, copyConf)
	if _, err := f.execute(t); err != nil {
		t.Fatalf("execute: %v", err)
	}

	out, err := f.execute(t, "--clean")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	want := "Remove file from job copy: " + f.path("out.txt") + "\n"
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
	for _, name := range []string{"out.txt", "out2.txt"} {
		if _, err := os.Stat(f.path(name)); !os.IsNotExist(err) {
			t.Errorf("%s still exists (err=%v)", name, err)
		}
	}
	if _, err := os.Stat(f.path("in.txt")); err != nil {
		t.Errorf("clean removed an input: %v", err)
	}
}

func TestStats_Table(t *testing.T) {
	f := newFixture(t, copyConf)
	if err := os.WriteFile(f.stats, []byte(`{
		"copy": {"name": "copy", "time": 2, "size": 100, "returnCode": 0},
		"copy-twice": {"name": "copy-twice", "time": 1, "size": 200, "returnCode": 0}
	}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := f.execute(t, "--stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"| name", "| copy ", "| copy-twice ", "0.5×", "-1×"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(f.path("out.txt")); !os.IsNotExist(err) {
		t.Errorf("--stats ran jobs (err=%v)", err)
	}
}

func TestStats_JSON(t *testing.T) {
	f := newFixture(t, copyConf)
	if err := os.WriteFile(f.stats, []byte(`{"copy": {"name": "copy", "time": 0, "size": 0, "returnCode": 0},
		"copy-twice": {"name": "copy-twice", "time": 3, "size": 2048, "returnCode": 1}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := f.execute(t, "--stats", "--stats-format", "json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var rows []stats.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	want := []stats.Row{
		{Name: "copy", Time: "00:00:00", TimeDiff: "-", Size: "0 B", SizeDiff: "-"},
		{Name: "copy-twice", Time: "00:00:03", TimeDiff: "+∞", Size: "2 KiB", SizeDiff: "+∞", ReturnCode: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestErrors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		f := newFixture(t, `{"jobs": []}`)
		f.config = f.path("absent.json")
		_, err := f.execute(t)
		var notFound *model.ConfigNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("err = %v, want ConfigNotFoundError", err)
		}
	})

	t.Run("override target missing", func(t *testing.T) {
		f := newFixture(t, `{"jobs": [{"name": "b", "overrides": "a", "outputs": ["$DIR/b"]}]}`)
		_, err := f.execute(t)
		var missing *model.OverrideTargetMissingError
		if !errors.As(err, &missing) {
			t.Fatalf("err = %v, want OverrideTargetMissingError", err)
		}
		if _, statErr := os.Stat(f.stats); !os.IsNotExist(statErr) {
			t.Errorf("stats written despite resolution failure")
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		f := newFixture(t, copyConf)
		if _, err := f.execute(t, "--log-level", "verbose"); err == nil {
			t.Fatal("expected error for unknown log level")
		}
		if _, err := os.Stat(f.path("out.txt")); !os.IsNotExist(err) {
			t.Errorf("jobs ran despite the flag error (err=%v)", err)
		}
	})

	t.Run("invalid stats format", func(t *testing.T) {
		f := newFixture(t, copyConf)
		if _, err := f.execute(t, "--stats", "--stats-format", "xml"); err == nil {
			t.Fatal("expected error for unknown stats format")
		}
	})
}

func TestStats_MissingDatabaseIsNotCreated(t *testing.T) {
	f := newFixture(t, copyConf)
	f.stats = f.path("stats.db")

	out, err := f.execute(t, "--stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "| name") {
		t.Errorf("expected an empty table, got:\n%s", out)
	}
	if _, err := os.Stat(f.stats); !os.IsNotExist(err) {
		t.Errorf("--stats created %s (err=%v)", f.stats, err)
	}
}

func TestRun_SQLiteStats(t *testing.T) {
	f := newFixture(t, copyConf)
	f.stats = f.path("stats.sqlite")

	if _, err := f.execute(t, "--job", "copy"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out, err := f.execute(t, "--stats", "--stats-format", "json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var rows []stats.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 1 || rows[0].Name != "copy" || rows[0].Size != "4 B" {
		t.Errorf("rows = %+v, want one row for copy of 4 B", rows)
	}
}
