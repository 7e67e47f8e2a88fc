package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/ductrouter/pkg/cache"
	"github.com/matzehuels/ductrouter/pkg/routing"
)

const plantTOML = `
name = "plant room"
step = 1

[trunk]
min = [0, 0, 10]
max = [10, 1, 12]

[[terminals]]
id = "a"
position = [3, 6]

[[terminals]]
id = "b"
position = [8, 5]

[[obstacles]]
min = [2, 3]
max = [4, 4]
`

// isolate points every XDG directory and backend variable at t's temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(envRedisAddr, "")
	t.Setenv(envMongoURI, "")
	return dir
}

func writeScenario(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "plant.toml")
	if err := os.WriteFile(path, []byte(plantTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"json"}},
		{"svg", []string{"svg"}},
		{"json, svg,png", []string{"json", "svg", "png"}},
		{",txt,", []string{"txt"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "plant.toml", "plant"},
		{"", "dir/plant.routes.json", "dir/plant.routes"},
		{"out/plant.svg", "plant.toml", "out/plant"},
		{"out/plant.v2", "plant.toml", "out/plant.v2"},
		{"out/plant", "plant.toml", "out/plant"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	tests := []struct {
		name string
		p    artifactWriteParams
		want map[string]string
	}{
		{
			name: "derived from input",
			p:    artifactWriteParams{formats: []string{"json", "svg"}, input: "plant.toml", suffix: ".routes"},
			want: map[string]string{"json": "plant.routes.json", "svg": "plant.routes.svg"},
		},
		{
			name: "single format verbatim",
			p:    artifactWriteParams{formats: []string{"png"}, input: "plant.toml", output: "plan.image"},
			want: map[string]string{"png": "plan.image"},
		},
		{
			name: "base path",
			p:    artifactWriteParams{formats: []string{"txt", "png"}, input: "plant.toml", output: "out/p.png", suffix: ".routes"},
			want: map[string]string{"txt": "out/p.txt", "png": "out/p.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, artifactPaths(tt.p)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteArtifactsKeepsInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "result.json")
	if err := os.WriteFile(input, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"json": []byte("new"), "txt": []byte("plan")},
		formats:   []string{"json", "txt"},
		input:     input,
	})
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(input); string(data) != "original" {
		t.Errorf("input overwritten with %q", data)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "result.txt")); string(data) != "plan" {
		t.Errorf("result.txt = %q", data)
	}

	err = writeArtifacts(artifactWriteParams{formats: []string{"svg"}, input: input})
	if err == nil {
		t.Error("expected an error for a format that was not rendered")
	}
}

func TestNewCache(t *testing.T) {
	dir := isolate(t)
	c := New(io.Discard, LogInfo)
	ctx := context.Background()

	cc, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.NullCache); !ok {
		t.Errorf("--no-cache gave %T", cc)
	}

	cc, err = c.newCache(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := cc.(*cache.FileCache)
	if !ok {
		t.Fatalf("default cache is %T", cc)
	}
	if want := filepath.Join(dir, "cache", appName); fc.Dir() != want {
		t.Errorf("cache dir = %q, want %q", fc.Dir(), want)
	}
}

func TestRouteCommand(t *testing.T) {
	dir := isolate(t)
	input := writeScenario(t, dir)
	out := filepath.Join(dir, "out", "plant")

	if err := execute(t, "route", input, "-f", "json,txt", "-o", out, "--store"); err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{".json", ".txt"} {
		info, err := os.Stat(out + ext)
		if err != nil || info.Size() == 0 {
			t.Errorf("missing artifact %s: %v", out+ext, err)
		}
	}

	runs, err := os.ReadDir(filepath.Join(dir, "data", appName, "runs"))
	if err != nil || len(runs) != 1 {
		t.Errorf("expected one stored run, got %d (%v)", len(runs), err)
	}

	res, err := readResultFile(out + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Succeeded()) != 2 {
		t.Errorf("routed %d terminals, want 2", len(res.Succeeded()))
	}

	// Re-render the saved result without routing again.
	if err := execute(t, "render", out+".json", "-f", "svg"); err != nil {
		t.Fatal(err)
	}
	svg, err := os.ReadFile(out + ".svg")
	if err != nil || !strings.Contains(string(svg), "<svg") {
		t.Errorf("render did not write an svg: %v", err)
	}
}

func TestRouteCommandErrors(t *testing.T) {
	dir := isolate(t)
	input := writeScenario(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing scenario", []string{"route", filepath.Join(dir, "nope.toml")}},
		{"unknown extension", []string{"route", filepath.Join(dir, "plant.yaml")}},
		{"bad format", []string{"route", input, "-f", "gif"}},
		{"negative step", []string{"route", input, "--step", "-1"}},
		{"no args", []string{"route"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func testResult(t *testing.T) *routing.Result {
	t.Helper()
	dir := isolate(t)
	input := writeScenario(t, dir)
	out := filepath.Join(dir, "res.json")
	if err := execute(t, "route", input, "-o", out, "--no-cache"); err != nil {
		t.Fatal(err)
	}
	res, err := readResultFile(out)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInspectModel(t *testing.T) {
	m, err := NewInspectModel(testResult(t))
	if err != nil {
		t.Fatal(err)
	}

	view := m.View()
	for _, want := range []string{"Terminal", "a", "b", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}

	step := func(m InspectModel, k string) InspectModel {
		next, _ := m.Update(key(k))
		return next.(InspectModel)
	}

	m = step(m, "j")
	if m.Cursor != 1 {
		t.Errorf("cursor = %d after down", m.Cursor)
	}
	m = step(m, "j")
	if m.Cursor != 1 {
		t.Errorf("cursor moved past the last route: %d", m.Cursor)
	}

	m = step(m, "enter")
	if !m.Detail || !strings.Contains(m.View(), "Segments") {
		t.Error("enter did not open the route detail")
	}
	m = step(m, "esc")
	if m.Detail {
		t.Error("esc did not close the detail")
	}

	m = step(m, "m")
	if !m.ShowMap || !strings.Contains(m.View(), "=") {
		t.Error("plan not shown after m")
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q did not quit")
	}
}

func TestColorizePlanKeepsText(t *testing.T) {
	plan := "..=..\n.#o-1\n\n1 a: 2 steps, 0 turns, cost 20\n"
	got := colorizePlan(plan)
	for _, want := range []string{"=", "#", "1 a: 2 steps"} {
		if !strings.Contains(got, want) {
			t.Errorf("colorized plan lost %q:\n%s", want, got)
		}
	}
}
