package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/happyhackingspace/accessguru/artifact"
)

func writeViolations(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("affected_html_elements,violation_name,violation_score\n")
	rows := []struct {
		n     int
		html  string
		name  string
		score int
	}{
		{20, `<img src=""p%d.png"">`, "image-alt", 2},
		{16, `<a href=""/p%d"">more</a>`, "link-name", 3},
		{12, `<button id=""b%d"">Go</button>`, "button-name", 4},
		{10, `<div class=""d%d"">x</div>`, "region", 5},
	}
	for _, r := range rows {
		for i := range r.n {
			fmt.Fprintf(&b, "\"%s\",%s,%d\n", fmt.Sprintf(r.html, i), r.name, r.score)
		}
	}
	path := filepath.Join(t.TempDir(), "violations.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTrainAndScoreCommands(t *testing.T) {
	t.Setenv("ACCESSGURU_CONFIG", "")
	t.Chdir(t.TempDir())
	input := writeViolations(t)
	modelDir := filepath.Join(t.TempDir(), "models")

	c := New("test")
	c.SetArgs([]string{"train", modelDir, "--input", input, "--rounds", "5", "-s"})
	if err := c.Run(); err != nil {
		t.Fatalf("train: %v", err)
	}
	for _, name := range []string{artifact.ModelFile, artifact.MetadataFile, artifact.MetadataJSONFile} {
		if _, err := os.Stat(filepath.Join(modelDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	c = New("test")
	c.SetArgs([]string{"score", input, "--model-dir", modelDir, "-s"})
	if err := c.Run(); err != nil {
		t.Fatalf("score: %v", err)
	}

	c = New("test")
	c.SetArgs([]string{"evaluate", "--input", input, "--model-dir", modelDir, "-s"})
	if err := c.Run(); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
}

func TestScoreFindsModelsInParentDir(t *testing.T) {
	t.Setenv("ACCESSGURU_CONFIG", "")
	root := t.TempDir()
	input := writeViolations(t)

	c := New("test")
	c.SetArgs([]string{"train", filepath.Join(root, "models"), "--input", input, "--rounds", "3", "-s"})
	if err := c.Run(); err != nil {
		t.Fatalf("train: %v", err)
	}

	nested := filepath.Join(root, "reports", "weekly")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)
	c = New("test")
	c.SetArgs([]string{"evaluate", "--input", input, "-s"})
	if err := c.Run(); err != nil {
		t.Fatalf("evaluate without --model-dir: %v", err)
	}
}

func TestTrainCommandRejectsBadFlags(t *testing.T) {
	t.Setenv("ACCESSGURU_CONFIG", "")
	t.Chdir(t.TempDir())
	c := New("test")
	c.SetArgs([]string{"train", "--input", "x.csv", "--unseen-policy", "drop", "-s"})
	if err := c.Run(); err == nil {
		t.Error("unknown unseen policy accepted")
	}
}

func TestCurrentVersion(t *testing.T) {
	tests := map[string]string{
		"dev":     "0.0.0",
		"":        "0.0.0",
		"v1.2.3":  "1.2.3",
		"0.4.0":   "0.4.0",
		" v2.0.1": "2.0.1",
	}
	for in, want := range tests {
		if got := currentVersion(in); got != want {
			t.Errorf("currentVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpCommandFlags(t *testing.T) {
	cmd := New("test").newUpCommand()
	for _, name := range []string{"check", "prerelease"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("up has no --%s flag", name)
		}
	}
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Error("up accepted a positional argument")
	}
}
