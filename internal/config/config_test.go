package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/happyhackingspace/accessguru/features"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accessguru.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCESSGURU_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Load = %+v, want defaults", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
input: data/a11y.db
table: issues
train:
  test_size: 0.25
  features: [tag_enc, url_depth]
  unseen_policy: error
  boost:
    rounds: 40
    max_depth: 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "data/a11y.db" || cfg.Table != "issues" {
		t.Errorf("input, table = %q, %q", cfg.Input, cfg.Table)
	}
	if cfg.Train.TestSize != 0.25 || cfg.Train.UnseenPolicy != "error" {
		t.Errorf("train = %+v", cfg.Train)
	}
	if !reflect.DeepEqual(cfg.Train.Features, []string{"tag_enc", "url_depth"}) {
		t.Errorf("features = %v", cfg.Train.Features)
	}
	if cfg.Train.Boost.Rounds != 40 || cfg.Train.Boost.MaxDepth != 4 {
		t.Errorf("boost = %+v", cfg.Train.Boost)
	}
	// unset keys keep their defaults
	if cfg.Train.Seed != 42 || cfg.Train.Boost.LearningRate != 0.1 || cfg.ModelDir != "models" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "input: from-file.csv\n")
	t.Setenv("ACCESSGURU_CONFIG", path)
	t.Setenv("ACCESSGURU_INPUT", "from-env.csv")
	t.Setenv("ACCESSGURU_MODEL_DIR", "out")
	t.Setenv("ACCESSGURU_SEED", "7")
	t.Setenv("ACCESSGURU_WORKERS", "3")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "from-env.csv" || cfg.ModelDir != "out" || cfg.Train.Seed != 7 || cfg.Train.Workers != 3 {
		t.Errorf("Load = %+v", cfg)
	}

	t.Setenv("ACCESSGURU_SEED", "-1")
	if _, err := Load(""); err == nil {
		t.Error("negative seed accepted")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("explicit missing file: err = %v, want os.ErrNotExist", err)
	}
	if _, err := Load(writeConfig(t, "train: [")); err == nil {
		t.Error("malformed YAML accepted")
	}
	if _, err := Load(writeConfig(t, "train:\n  test_size: 1.5\n")); err == nil {
		t.Error("test size 1.5 accepted")
	}
	_, err := Load(writeConfig(t, "train:\n  features: [nope]\n"))
	if !errors.Is(err, features.ErrUnknownFeature) {
		t.Errorf("unknown feature: err = %v, want ErrUnknownFeature", err)
	}
}
