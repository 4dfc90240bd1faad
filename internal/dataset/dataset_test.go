package dataset

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/happyhackingspace/accessguru/features"
)

const sample = `web_URL,affected_html_elements,violation_name,violation_score,extra
https://a.gov/x,"<img src=""a.png"">",image-alt,4,ignored
https://b.org/,"<a href=""#"">x, y</a>",link-name,3.0,
`

func TestReadCSV(t *testing.T) {
	corpus, err := ReadCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatal(err)
	}
	if corpus.Len() != 2 {
		t.Fatalf("Len = %d, want 2", corpus.Len())
	}
	want := features.ViolationRecord{
		HTML:          `<a href="#">x, y</a>`,
		ViolationName: "link-name",
		URL:           "https://b.org/",
		Score:         3,
	}
	if !reflect.DeepEqual(corpus.Records[1], want) {
		t.Errorf("Records[1] = %+v, want %+v", corpus.Records[1], want)
	}
	for _, col := range []string{features.ColHTML, features.ColURL, features.ColScore} {
		if !corpus.HasColumn(col) {
			t.Errorf("HasColumn(%s) = false", col)
		}
	}
	if corpus.HasColumn(features.ColSupplementary) {
		t.Error("HasColumn(supplementary_information) = true for an absent column")
	}
	if got := corpus.Scores(); !reflect.DeepEqual(got, []int{4, 3}) {
		t.Errorf("Scores = %v", got)
	}
}

func TestReadCSVBadScore(t *testing.T) {
	data := "violation_score\n4\nhigh\n"
	_, err := ReadCSV(strings.NewReader(data))
	if !errors.Is(err, ErrBadScore) {
		t.Errorf("err = %v, want ErrBadScore", err)
	}
}

func TestReadCSVWithoutScores(t *testing.T) {
	corpus, err := ReadCSV(strings.NewReader("affected_html_elements\n<div>\n"))
	if err != nil {
		t.Fatal(err)
	}
	if corpus.HasColumn(features.ColScore) || corpus.Records[0].Score != 0 {
		t.Errorf("unexpected score data: %+v", corpus)
	}
}

func TestParseScore(t *testing.T) {
	good := map[string]int{"2": 2, " 5 ": 5, "4.0": 4}
	for in, want := range good {
		if got, err := ParseScore(in); err != nil || got != want {
			t.Errorf("ParseScore(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "3.5", "nan", "x"} {
		if _, err := ParseScore(in); !errors.Is(err, ErrBadScore) {
			t.Errorf("ParseScore(%q) err = %v, want ErrBadScore", in, err)
		}
	}
}

func TestLoadDispatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "violations.csv")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	corpus, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	if corpus.Len() != 2 {
		t.Errorf("Len = %d, want 2", corpus.Len())
	}
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.csv"), ""); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "violations.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE violations (affected_html_elements TEXT, violation_impact TEXT, web_URL TEXT, violation_score INTEGER)`,
		`INSERT INTO violations VALUES ('<img>', 'Serious', 'https://a.edu/', 5)`,
		`INSERT INTO violations VALUES ('<div>', NULL, NULL, 2)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	corpus, err := Load(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []features.ViolationRecord{
		{HTML: "<img>", ViolationImpact: "Serious", URL: "https://a.edu/", Score: 5},
		{HTML: "<div>", Score: 2},
	}
	if !reflect.DeepEqual(corpus.Records, want) {
		t.Errorf("Records = %+v, want %+v", corpus.Records, want)
	}
	if !corpus.HasColumn(features.ColImpact) || corpus.HasColumn(features.ColDomain) {
		t.Errorf("Columns = %v", corpus.Columns)
	}

	if _, err := LoadSQLite(context.Background(), path, "violations; DROP TABLE x"); err == nil {
		t.Error("invalid table name accepted")
	}
	if _, err := LoadSQLite(context.Background(), path, "missing"); err == nil {
		t.Error("missing table: err = nil")
	}
}

func splitFixture() []int {
	var labels []int
	for label, n := range []int{20, 16, 12, 10} {
		for range n {
			labels = append(labels, label)
		}
	}
	return labels
}

func TestStratifiedSplit(t *testing.T) {
	labels := splitFixture()
	train, test, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(test) != 12 || len(train) != 46 {
		t.Fatalf("len(train), len(test) = %d, %d; want 46, 12", len(train), len(test))
	}
	counts := map[int]int{}
	for _, i := range test {
		counts[labels[i]]++
	}
	if want := map[int]int{0: 4, 1: 3, 2: 3, 3: 2}; !reflect.DeepEqual(counts, want) {
		t.Errorf("test class counts = %v, want %v", counts, want)
	}
	seen := make([]bool, len(labels))
	for _, list := range [][]int{train, test} {
		for j, i := range list {
			if seen[i] {
				t.Fatalf("index %d appears twice", i)
			}
			seen[i] = true
			if j > 0 && list[j-1] >= i {
				t.Fatalf("indices not ascending: %v", list)
			}
		}
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	labels := splitFixture()
	trainA, testA, _ := StratifiedSplit(labels, 0.2, 42)
	trainB, testB, _ := StratifiedSplit(labels, 0.2, 42)
	if !reflect.DeepEqual(trainA, trainB) || !reflect.DeepEqual(testA, testB) {
		t.Error("same seed gave different splits")
	}
	_, testC, _ := StratifiedSplit(labels, 0.2, 7)
	if reflect.DeepEqual(testA, testC) {
		t.Log("different seeds gave the same split")
	}
}

func TestStratifiedSplitErrors(t *testing.T) {
	if _, _, err := StratifiedSplit([]int{0, 0, 0, 1}, 0.2, 1); !errors.Is(err, ErrSmallClass) {
		t.Errorf("singleton class: err = %v, want ErrSmallClass", err)
	}
	for _, size := range []float64{0, 1, -0.5} {
		if _, _, err := StratifiedSplit(splitFixture(), size, 1); err == nil {
			t.Errorf("test size %v accepted", size)
		}
	}
}
