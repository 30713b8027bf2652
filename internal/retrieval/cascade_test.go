package retrieval

import (
	"reflect"
	"testing"

	"scirag/internal/metadata"
)

var filterKeys = []string{"title", "authors", "Diseases", "keywords", "Methodology"}

func TestBuildCandidates_EndsWithSentinel(t *testing.T) {
	rec := metadata.Record{
		"title":    "Hepatitis Subtyping",
		"Diseases": []string{"Hepatitis B", "Hepatitis C"},
	}

	cands := BuildCandidates(rec, filterKeys)
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3", len(cands))
	}
	if cands[len(cands)-1].Clause != nil {
		t.Error("last candidate is not the unconstrained sentinel")
	}

	first := cands[0].Clause
	if first == nil || first.Key != "title" || first.Eq != "Hepatitis Subtyping" {
		t.Errorf("first candidate = %+v, want title equality", first)
	}

	second := cands[1].Clause
	if second == nil || second.Key != "Diseases" {
		t.Fatalf("second candidate = %+v, want Diseases membership", second)
	}
	if !reflect.DeepEqual(second.In, []string{"Hepatitis B", "Hepatitis C"}) {
		t.Errorf("membership values = %v", second.In)
	}
}

func TestBuildCandidates_EmptyRecordYieldsOnlySentinel(t *testing.T) {
	cands := BuildCandidates(metadata.Record{}, filterKeys)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Clause != nil {
		t.Error("sole candidate should be the sentinel")
	}
}

func TestBuildCandidates_SkipsEmptyValues(t *testing.T) {
	rec := metadata.Record{
		"title":    "",
		"authors":  []string{},
		"keywords": []string{"wavelets"},
	}

	cands := BuildCandidates(rec, filterKeys)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 (keywords + sentinel)", len(cands))
	}
	if cands[0].Clause == nil || cands[0].Clause.Key != "keywords" {
		t.Errorf("first candidate = %+v", cands[0].Clause)
	}
}

func TestBuildCandidates_IgnoresKeysOutsideFilterList(t *testing.T) {
	rec := metadata.Record{"abstract": "long abstract text"}
	cands := BuildCandidates(rec, filterKeys)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want only the sentinel", len(cands))
	}
}
