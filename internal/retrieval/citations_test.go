package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeAsset(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("asset"), 0o644); err != nil {
		t.Fatalf("writing asset: %v", err)
	}
	return path
}

func TestResolveCitations_FullIdentifier(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeAsset(t, dir, "fig.png")

	id := "936a6f5a-b0d3-4526-9b7b-1c917e730a03"
	images := map[string]Media{id: {ID: id, Path: imgPath}}

	answer := fmt.Sprintf("The pipeline is shown below.\n<<img:%s>>\n", id)
	refs := ResolveCitations(answer, images, nil)

	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1", len(refs))
	}
	if refs[0].Kind != KindImage || refs[0].Path != imgPath {
		t.Errorf("ref = %+v", refs[0])
	}
}

func TestResolveCitations_PrefixMatchesFirstCandidate(t *testing.T) {
	dir := t.TempDir()
	pathA := writeAsset(t, dir, "a.md")
	pathB := writeAsset(t, dir, "b.md")

	// Both share the first 7 chars; the token matches only the first.
	idA := "1234abcd-0000-0000-0000-aaaaaaaaaaaa"
	idB := "1234abce-0000-0000-0000-bbbbbbbbbbbb"
	tables := map[string]Media{
		idB: {ID: idB, Path: pathB},
		idA: {ID: idA, Path: pathA},
	}

	refs := ResolveCitations("<<tbl:1234abcd>>", nil, tables)
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1", len(refs))
	}
	if refs[0].Path != pathA {
		t.Errorf("prefix resolved to %s, want %s", refs[0].Path, pathA)
	}
}

func TestResolveCitations_DuplicateTokensYieldOneRef(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeAsset(t, dir, "fig.png")

	id := "abcd1234-0000-0000-0000-000000000000"
	images := map[string]Media{id: {ID: id, Path: imgPath}}

	answer := fmt.Sprintf("<<img:%s>> and again <<img:abcd1234>>", id)
	refs := ResolveCitations(answer, images, nil)
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1 (deduplicated)", len(refs))
	}
}

func TestResolveCitations_DropsUnknownAndMissingAssets(t *testing.T) {
	dir := t.TempDir()

	id := "deadbeef-0000-0000-0000-000000000000"
	images := map[string]Media{
		id: {ID: id, Path: filepath.Join(dir, "gone.png")}, // never written
	}

	answer := fmt.Sprintf("<<img:%s>> <<img:ffffffff>> <<tbl:cafebabe>>", id)
	refs := ResolveCitations(answer, images, nil)
	if len(refs) != 0 {
		t.Fatalf("got %d refs, want 0", len(refs))
	}
}

func TestResolveCitations_IgnoresMalformedTokens(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeAsset(t, dir, "fig.png")
	images := map[string]Media{"abcd1234-x": {ID: "abcd1234-x", Path: imgPath}}

	// Too short, wrong kind, unclosed.
	answer := "<<img:abc>> <<fig:abcd1234>> <<img:abcd1234"
	if refs := ResolveCitations(answer, images, nil); len(refs) != 0 {
		t.Fatalf("got %d refs, want 0", len(refs))
	}
}
