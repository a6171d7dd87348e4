package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwb-index/jwb-index/internal/model"
	"github.com/jwb-index/jwb-index/internal/playlist"
)

// testCrawl wires a Crawler to fixture documents and records fetch order.
type testCrawl struct {
	crawler *Crawler
	dir     string
	fetched []string
}

func newTestCrawl(t *testing.T, docs map[string]string, quality int, root string) *testCrawl {
	t.Helper()
	tc := &testCrawl{dir: t.TempDir()}
	cfg := &model.Config{OutPath: tc.dir, Lang: "E", Quality: quality, Category: root}
	tc.crawler = &Crawler{
		Cfg:     cfg,
		Visited: NewVisitedSet(),
		Out:     playlist.NewWriter(tc.dir, "jwb-E"),
		Deps: &Deps{
			FetchCategory: func(_ context.Context, lang, key string) (string, error) {
				if lang != "E" {
					return "", fmt.Errorf("unexpected language %s", lang)
				}
				tc.fetched = append(tc.fetched, key)
				doc, ok := docs[key]
				if !ok {
					return "", fmt.Errorf("fetch failed: no such category %s", key)
				}
				return doc, nil
			},
			FetchManifest: manifestFetch(masterManifest),
		},
	}
	return tc
}

func (tc *testCrawl) run(t *testing.T) {
	t.Helper()
	if err := tc.crawler.Run(context.Background()); err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	if err := tc.crawler.Out.Close(); err != nil {
		t.Fatalf("close playlists: %v", err)
	}
}

func (tc *testCrawl) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(tc.dir, rel))
	if err != nil {
		t.Fatalf("read playlist %s: %v", rel, err)
	}
	return string(data)
}

func TestCrawlSingleCategory(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"Clip1","files":[` +
			`{"progressiveDownloadURL":"` + u1 + `","label":"240p"},` +
			`{"progressiveDownloadURL":"` + u2 + `","label":"480p"},` +
			`{"progressiveDownloadURL":"` + u3 + `","label":"720p"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	got := tc.read(t, "A.m3u")
	want := "#EXTM3U\n#EXTINF:0, Clip1\n" + u2 + "\n"
	if got != want {
		t.Fatalf("playlist mismatch:\ngot:  %q\nwant: %q", got, want)
	}
	if len(tc.fetched) != 1 || tc.fetched[0] != "A" {
		t.Fatalf("expected exactly one fetch of A, got %v", tc.fetched)
	}
}

func TestCrawlNestedCategoriesDepthFirst(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","subcategories":[` +
			`{"key":"B","name":"Beta"},{"key":"C","name":"Gamma"}],"media":[` +
			`{"title":"ClipA","files":[{"progressiveDownloadURL":"https://cdn.example.org/a_r480P.mp4"}]}]}}`,
		"B": `{"category":{"key":"B","name":"Beta","subcategories":[{"key":"D","name":"Delta"}]}}`,
		"C": `{"category":{"key":"C","name":"Gamma","media":[` +
			`{"title":"ClipC","files":[{"progressiveDownloadURL":"https://cdn.example.org/c_r360P.mp4"}]}]}}`,
		"D": `{"category":{"key":"D","name":"Delta","media":[` +
			`{"title":"ClipD","files":[{"progressiveDownloadURL":"https://cdn.example.org/d_r240P.mp4"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	// A child's whole subtree completes before the parent's next sibling.
	wantOrder := []string{"A", "B", "D", "C"}
	if len(tc.fetched) != len(wantOrder) {
		t.Fatalf("fetch order %v, want %v", tc.fetched, wantOrder)
	}
	for i := range wantOrder {
		if tc.fetched[i] != wantOrder[i] {
			t.Fatalf("fetch order %v, want %v", tc.fetched, wantOrder)
		}
	}

	rootList := tc.read(t, "A.m3u")
	want := "#EXTM3U\n" +
		"#EXTINF:0, Beta\njwb-E/B.m3u\n" +
		"#EXTINF:0, Gamma\njwb-E/C.m3u\n" +
		"#EXTINF:0, ClipA\nhttps://cdn.example.org/a_r480P.mp4\n"
	if rootList != want {
		t.Fatalf("root playlist mismatch:\ngot:  %q\nwant: %q", rootList, want)
	}

	// Descendants land flat in the shared subdirectory, and link to each
	// other as plain sibling file names.
	bList := tc.read(t, filepath.Join("jwb-E", "B.m3u"))
	if bList != "#EXTM3U\n#EXTINF:0, Delta\nD.m3u\n" {
		t.Fatalf("nested playlist mismatch: %q", bList)
	}
	dList := tc.read(t, filepath.Join("jwb-E", "D.m3u"))
	if !strings.Contains(dList, "ClipD") {
		t.Fatalf("expected ClipD in D's playlist, got %q", dList)
	}
}

func TestCrawlDuplicateReferenceDispatchesOnce(t *testing.T) {
	// Scenario C: A references B twice; B is crawled once and linked once,
	// at the position of the first reference.
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","subcategories":[` +
			`{"key":"B","name":"Beta"},{"key":"B","name":"Beta"}],"media":[` +
			`{"title":"ClipA","files":[{"progressiveDownloadURL":"https://cdn.example.org/a_r480P.mp4"}]}]}}`,
		"B": `{"category":{"key":"B","name":"Beta"}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	fetchesOfB := 0
	for _, k := range tc.fetched {
		if k == "B" {
			fetchesOfB++
		}
	}
	if fetchesOfB != 1 {
		t.Fatalf("expected exactly one crawl of B, got %d (%v)", fetchesOfB, tc.fetched)
	}

	rootList := tc.read(t, "A.m3u")
	if strings.Count(rootList, "jwb-E/B.m3u") != 1 {
		t.Fatalf("expected exactly one stub entry for B, got:\n%s", rootList)
	}
	// The single stub sits where the first reference appeared: before ClipA.
	if strings.Index(rootList, "Beta") > strings.Index(rootList, "ClipA") {
		t.Fatalf("stub for B not at first-reference position:\n%s", rootList)
	}
}

func TestCrawlCycleTerminates(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","subcategories":[{"key":"B","name":"Beta"}]}}`,
		"B": `{"category":{"key":"B","name":"Beta","subcategories":[{"key":"A","name":"Alpha"}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	if len(tc.fetched) != 2 {
		t.Fatalf("cycle must dispatch each category once, got %v", tc.fetched)
	}
	bList := tc.read(t, filepath.Join("jwb-E", "B.m3u"))
	if strings.Contains(bList, "Alpha") {
		t.Fatalf("back-reference to A must not produce an entry:\n%s", bList)
	}
}

func TestCrawlItemWithNoVariantsIsDropped(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"NoFiles","files":[]},` +
			`{"title":"Clip1","files":[{"progressiveDownloadURL":"` + u2 + `"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	got := tc.read(t, "A.m3u")
	if strings.Contains(got, "NoFiles") {
		t.Fatalf("item without variants must be dropped:\n%s", got)
	}
	if !strings.Contains(got, "Clip1") {
		t.Fatalf("expected Clip1 entry:\n%s", got)
	}
}

func TestCrawlItemAboveCapIsDropped(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"TooBig","files":[{"progressiveDownloadURL":"` + u3 + `"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	got := tc.read(t, "A.m3u")
	if got != "#EXTM3U\n" {
		t.Fatalf("expected only the header when every variant is above the cap, got %q", got)
	}
}

func TestCrawlDuplicateMediaItemsAreKept(t *testing.T) {
	// Duplicate media items are never deduplicated, matching the observed
	// upstream behavior.
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"Clip1","files":[{"progressiveDownloadURL":"` + u2 + `"}]},` +
			`{"title":"Clip1","files":[{"progressiveDownloadURL":"` + u2 + `"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	got := tc.read(t, "A.m3u")
	if strings.Count(got, "Clip1") != 2 {
		t.Fatalf("expected duplicate items to be kept:\n%s", got)
	}
}

func TestCrawlEmptyCategoryStillGetsArtifact(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha"}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	if got := tc.read(t, "A.m3u"); got != "#EXTM3U\n" {
		t.Fatalf("expected header-only artifact for empty category, got %q", got)
	}
}

func TestCrawlExcludedCategoryIsSkipped(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","subcategories":[` +
			`{"key":"B","name":"Beta"},{"key":"C","name":"Gamma"}]}}`,
		"C": `{"category":{"key":"C","name":"Gamma"}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.crawler.Visited.Add("B")
	tc.run(t)

	for _, k := range tc.fetched {
		if k == "B" {
			t.Fatalf("excluded category was crawled: %v", tc.fetched)
		}
	}
	rootList := tc.read(t, "A.m3u")
	if strings.Contains(rootList, "Beta") {
		t.Fatalf("excluded category must not be linked:\n%s", rootList)
	}
	if !strings.Contains(rootList, "Gamma") {
		t.Fatalf("non-excluded sibling lost:\n%s", rootList)
	}
}

func TestCrawlAdaptiveStreamResolvedThroughManifest(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"Stream1","files":[{"progressiveDownloadURL":"https://cdn.example.org/stream.m3u8"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	tc.run(t)

	got := tc.read(t, "A.m3u")
	want := "#EXTM3U\n#EXTINF:0, Stream1\nhttps://cdn.example.org/mid/index.m3u8\n"
	if got != want {
		t.Fatalf("adaptive entry mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestCrawlNameWithoutKeyIsOrderingError(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"name":"Orphan"}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	err := tc.crawler.Run(context.Background())
	if !errors.Is(err, ErrTokenOrder) {
		t.Fatalf("expected ErrTokenOrder, got %v", err)
	}
}

func TestCrawlURLWithoutTitleIsOrderingError(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","files":[` +
			`{"progressiveDownloadURL":"` + u2 + `"}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	err := tc.crawler.Run(context.Background())
	if !errors.Is(err, ErrTokenOrder) {
		t.Fatalf("expected ErrTokenOrder, got %v", err)
	}
}

func TestCrawlMalformedTierAbortsRun(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","media":[` +
			`{"title":"Clip","files":[{"progressiveDownloadURL":"https://cdn.example.org/clip.mp4"}]}]}}`,
	}
	tc := newTestCrawl(t, docs, 480, "A")
	err := tc.crawler.Run(context.Background())
	if !errors.Is(err, ErrBadTier) {
		t.Fatalf("expected ErrBadTier, got %v", err)
	}
}

func TestCrawlChildFetchErrorPropagatesToRoot(t *testing.T) {
	docs := map[string]string{
		"A": `{"category":{"key":"A","name":"Alpha","subcategories":[{"key":"B","name":"Beta"}]}}`,
		// B's document is missing: the fetch fails.
	}
	tc := newTestCrawl(t, docs, 480, "A")
	err := tc.crawler.Run(context.Background())
	if err == nil {
		t.Fatal("expected child fetch failure to abort the run")
	}
	if !strings.Contains(err.Error(), "B") {
		t.Fatalf("error does not identify the failing category: %v", err)
	}
}
