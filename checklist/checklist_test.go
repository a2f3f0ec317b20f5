package checklist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const bigTSV = "大分類\t暴力を振るった\tお金や物を取った\t車を運転していた\n" +
	"身体に対する罪\t◯\t\t\n" +
	"財産に対する罪\t\t○\t\n" +
	"交通に対する罪\t\t\t◯\n" +
	"\t\t\t\n"

const detailHTML = `<html><body>
<table>
<tr><th>罪名</th><th>怪我をさせた</th><th>凶器を使った</th></tr>
<tr><td>傷害罪</td><td>◯</td><td></td></tr>
<tr><td>暴行罪</td><td></td><td></td></tr>
</table>
</body></html>`

const sentencingTSV = "項目\t前科\t示談\t被害額\n窃盗\t\t\t\n"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	crimeDir := filepath.Join(root, "罪名予測テーブル")
	writeFile(t, crimeDir, "罪名予測テーブル - 大分類.tsv", bigTSV)
	writeFile(t, crimeDir, "罪名予測テーブル - 身体に対する罪.html", detailHTML)
	writeFile(t, crimeDir, "notes.txt", "ignored")
	writeFile(t, filepath.Join(root, "量刑予測ヒアリングシート"), "量刑予測_ヒアリングシート - 窃盗.tsv", sentencingTSV)
	return root
}

func TestParseTSVNormalizesMarks(t *testing.T) {
	rows, err := ParseTSV(strings.NewReader(bigTSV))
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected blank row dropped, got %d rows", len(rows))
	}
	if rows[2][2] != Mark {
		t.Errorf("○ not normalized: %q", rows[2][2])
	}
}

func TestParseHTML(t *testing.T) {
	rows, err := ParseHTML(strings.NewReader(detailHTML))
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	want := [][]string{
		{"罪名", "怪我をさせた", "凶器を使った"},
		{"傷害罪", "◯", ""},
		{"暴行罪", "", ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("ParseHTML mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseHTML(strings.NewReader("<p>no table</p>")); err == nil {
		t.Error("expected error when no table is present")
	}
}

func TestDirSourceLoadsAllKinds(t *testing.T) {
	src := NewDirSource(fixtureDir(t))
	cat, err := src.Catalogue(context.Background())
	if err != nil {
		t.Fatalf("Catalogue: %v", err)
	}
	if cat.Empty() {
		t.Fatal("catalogue should not be empty")
	}

	wantCats := []Category{
		{Name: "身体に対する罪", Features: []string{"暴力を振るった"}},
		{Name: "財産に対する罪", Features: []string{"お金や物を取った"}},
		{Name: "交通に対する罪", Features: []string{"車を運転していた"}},
	}
	if diff := cmp.Diff(wantCats, cat.Categories()); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}

	if got := cat.DetailSummary(); got != "- 身体に対する罪: 怪我をさせた, 凶器を使った" {
		t.Errorf("DetailSummary = %q", got)
	}
	if got := cat.SentencingSummary(); got != "- 窃盗: 前科, 示談, 被害額" {
		t.Errorf("SentencingSummary = %q", got)
	}
	if !strings.Contains(cat.BigCategorySummary(), "- 財産に対する罪: お金や物を取った") {
		t.Errorf("BigCategorySummary = %q", cat.BigCategorySummary())
	}

	sheet, ok := cat.DetailSheet(" 身体に対する罪 ")
	if !ok {
		t.Fatal("detail sheet not found")
	}
	if !strings.HasPrefix(sheet.Text(), "罪名,怪我をさせた,凶器を使った\n傷害罪,◯,") {
		t.Errorf("Sheet.Text = %q", sheet.Text())
	}
	if diff := cmp.Diff([]string{"身体に対する罪"}, cat.SheetNames()); diff != "" {
		t.Errorf("SheetNames mismatch:\n%s", diff)
	}
}

func TestDirSourceMissingDirIsEmpty(t *testing.T) {
	cat, err := NewDirSource(filepath.Join(t.TempDir(), "nope")).Catalogue(context.Background())
	if err != nil {
		t.Fatalf("Catalogue: %v", err)
	}
	if !cat.Empty() {
		t.Fatal("expected empty catalogue")
	}
}

func TestEmptyCatalogueSummaries(t *testing.T) {
	var cat *Catalogue
	if cat.BigCategorySummary() != "" || cat.DetailSummary() != "" || cat.SentencingSummary() != "" {
		t.Fatal("nil catalogue should render nothing")
	}
	if _, ok := cat.DetailSheet("x"); ok {
		t.Fatal("nil catalogue has no sheets")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		file string
		name string
		kind Kind
		ok   bool
	}{
		{"罪名予測テーブル - 大分類.tsv", "大分類", KindBigCategory, true},
		{"罪名予測テーブル - 薬物犯罪.html", "薬物犯罪", KindCrimeDetail, true},
		{"量刑予測_ヒアリングシート - 傷害.tsv", "傷害", KindSentencing, true},
		{"量刑予測_ヒアリングシート - 傷害.csv", "", "", false},
		{"readme.tsv", "", "", false},
	}
	for _, tt := range tests {
		name, kind, ok := classify(tt.file)
		if name != tt.name || kind != tt.kind || ok != tt.ok {
			t.Errorf("classify(%q) = %q, %q, %v", tt.file, name, kind, ok)
		}
	}
}

type countingProvider struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (p *countingProvider) Catalogue(ctx context.Context) (*Catalogue, error) {
	p.calls.Add(1)
	time.Sleep(p.delay)
	if p.err != nil {
		return nil, p.err
	}
	return &Catalogue{Big: &Sheet{Name: "大分類", Kind: KindBigCategory}}, nil
}

func TestCacheCollapsesConcurrentLoads(t *testing.T) {
	src := &countingProvider{delay: 20 * time.Millisecond}
	cache := NewCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Catalogue(context.Background()); err != nil {
				t.Errorf("Catalogue: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source called %d times, want 1", got)
	}

	cache.Invalidate()
	if _, err := cache.Catalogue(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("source called %d times after invalidate, want 2", got)
	}
}

func TestCacheDoesNotKeepErrors(t *testing.T) {
	src := &countingProvider{err: errors.New("disk gone")}
	cache := NewCache(src)
	if _, err := cache.Catalogue(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	src.err = nil
	if _, err := cache.Catalogue(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
}

func TestWatcherInvalidatesOnChange(t *testing.T) {
	root := fixtureDir(t)
	cache := NewCache(NewDirSource(root))
	before, err := cache.Catalogue(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(root, cache, 20*time.Millisecond, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(root, "罪名予測テーブル"), "罪名予測テーブル - 財産に対する罪.tsv", "罪名\tお金を取った\n窃盗罪\t◯\n")

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not invalidate the cache")
	}

	after, err := cache.Catalogue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after == before {
		t.Fatal("expected a freshly loaded catalogue")
	}
	if _, ok := after.DetailSheet("財産に対する罪"); !ok {
		t.Fatal("new sheet missing after reload")
	}
}
