// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-papers/internal/affiliation"
	"github.com/pdiddy/company-papers/internal/assemble"
	"github.com/pdiddy/company-papers/internal/pubmed"
	"github.com/pdiddy/company-papers/internal/store"
	"github.com/pdiddy/company-papers/pkg/types"
)

// fakePubMed serves ESearch and EFetch from a fixed set of records.
func fakePubMed(t *testing.T, records map[string]string, order []string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/esearch.fcgi"):
			var b strings.Builder
			b.WriteString("<eSearchResult><IdList>")
			for _, id := range order {
				fmt.Fprintf(&b, "<Id>%s</Id>", id)
			}
			b.WriteString("</IdList></eSearchResult>")
			fmt.Fprint(w, b.String())
		case strings.HasSuffix(r.URL.Path, "/efetch.fcgi"):
			var b strings.Builder
			b.WriteString("<PubmedArticleSet>")
			for _, id := range strings.Split(r.URL.Query().Get("id"), ",") {
				b.WriteString(records[id])
			}
			b.WriteString("</PubmedArticleSet>")
			fmt.Fprint(w, b.String())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func record(pmid string, affiliations ...string) string {
	var authors strings.Builder
	for i, aff := range affiliations {
		fmt.Fprintf(&authors, `<Author><LastName>Author%d</LastName><ForeName>A</ForeName>
<AffiliationInfo><Affiliation>%s</Affiliation></AffiliationInfo></Author>`, i, aff)
	}
	return fmt.Sprintf(`<PubmedArticle><MedlineCitation><PMID>%s</PMID><Article>
<Journal><JournalIssue><PubDate><Year>2025</Year><Month>Jan</Month><Day>5</Day></PubDate></JournalIssue></Journal>
<ArticleTitle>Title %s</ArticleTitle><AuthorList>%s</AuthorList></Article></MedlineCitation></PubmedArticle>`,
		pmid, pmid, authors.String())
}

func testRecords() (map[string]string, []string) {
	records := map[string]string{
		"1": record("1", "Stanford University, Stanford, CA",
			"Corresponding author. Moderna Inc., Cambridge, MA. Electronic address: jdoe@modernatx.com."),
		"2": record("2", "Harvard University, Boston, MA"),
		"3": record("3", "Acme Therapeutics LLC, San Diego, CA"),
	}
	return records, []string{"1", "2", "3"}
}

func newRunner(t *testing.T, ts *httptest.Server, rec Recorder) *Runner {
	t.Helper()
	client := pubmed.NewClient(types.PubMedConfig{BaseURL: ts.URL, RequestsPerSecond: 1000}, ts.Client(), nil)
	r := New(client, assemble.New(affiliation.Default(), 2, nil), rec, nil)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	n := 0
	r.newID = func() string { n++; return fmt.Sprintf("run-%d", n) }
	return r
}

// --- Run ---

func TestRun_EndToEnd(t *testing.T) {
	records, order := testRecords()
	ts := fakePubMed(t, records, order)

	res, err := newRunner(t, ts, nil).Run(context.Background(), Request{Query: "mrna vaccine", MaxResults: 10})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.Run.ID)
	assert.Equal(t, "mrna vaccine", res.Run.Query)
	assert.Equal(t, 3, res.Run.Searched)
	assert.Equal(t, 3, res.Run.Fetched)
	assert.Equal(t, 2, res.Run.Retained)

	require.Len(t, res.Articles, 2)
	first := res.Articles[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, []string{"Author1, A"}, first.CompanyAuthors)
	assert.Equal(t, []string{"Moderna Inc."}, first.CompanyNames)
	assert.Equal(t, "jdoe@modernatx.com", first.CorrespondingEmail)
	assert.Equal(t, "2025-01-05", first.DateString())

	assert.Equal(t, "3", res.Articles[1].ID)
	assert.Empty(t, res.Articles[1].CompanyNames)
}

func TestRun_RecordsAndSkipsSeen(t *testing.T) {
	records, order := testRecords()
	ts := fakePubMed(t, records, order)

	st, err := store.Open(types.StoreConfig{Driver: types.StoreSQLite, DSN: filepath.Join(t.TempDir(), "p.db")})
	require.NoError(t, err)
	defer st.Close()

	runner := newRunner(t, ts, st)
	ctx := context.Background()

	first, err := runner.Run(ctx, Request{Query: "q"})
	require.NoError(t, err)
	require.Len(t, first.Articles, 2)

	second, err := runner.Run(ctx, Request{Query: "q", SkipSeen: true})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 1, second.Run.Fetched)
	assert.Empty(t, second.Articles)

	runs, err := st.Runs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRun_SkipSeenNeedsStore(t *testing.T) {
	records, order := testRecords()
	ts := fakePubMed(t, records, order)

	_, err := newRunner(t, ts, nil).Run(context.Background(), Request{Query: "q", SkipSeen: true})
	require.ErrorIs(t, err, ErrNoStore)
}

func TestRun_NoHits(t *testing.T) {
	ts := fakePubMed(t, nil, nil)

	res, err := newRunner(t, ts, nil).Run(context.Background(), Request{Query: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.Equal(t, 0, res.Run.Searched)
}

type failingSource struct{}

func (failingSource) Search(context.Context, string, int) ([]string, error) {
	return nil, &pubmed.APIError{Op: "esearch", StatusCode: 500, Err: errors.New("down")}
}

func (failingSource) Fetch(context.Context, []string) ([]types.Article, error) {
	return nil, nil
}

func TestRun_SourceErrorIsWrapped(t *testing.T) {
	r := New(failingSource{}, assemble.New(affiliation.Default(), 1, nil), nil, nil)
	_, err := r.Run(context.Background(), Request{Query: "q"})

	var apiErr *pubmed.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "searching")
}
