// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/company-papers/pkg/types"
)

// untitled stands in for a missing or empty ArticleTitle.
const untitled = "No title"

var errMissingPMID = errors.New("record has no PMID")

// emailPattern finds address-shaped tokens inside affiliation text, where
// NCBI appends them as "Electronic address: x@y.org".
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// EFetch PubmedArticleSet XML structures. Only the elements the pipeline
// reads are mapped.
type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID          string     `xml:"PMID"`
	DateCompleted *xmlDate   `xml:"DateCompleted"`
	DateRevised   *xmlDate   `xml:"DateRevised"`
	Article       xmlArticle `xml:"Article"`
}

type xmlArticle struct {
	Title        *markupText  `xml:"ArticleTitle"`
	PubDate      *xmlDate     `xml:"Journal>JournalIssue>PubDate"`
	ArticleDates []xmlArtDate `xml:"ArticleDate"`
	Authors      []xmlAuthor  `xml:"AuthorList>Author"`
}

type xmlArtDate struct {
	DateType string `xml:"DateType,attr"`
	xmlDate
}

type xmlDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	Day         string `xml:"Day"`
	MedlineDate string `xml:"MedlineDate"`
}

type xmlAuthor struct {
	LastName       string            `xml:"LastName"`
	ForeName       string            `xml:"ForeName"`
	Initials       string            `xml:"Initials"`
	CollectiveName markupText        `xml:"CollectiveName"`
	Affiliations   []xmlAffiliations `xml:"AffiliationInfo"`
}

type xmlAffiliations struct {
	Affiliation markupText `xml:"Affiliation"`
}

// markupText is the character data of an element with any inline markup
// (<i>, <sup>, MathML) flattened and runs of whitespace collapsed.
type markupText string

func (m *markupText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*m = markupText(strings.Join(strings.Fields(b.String()), " "))
				return nil
			}
			depth--
		}
	}
}

// parseArticles streams a PubmedArticleSet and converts each PubmedArticle.
// Records that cannot be converted are logged and skipped; only a broken
// document fails the whole call. PubmedBookArticle entries are ignored.
func parseArticles(r io.Reader, logger *zap.Logger) ([]types.Article, error) {
	dec := xml.NewDecoder(r)
	var articles []types.Article
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return articles, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading PubmedArticleSet: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "PubmedArticle" {
			continue
		}

		var rec pubmedArticle
		if err := dec.DecodeElement(&rec, &start); err != nil {
			return nil, fmt.Errorf("decoding PubmedArticle: %w", err)
		}
		a, err := rec.toArticle()
		if err != nil {
			logger.Warn("skipping PubMed record", zap.Error(err))
			continue
		}
		articles = append(articles, a)
	}
}

func (p *pubmedArticle) toArticle() (types.Article, error) {
	c := &p.Citation
	pmid := strings.TrimSpace(c.PMID)
	if pmid == "" {
		return types.Article{}, errMissingPMID
	}

	a := types.Article{
		ID:              pmid,
		Title:           untitled,
		PublicationDate: c.publicationDate(),
	}
	if c.Article.Title != nil && *c.Article.Title != "" {
		a.Title = string(*c.Article.Title)
	}
	for _, xa := range c.Article.Authors {
		if author, ok := xa.toAuthor(); ok {
			a.Authors = append(a.Authors, author)
		}
	}
	return a, nil
}

// publicationDate tries PubDate, the electronic ArticleDate, DateCompleted
// and DateRevised in that order and returns the first usable one.
func (c *medlineCitation) publicationDate() time.Time {
	candidates := []*xmlDate{c.Article.PubDate}
	for i := range c.Article.ArticleDates {
		if c.Article.ArticleDates[i].DateType == "Electronic" {
			candidates = append(candidates, &c.Article.ArticleDates[i].xmlDate)
			break
		}
	}
	candidates = append(candidates, c.DateCompleted, c.DateRevised)

	for _, d := range candidates {
		if d == nil {
			continue
		}
		if t, ok := d.time(); ok {
			return t
		}
	}
	return time.Time{}
}

// time converts the date. Missing month and day default to 1. A month
// given as text that is not a month name ("Spring") also defaults to 1. A
// MedlineDate ("1998 Dec-1999 Jan") contributes only its leading year.
func (d *xmlDate) time() (time.Time, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(d.Year))
	if err != nil {
		year, err = medlineYear(d.MedlineDate)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	month, ok := parseMonth(d.Month)
	if !ok {
		return time.Time{}, false
	}
	day := 1
	if s := strings.TrimSpace(d.Day); s != "" {
		day, err = strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject dates time.Date would normalize, such as 31 February.
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// parseMonth accepts "", "1".."12", and English month names or their
// three-letter abbreviations. Out-of-range numbers and other text, such as
// a season, are rejected so the caller moves on to the next date source.
func parseMonth(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.January, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, false
		}
		return time.Month(n), true
	}
	if len(s) >= 3 {
		if m, ok := monthNames[strings.ToLower(s[:3])]; ok {
			return m, true
		}
	}
	return 0, false
}

func medlineYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0, fmt.Errorf("medline date %q has no year", s)
	}
	return strconv.Atoi(s[:4])
}

func (x *xmlAuthor) toAuthor() (types.Author, bool) {
	name := authorName(x)
	if name == "" {
		return types.Author{}, false
	}
	a := types.Author{Name: name}
	if len(x.Affiliations) > 0 {
		a.Affiliation = strings.TrimSpace(string(x.Affiliations[0].Affiliation))
		a.Email = extractEmail(a.Affiliation)
	}
	return a, true
}

// authorName renders "Last, Fore", falling back to initials for the given
// name and to the collective name for group authors.
func authorName(x *xmlAuthor) string {
	last := strings.TrimSpace(x.LastName)
	if last == "" {
		return strings.TrimSpace(string(x.CollectiveName))
	}
	if fore := strings.TrimSpace(x.ForeName); fore != "" {
		return last + ", " + fore
	}
	if initials := strings.TrimSpace(x.Initials); initials != "" {
		return last + ", " + initials
	}
	return last
}

// extractEmail returns the first address in text that parses as a bare
// RFC 5322 addr-spec.
func extractEmail(text string) string {
	for _, candidate := range emailPattern.FindAllString(text, -1) {
		addr, err := mail.ParseAddress(candidate)
		if err != nil || addr.Address != candidate {
			continue
		}
		return candidate
	}
	return ""
}
