// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"strings"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// Documented defaults for fields the provider frequently omits.
const (
	defaultTitle    = "No title available"
	defaultAbstract = "No abstract available"
	defaultJournal  = "Unknown journal"
	defaultDate     = "Unknown date"
)

// E-utilities XML structures. The provider schema is sparse; every field
// is optional and normalization substitutes documented defaults.

type esearchResult struct {
	IDs []string `xml:"IdList>Id"`
}

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
	Data     pubmedData      `xml:"PubmedData"`
}

type medlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article articleRecord `xml:"Article"`
}

type articleRecord struct {
	Title    string         `xml:"ArticleTitle"`
	Abstract abstractRecord `xml:"Abstract"`
	Authors  []authorRecord `xml:"AuthorList>Author"`
	Journal  journalRecord  `xml:"Journal"`
}

type abstractRecord struct {
	// Structured abstracts carry several AbstractText sections.
	Sections []string `xml:"AbstractText"`
}

type authorRecord struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
}

type journalRecord struct {
	Title string       `xml:"Title"`
	Issue journalIssue `xml:"JournalIssue"`
}

type journalIssue struct {
	PubDate pubDate `xml:"PubDate"`
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
	Day   string `xml:"Day"`
}

type pubmedData struct {
	ArticleIDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// normalizeArticle maps one raw efetch record into a Document. Returns
// false when the record carries no PMID: without the natural key the
// document cannot participate in dedup or URL derivation.
func normalizeArticle(a pubmedArticle) (types.Document, bool) {
	pmid := strings.TrimSpace(a.Citation.PMID)
	if pmid == "" {
		return types.Document{}, false
	}

	doc := types.Document{
		ID:              pmid,
		Source:          types.SourcePubMed,
		URL:             types.DocumentURL(types.SourcePubMed, pmid),
		Title:           defaultString(a.Citation.Article.Title, defaultTitle),
		Abstract:        abstractText(a.Citation.Article.Abstract),
		Journal:         defaultString(a.Citation.Article.Journal.Title, defaultJournal),
		PublicationDate: publicationDate(a.Citation.Article.Journal.Issue.PubDate),
	}

	for _, author := range a.Citation.Article.Authors {
		last := strings.TrimSpace(author.LastName)
		fore := strings.TrimSpace(author.ForeName)
		if last != "" && fore != "" {
			doc.Authors = append(doc.Authors, fore+" "+last)
		}
	}

	for _, id := range a.Data.ArticleIDs {
		if id.IDType == "doi" {
			doc.DOI = strings.TrimSpace(id.Value)
			break
		}
	}

	return doc, true
}

func abstractText(a abstractRecord) string {
	var parts []string
	for _, section := range a.Sections {
		if s := strings.TrimSpace(section); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return defaultAbstract
	}
	return strings.Join(parts, " ")
}

// publicationDate joins the available PubDate components as
// "year-month-day", dropping absent trailing parts.
func publicationDate(d pubDate) string {
	var parts []string
	for _, p := range []string{d.Year, d.Month, d.Day} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return defaultDate
	}
	return strings.Join(parts, "-")
}

func defaultString(s, fallback string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return fallback
}
