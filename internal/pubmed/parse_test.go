// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"testing"

	"github.com/pdiddy/insights-engine/pkg/types"
)

func decodeArticle(t *testing.T, raw string) pubmedArticle {
	t.Helper()
	var a pubmedArticle
	if err := xml.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("unmarshal test article: %v", err)
	}
	return a
}

func TestNormalizeArticleFullRecord(t *testing.T) {
	raw := `<PubmedArticle>
	  <MedlineCitation>
	    <PMID>12345678</PMID>
	    <Article>
	      <ArticleTitle>Aspirin in secondary prevention</ArticleTitle>
	      <Abstract>
	        <AbstractText>Background text.</AbstractText>
	        <AbstractText>Methods text.</AbstractText>
	      </Abstract>
	      <AuthorList>
	        <Author><LastName>Smith</LastName><ForeName>Jane</ForeName></Author>
	        <Author><LastName>Doe</LastName><ForeName>John</ForeName></Author>
	        <Author><LastName>CollectiveOnly</LastName></Author>
	      </AuthorList>
	      <Journal>
	        <Title>The Lancet</Title>
	        <JournalIssue><PubDate><Year>2023</Year><Month>Jun</Month><Day>15</Day></PubDate></JournalIssue>
	      </Journal>
	    </Article>
	  </MedlineCitation>
	  <PubmedData>
	    <ArticleIdList>
	      <ArticleId IdType="pubmed">12345678</ArticleId>
	      <ArticleId IdType="doi">10.1000/xyz123</ArticleId>
	    </ArticleIdList>
	  </PubmedData>
	</PubmedArticle>`

	doc, ok := normalizeArticle(decodeArticle(t, raw))
	if !ok {
		t.Fatal("normalizeArticle returned ok=false for well-formed record")
	}
	if doc.ID != "12345678" {
		t.Errorf("ID = %q, want 12345678", doc.ID)
	}
	if doc.Source != types.SourcePubMed {
		t.Errorf("Source = %q, want pubmed", doc.Source)
	}
	if doc.URL != "https://pubmed.ncbi.nlm.nih.gov/12345678/" {
		t.Errorf("URL = %q", doc.URL)
	}
	if doc.Title != "Aspirin in secondary prevention" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Abstract != "Background text. Methods text." {
		t.Errorf("Abstract = %q, want joined sections", doc.Abstract)
	}
	// Author without a forename is dropped.
	if len(doc.Authors) != 2 || doc.Authors[0] != "Jane Smith" || doc.Authors[1] != "John Doe" {
		t.Errorf("Authors = %v, want [Jane Smith, John Doe]", doc.Authors)
	}
	if doc.Journal != "The Lancet" {
		t.Errorf("Journal = %q", doc.Journal)
	}
	if doc.PublicationDate != "2023-Jun-15" {
		t.Errorf("PublicationDate = %q, want 2023-Jun-15", doc.PublicationDate)
	}
	if doc.DOI != "10.1000/xyz123" {
		t.Errorf("DOI = %q", doc.DOI)
	}
	if doc.SearchQuery != "" || doc.Topic != "" {
		t.Error("provenance fields must be absent on direct results")
	}
}

func TestNormalizeArticleSparseRecordUsesDefaults(t *testing.T) {
	raw := `<PubmedArticle>
	  <MedlineCitation><PMID>999</PMID><Article></Article></MedlineCitation>
	</PubmedArticle>`

	doc, ok := normalizeArticle(decodeArticle(t, raw))
	if !ok {
		t.Fatal("sparse record with a PMID must still normalize")
	}
	if doc.Title != defaultTitle {
		t.Errorf("Title = %q, want %q", doc.Title, defaultTitle)
	}
	if doc.Abstract != defaultAbstract {
		t.Errorf("Abstract = %q, want %q", doc.Abstract, defaultAbstract)
	}
	if doc.Journal != defaultJournal {
		t.Errorf("Journal = %q, want %q", doc.Journal, defaultJournal)
	}
	if doc.PublicationDate != defaultDate {
		t.Errorf("PublicationDate = %q, want %q", doc.PublicationDate, defaultDate)
	}
	if len(doc.Authors) != 0 {
		t.Errorf("Authors = %v, want empty", doc.Authors)
	}
	if doc.DOI != "" {
		t.Errorf("DOI = %q, want empty", doc.DOI)
	}
}

func TestNormalizeArticleMissingPMID(t *testing.T) {
	raw := `<PubmedArticle>
	  <MedlineCitation><Article><ArticleTitle>Orphan</ArticleTitle></Article></MedlineCitation>
	</PubmedArticle>`

	if _, ok := normalizeArticle(decodeArticle(t, raw)); ok {
		t.Error("record without PMID must be rejected")
	}
}

func TestPublicationDate(t *testing.T) {
	tests := []struct {
		name string
		date pubDate
		want string
	}{
		{"full", pubDate{Year: "2021", Month: "Mar", Day: "2"}, "2021-Mar-2"},
		{"year and month", pubDate{Year: "2021", Month: "Mar"}, "2021-Mar"},
		{"year only", pubDate{Year: "2021"}, "2021"},
		{"empty", pubDate{}, defaultDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicationDate(tt.date); got != tt.want {
				t.Errorf("publicationDate() = %q, want %q", got, tt.want)
			}
		})
	}
}
