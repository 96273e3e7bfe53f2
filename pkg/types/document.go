// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures exchanged between the
// source adapters, the bulk aggregator, the vector gateway, and the API
// surface.
package types

import "fmt"

// DocumentSource identifies the upstream provider a Document came from.
// Adapters set it at normalization time; it is never inferred later.
type DocumentSource string

const (
	// SourcePubMed marks documents normalized from PubMed articles.
	SourcePubMed DocumentSource = "pubmed"

	// SourceClinicalTrials marks documents normalized from
	// ClinicalTrials.gov study records.
	SourceClinicalTrials DocumentSource = "clinicaltrials"
)

// Intervention is a treatment arm entry on a clinical trial.
type Intervention struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Location is a trial site.
type Location struct {
	Facility string `json:"facility" yaml:"facility"`
	City     string `json:"city" yaml:"city"`
	Country  string `json:"country" yaml:"country"`
}

// Document is the unified record both adapters normalize into. Its
// natural key is (Source, ID); within one bulk aggregation run at most
// one Document per natural key survives deduplication.
type Document struct {
	// ID is the provider-native identifier: a PMID for PubMed, an NCT
	// id for ClinicalTrials.gov. Required for deduplication.
	ID     string         `json:"id" yaml:"id"`
	Title  string         `json:"title" yaml:"title"`
	Source DocumentSource `json:"source" yaml:"source"`

	// URL is derived deterministically from ID and Source; empty when
	// the ID is absent.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PubMed fields.
	Abstract        string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors         []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Journal         string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	PublicationDate string   `json:"publication_date,omitempty" yaml:"publication_date,omitempty"`
	DOI             string   `json:"doi,omitempty" yaml:"doi,omitempty"`

	// ClinicalTrials.gov fields.
	BriefSummary        string         `json:"brief_summary,omitempty" yaml:"brief_summary,omitempty"`
	DetailedDescription string         `json:"detailed_description,omitempty" yaml:"detailed_description,omitempty"`
	OverallStatus       string         `json:"overall_status,omitempty" yaml:"overall_status,omitempty"`
	Phase               string         `json:"phase,omitempty" yaml:"phase,omitempty"`
	Conditions          []string       `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Interventions       []Intervention `json:"interventions,omitempty" yaml:"interventions,omitempty"`
	Sponsor             string         `json:"sponsor,omitempty" yaml:"sponsor,omitempty"`
	Locations           []Location     `json:"locations,omitempty" yaml:"locations,omitempty"`
	StartDate           string         `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	CompletionDate      string         `json:"completion_date,omitempty" yaml:"completion_date,omitempty"`

	// Provenance fields attached only by the bulk aggregator. Absent on
	// direct single-query results.
	SearchQuery string `json:"search_query,omitempty" yaml:"search_query,omitempty"`
	Topic       string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// Key returns the natural key used for deduplication, or "" when the
// document has no provider identifier.
func (d Document) Key() string {
	if d.ID == "" {
		return ""
	}
	return string(d.Source) + ":" + d.ID
}

// DocumentURL derives the canonical provider URL for an identifier.
// Returns "" for an empty id.
func DocumentURL(source DocumentSource, id string) string {
	if id == "" {
		return ""
	}
	switch source {
	case SourcePubMed:
		return fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", id)
	case SourceClinicalTrials:
		return fmt.Sprintf("https://clinicaltrials.gov/study/%s", id)
	}
	return ""
}
