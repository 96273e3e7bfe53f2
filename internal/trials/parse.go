// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"strings"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// Documented defaults for fields the provider frequently omits.
const (
	defaultTitle    = "No title available"
	defaultSummary  = "No summary available"
	defaultUnknown  = "Unknown"
	defaultSponsor  = "Unknown sponsor"
	defaultFacility = "Unknown facility"
	defaultCity     = "Unknown city"
	defaultCountry  = "Unknown country"
)

// ClinicalTrials.gov v2 JSON structures. A study nests everything under
// protocolSection in named sub-modules; every module and field is
// optional, so the raw schema is modeled as a typed, partially-populated
// structure and normalization substitutes documented defaults.

type studiesResponse struct {
	Studies []study `json:"studies"`
}

type study struct {
	ProtocolSection protocolSection `json:"protocolSection"`
}

type protocolSection struct {
	Identification identificationModule       `json:"identificationModule"`
	Status         statusModule               `json:"statusModule"`
	Description    descriptionModule          `json:"descriptionModule"`
	Conditions     conditionsModule           `json:"conditionsModule"`
	Design         designModule               `json:"designModule"`
	Arms           armsInterventionsModule    `json:"armsInterventionsModule"`
	Sponsors       sponsorCollaboratorsModule `json:"sponsorCollaboratorsModule"`
	Contacts       contactsLocationsModule    `json:"contactsLocationsModule"`
}

type identificationModule struct {
	NCTID      string `json:"nctId"`
	BriefTitle string `json:"briefTitle"`
}

type statusModule struct {
	OverallStatus  string     `json:"overallStatus"`
	StartDate      dateStruct `json:"startDateStruct"`
	CompletionDate dateStruct `json:"completionDateStruct"`
}

type dateStruct struct {
	Date string `json:"date"`
}

type descriptionModule struct {
	BriefSummary        string `json:"briefSummary"`
	DetailedDescription string `json:"detailedDescription"`
}

type conditionsModule struct {
	Conditions []string `json:"conditions"`
}

type designModule struct {
	Phases []string `json:"phases"`
}

type armsInterventionsModule struct {
	Interventions []intervention `json:"interventions"`
}

type intervention struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type sponsorCollaboratorsModule struct {
	LeadSponsor leadSponsor `json:"leadSponsor"`
}

type leadSponsor struct {
	Name string `json:"name"`
}

type contactsLocationsModule struct {
	Locations []location `json:"locations"`
}

type location struct {
	Facility facility `json:"facility"`
}

type facility struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// normalizeStudy maps one raw study record into a Document. Returns
// false when the record carries no NCT id: without the natural key the
// document cannot participate in dedup or URL derivation.
func normalizeStudy(s study) (types.Document, bool) {
	p := s.ProtocolSection

	nctID := strings.TrimSpace(p.Identification.NCTID)
	if nctID == "" {
		return types.Document{}, false
	}

	doc := types.Document{
		ID:                  nctID,
		Source:              types.SourceClinicalTrials,
		URL:                 types.DocumentURL(types.SourceClinicalTrials, nctID),
		Title:               defaultString(p.Identification.BriefTitle, defaultTitle),
		BriefSummary:        defaultString(p.Description.BriefSummary, defaultSummary),
		DetailedDescription: strings.TrimSpace(p.Description.DetailedDescription),
		OverallStatus:       defaultString(p.Status.OverallStatus, defaultUnknown),
		Phase:               firstPhase(p.Design.Phases),
		Conditions:          p.Conditions.Conditions,
		Sponsor:             defaultString(p.Sponsors.LeadSponsor.Name, defaultSponsor),
		StartDate:           defaultString(p.Status.StartDate.Date, defaultUnknown),
		CompletionDate:      defaultString(p.Status.CompletionDate.Date, defaultUnknown),
	}

	for _, iv := range p.Arms.Interventions {
		doc.Interventions = append(doc.Interventions, types.Intervention{
			Type: defaultString(iv.Type, defaultUnknown),
			Name: defaultString(iv.Name, defaultUnknown),
		})
	}

	for _, loc := range p.Contacts.Locations {
		doc.Locations = append(doc.Locations, types.Location{
			Facility: defaultString(loc.Facility.Name, defaultFacility),
			City:     defaultString(loc.Facility.City, defaultCity),
			Country:  defaultString(loc.Facility.Country, defaultCountry),
		})
	}

	return doc, true
}

func firstPhase(phases []string) string {
	if len(phases) == 0 {
		return defaultUnknown
	}
	return defaultString(phases[0], defaultUnknown)
}

func defaultString(s, fallback string) string {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return fallback
}
