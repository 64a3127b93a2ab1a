package symptom

import (
	"sort"
	"strings"
)

const (
	DefaultSpecialty = "general_physician"
	DefaultUrgency   = "low"
	DefaultAdvice    = "Based on your description, we recommend consulting a General Physician for a comprehensive evaluation. They can provide proper diagnosis and refer you to a specialist if needed."
)

var urgencyRank = map[string]int{"high": 3, "medium": 2, "low": 1}

// Match is one knowledge-base entry hit by the input.
type Match struct {
	SymptomID      string `json:"symptom_id"`
	KeywordMatched string `json:"keyword_matched"`
	Specialty      string `json:"specialty"`
	Urgency        string `json:"urgency"`
	Advice         string `json:"advice"`
}

// Recommendation is the outcome of Analyze. The primary specialty, urgency
// and advice come from the most urgent match.
type Recommendation struct {
	HasMatches       bool          `json:"has_matches"`
	Matches          []Match       `json:"matches"`
	PrimarySpecialty string        `json:"primary_specialty"`
	SpecialtyInfo    SpecialtyInfo `json:"specialty_info"`
	Urgency          string        `json:"urgency"`
	UrgencyInfo      UrgencyInfo   `json:"urgency_info"`
	Advice           string        `json:"general_advice"`
}

// SpecialtyEntry is a knowledge-base specialty with its key.
type SpecialtyEntry struct {
	Key string `json:"key"`
	SpecialtyInfo
}

type Analyzer struct {
	kb *KnowledgeBase
}

func NewAnalyzer(kb *KnowledgeBase) *Analyzer {
	if kb == nil {
		kb = EmptyKnowledgeBase()
	}
	return &Analyzer{kb: kb}
}

// Analyze matches text against every entry. An entry contributes at most
// once, on its first keyword found as a case-insensitive substring. An empty
// keyword is a substring of any text and always matches.
func (a *Analyzer) Analyze(text string) Recommendation {
	input := strings.ToLower(text)
	matches := []Match{}
	for _, e := range a.kb.entries {
		for _, kw := range e.Keywords {
			if !strings.Contains(input, strings.ToLower(kw)) {
				continue
			}
			matches = append(matches, Match{
				SymptomID:      e.ID,
				KeywordMatched: kw,
				Specialty:      e.Specialty,
				Urgency:        e.Urgency,
				Advice:         e.Advice,
			})
			break
		}
	}

	if len(matches) == 0 {
		return a.recommend(false, matches, DefaultSpecialty, DefaultUrgency, DefaultAdvice)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return urgencyRank[matches[i].Urgency] > urgencyRank[matches[j].Urgency]
	})
	p := matches[0]
	return a.recommend(true, matches, p.Specialty, p.Urgency, p.Advice)
}

func (a *Analyzer) recommend(has bool, matches []Match, specialty, urgency, advice string) Recommendation {
	si, _ := a.kb.Specialty(specialty)
	ui, _ := a.kb.Urgency(urgency)
	return Recommendation{
		HasMatches:       has,
		Matches:          matches,
		PrimarySpecialty: specialty,
		SpecialtyInfo:    si,
		Urgency:          urgency,
		UrgencyInfo:      ui,
		Advice:           advice,
	}
}

// Specialties lists the knowledge-base specialties in document order.
func (a *Analyzer) Specialties() []SpecialtyEntry {
	out := make([]SpecialtyEntry, 0, len(a.kb.specialtyOrder))
	for _, key := range a.kb.specialtyOrder {
		out = append(out, SpecialtyEntry{Key: key, SpecialtyInfo: a.kb.specialties[key]})
	}
	return out
}

// SymptomsForSpecialty returns the entries routed to specialty.
func (a *Analyzer) SymptomsForSpecialty(specialty string) []Entry {
	out := []Entry{}
	for _, e := range a.kb.entries {
		if e.Specialty == specialty {
			e.Keywords = append([]string(nil), e.Keywords...)
			out = append(out, e)
		}
	}
	return out
}
