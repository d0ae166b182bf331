// Package vocab holds the shared vocabulary tables consumed by the query
// extractor, the retrieval router and the timeseries reconciler. Keeping
// them in one place prevents the three from silently drifting apart on
// which diseases, medicines and indicators they recognize.
package vocab

import "strings"

// KnownDiseases in extractor scan order; first match wins.
var KnownDiseases = []string{
	"covid", "dengue", "malaria", "diabetes", "hypertension", "flu", "influenza",
}

// KnownMedicines in extractor scan order.
var KnownMedicines = []string{
	"ibuprofen", "paracetamol", "aspirin", "acetaminophen", "amoxicillin",
}

// InfoType is the structured classification of what a question asks for.
type InfoType string

const (
	InfoSideEffects   InfoType = "side_effects"
	InfoCases         InfoType = "cases"
	InfoDeaths        InfoType = "deaths"
	InfoRecovered     InfoType = "recovered"
	InfoTreatment     InfoType = "treatment"
	InfoSymptoms      InfoType = "symptoms"
	InfoNutrition     InfoType = "nutrition"
	InfoHealthyHabits InfoType = "healthy_habits"
	InfoGeneral       InfoType = "general"
)

// InfoTypeRule binds an info type to its trigger terms.
type InfoTypeRule struct {
	Type  InfoType
	Terms []string
}

// InfoTypeRules is an ordered if/elif chain; evaluation order is significant.
var InfoTypeRules = []InfoTypeRule{
	{InfoSideEffects, []string{"side effect", "adverse", "reaction"}},
	{InfoCases, []string{"cases", "infected", "infection"}},
	{InfoDeaths, []string{"death", "deaths"}},
	{InfoRecovered, []string{"recovered"}},
	{InfoTreatment, []string{"treatment", "dose", "dosage"}},
	{InfoSymptoms, []string{"symptoms"}},
	{InfoNutrition, []string{"nutrition", "diet", "food", "vitamin"}},
	{InfoHealthyHabits, []string{"habit", "exercise", "healthy"}},
}

// ClassifyInfoType returns the first info type whose trigger occurs in the
// lowercased question, or InfoGeneral.
func ClassifyInfoType(question string) InfoType {
	ql := strings.ToLower(question)
	for _, rule := range InfoTypeRules {
		for _, term := range rule.Terms {
			if strings.Contains(ql, term) {
				return rule.Type
			}
		}
	}
	return InfoGeneral
}

// ---------------- World Bank indicators & triggers ----------------

// Indicator describes one World Bank health indicator.
type Indicator struct {
	Code  string
	Title string
}

// Indicators maps topic key to indicator metadata.
var Indicators = map[string]Indicator{
	"tb_incidence":       {"SH.TBS.INCD", "TB incidence (per 100,000)"},
	"malaria_incidence":  {"SH.MLR.INCD.P3", "Malaria incidence (per 1,000 at risk)"},
	"hiv_prevalence":     {"SH.DYN.AIDS.ZS", "HIV prevalence (% ages 15–49)"},
	"measles_immun":      {"SH.IMM.MEAS", "Measles immunization (MCV1, %)"},
	"hepb_immun":         {"SH.IMM.HEPB", "Hepatitis B immunization (HepB3, %)"},
	"maternal_mortality": {"SH.STA.MMRT", "Maternal mortality (per 100,000)"},
	"under5_mortality":   {"SH.DYN.MORT", "Under-5 mortality (per 1,000)"},
}

// TopicTrigger binds a topic key to the words that select it. Evaluated in
// slice order so two topics sharing a word resolve deterministically.
type TopicTrigger struct {
	Key   string
	Terms []string
}

var TopicTriggers = []TopicTrigger{
	{"tb_incidence", []string{"tb incidence", "tuberculosis incidence", "tb"}},
	{"malaria_incidence", []string{"malaria incidence", "malaria"}},
	{"hiv_prevalence", []string{"hiv prevalence", "hiv"}},
	{"measles_immun", []string{"measles immunization", "measles vaccine", "measles"}},
	{"hepb_immun", []string{"hepatitis b immunization", "hepb immunization", "hepatitis b vaccine", "hepb"}},
	{"maternal_mortality", []string{"maternal mortality", "maternal death"}},
	{"under5_mortality", []string{"under 5 mortality", "under-5 mortality", "under-five mortality", "under five mortality", "child mortality"}},
}

// DetectTopic returns the first topic triggered by the text, or "".
func DetectTopic(text string) string {
	s := strings.ToLower(text)
	for _, t := range TopicTriggers {
		for _, w := range t.Terms {
			if strings.Contains(s, w) {
				return t.Key
			}
		}
	}
	return ""
}

// ---------------- Country mappings ----------------

var nameToISO3 = map[string]string{
	// World/Global
	"world": "WLD", "global": "WLD",

	// South Asia + neighbors
	"sri lanka": "LKA", "india": "IND", "bangladesh": "BGD",
	"pakistan": "PAK", "nepal": "NPL",

	// East/Southeast Asia
	"china": "CHN", "japan": "JPN", "indonesia": "IDN",

	// Americas
	"united states": "USA", "us": "USA", "u.s.": "USA", "usa": "USA",
	"canada": "CAN",

	// Europe
	"united kingdom": "GBR", "uk": "GBR",
	"france": "FRA", "germany": "DEU", "spain": "ESP", "italy": "ITA",

	// Oceania
	"australia": "AUS",
}

var nameToISO2 = map[string]string{
	"sri lanka": "LK", "india": "IN",
	"united states": "US", "u.s.": "US", "us": "US", "usa": "US",
	"united kingdom": "GB", "uk": "GB",
	"bangladesh": "BD", "pakistan": "PK", "nepal": "NP",
	"china": "CN", "japan": "JP", "australia": "AU", "canada": "CA",
	"france": "FR", "germany": "DE", "spain": "ES", "italy": "IT",
	"indonesia": "ID",
}

// ToISO3 maps a name or ISO code to ISO3, defaulting to WLD (World).
// ISO2/ISO3 codes pass through uppercased.
func ToISO3(text string) string {
	if text == "" {
		return "WLD"
	}
	s := strings.ToLower(strings.TrimSpace(text))
	if (len(s) == 2 || len(s) == 3) && isAlpha(s) {
		return strings.ToUpper(s)
	}
	if iso, ok := nameToISO3[s]; ok {
		return iso
	}
	return "WLD"
}

// ToISO2OrOriginal maps a country name to ISO2 when known, otherwise
// returns the input untouched (disease.sh accepts plain names too).
func ToISO2OrOriginal(name string) string {
	if name == "" {
		return name
	}
	s := strings.ToLower(strings.TrimSpace(name))
	if iso, ok := nameToISO2[s]; ok {
		return iso
	}
	return name
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// ---------------- Suggestion vocabulary ----------------

var SuggestDiseases = []string{
	"covid-19", "dengue", "malaria", "tuberculosis", "influenza", "hiv", "measles",
}

var SuggestCountries = []string{
	"Sri Lanka", "India", "World", "United States", "Pakistan",
	"Bangladesh", "Nepal", "China", "Japan", "Australia", "Canada",
	"United Kingdom", "France", "Germany", "Spain", "Italy", "Indonesia",
}

// DefaultSuggestions returned when the user hasn't typed anything yet.
var DefaultSuggestions = []string{
	"covid-19 in Sri Lanka", "covid-19 in India", "covid-19 in World",
	"dengue in Sri Lanka", "dengue in India", "malaria in World",
}

// CountryNames lists the display names the gazetteer entity recognizer
// matches against free text.
func CountryNames() []string {
	return SuggestCountries
}
