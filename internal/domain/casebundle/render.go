package casebundle

import (
	"fmt"
	"strings"

	"github.com/pharmassist/synthdata/internal/domain/intake"
	"github.com/pharmassist/synthdata/internal/domain/patient"
)

// Lang selects the language of a rendered note.
type Lang string

const (
	LangFR Lang = "fr"
	LangEN Lang = "en"
)

var frPresenting = map[string]string{
	"Sneezing and itchy eyes for one week": "Eternuements et yeux qui grattent depuis 1 semaine",
	"Dry skin and mild itching":            "Peau seche et demangeaisons legeres",
	"Occasional bloating after meals":      "Ballonnements occasionnels apres les repas",
	"Dyspnea and chest pain":               "Essoufflement et douleur thoracique",
	"Unspecified symptom":                  "Symptome non specifie",
}

type labels struct {
	header, age, sex, motive, symptoms, days, context, conditions, meds string
}

var langLabels = map[Lang]labels{
	LangFR: {"NOTE PATIENT (OCR)", "Age: %d ans", "Sexe: %s", "Motif: %s", "Symptomes:", "j", "Contexte:", "Antecedents: ", "Traitements: "},
	LangEN: {"PATIENT NOTE (OCR)", "Age: %d years", "Sex: %s", "Chief complaint: %s", "Symptoms:", "d", "Context:", "Conditions: ", "Current meds: "},
}

// Render writes the clean, identifier-free intake note for a bundle.
func Render(b Bundle, lang Lang) string {
	l, ok := langLabels[lang]
	if !ok {
		l = langLabels[LangEN]
	}

	presenting := strings.TrimSpace(b.IntakeExtracted.PresentingProblem)
	if lang == LangFR {
		if fr, ok := frPresenting[presenting]; ok {
			presenting = fr
		}
	}

	lines := []string{
		l.header,
		fmt.Sprintf(l.age, b.LLMContext.Demographics.AgeYears),
		fmt.Sprintf(l.sex, b.LLMContext.Demographics.Sex),
	}
	if presenting != "" {
		lines = append(lines, fmt.Sprintf(l.motive, presenting))
	}
	lines = append(lines, l.symptoms)
	for _, s := range b.IntakeExtracted.Symptoms {
		if line, ok := symptomLine(s, l.days); ok {
			lines = append(lines, line)
		}
	}

	ctx := b.LLMContext
	lines = append(lines, l.context)
	if len(ctx.Allergies) > 0 {
		lines = append(lines, "Allergies: "+join(ctx.Allergies, allergyLabel))
	}
	if len(ctx.Conditions) > 0 {
		lines = append(lines, l.conditions+join(ctx.Conditions, func(c patient.Condition) string { return orUnknown(c.Label) }))
	}
	if len(ctx.CurrentMedications) > 0 {
		lines = append(lines, l.meds+join(ctx.CurrentMedications, medicationLabel))
	}

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func symptomLine(s intake.Symptom, dayUnit string) (string, bool) {
	label := strings.TrimSpace(s.Label)
	if label == "" {
		return "", false
	}
	sev := string(s.Severity)
	if sev == "" {
		sev = "unknown"
	}
	dur := "?"
	if s.DurationDays != nil {
		dur = fmt.Sprintf("%d%s", *s.DurationDays, dayUnit)
	}
	return fmt.Sprintf("- %s (%s, %s)", label, sev, dur), true
}

func join[T any](xs []T, f func(T) string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = f(x)
	}
	return strings.Join(parts, ", ")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}

func allergyLabel(a patient.Allergy) string {
	substance := strings.TrimSpace(a.Substance)
	reaction := strings.TrimSpace(a.Reaction)
	switch {
	case substance != "" && reaction != "":
		return substance + " (" + reaction + ")"
	case substance != "":
		return substance
	}
	return "unknown"
}

func medicationLabel(m patient.Medication) string {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return "unknown"
	}
	if m.IsPrescription {
		return name + " (Rx)"
	}
	return name + " (OTC)"
}
