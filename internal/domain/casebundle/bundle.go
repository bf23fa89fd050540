// Package casebundle builds a single deterministic case: patient context,
// structured intake, a small product list and OCR-like intake notes in
// French and English.
package casebundle

import (
	"fmt"

	"github.com/pharmassist/synthdata/internal/domain/catalog"
	"github.com/pharmassist/synthdata/internal/domain/intake"
	"github.com/pharmassist/synthdata/internal/domain/patient"
)

const SchemaVersion = "0.0.0"

// Bundle is one generated case.
type Bundle struct {
	SchemaVersion   string           `json:"schema_version"`
	Seed            int64            `json:"seed"`
	CaseRef         string           `json:"case_ref"`
	LLMContext      patient.Context  `json:"llm_context"`
	IntakeExtracted intake.Extracted `json:"intake_extracted"`
	Products        []catalog.Item   `json:"products"`
	IntakeTextOCR   OCRText          `json:"intake_text_ocr"`
}

// OCRText holds the noisy intake note per language.
type OCRText struct {
	FR string `json:"fr"`
	EN string `json:"en"`
}

var specialRefs = map[int64]string{
	patient.SeedRedFlagFixture: "case_redflag_000101",
	patient.SeedLowInfoFixture: "case_lowinfo_000102",
}

// CaseRef names the case generated from seed.
func CaseRef(seed int64) string {
	if ref, ok := specialRefs[seed]; ok {
		return ref
	}
	return fmt.Sprintf("case_%06d", seed)
}

// Generate builds the case for seed.
func Generate(seed int64) Bundle {
	b := Bundle{
		SchemaVersion:   SchemaVersion,
		Seed:            seed,
		CaseRef:         CaseRef(seed),
		LLMContext:      patient.Generate(seed),
		IntakeExtracted: intake.ForCase(seed),
		Products:        catalog.ForCase(seed),
	}
	b.IntakeTextOCR = OCRText{
		FR: ApplyNoise(Render(b, LangFR), seed*10+1, NoiseMedium),
		EN: ApplyNoise(Render(b, LangEN), seed*10+2, NoiseMedium),
	}
	return b
}
