// Package rxpdf renders synthetic prescription PDFs with a text layer, one
// per case, language and identity mode, plus a manifest describing what a
// downstream intake pipeline is expected to conclude from each document.
package rxpdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/pharmassist/synthdata/internal/domain/casebundle"
)

const (
	SchemaVersion = "0.0.0"
	Suite         = "synthetic_prescription_pdf_v1"
	ManifestFile  = "manifest.json"
)

// Identity modes. A document in PHIPresent mode carries a fictitious
// identity block that an intake pipeline must refuse.
type PHIMode string

const (
	PHIPresent PHIMode = "present"
	PHIFree    PHIMode = "free"
)

// Expected outcomes recorded in the manifest.
const (
	OutcomePHIBoundary = "fail_phi_boundary"
	OutcomeValidIntake = "schema_valid_intake"
)

// Page layout in points, measured from the top-left corner.
const (
	marginX   = 48
	firstLine = 56
	lineStep  = 15
	bottomY   = 64
	footerY   = 40
	maxRunes  = 160
)

// documentDate is stamped as creation and modification date so output bytes
// depend on content only.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var identityBlocks = map[casebundle.Lang][]string{
	casebundle.LangFR: {
		"Nom: Martin",
		"Prenom: Lucie",
		"Date de naissance: 14/06/1987",
		"Adresse: 15 rue de Vaugirard, Paris 75015",
		"Telephone: 0611223344",
		"",
	},
	casebundle.LangEN: {
		"Name: Lucy Martin",
		"Date of birth: 1987-06-14",
		"Address: 15 Rue de Vaugirard, Paris 75015",
		"Phone: +33611223344",
		"",
	},
}

// File describes one rendered document. Fields are declared in key order so
// the manifest encodes with sorted keys.
type File struct {
	Bytes            int      `json:"bytes"`
	CaseRef          string   `json:"case_ref"`
	DocRef           string   `json:"doc_ref"`
	ExpectedOutcome  string   `json:"expected_outcome"`
	ExpectedRedFlags []string `json:"expected_red_flags"`
	ExpectedSymptoms []string `json:"expected_symptoms"`
	Filename         string   `json:"filename"`
	Language         string   `json:"language"`
	PHIMode          PHIMode  `json:"phi_mode"`
	Seed             int64    `json:"seed"`
	SHA256Prefix     string   `json:"sha256_12"`
}

// Manifest indexes a suite directory.
type Manifest struct {
	CaseSeeds     []int64 `json:"case_seeds"`
	Files         []File  `json:"files"`
	SchemaVersion string  `json:"schema_version"`
	Seed          int64   `json:"seed"`
	Suite         string  `json:"suite"`
}

// DefaultCaseSeeds is the case set of a suite run with seed. Seed 42 lands
// on the red-flag and low-information fixtures.
func DefaultCaseSeeds(seed int64) []int64 {
	return []int64{seed, seed + 59, seed + 60}
}

// Lines is the text layer of the document for one case.
func Lines(seed int64, lang casebundle.Lang, mode PHIMode) ([]string, error) {
	b := casebundle.Generate(seed)
	text := b.IntakeTextOCR.EN
	if lang == casebundle.LangFR {
		text = b.IntakeTextOCR.FR
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("case %s: no OCR text for %s", b.CaseRef, lang)
	}

	lines := []string{
		"PHARMASSIST SYNTHETIC PRESCRIPTION",
		"case_ref: " + b.CaseRef,
		"language: " + string(lang),
		fmt.Sprintf("seed: %d", seed),
		"",
	}
	if mode == PHIPresent {
		lines = append(lines, identityBlocks[lang]...)
	}
	lines = append(lines, "=== OCR-LIKE PRESCRIPTION TEXT ===")
	return append(lines, strings.Split(strings.TrimRight(text, "\n"), "\n")...), nil
}

// Render lays lines out on A4 pages in Helvetica 11 with a page footer.
func Render(lines []string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("PharmAssist Synthetic Prescription", true)
	pdf.SetAuthor("pharmassist-synthdata", true)
	pdf.SetSubject("Synthetic-only prescription sample", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	_, height := pdf.GetPageSize()
	page := 1
	footer := func() {
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(marginX, height-footerY, fmt.Sprintf("Page %d", page))
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 11)
	y := float64(firstLine)
	for _, line := range lines {
		if y > height-bottomY {
			footer()
			pdf.AddPage()
			page++
			pdf.SetFont("Helvetica", "", 11)
			y = firstLine
		}
		pdf.Text(marginX, y, tr(truncate(line, maxRunes)))
		y += lineStep
	}
	footer()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// WriteSuite renders every case seed in both languages and both identity
// modes into dir and writes the manifest. An empty seeds list means
// DefaultCaseSeeds(seed).
func WriteSuite(dir string, seed int64, seeds []int64) (Manifest, error) {
	if len(seeds) == 0 {
		seeds = DefaultCaseSeeds(seed)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create suite dir: %w", err)
	}

	m := Manifest{
		CaseSeeds:     seeds,
		SchemaVersion: SchemaVersion,
		Seed:          seed,
		Suite:         Suite,
	}
	for _, caseSeed := range seeds {
		b := casebundle.Generate(caseSeed)
		symptoms := make([]string, 0, len(b.IntakeExtracted.Symptoms))
		for _, s := range b.IntakeExtracted.Symptoms {
			symptoms = append(symptoms, s.Label)
		}
		redFlags := append([]string{}, b.IntakeExtracted.RedFlags...)

		for _, lang := range []casebundle.Lang{casebundle.LangFR, casebundle.LangEN} {
			for _, mode := range []PHIMode{PHIPresent, PHIFree} {
				lines, err := Lines(caseSeed, lang, mode)
				if err != nil {
					return Manifest{}, err
				}
				data, err := Render(lines)
				if err != nil {
					return Manifest{}, err
				}
				name := fmt.Sprintf("rx_%s_%s_%s.pdf", mode, lang, b.CaseRef)
				if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
					return Manifest{}, err
				}

				sum := sha256.Sum256(data)
				outcome := OutcomeValidIntake
				if mode == PHIPresent {
					outcome = OutcomePHIBoundary
				}
				m.Files = append(m.Files, File{
					Bytes:            len(data),
					CaseRef:          b.CaseRef,
					DocRef:           fmt.Sprintf("doc_%s_%s_%s", mode, lang, b.CaseRef),
					ExpectedOutcome:  outcome,
					ExpectedRedFlags: redFlags,
					ExpectedSymptoms: symptoms,
					Filename:         name,
					Language:         string(lang),
					PHIMode:          mode,
					Seed:             caseSeed,
					SHA256Prefix:     hex.EncodeToString(sum[:])[:12],
				})
			}
		}
	}
	sort.SliceStable(m.Files, func(i, j int) bool { return m.Files[i].Filename < m.Files[j].Filename })

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return Manifest{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), buf.Bytes(), 0o644); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ReadManifest loads dir/manifest.json.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode suite manifest: %w", err)
	}
	return m, nil
}
