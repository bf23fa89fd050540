package schema

import (
	"fmt"
	"strings"
)

// CaseBundle is the pseudo-contract name used for case bundle level issues.
const CaseBundle = "case_bundle"

// ValidateCaseBundle checks the embedded contracts of a case bundle plus its
// OCR text block.
func ValidateCaseBundle(bundle any) []Issue {
	v, err := normalize(bundle)
	if err != nil {
		return []Issue{{Schema: CaseBundle, Path: "$", Message: err.Error()}}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return []Issue{{Schema: CaseBundle, Path: "$", Message: "expected object"}}
	}

	var issues []Issue
	if ocr, ok := m["intake_text_ocr"].(map[string]any); ok {
		for _, lang := range []string{"fr", "en"} {
			if s, ok := ocr[lang].(string); !ok || strings.TrimSpace(s) == "" {
				issues = append(issues, Issue{Schema: "intake_text_ocr", Path: "$.intake_text_ocr." + lang,
					Message: fmt.Sprintf("missing or empty %s text", strings.ToUpper(lang))})
			}
		}
	} else {
		issues = append(issues, Issue{Schema: "intake_text_ocr", Path: "$.intake_text_ocr", Message: "missing or invalid object"})
	}

	issues = append(issues, nested(m, "llm_context", LLMContext)...)
	issues = append(issues, nested(m, "intake_extracted", IntakeExtracted)...)

	if products, ok := m["products"].([]any); ok {
		for i, p := range products {
			issues = append(issues, prefix(Validate(p, Product), fmt.Sprintf("$.products[%d]", i))...)
		}
	} else {
		issues = append(issues, Issue{Schema: Product, Path: "$.products", Message: "missing or invalid list"})
	}

	for _, p := range ForbiddenKeys(m) {
		issues = append(issues, Issue{Schema: CaseBundle, Path: p, Message: "identifying key is not allowed"})
	}
	return issues
}

func nested(m map[string]any, key, name string) []Issue {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return []Issue{{Schema: name, Path: "$." + key, Message: "missing or invalid object"}}
	}
	return prefix(Validate(obj, name), "$."+key)
}

// prefix re-roots issue paths under p.
func prefix(issues []Issue, p string) []Issue {
	for i := range issues {
		issues[i].Path = p + strings.TrimPrefix(issues[i].Path, "$")
	}
	return issues
}
