package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/pharmassist/synthdata/internal/domain/casebundle"
	"github.com/pharmassist/synthdata/internal/domain/catalog"
	"github.com/pharmassist/synthdata/internal/domain/intake"
	"github.com/pharmassist/synthdata/internal/domain/patient"
	"github.com/pharmassist/synthdata/internal/domain/simulation"
	"github.com/pharmassist/synthdata/internal/platform/sink"
)

func TestValidate_GeneratedRecordsConform(t *testing.T) {
	for seed := int64(0); seed < 6; seed++ {
		if issues := Validate(patient.Generate(seed), LLMContext); len(issues) != 0 {
			t.Errorf("seed %d llm_context: %v", seed, issues)
		}
		if issues := Validate(intake.ForCase(seed), IntakeExtracted); len(issues) != 0 {
			t.Errorf("seed %d intake: %v", seed, issues)
		}
	}
	for _, it := range catalog.Inventory(7, 20) {
		if issues := Validate(it, Product); len(issues) != 0 {
			t.Errorf("%s: %v", it.SKU, issues)
		}
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		instance map[string]any
		path     string
		contains string
	}{
		{"missing key", LLMContext, map[string]any{"schema_version": "0.0.0", "allergies": []any{}, "conditions": []any{}, "current_medications": []any{}}, "$", "demographics"},
		{"bad enum", IntakeExtracted, map[string]any{"schema_version": "0.0.0", "presenting_problem": "x", "red_flags": []any{}, "symptoms": []any{map[string]any{"label": "x", "severity": "extreme"}}}, "$.symptoms[0].severity", "mild"},
		{"extra key", IntakeExtracted, map[string]any{"schema_version": "0.0.0", "presenting_problem": "x", "red_flags": []any{}, "symptoms": []any{}, "mood": "ok"}, "$", "mood"},
		{"fractional qty", Product, map[string]any{"schema_version": "0.0.0", "sku": "SKU-0001", "name": "n", "brand": "b", "category": "c", "ingredients": []any{}, "contraindication_tags": []any{}, "price_eur": 1.5, "in_stock": true, "stock_qty": 1.5}, "$.stock_qty", "integer"},
		{"bad sku", Product, map[string]any{"schema_version": "0.0.0", "sku": "ABC", "name": "n", "brand": "b", "category": "c", "ingredients": []any{}, "contraindication_tags": []any{}, "price_eur": 1.5, "in_stock": true, "stock_qty": 1}, "$.sku", "pattern"},
		{"referenced enum", LLMContext, map[string]any{"schema_version": "0.0.0", "demographics": map[string]any{"age_years": 30, "sex": "F"}, "allergies": []any{map[string]any{"substance": "latex", "severity": "fatal"}}, "conditions": []any{}, "current_medications": []any{}}, "$.allergies[0].severity", "mild"},
		{"age above range", LLMContext, map[string]any{"schema_version": "0.0.0", "demographics": map[string]any{"age_years": 130, "sex": "F"}, "allergies": []any{}, "conditions": []any{}, "current_medications": []any{}}, "$.demographics.age_years", "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(tt.instance, tt.schema)
			for _, i := range issues {
				if i.Path == tt.path && strings.Contains(i.Message, tt.contains) {
					return
				}
			}
			t.Errorf("no issue at %s containing %q in %v", tt.path, tt.contains, issues)
		})
	}
	if issues := Validate(map[string]any{}, "visit_plan"); len(issues) != 1 || issues[0].Message != "unknown schema" {
		t.Errorf("unknown schema: %v", issues)
	}
}

func TestValidate_OneIssuePerFailure(t *testing.T) {
	in := map[string]any{"schema_version": "0.0.0", "presenting_problem": "x", "red_flags": []any{1}, "symptoms": []any{map[string]any{"severity": "mild", "duration_days": -2}}}
	issues := Validate(in, IntakeExtracted)
	want := []string{"$.red_flags[0]", "$.symptoms[0]", "$.symptoms[0].duration_days"}
	if len(issues) != len(want) {
		t.Fatalf("got %d issues, want %d: %v", len(issues), len(want), issues)
	}
	for i, p := range want {
		if issues[i].Path != p || issues[i].Schema != IntakeExtracted {
			t.Errorf("issue %d = %v, want path %s", i, issues[i], p)
		}
	}
}

func TestForbiddenKeys(t *testing.T) {
	doc := map[string]any{
		"patient_ref": "pt_000001",
		"llm_context": map[string]any{"Email": "x", "nested": []any{map[string]any{"ville": "Paris"}}},
	}
	got := ForbiddenKeys(doc)
	want := []string{"$.llm_context.Email", "$.llm_context.nested[0].ville"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(ForbiddenKeys(casebundle.Generate(42))) != 0 {
		t.Error("case bundle carries identifying keys")
	}
}

func TestValidateCaseBundle(t *testing.T) {
	for _, seed := range []int64{0, 1, 2, 101, 102} {
		if issues := ValidateCaseBundle(casebundle.Generate(seed)); len(issues) != 0 {
			t.Errorf("seed %d: %v", seed, issues)
		}
	}
	b := casebundle.Generate(5)
	b.IntakeTextOCR.FR = "  "
	issues := ValidateCaseBundle(b)
	if len(issues) != 1 || issues[0].Path != "$.intake_text_ocr.fr" {
		t.Errorf("blank FR text: %v", issues)
	}
}

func writeCompact(t *testing.T, seed int64) string {
	t.Helper()
	dir := t.TempDir()
	ds, err := sink.Open(dir, simulation.Streams...)
	if err != nil {
		t.Fatal(err)
	}
	opts := simulation.Options{Seed: seed, Pharmacy: "paris15", Year: 2025, Mode: simulation.ModeCompact}
	if _, err := simulation.Generate(context.Background(), opts, ds); err != nil {
		t.Fatal(err)
	}
	infos, err := ds.Close()
	if err != nil {
		t.Fatal(err)
	}
	m := sink.Manifest{DatasetID: sink.DatasetID(seed, "paris15", 2025, "compact"), Seed: seed, Pharmacy: "paris15", Year: 2025, Mode: "compact", Streams: infos}
	if err := sink.WriteManifest(dir, m); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestAudit_CompactDataset(t *testing.T) {
	dir := writeCompact(t, 42)
	report, err := Audit(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK() {
		t.Fatalf("issues: %v", report.Issues)
	}
	if report.Counts["patients"] != 20 || report.Counts["visits"] != 60 || report.Counts["events"] < 60 || report.Counts["inventory"] != 50 {
		t.Errorf("counts = %v", report.Counts)
	}
}

func TestAudit_DetectsBrokenReferences(t *testing.T) {
	dir := t.TempDir()
	ds, err := sink.Open(dir, simulation.Streams...)
	if err != nil {
		t.Fatal(err)
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(ds.Append("patients", simulation.Patient{PatientRef: "pt_000000", LLMContext: patient.Generate(1)}))
	must(ds.Append("visits", simulation.Visit{
		VisitRef: "visit_000000000", PatientRef: "pt_999999", OccurredAt: "2025-01-02",
		PrimaryDomain: intake.DomainSkin, Intents: []simulation.Intent{simulation.IntentSymptomAdvice},
		IntakeExtracted: intake.ForCase(1),
	}))
	must(ds.Append("events", simulation.Event{
		EventRef: "ev_000000000", VisitRef: "visit_000000000", PatientRef: "pt_999999", OccurredAt: "2025-01-02",
		EventType: simulation.EventOTCPurchase, Payload: simulation.OTCPurchasePayload{Items: []simulation.PurchaseLine{{SKU: "SKU-9999", Qty: 1}}},
	}))
	if _, err := ds.Close(); err != nil {
		t.Fatal(err)
	}

	report, err := Audit(dir)
	if err != nil {
		t.Fatal(err)
	}
	var msgs []string
	for _, i := range report.Issues {
		msgs = append(msgs, i.Path+": "+i.Message)
	}
	joined := strings.Join(msgs, "\n")
	for _, want := range []string{"unknown patient", "no otc_purchase intent", "unknown sku"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestAudit_ManifestMismatch(t *testing.T) {
	dir := writeCompact(t, 7)
	m, err := sink.ReadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	m.Streams[0].SHA256 = strings.Repeat("0", 64)
	if err := sink.WriteManifest(dir, m); err != nil {
		t.Fatal(err)
	}
	report, err := Audit(dir)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK() || !strings.Contains(report.Issues[0].Message, "checksum mismatch") {
		t.Errorf("issues = %v", report.Issues)
	}
}
