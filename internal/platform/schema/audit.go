package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pharmassist/synthdata/internal/platform/sink"
)

// Dataset is the pseudo-contract name used for cross-record issues.
const Dataset = "dataset"

// MaxIssues bounds the issues kept by Audit; further issues are counted
// but dropped.
const MaxIssues = 1000

var eventTypes = map[string]bool{"symptom_intake": true, "otc_purchase": true, "prescription_added": true}

// Report is the result of auditing a dataset directory.
type Report struct {
	Counts  map[string]int64 `json:"counts"`
	Issues  []Issue          `json:"issues"`
	Dropped int64            `json:"dropped,omitempty"`
}

// OK reports whether the audit found nothing.
func (r *Report) OK() bool { return len(r.Issues) == 0 && r.Dropped == 0 }

func (r *Report) add(schema, path, format string, args ...any) {
	if len(r.Issues) >= MaxIssues {
		r.Dropped++
		return
	}
	r.Issues = append(r.Issues, Issue{Schema: schema, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addAll(issues []Issue, at string) {
	for _, i := range prefix(issues, at) {
		r.add(i.Schema, i.Path, "%s", i.Message)
	}
}

type auditor struct {
	dir      string
	report   *Report
	patients map[string]bool
	skus     map[string]bool
	visits   map[string]visitKey
	refs     map[string]bool
}

type visitKey struct {
	patient, date string
	intents       map[string]bool
}

// Audit reads every stream of a dataset directory and checks record
// contracts, identifying keys, reference uniqueness and referential
// integrity, and the manifest checksums when a manifest is present. The
// error is non-nil only when the directory cannot be read.
func Audit(dir string) (*Report, error) {
	a := &auditor{
		dir:      dir,
		report:   &Report{Counts: map[string]int64{}},
		patients: map[string]bool{},
		skus:     map[string]bool{},
		visits:   map[string]visitKey{},
		refs:     map[string]bool{},
	}
	steps := []struct {
		stream string
		fn     func(string, map[string]any)
	}{
		{"inventory", a.inventory},
		{"patients", a.patient},
		{"visits", a.visit},
		{"events", a.event},
	}
	for _, s := range steps {
		path := sink.Path(dir, s.stream)
		n := int64(0)
		err := sink.ScanRecords(path, func(rec map[string]any) error {
			at := fmt.Sprintf("%s[%d]", s.stream, n)
			n++
			for _, p := range ForbiddenKeys(rec) {
				a.report.add(Dataset, at+p[1:], "identifying key is not allowed")
			}
			s.fn(at, rec)
			return nil
		})
		if errors.Is(err, fs.ErrNotExist) {
			a.report.add(Dataset, s.stream, "stream file %s is missing", sink.FileName(s.stream))
			continue
		}
		if err != nil {
			return nil, err
		}
		a.report.Counts[s.stream] = n
	}
	if err := a.manifest(); err != nil {
		return nil, err
	}
	return a.report, nil
}

func (a *auditor) unique(at, ref string) {
	if ref == "" {
		a.report.add(Dataset, at, "missing reference")
		return
	}
	if a.refs[ref] {
		a.report.add(Dataset, at, "duplicate reference %q", ref)
	}
	a.refs[ref] = true
}

func (a *auditor) inventory(at string, rec map[string]any) {
	a.report.addAll(Validate(rec, Product), at)
	sku, _ := rec["sku"].(string)
	a.unique(at+".sku", sku)
	a.skus[sku] = true
}

func (a *auditor) patient(at string, rec map[string]any) {
	ref, _ := rec["patient_ref"].(string)
	a.unique(at+".patient_ref", ref)
	a.patients[ref] = true
	if ctx, ok := rec["llm_context"]; ok {
		a.report.addAll(Validate(ctx, LLMContext), at+".llm_context")
	} else {
		a.report.add(LLMContext, at+".llm_context", "missing")
	}
}

func (a *auditor) visit(at string, rec map[string]any) {
	ref, _ := rec["visit_ref"].(string)
	pt, _ := rec["patient_ref"].(string)
	date, _ := rec["occurred_at"].(string)
	a.unique(at+".visit_ref", ref)
	if !a.patients[pt] {
		a.report.add(Dataset, at+".patient_ref", "unknown patient %q", pt)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		a.report.add(Dataset, at+".occurred_at", "invalid date %q", date)
	}
	intents := map[string]bool{}
	list, _ := rec["intents"].([]any)
	for _, i := range list {
		if s, ok := i.(string); ok {
			intents[s] = true
		}
	}
	if len(list) == 0 || list[0] != "symptom_advice" {
		a.report.add(Dataset, at+".intents", "must start with symptom_advice")
	}
	if ie, ok := rec["intake_extracted"]; ok {
		a.report.addAll(Validate(ie, IntakeExtracted), at+".intake_extracted")
	} else {
		a.report.add(IntakeExtracted, at+".intake_extracted", "missing")
	}
	a.visits[ref] = visitKey{patient: pt, date: date, intents: intents}
}

func (a *auditor) event(at string, rec map[string]any) {
	ref, _ := rec["event_ref"].(string)
	vref, _ := rec["visit_ref"].(string)
	typ, _ := rec["event_type"].(string)
	a.unique(at+".event_ref", ref)

	v, ok := a.visits[vref]
	if !ok {
		a.report.add(Dataset, at+".visit_ref", "unknown visit %q", vref)
		return
	}
	if pt, _ := rec["patient_ref"].(string); pt != v.patient {
		a.report.add(Dataset, at+".patient_ref", "%q does not match visit patient %q", pt, v.patient)
	}
	if d, _ := rec["occurred_at"].(string); d != v.date {
		a.report.add(Dataset, at+".occurred_at", "%q does not match visit date %q", d, v.date)
	}
	if !eventTypes[typ] {
		a.report.add(Dataset, at+".event_type", "unknown event type %q", typ)
		return
	}
	if typ != "symptom_intake" && !v.intents[typ] {
		a.report.add(Dataset, at+".event_type", "visit %s has no %s intent", vref, typ)
	}

	payload, _ := rec["payload"].(map[string]any)
	switch typ {
	case "symptom_intake":
		a.report.addAll(Validate(payload["intake_extracted"], IntakeExtracted), at+".payload.intake_extracted")
	case "otc_purchase":
		items, _ := payload["items"].([]any)
		if len(items) == 0 {
			a.report.add(Dataset, at+".payload.items", "empty purchase")
		}
		for i, it := range items {
			line, _ := it.(map[string]any)
			sku, _ := line["sku"].(string)
			if !a.skus[sku] {
				a.report.add(Dataset, fmt.Sprintf("%s.payload.items[%d].sku", at, i), "unknown sku %q", sku)
			}
			if q, isInt, ok := number(line["qty"]); !ok || !isInt || q < 1 {
				a.report.add(Dataset, fmt.Sprintf("%s.payload.items[%d].qty", at, i), "invalid quantity %v", line["qty"])
			}
		}
	case "prescription_added":
		if rx, _ := payload["rx_medications"].([]any); len(rx) == 0 {
			a.report.add(Dataset, at+".payload.rx_medications", "empty prescription")
		}
	}
}

func (a *auditor) manifest() error {
	m, err := sink.ReadManifest(a.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		a.report.add(Dataset, sink.ManifestFile, "%v", err)
		return nil
	}
	for _, s := range m.Streams {
		sum, err := fileSHA256(filepath.Join(a.dir, s.File))
		if err != nil {
			a.report.add(Dataset, sink.ManifestFile, "hash %s: %v", s.File, err)
			continue
		}
		if sum != s.SHA256 {
			a.report.add(Dataset, sink.ManifestFile, "%s checksum mismatch", s.File)
		}
		if got, ok := a.report.Counts[s.Name]; ok && got != s.Records {
			a.report.add(Dataset, sink.ManifestFile, "%s has %d records, manifest says %d", s.Name, got, s.Records)
		}
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return sink.HashReader(f)
}
