package rxpdf

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pharmassist/synthdata/internal/domain/casebundle"
)

func TestWriteSuite_ManifestAndDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rx_pdf_suite")
	m, err := WriteSuite(dir, 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Files) != 12 {
		t.Fatalf("files = %d, want 3 cases x 2 languages x 2 modes", len(m.Files))
	}

	onDisk, err := ReadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if onDisk.Suite != Suite || !reflect.DeepEqual(onDisk.CaseSeeds, []int64{42, 101, 102}) || len(onDisk.Files) != 12 {
		t.Errorf("unexpected manifest %+v", onDisk)
	}

	for i, f := range onDisk.Files {
		if i > 0 && onDisk.Files[i-1].Filename >= f.Filename {
			t.Errorf("files not sorted at %s", f.Filename)
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Filename))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) || !strings.HasSuffix(f.Filename, ".pdf") {
			t.Errorf("%s is not a PDF", f.Filename)
		}
		if f.Bytes != len(data) || f.Bytes <= 500 {
			t.Errorf("%s: bytes %d, file %d", f.Filename, f.Bytes, len(data))
		}
		want := OutcomeValidIntake
		if f.PHIMode == PHIPresent {
			want = OutcomePHIBoundary
		}
		if f.ExpectedOutcome != want {
			t.Errorf("%s: outcome %s", f.Filename, f.ExpectedOutcome)
		}
	}
}

func TestWriteSuite_RedFlagExpectations(t *testing.T) {
	m, err := WriteSuite(t.TempDir(), 0, []int64{101})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Files) != 4 {
		t.Fatalf("files = %d", len(m.Files))
	}
	for _, f := range m.Files {
		if f.CaseRef != "case_redflag_000101" || f.DocRef != "doc_"+string(f.PHIMode)+"_"+f.Language+"_case_redflag_000101" {
			t.Errorf("refs %s %s", f.CaseRef, f.DocRef)
		}
		found := false
		for _, rf := range f.ExpectedRedFlags {
			found = found || rf == "chest_pain"
		}
		if !found || len(f.ExpectedSymptoms) == 0 {
			t.Errorf("%s: red flags %v symptoms %v", f.Filename, f.ExpectedRedFlags, f.ExpectedSymptoms)
		}
	}
}

func TestWriteSuite_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	ma, err := WriteSuite(a, 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	mb, err := WriteSuite(b, 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ma, mb) {
		t.Fatal("manifests differ")
	}
	for _, f := range ma.Files {
		left, _ := os.ReadFile(filepath.Join(a, f.Filename))
		right, _ := os.ReadFile(filepath.Join(b, f.Filename))
		if sha256.Sum256(left) != sha256.Sum256(right) {
			t.Errorf("%s differs between runs", f.Filename)
		}
	}
	left, _ := os.ReadFile(filepath.Join(a, ManifestFile))
	right, _ := os.ReadFile(filepath.Join(b, ManifestFile))
	if !bytes.Equal(left, right) || !bytes.HasSuffix(left, []byte("}\n")) {
		t.Error("manifest files differ")
	}
}

func TestWriteSuite_SeedChangesCaseSet(t *testing.T) {
	ma, err := WriteSuite(t.TempDir(), 42, nil)
	if err != nil {
		t.Fatal(err)
	}
	mb, err := WriteSuite(t.TempDir(), 43, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(mb.CaseSeeds, []int64{43, 102, 103}) {
		t.Errorf("case seeds = %v", mb.CaseSeeds)
	}
	names := map[string]bool{}
	for _, f := range ma.Files {
		names[f.Filename] = true
	}
	same := true
	for _, f := range mb.Files {
		same = same && names[f.Filename]
	}
	if same {
		t.Error("seed 43 produced the seed 42 file set")
	}
}

func TestLines_IdentityBlockOnlyWhenPresent(t *testing.T) {
	tests := []struct {
		lang  casebundle.Lang
		mode  PHIMode
		ident string
		want  bool
	}{
		{casebundle.LangEN, PHIPresent, "Name: Lucy Martin", true},
		{casebundle.LangEN, PHIFree, "Name: Lucy Martin", false},
		{casebundle.LangFR, PHIPresent, "Prenom: Lucie", true},
		{casebundle.LangFR, PHIFree, "Prenom: Lucie", false},
	}
	for _, tt := range tests {
		lines, err := Lines(42, tt.lang, tt.mode)
		if err != nil {
			t.Fatal(err)
		}
		blob := strings.Join(lines, "\n")
		if got := strings.Contains(blob, tt.ident); got != tt.want {
			t.Errorf("%s/%s: identity present = %v", tt.lang, tt.mode, got)
		}
		if lines[0] != "PHARMASSIST SYNTHETIC PRESCRIPTION" || lines[1] != "case_ref: case_000042" || !strings.Contains(blob, "=== OCR-LIKE PRESCRIPTION TEXT ===") {
			t.Errorf("%s/%s: unexpected header %q", tt.lang, tt.mode, lines[:2])
		}
	}
}

func TestRender_PaginatesLongDocuments(t *testing.T) {
	short, err := Render([]string{"one line"})
	if err != nil {
		t.Fatal(err)
	}
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = strings.Repeat("x", 300)
	}
	long, err := Render(lines)
	if err != nil {
		t.Fatal(err)
	}
	if got := bytes.Count(short, []byte("/Type /Page\n")); got != 1 {
		t.Errorf("short document has %d pages", got)
	}
	if got := bytes.Count(long, []byte("/Type /Page\n")); got < 4 {
		t.Errorf("200 lines fit on %d pages", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("éàü", 2); got != "éà" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
