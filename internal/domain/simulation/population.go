package simulation

import (
	"fmt"
	"math/bits"

	"github.com/pharmassist/synthdata/internal/domain/patient"
)

// PatientSource materializes the clinical context for a derived seed.
type PatientSource func(seed int64) (patient.Context, error)

// DefaultPatientSource wraps patient.Generate, which never fails.
func DefaultPatientSource(seed int64) (patient.Context, error) {
	return patient.Generate(seed), nil
}

// patientSeedBase mixes the run seed into per-patient collaborator seeds.
const (
	patientSeedStride = 100_000
	patientSeedOffset = 1000
)

// PatientSeed derives the collaborator seed of the patient with the given
// ordinal.
func PatientSeed(runSeed int64, ordinal int) int64 {
	return runSeed*patientSeedStride + patientSeedOffset + int64(ordinal)
}

// PatientRef formats a patient ordinal.
func PatientRef(ordinal int) string { return fmt.Sprintf("pt_%06d", ordinal) }

// PopulationEntry is a snapshot of a registry slot.
type PopulationEntry struct {
	Index  int
	Ref    string
	Weight int64
}

// Registry is the growing patient population. Entries live in an arena
// indexed by ordinal; weights are kept in a parallel slice and a Fenwick tree
// so weighted selection and increments stay logarithmic as it grows.
// Entries are never removed.
type Registry struct {
	runSeed int64
	source  PatientSource

	refs    []string
	weights []int64
	tree    []int64 // 1-based Fenwick tree over weights
	total   int64

	admissions int64
	selections int64
}

// NewRegistry returns an empty registry whose patients derive their seeds
// from runSeed.
func NewRegistry(runSeed int64, source PatientSource) *Registry {
	if source == nil {
		source = DefaultPatientSource
	}
	return &Registry{runSeed: runSeed, source: source, tree: []int64{0}}
}

// Len is the number of admitted patients.
func (g *Registry) Len() int { return len(g.refs) }

// TotalWeight is the sum of all selection weights.
func (g *Registry) TotalWeight() int64 { return g.total }

// Admissions counts admitted patients, initial population included.
func (g *Registry) Admissions() int64 { return g.admissions }

// Selections counts returning-patient selections.
func (g *Registry) Selections() int64 { return g.selections }

// Entry returns the slot at index i.
func (g *Registry) Entry(i int) PopulationEntry {
	return PopulationEntry{Index: i, Ref: g.refs[i], Weight: g.weights[i]}
}

// Admit assigns the next reference, materializes the clinical context and
// appends the patient with weight 1.
func (g *Registry) Admit() (PopulationEntry, Patient, error) {
	ordinal := len(g.refs)
	ref := PatientRef(ordinal)
	ctx, err := g.source(PatientSeed(g.runSeed, ordinal))
	if err != nil {
		return PopulationEntry{}, Patient{}, fmt.Errorf("admit patient %s: %w", ref, err)
	}
	if ctx.SchemaVersion == "" {
		ctx.SchemaVersion = patient.SchemaVersion
	}

	g.refs = append(g.refs, ref)
	g.weights = append(g.weights, 1)
	g.appendTree(1)
	g.total++
	g.admissions++

	return g.Entry(ordinal), Patient{PatientRef: ref, LLMContext: ctx}, nil
}

// DecideNew is a single Bernoulli draw: true means the visit belongs to a new
// patient.
func (g *Registry) DecideNew(r *Rand, pNew float64) bool {
	return r.Float64() < pNew
}

// SelectReturning picks an existing patient with probability proportional to
// its weight and then increments that weight. It panics on an empty
// registry; callers admit a patient first.
func (g *Registry) SelectReturning(r *Rand) PopulationEntry {
	if g.total == 0 {
		panic("simulation: SelectReturning on empty registry")
	}
	x := r.Float64() * float64(g.total)
	i := g.search(x)
	g.weights[i]++
	g.add(i, 1)
	g.total++
	g.selections++
	return g.Entry(i)
}

// search returns the first index whose inclusive prefix weight exceeds x.
func (g *Registry) search(x float64) int {
	n := len(g.weights)
	pos := 0
	var acc int64
	for step := 1 << (bits.Len(uint(n)) - 1); step > 0; step >>= 1 {
		next := pos + step
		if next <= n && float64(acc+g.tree[next]) <= x {
			pos = next
			acc += g.tree[next]
		}
	}
	if pos >= n {
		pos = n - 1
	}
	return pos
}

func (g *Registry) add(i int, delta int64) {
	for j := i + 1; j < len(g.tree); j += j & -j {
		g.tree[j] += delta
	}
}

func (g *Registry) prefix(j int) int64 {
	var s int64
	for ; j > 0; j -= j & -j {
		s += g.tree[j]
	}
	return s
}

// appendTree extends the Fenwick tree with a node for the newest weight.
func (g *Registry) appendTree(w int64) {
	j := len(g.tree)
	node := w + g.prefix(j-1) - g.prefix(j-(j&-j))
	g.tree = append(g.tree, node)
}
