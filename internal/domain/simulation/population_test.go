package simulation

import (
	"errors"
	"strings"
	"testing"

	"github.com/pharmassist/synthdata/internal/domain/patient"
)

func TestRegistry_AdmitAssignsSequentialRefs(t *testing.T) {
	var seeds []int64
	reg := NewRegistry(42, func(seed int64) (patient.Context, error) {
		seeds = append(seeds, seed)
		return patient.Generate(seed), nil
	})
	for i := 0; i < 3; i++ {
		e, p, err := reg.Admit()
		if err != nil {
			t.Fatalf("admit: %v", err)
		}
		if e.Index != i || e.Ref != PatientRef(i) || p.PatientRef != e.Ref || e.Weight != 1 {
			t.Errorf("admission %d: entry %+v patient %q", i, e, p.PatientRef)
		}
	}
	want := []int64{4_201_000, 4_201_001, 4_201_002}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seed %d = %d, want %d", i, seeds[i], want[i])
		}
	}
	if reg.TotalWeight() != 3 || reg.Admissions() != 3 {
		t.Errorf("total %d admissions %d", reg.TotalWeight(), reg.Admissions())
	}
}

func TestRegistry_AdmitWrapsSourceError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(1, func(int64) (patient.Context, error) { return patient.Context{}, boom })
	if _, _, err := reg.Admit(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if reg.Len() != 0 || reg.TotalWeight() != 0 {
		t.Error("failed admission must not change the registry")
	}
}

// linearSearch is the reference for Fenwick search.
func linearSearch(weights []int64, x float64) int {
	var acc int64
	for i, w := range weights {
		acc += w
		if x < float64(acc) {
			return i
		}
	}
	return len(weights) - 1
}

func TestRegistry_SearchMatchesLinearScan(t *testing.T) {
	reg := NewRegistry(9, nil)
	r := NewRand(9)
	for round := 0; round < 300; round++ {
		if round%3 == 0 {
			if _, _, err := reg.Admit(); err != nil {
				t.Fatal(err)
			}
		} else {
			reg.SelectReturning(r)
		}
		for i := 1; i <= len(reg.weights); i++ {
			var want int64
			for _, w := range reg.weights[:i] {
				want += w
			}
			if got := reg.prefix(i); got != want {
				t.Fatalf("round %d: prefix(%d) = %d, want %d", round, i, got, want)
			}
		}
		for x := 0.0; x < float64(reg.TotalWeight()); x += 0.5 {
			if got, want := reg.search(x), linearSearch(reg.weights, x); got != want {
				t.Fatalf("round %d: search(%v) = %d, want %d", round, x, got, want)
			}
		}
	}
}

func TestRegistry_SelectionIsWeighted(t *testing.T) {
	reg := NewRegistry(3, nil)
	for i := 0; i < 10; i++ {
		if _, _, err := reg.Admit(); err != nil {
			t.Fatal(err)
		}
	}
	r := NewRand(3)
	for i := 0; i < 5000; i++ {
		reg.SelectReturning(r)
	}
	if reg.TotalWeight() != 5010 || reg.Selections() != 5000 {
		t.Fatalf("total %d selections %d", reg.TotalWeight(), reg.Selections())
	}
	var sum, maxW int64
	for i := 0; i < reg.Len(); i++ {
		w := reg.Entry(i).Weight
		sum += w
		maxW = max(maxW, w)
	}
	if sum != reg.TotalWeight() {
		t.Errorf("weights sum to %d, total says %d", sum, reg.TotalWeight())
	}
	// Rich-get-richer: the heaviest patient should clearly exceed a uniform share.
	if maxW <= 501 {
		t.Errorf("heaviest weight %d shows no preferential attachment", maxW)
	}
}

func TestDecideNew(t *testing.T) {
	reg := NewRegistry(0, nil)
	r := NewRand(11)
	if reg.DecideNew(r, 0) {
		t.Error("p=0 must never admit")
	}
	if !reg.DecideNew(r, 1) {
		t.Error("p=1 must always admit")
	}
}

func TestRegistry_SelectReturningOnEmptyRegistryPanics(t *testing.T) {
	defer func() {
		r := recover()
		if msg, _ := r.(string); !strings.Contains(msg, "empty registry") {
			t.Errorf("unexpected panic value %v", r)
		}
	}()
	NewRegistry(1, nil).SelectReturning(NewRand(1))
	t.Fatal("SelectReturning on an empty registry returned")
}
