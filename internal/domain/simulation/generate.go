package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/pharmassist/synthdata/internal/domain/catalog"
	"github.com/pharmassist/synthdata/internal/domain/intake"
)

// TemplateSource builds the intake stub for a selected domain.
type TemplateSource func(r intake.Rand, domain intake.Domain) (intake.Extracted, error)

// DefaultTemplateSource wraps intake.Template, which never fails.
func DefaultTemplateSource(r intake.Rand, domain intake.Domain) (intake.Extracted, error) {
	return intake.Template(r, domain), nil
}

// Options identify a run. Output is a pure function of these four values.
type Options struct {
	Seed     int64
	Pharmacy string
	Year     int
	Mode     Mode
}

// Option customizes collaborators and observers of a run.
type Option func(*runner)

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(r *runner) { r.obs = o }
}

// WithPatientSource replaces the clinical-context collaborator.
func WithPatientSource(s PatientSource) Option {
	return func(r *runner) { r.patients = s }
}

// WithTemplateSource replaces the intake template collaborator.
func WithTemplateSource(s TemplateSource) Option {
	return func(r *runner) { r.templates = s }
}

// WithParameters overrides the preset looked up from Options.Pharmacy.
func WithParameters(p Parameters) Option {
	return func(r *runner) { r.params = &p }
}

// Summary reports what a run produced.
type Summary struct {
	Options     Options             `json:"options"`
	Patients    int                 `json:"patients"`
	Visits      int64               `json:"visits"`
	Events      int64               `json:"events"`
	EventTypes  map[EventType]int64 `json:"event_types"`
	Inventory   int                 `json:"inventory"`
	OpenDays    int                 `json:"open_days"`
	Admissions  int64               `json:"admissions"`
	Selections  int64               `json:"selections"`
	TotalWeight int64               `json:"total_weight"`
}

type runner struct {
	opts      Options
	params    *Parameters
	obs       Observer
	patients  PatientSource
	templates TemplateSource
}

// Validate checks options without producing anything. Callers use it to fail
// before opening any output.
func Validate(opts Options) error {
	if _, err := Preset(opts.Pharmacy); err != nil {
		return err
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return err
	}
	if opts.Year < 1 || opts.Year > 9999 {
		return fmt.Errorf("year %d out of range", opts.Year)
	}
	return nil
}

// Generate runs the simulation and appends every record to w. A failed or
// cancelled run leaves whatever was already written; that output must be
// treated as unusable.
func Generate(ctx context.Context, opts Options, w Writer, options ...Option) (Summary, error) {
	run := &runner{opts: opts, obs: NopObserver{}, patients: DefaultPatientSource, templates: DefaultTemplateSource}
	for _, o := range options {
		o(run)
	}

	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return Summary{}, err
	}
	run.opts.Mode = mode
	if run.params == nil {
		p, err := Preset(opts.Pharmacy)
		if err != nil {
			return Summary{}, err
		}
		run.params = &p
	}
	if mode == ModeCompact {
		return run.compact(ctx, w)
	}
	return run.full(ctx, w)
}

func (run *runner) writeInventory(w Writer, n int) ([]catalog.Item, error) {
	inv := catalog.Inventory(run.opts.Seed, n)
	for _, it := range inv {
		if err := w.Append(StreamInventory, it); err != nil {
			return nil, fmt.Errorf("write %s: %w", StreamInventory, err)
		}
		run.obs.OnRecord(StreamInventory)
	}
	return inv, nil
}

func (run *runner) admit(reg *Registry, w Writer) (PopulationEntry, error) {
	entry, p, err := reg.Admit()
	if err != nil {
		return PopulationEntry{}, err
	}
	if err := w.Append(StreamPatients, p); err != nil {
		return PopulationEntry{}, fmt.Errorf("write %s: %w", StreamPatients, err)
	}
	run.obs.OnRecord(StreamPatients)
	return entry, nil
}

func (run *runner) summary(reg *Registry, st *State, inv []catalog.Item, openDays int) Summary {
	return Summary{
		Options:     run.opts,
		Patients:    reg.Len(),
		Visits:      st.NextVisit,
		Events:      st.NextEvent,
		EventTypes:  st.Events,
		Inventory:   len(inv),
		OpenDays:    openDays,
		Admissions:  reg.Admissions(),
		Selections:  reg.Selections(),
		TotalWeight: reg.TotalWeight(),
	}
}

func (run *runner) full(ctx context.Context, w Writer) (Summary, error) {
	p := *run.params
	r := NewRand(run.opts.Seed)
	st := newState()

	inv, err := run.writeInventory(w, catalog.FullInventorySize)
	if err != nil {
		return Summary{}, err
	}

	reg := NewRegistry(run.opts.Seed, run.patients)
	for i := 0; i < p.InitialPatients; i++ {
		if _, err := run.admit(reg, w); err != nil {
			return Summary{}, err
		}
	}

	asm := NewAssembler(p, ModeFull, inv, w, run.obs)
	openDays := 0
	for _, day := range Days(run.opts.Year) {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		wd := WeekdayIndex(day)
		if p.DOWFactors[wd] <= 0 {
			run.obs.OnDay(day, false, 0)
			continue
		}
		openDays++

		n := SampleVisitCount(r, p.DayMean(wd, int(day.Month())), p.Dispersion)
		date := day.Format(DateLayout)
		for i := 0; i < n; i++ {
			var entry PopulationEntry
			if reg.DecideNew(r, p.PNewVisit) || reg.Len() == 0 {
				entry, err = run.admit(reg, w)
				if err != nil {
					return Summary{}, err
				}
			} else {
				entry = reg.SelectReturning(r)
			}

			domain := intake.SelectDomain(r, int(day.Month()))
			stub, err := run.templates(r, domain)
			if err != nil {
				return Summary{}, fmt.Errorf("intake template %s: %w", domain, err)
			}
			if _, err := asm.Assemble(r, st, entry.Ref, date, domain, stub); err != nil {
				return Summary{}, err
			}
		}
		run.obs.OnDay(day, true, n)
	}

	return run.summary(reg, st, inv, openDays), nil
}

func (run *runner) compact(ctx context.Context, w Writer) (Summary, error) {
	p := *run.params
	r := NewRand(run.opts.Seed)
	st := newState()

	inv, err := run.writeInventory(w, catalog.CompactInventorySize)
	if err != nil {
		return Summary{}, err
	}

	reg := NewRegistry(run.opts.Seed, run.patients)
	for i := 0; i < CompactPatients; i++ {
		if _, err := run.admit(reg, w); err != nil {
			return Summary{}, err
		}
	}

	asm := NewAssembler(p, ModeCompact, inv, w, run.obs)
	dates := compactDates(run.opts.Year)
	perDay := make(map[time.Time]int, len(dates))
	for i := 0; i < CompactVisits; i++ {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		day := dates[i%len(dates)]
		ref := reg.Entry(i % reg.Len()).Ref

		var domain intake.Domain
		var stub intake.Extracted
		switch i {
		case CompactLowInfoIndex:
			domain, stub = intake.DomainOther, intake.LowInformation()
		case CompactRedFlagIndex:
			domain, stub = intake.DomainRespiratory, intake.RedFlag()
		default:
			domain = intake.SelectDomain(r, int(day.Month()))
			stub, err = run.templates(r, domain)
			if err != nil {
				return Summary{}, fmt.Errorf("intake template %s: %w", domain, err)
			}
		}
		if _, err := asm.Assemble(r, st, ref, day.Format(DateLayout), domain, stub); err != nil {
			return Summary{}, err
		}
		perDay[day]++
	}
	for _, day := range dates {
		run.obs.OnDay(day, true, perDay[day])
	}

	return run.summary(reg, st, inv, len(dates)), nil
}
