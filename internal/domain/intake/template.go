package intake

func pick[T any](r Rand, xs []T) T { return xs[r.IntN(len(xs))] }

// Template returns a schema-shaped intake stub for domain. Duration (and for
// pain, severity) is drawn from r; unknown domains fall back to the
// respiratory template.
func Template(r Rand, domain Domain) Extracted {
	switch domain {
	case DomainAllergyENT:
		d := pick(r, []int{3, 5, 7, 10, 14})
		return stub("Sneezing and itchy eyes",
			Symptom{Label: "sneezing", Severity: SeverityModerate, DurationDays: days(d)},
			Symptom{Label: "itchy eyes", Severity: SeverityMild, DurationDays: days(d)},
		)
	case DomainDigestive:
		d := pick(r, []int{1, 2, 3, 5, 7, 10})
		return stub("Bloating after meals",
			Symptom{Label: "bloating", Severity: SeverityMild, DurationDays: days(d)})
	case DomainSkin:
		d := pick(r, []int{7, 10, 14, 21})
		return stub("Dry skin and itching",
			Symptom{Label: "dry skin", Severity: SeverityMild, DurationDays: days(d)})
	case DomainPain:
		d := pick(r, []int{1, 2, 3, 5})
		sev := pick(r, []string{SeverityMild, SeverityModerate})
		return stub("Headache",
			Symptom{Label: "headache", Severity: sev, DurationDays: days(d)})
	case DomainEye:
		d := pick(r, []int{1, 2, 3})
		return stub("Eye irritation",
			Symptom{Label: "eye irritation", Severity: SeverityMild, DurationDays: days(d)})
	case DomainUrology:
		d := pick(r, []int{1, 2, 3, 5})
		return stub("Burning urination",
			Symptom{Label: "burning urination", Severity: SeverityModerate, DurationDays: days(d)})
	}

	d := pick(r, []int{1, 2, 3, 5, 7})
	return stub("Cough and sore throat",
		Symptom{Label: "cough", Severity: SeverityModerate, DurationDays: days(d)},
		Symptom{Label: "sore throat", Severity: SeverityMild, DurationDays: days(d)},
	)
}

func stub(presenting string, symptoms ...Symptom) Extracted {
	return Extracted{
		SchemaVersion:     SchemaVersion,
		PresentingProblem: presenting,
		Symptoms:          symptoms,
		RedFlags:          []string{},
	}
}

// LowInformation is the hand-authored visit with an unspecified symptom and
// no red flags. Its domain is DomainOther.
func LowInformation() Extracted {
	return stub("Unspecified symptom",
		Symptom{Label: "unspecified symptom", Severity: SeverityUnknown})
}

// RedFlag is the hand-authored visit presenting dyspnea with chest pain.
// Its domain is DomainRespiratory.
func RedFlag() Extracted {
	e := stub("Dyspnea and chest pain",
		Symptom{Label: "dyspnea", Severity: SeveritySevere, DurationDays: days(1)},
		Symptom{Label: "chest pain", Severity: SeveritySevere, DurationDays: days(1)},
	)
	e.RedFlags = []string{"dyspnea", "chest_pain"}
	return e
}

// ForCase returns the intake stub of a single case bundle. Seeds 101 and 102
// are the red-flag and low-information fixtures.
func ForCase(seed int64) Extracted {
	switch seed {
	case 101:
		return RedFlag()
	case 102:
		e := LowInformation()
		e.Symptoms[0].Notes = "Patient unable to describe symptom clearly; no additional details."
		return e
	}
	m := seed % 3
	if m < 0 {
		m += 3
	}
	switch m {
	case 0:
		return stub("Sneezing and itchy eyes for one week",
			Symptom{Label: "sneezing", Severity: SeverityModerate, DurationDays: days(7)},
			Symptom{Label: "itchy eyes", Severity: SeverityMild, DurationDays: days(7)},
		)
	case 1:
		return stub("Dry skin and mild itching",
			Symptom{Label: "dry skin", Severity: SeverityMild, DurationDays: days(14)})
	default:
		return stub("Occasional bloating after meals",
			Symptom{Label: "bloating", Severity: SeverityMild, DurationDays: days(10)})
	}
}
