package simulation

import "time"

// Observer receives progress callbacks from a run. Callbacks must not draw
// from the run source; they exist for metrics and progress reporting.
type Observer interface {
	// OnDay is called once per calendar day after its visits are written.
	// open reports the calendar state; an open day may still draw zero
	// visits.
	OnDay(day time.Time, open bool, visits int)
	// OnRecord is called after each record is appended to stream.
	OnRecord(stream string)
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) OnDay(time.Time, bool, int) {}
func (NopObserver) OnRecord(string)            {}

// Observers fans callbacks out to several observers in order.
type Observers []Observer

func (o Observers) OnDay(day time.Time, open bool, visits int) {
	for _, obs := range o {
		obs.OnDay(day, open, visits)
	}
}

func (o Observers) OnRecord(stream string) {
	for _, obs := range o {
		obs.OnRecord(stream)
	}
}
