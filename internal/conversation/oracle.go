package conversation

import (
	"context"
)

// Intent is the coarse classification of an inbound message. The taxonomy
// matches what the salon flow distinguishes; anything unrecognized is
// IntentOther.
type Intent string

const (
	IntentReserve      Intent = "reservar"
	IntentCancel       Intent = "cancelar"
	IntentConsult      Intent = "consultar"
	IntentAvailability Intent = "disponibilidad"
	IntentGreeting     Intent = "saludo"
	IntentModify       Intent = "modificar"
	IntentOther        Intent = "otro"
)

// SlotValues is the oracle's raw extraction output. Field values are
// unnormalized user language; empty means not extracted.
type SlotValues struct {
	Service string `json:"servicio"`
	Date    string `json:"fecha"`
	Time    string `json:"hora"`
	Name    string `json:"nombre"`
}

// Oracle is the natural-language understanding service: fallible, possibly
// slow, possibly wrong. Callers degrade gracefully on any error, treating it
// as "no new information".
type Oracle interface {
	ExtractSlots(ctx context.Context, turns []Turn) (SlotValues, error)
	ClassifyIntent(ctx context.Context, text string) (Intent, error)
}

// StaticOracle returns fixed values, for tests and offline development.
type StaticOracle struct {
	Values SlotValues
	Intent Intent
	Err    error
}

func (o *StaticOracle) ExtractSlots(context.Context, []Turn) (SlotValues, error) {
	if o.Err != nil {
		return SlotValues{}, o.Err
	}
	return o.Values, nil
}

func (o *StaticOracle) ClassifyIntent(context.Context, string) (Intent, error) {
	if o.Err != nil {
		return IntentOther, o.Err
	}
	if o.Intent == "" {
		return IntentOther, nil
	}
	return o.Intent, nil
}
