package catalog

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	c := Default()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical name verbatim", "reductor ultra", "reductor ultra"},
		{"canonical name inside sentence", "quiero el reductor ultra por favor", "reductor ultra"},
		{"uppercase input", "CRIOFRECUENCIA", "criofrecuencia"},
		{"synonym", "algo para las arrugas", "rejuvenecimiento facial"},
		{"synonym for legs", "tratamiento de piernas", "piernas de acero"},
		{"canonical beats synonym", "rejuvenecimiento facial", "rejuvenecimiento facial"},
		{"unmatched returns trimmed lowercase", "  Manicura Exprés ", "manicura exprés"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCanonicalPriority(t *testing.T) {
	// "facial" is a synonym of rejuvenecimiento facial, but text containing
	// the canonical "ritual piel bonita" must resolve to the canonical name
	// even though it appears later in synonym scan order.
	c := Default()
	if got := c.Normalize("ritual piel bonita facial"); got != "ritual piel bonita" {
		t.Errorf("Normalize = %q, want ritual piel bonita", got)
	}
}

func TestMatch(t *testing.T) {
	c := Default()

	if name, ok := c.Match("me gustaría quitarme celulitis, exfoliación quizá"); !ok || name != "ritual piel bonita" {
		t.Errorf("Match = %q, %v", name, ok)
	}
	if _, ok := c.Match("hola, ¿qué tal?"); ok {
		t.Error("Match should not fire on unrelated text")
	}
}

func TestDuration(t *testing.T) {
	c := Default()

	if d := c.Duration("piernas de acero"); d != 75*time.Minute {
		t.Errorf("Duration = %v, want 75m", d)
	}
	if d := c.Duration("Reductor Ultra"); d != 60*time.Minute {
		t.Errorf("Duration should be case-insensitive, got %v", d)
	}
	if d := c.Duration("servicio inventado"); d != DefaultDuration {
		t.Errorf("unknown service Duration = %v, want fallback %v", d, DefaultDuration)
	}
}

func TestNamesOrder(t *testing.T) {
	names := Default().Names()
	if len(names) != 6 {
		t.Fatalf("len(Names) = %d, want 6", len(names))
	}
	if names[0] != "reductor ultra" || names[5] != "rejuvenecimiento facial" {
		t.Errorf("Names order unexpected: %v", names)
	}
}
