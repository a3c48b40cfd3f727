package schoolmap

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain high school", "Central High School", "central"},
		{"hs abbreviation", "Central HS", "central"},
		{"dotted abbreviation", "CENTRAL H.S.", "central"},
		{"spaced abbreviation", "Oak Hill H S", "oak hill"},
		{"senior high school", "Lincoln Senior High School", "lincoln"},
		{"junior senior", "Ridgeview Junior Senior High School", "ridgeview"},
		{"stacked suffixes", "Central Senior High", "central"},
		{"secondary school", "Maplewood Secondary School", "maplewood"},
		{"shs", "Westfield SHS", "westfield"},
		{"bare high", "Mission Bay High", "mission bay"},
		{"saint expansion", "St. Mary's", "saint marys"},
		{"saint expansion with suffix", "St. Francis High School", "saint francis"},
		{"mount expansion", "Mt. Vernon HS", "mount vernon"},
		{"fort expansion", "Ft. Myers High School", "fort myers"},
		{"parenthetical", "Central High School (Ohio)", "central"},
		{"parenthetical mid-name", "Trinity (Episcopal) School", "trinity school"},
		{"hyphen splits tokens", "Central-West High", "central west"},
		{"ampersand splits tokens", "Smith & Jones Academy", "smith jones academy"},
		{"diacritics folded", "José Martí HS", "jose marti"},
		{"extra whitespace", "  Central   HS  ", "central"},
		{"apostrophe", "O'Fallon Township High School", "ofallon township"},
		{"academy survives", "Trinity Academy", "trinity academy"},
		{"school alone survives", "The Hill School", "the hill school"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"suffix only", "High School", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := Normalize(got); again != got {
				t.Fatalf("not idempotent: Normalize(%q) = %q", got, again)
			}
		})
	}
}

func TestNormalizeCollapsesVariants(t *testing.T) {
	variants := []string{
		"Central High School",
		"Central HS",
		"CENTRAL H.S.",
		"central high",
		"Central  High  School",
	}
	for _, v := range variants {
		if got := Normalize(v); got != "central" {
			t.Fatalf("Normalize(%q) = %q, want %q", v, got, "central")
		}
	}
}

func TestNormalizeEquatesAbbreviatedSpellings(t *testing.T) {
	a, b := Normalize("St. Francis H.S."), Normalize("Saint Francis HS")
	if a != b || a != "saint francis" {
		t.Fatalf("expected a shared key, got %q and %q", a, b)
	}
}

func TestNormalizeKeepsDistinctNamesApart(t *testing.T) {
	pairs := [][2]string{
		{"Trinity Academy", "Trinity High School"},
		{"Lincoln East High School", "Lincoln High School"},
		{"North High School", "Northside High School"},
	}
	for _, p := range pairs {
		a, b := Normalize(p[0]), Normalize(p[1])
		if a == b {
			t.Fatalf("expected %q and %q to keep distinct keys, both got %q", p[0], p[1], a)
		}
	}
}
