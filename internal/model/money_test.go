package model

import "testing"

func TestParseCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"typical price", "99.00", 9900},
		{"with cents", "1234.56", 123456},
		{"no decimals", "15", 1500},
		{"single decimal", "9.5", 950},
		{"empty string", "", 0},
		{"invalid", "abc", 0},
		{"zero", "0.00", 0},
		{"negative", "-2.50", -250},
		{"rounding", "0.005", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCents(tt.input)
			if got != tt.want {
				t.Errorf("ParseCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  string
	}{
		{"typical", 9900, "99.00"},
		{"sub-dollar", 5, "0.05"},
		{"tens of cents", 50, "0.50"},
		{"zero", 0, "0.00"},
		{"negative", -250, "-2.50"},
		{"large", 123456, "1234.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCents(tt.input)
			if got != tt.want {
				t.Errorf("FormatCents(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCents_RoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 9900, 123456} {
		if got := ParseCents(FormatCents(cents)); got != cents {
			t.Errorf("round trip %d → %q → %d", cents, FormatCents(cents), got)
		}
	}
}

func TestPercentOf(t *testing.T) {
	tests := []struct {
		name    string
		cents   int64
		percent int
		want    int64
	}{
		{"ten percent", 20000, 10, 2000},
		{"hundred percent", 9900, 100, 9900},
		{"zero percent", 9900, 0, 0},
		{"rounds to nearest cent", 999, 33, 330}, // 329.67 → 330
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentOf(tt.cents, tt.percent)
			if got != tt.want {
				t.Errorf("PercentOf(%d, %d) = %d, want %d", tt.cents, tt.percent, got, tt.want)
			}
		})
	}
}
