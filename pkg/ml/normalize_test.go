package ml

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only",
			in:   " \t\n  ",
			want: "",
		},
		{
			name: "lowercases",
			in:   "URGENT Notice",
			want: "urgent notice",
		},
		{
			name: "collapses whitespace",
			in:   "act   now\t\tplease\n",
			want: "act now please",
		},
		{
			name: "strips BOM and zero-width space",
			in:   "\uFEFFverify​ account",
			want: "verify account",
		},
		{
			name: "folds smart quotes and dashes",
			in:   "“don’t” — pay – now",
			want: `"don't" - pay - now`,
		},
		{
			name: "replaces control chars with space",
			in:   "pay\x00the\x1ffeenow",
			want: "pay the fee now",
		},
		{
			name: "NFKC folds fullwidth forms",
			in:   "ＵＲＧＥＮＴ",
			want: "urgent",
		},
		{
			name: "NFKC folds ligatures",
			in:   "veriﬁcation",
			want: "verification",
		},
		{
			name: "mixed message survives intact",
			in:   "  Final Notice: transfer $500 via bit.ly/x  ",
			want: "final notice: transfer $500 via bit.ly/x",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"URGENT: verify NOW",
		"\uFEFF“Cléver” — text\x07with junk",
		"Ｕrgent ﬁnal notice",
		"plain already-normalized text",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeNeverPanics(t *testing.T) {
	// Invalid UTF-8 and exotic input must still produce a string.
	inputs := []string{
		string([]byte{0xff, 0xfe, 0xfd}),
		"‮‭ bidi controls",
		string(rune(0x9f)),
	}
	for _, in := range inputs {
		got := Normalize(in)
		t.Logf("Normalize(%q) = %q", in, got)
	}
}
