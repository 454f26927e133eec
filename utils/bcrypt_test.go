package utils

import "testing"

func TestNormalizeAnswer(t *testing.T) {
	cases := map[string]string{
		"  Red Keyring ": "red keyring",
		"BLUE":           "blue",
		"already lower":  "already lower",
		"\tTabbed\n":     "tabbed",
	}
	for in, want := range cases {
		if got := NormalizeAnswer(in); got != want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompareSecretAnswer_FoldsCaseAndWhitespace(t *testing.T) {
	hash, err := HashSecretAnswer("Red Keyring")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := CompareSecretAnswer(string(hash), "  red keyring  "); err != nil {
		t.Fatalf("normalized variants must match: %v", err)
	}
	if err := CompareSecretAnswer(string(hash), "blue keyring"); err == nil {
		t.Fatal("different answer must not match")
	}
}
