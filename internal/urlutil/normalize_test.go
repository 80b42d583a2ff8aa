package urlutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/  ", "https://example.com"},
		{"http://Example.COM/path/", "http://example.com/path"},
		{"https://example.com/a/b///", "https://example.com/a/b"},
		{"https://example.com/#section", "https://example.com"},
		{"https://example.com/page#frag", "https://example.com/page"},
		{"HTTPS://EXAMPLE.com:8443/X", "https://example.com:8443/X"},
		{"example.com/path?q=1", "https://example.com/path?q=1"},
	}
	for _, c := range cases {
		got, err := Normalize(c.in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"example.com",
		"http://Example.COM/path/",
		"https://example.com:8443/X?q=1#frag",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://example.com", "https://"} {
		if got, err := Normalize(in); err == nil {
			t.Fatalf("Normalize(%q) = %q, want error", in, got)
		}
	}
}

func TestHost(t *testing.T) {
	if got := Host("https://example.com:8443/x"); got != "example.com" {
		t.Fatalf("Host = %q", got)
	}
	if got := Host("not a url"); got != "not a url" {
		t.Fatalf("Host fallback = %q", got)
	}
}
