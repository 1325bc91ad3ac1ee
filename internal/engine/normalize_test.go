package engine

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase scheme and host", "HTTPS://WWW.Example.COM/Watch", "https://www.example.com/Watch"},
		{"http folds into https", "http://Example.com/a/", "https://example.com/a"},
		{"default https port removed", "https://example.com:443/a", "https://example.com/a"},
		{"default http port removed", "http://example.com:80/a", "https://example.com/a"},
		{"custom port kept", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"custom port survives scheme fold", "http://example.com:443/a", "https://example.com:443/a"},
		{"utm params stripped", "https://example.com/a?utm_source=x&utm_medium=y&id=1", "https://example.com/a?id=1"},
		{"click ids stripped", "https://example.com/a?fbclid=abc&gclid=def&id=1", "https://example.com/a?id=1"},
		{"mailchimp ids stripped", "https://example.com/a?mc_cid=1&mc_eid=2&v=x", "https://example.com/a?v=x"},
		{"params sorted", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"fragment dropped", "https://example.com/a#section", "https://example.com/a"},
		{"trailing slash removed", "https://example.com/watch/", "https://example.com/watch"},
		{"root slash kept", "https://example.com/", "https://example.com/"},
		{"only one slash trimmed", "https://example.com/a//", "https://example.com/a/"},
		{"all params stripped leaves clean url", "https://example.com/a?utm_campaign=x", "https://example.com/a"},
		{"path case preserved", "https://example.com/Details/XYZ", "https://example.com/Details/XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLEquivalence(t *testing.T) {
	variants := []string{
		"https://www.youtube.com/watch?v=abc&utm_source=share",
		"HTTPS://WWW.YOUTUBE.COM:443/watch?v=abc",
		"https://www.youtube.com/watch/?v=abc#t=30",
		"https://www.youtube.com/watch?fbclid=xyz&v=abc",
		"http://www.youtube.com/watch?v=abc",
	}
	first, err := NormalizeURL(variants[0])
	if err != nil {
		t.Fatalf("NormalizeURL error: %v", err)
	}
	for _, v := range variants[1:] {
		got, err := NormalizeURL(v)
		if err != nil {
			t.Fatalf("NormalizeURL(%q) error: %v", v, err)
		}
		if got != first {
			t.Errorf("NormalizeURL(%q) = %q, want %q", v, got, first)
		}
	}
}

func TestNormalizeURLErrors(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"not a url",
		"http://",
		"/relative/path",
		"http://exa mple.com/",
	}
	for _, in := range bad {
		if _, err := NormalizeURL(in); err == nil {
			t.Errorf("NormalizeURL(%q) expected error", in)
		}
	}
}
