package fileglob

import "testing"

func TestMatchDefaultsToEverything(t *testing.T) {
	m, err := Compile("")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, name := range []string{"a.pdf", "deep/nested/file.csv", "no-extension"} {
		if !m.Match(name) {
			t.Errorf("expected %q to match the default pattern", name)
		}
	}
}

func TestMatchExtensionPattern(t *testing.T) {
	m, err := Compile("**/*.pdf")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"invoice.pdf", true},
		{"invoice.PDF", true},
		{"statements/2026/jan.pdf", true},
		{"notes.txt", false},
		{"archive/notes.txt", false},
		{"pdf", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.name); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMatchDirectoryScopedPattern(t *testing.T) {
	m, err := Compile("inbox/*.csv")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("inbox/march.csv") {
		t.Error("expected inbox/march.csv to match")
	}
	if m.Match("march.csv") {
		t.Error("bare name should not match a directory-scoped pattern")
	}
	if m.Match("inbox/deep/march.csv") {
		t.Error("single star should not cross separators")
	}
}

func TestMatchLeadingSlashIgnored(t *testing.T) {
	m, err := Compile("**/*.png")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("/images/logo.png") {
		t.Error("leading slash should be ignored")
	}
}

func TestCompileRejectsMalformedPattern(t *testing.T) {
	if _, err := Compile("[unterminated"); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
