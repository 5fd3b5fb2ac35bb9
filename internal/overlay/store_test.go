package overlay

import (
	"slices"
	"testing"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, dir
}

func TestLockToggleRoundTrip(t *testing.T) {
	s, dir := openTemp(t)

	locked, err := s.Locks().Toggle("c1")
	if err != nil || !locked {
		t.Fatalf("Toggle(c1) = %v, %v; want true", locked, err)
	}
	if !s.Locks().Contains("c1") {
		t.Error("c1 not in lock set after toggle")
	}

	// Survives a reopen.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	s, err = Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	if got := s.Locks().List(); !slices.Equal(got, []string{"c1"}) {
		t.Errorf("List() after reopen = %v, want [c1]", got)
	}

	locked, err = s.Locks().Toggle("c1")
	if err != nil || locked {
		t.Fatalf("second Toggle(c1) = %v, %v; want false", locked, err)
	}
	if s.Locks().Contains("c1") {
		t.Error("c1 still locked after second toggle")
	}
}

func TestSetIsIdempotent(t *testing.T) {
	s := NewMemory()
	locks := s.Locks()
	for range 3 {
		if err := locks.Set("c1", true); err != nil {
			t.Fatal(err)
		}
	}
	_ = locks.Set("c2", true)
	if got := locks.List(); !slices.Equal(got, []string{"c1", "c2"}) {
		t.Errorf("List() = %v, want [c1 c2]", got)
	}
	_ = locks.Set("c1", false)
	_ = locks.Set("c1", false)
	if got := locks.List(); !slices.Equal(got, []string{"c2"}) {
		t.Errorf("List() = %v, want [c2]", got)
	}
}

func TestSetsAreIndependent(t *testing.T) {
	s := NewMemory()
	_ = s.Locks().Set("x", true)
	if s.StatusExclusions().Contains("x") {
		t.Error("lock leaked into status exclusions")
	}
	if on, _ := s.StatusExclusions().Toggle("s1"); !on {
		t.Error("Toggle(s1) = false")
	}
	if s.Locks().Contains("s1") {
		t.Error("exclusion leaked into locks")
	}
}

func TestCorruptValuesReadEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"object", `{"a":1}`},
		{"null", "null"},
		{"numbers", "[1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemory()
			_ = s.kv.set(KeyLockedChats, []byte(tt.raw))
			got := s.Locks().List()
			if got == nil || len(got) != 0 {
				t.Errorf("List() = %#v, want empty non-nil", got)
			}
			// Writing over a corrupt value works.
			if err := s.Locks().Set("c1", true); err != nil {
				t.Fatal(err)
			}
			if !s.Locks().Contains("c1") {
				t.Error("c1 missing after write over corrupt value")
			}
		})
	}
}

func TestSerializedFormIsJSONArray(t *testing.T) {
	s := NewMemory()
	_ = s.Locks().Set("c1", true)
	_ = s.Locks().Set("c2", true)
	raw, _, _ := s.kv.get(KeyLockedChats)
	if string(raw) != `["c1","c2"]` {
		t.Errorf("stored %s, want [\"c1\",\"c2\"]", raw)
	}
}

func TestThemeAndLanguageDefaults(t *testing.T) {
	s := NewMemory()
	if s.Theme() != ThemeLight {
		t.Errorf("default theme = %s, want light", s.Theme())
	}
	if s.Language() != LangEnglish {
		t.Errorf("default language = %s, want en", s.Language())
	}

	_ = s.kv.set(KeyTheme, []byte("neon"))
	if s.Theme() != ThemeLight {
		t.Errorf("unknown stored theme read as %s, want light", s.Theme())
	}

	if err := s.SetTheme(ThemePink); err != nil {
		t.Fatal(err)
	}
	if s.Theme() != ThemePink {
		t.Errorf("theme = %s, want pink", s.Theme())
	}
	if err := s.SetTheme("neon"); err == nil {
		t.Error("SetTheme(neon) should fail")
	}

	if err := s.SetLanguage(LangArabic); err != nil {
		t.Fatal(err)
	}
	if s.Language() != LangArabic || !s.Language().RTL() {
		t.Errorf("language = %s", s.Language())
	}
	if err := s.SetLanguage("fr"); err == nil {
		t.Error("SetLanguage(fr) should fail")
	}
}
