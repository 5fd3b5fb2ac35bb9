package overlay

import "fmt"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemePink  Theme = "pink"
)

// Themes lists the selectable themes.
var Themes = []Theme{ThemeLight, ThemeDark, ThemePink}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

type Language string

const (
	LangEnglish Language = "en"
	LangSwahili Language = "sw"
	LangArabic  Language = "ar"
	LangChinese Language = "zh"
)

var Languages = []Language{LangEnglish, LangSwahili, LangArabic, LangChinese}

func ParseLanguage(s string) (Language, error) {
	for _, l := range Languages {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool { return l == LangArabic }

// Theme returns the stored theme, light when unset or unknown.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := ParseTheme(s.readString(KeyTheme))
	if err != nil {
		return ThemeLight
	}
	return t
}

func (s *Store) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.set(KeyTheme, []byte(t))
}

// Language returns the stored language, English when unset or unknown.
func (s *Store) Language() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := ParseLanguage(s.readString(KeyLanguage))
	if err != nil {
		return LangEnglish
	}
	return l
}

func (s *Store) SetLanguage(l Language) error {
	if _, err := ParseLanguage(string(l)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.set(KeyLanguage, []byte(l))
}
