package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/overlay"
)

// Theme holds color constants for the TUI.
type Theme struct {
	Name              overlay.Theme
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	OwnMessageColor   tcell.Color
	BadgeColor        tcell.Color
	LockColor         tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// ThemeFor returns the palette for a stored theme preference. Unknown
// names get the light palette.
func ThemeFor(name overlay.Theme) *Theme {
	switch name {
	case overlay.ThemeDark:
		return darkTheme()
	case overlay.ThemePink:
		return pinkTheme()
	}
	return lightTheme()
}

func lightTheme() *Theme {
	return &Theme{
		Name:              overlay.ThemeLight,
		BgColor:           tcell.ColorWhite,
		FgColor:           tcell.ColorBlack,
		MutedColor:        tcell.ColorGray,
		BorderColor:       tcell.ColorSilver,
		BorderFocusColor:  tcell.ColorTeal,
		TableHeaderFg:     tcell.ColorTeal,
		TableHeaderBg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorWhite,
		TableCursorBg:     tcell.ColorTeal,
		CrumbActiveFg:     tcell.ColorWhite,
		CrumbActiveBg:     tcell.ColorTeal,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorSilver,
		MenuKeyColor:      tcell.ColorTeal,
		NumericKeyColor:   tcell.ColorPurple,
		TitleColor:        tcell.ColorTeal,
		CounterColor:      tcell.ColorNavy,
		OwnMessageColor:   tcell.ColorDarkGreen,
		BadgeColor:        tcell.ColorGreen,
		LockColor:         tcell.ColorOlive,
		FlashInfoColor:    tcell.ColorNavy,
		FlashWarnColor:    tcell.ColorDarkOrange,
		FlashErrColor:     tcell.ColorRed,
		PromptBorderColor: tcell.ColorTeal,
	}
}

// darkTheme is the k9s-inspired palette.
func darkTheme() *Theme {
	return &Theme{
		Name:              overlay.ThemeDark,
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		MutedColor:        tcell.ColorDimGray,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		OwnMessageColor:   tcell.ColorLightGreen,
		BadgeColor:        tcell.ColorLime,
		LockColor:         tcell.ColorGold,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

func pinkTheme() *Theme {
	return &Theme{
		Name:              overlay.ThemePink,
		BgColor:           tcell.ColorLavenderBlush,
		FgColor:           tcell.ColorMaroon,
		MutedColor:        tcell.ColorRosyBrown,
		BorderColor:       tcell.ColorHotPink,
		BorderFocusColor:  tcell.ColorDeepPink,
		TableHeaderFg:     tcell.ColorDeepPink,
		TableHeaderBg:     tcell.ColorLavenderBlush,
		TableCursorFg:     tcell.ColorWhite,
		TableCursorBg:     tcell.ColorHotPink,
		CrumbActiveFg:     tcell.ColorWhite,
		CrumbActiveBg:     tcell.ColorDeepPink,
		CrumbInactiveFg:   tcell.ColorMaroon,
		CrumbInactiveBg:   tcell.ColorPink,
		MenuKeyColor:      tcell.ColorDeepPink,
		NumericKeyColor:   tcell.ColorMediumVioletRed,
		TitleColor:        tcell.ColorMediumVioletRed,
		CounterColor:      tcell.ColorPurple,
		OwnMessageColor:   tcell.ColorMediumVioletRed,
		BadgeColor:        tcell.ColorDeepPink,
		LockColor:         tcell.ColorDarkOrange,
		FlashInfoColor:    tcell.ColorPurple,
		FlashWarnColor:    tcell.ColorDarkOrange,
		FlashErrColor:     tcell.ColorRed,
		PromptBorderColor: tcell.ColorHotPink,
	}
}
