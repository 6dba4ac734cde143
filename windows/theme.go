package windows

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// tableTheme tightens the default theme for dense record tables.
type tableTheme struct{}

var _ fyne.Theme = (*tableTheme)(nil)

func (m tableTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if variant == theme.VariantLight {
		switch name {
		case theme.ColorNameBackground:
			return color.NRGBA{R: 0xfa, G: 0xfa, B: 0xfa, A: 0xff}
		case theme.ColorNameHeaderBackground:
			return color.NRGBA{R: 0xe8, G: 0xea, B: 0xed, A: 0xff}
		case theme.ColorNamePrimary:
			return color.NRGBA{R: 0x3f, G: 0x6e, B: 0x9e, A: 0xff}
		case theme.ColorNameSelection:
			return color.NRGBA{R: 0xc9, G: 0xdc, B: 0xef, A: 0xff}
		}
	} else {
		switch name {
		case theme.ColorNameBackground:
			return color.NRGBA{R: 0x1c, G: 0x1d, B: 0x20, A: 0xff}
		case theme.ColorNameHeaderBackground:
			return color.NRGBA{R: 0x2a, G: 0x2c, B: 0x31, A: 0xff}
		case theme.ColorNamePrimary:
			return color.NRGBA{R: 0x6c, G: 0x9c, B: 0xcf, A: 0xff}
		case theme.ColorNameSelection:
			return color.NRGBA{R: 0x2f, G: 0x4a, B: 0x68, A: 0xff}
		}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (m tableTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (m tableTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (m tableTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 5
	case theme.SizeNameText:
		return 13
	case theme.SizeNameSeparatorThickness:
		return 1
	}
	return theme.DefaultTheme().Size(name)
}
