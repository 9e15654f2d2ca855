package theme

import (
	"image/color"
)

// Theme defines the colours used for canvases and the editor chrome.
type Theme struct {
	Name string

	// Canvas
	Fill color.RGBA // Workspace background; the eraser paints with it
	Ink  color.RGBA // Draw and line tool colour
	Text color.RGBA // Text annotation colour

	// Window
	Background color.RGBA // Behind the canvas strip
	Foreground color.RGBA // Labels and status text
	Warning    color.RGBA // Notice banner text

	// Canvas strip
	StripBackground color.RGBA
	StripText       color.RGBA
	StripSelected   color.RGBA // Outline of the selected canvas

	// Tool Buttons
	ButtonBackground       color.RGBA
	ButtonBackgroundHover  color.RGBA
	ButtonBackgroundActive color.RGBA
	ButtonText             color.RGBA
	ButtonBorder           color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                   "Default",
		Fill:                   color.RGBA{0xf8, 0xf9, 0xfa, 255},
		Ink:                    color.RGBA{0, 0, 0, 255},
		Text:                   color.RGBA{0, 0, 0, 255},
		Background:             color.RGBA{0xe5, 0xe7, 0xeb, 255},
		Foreground:             color.RGBA{0x1f, 0x29, 0x37, 255},
		Warning:                color.RGBA{0xb9, 0x1c, 0x1c, 255},
		StripBackground:        color.RGBA{0xf3, 0xf4, 0xf6, 255},
		StripText:              color.RGBA{0x37, 0x41, 0x51, 255},
		StripSelected:          color.RGBA{0x25, 0x63, 0xeb, 255},
		ButtonBackground:       color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover:  color.RGBA{180, 180, 180, 255},
		ButtonBackgroundActive: color.RGBA{150, 150, 150, 255},
		ButtonText:             color.RGBA{0, 0, 0, 255},
		ButtonBorder:           color.RGBA{0, 0, 0, 255},
	}
}
