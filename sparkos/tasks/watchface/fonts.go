package watchface

import (
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/freeserif"
)

var (
	dateFont tinyfont.Fonter = &freesans.Bold12pt7b
	weekFont tinyfont.Fonter = &freesans.Bold9pt7b
)

// WeekdayLetters label the weekday cells, Sunday first.
var WeekdayLetters = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// TimeFont resolves a font choice; unknown choices use the default font.
func TimeFont(c FontChoice) tinyfont.Fonter {
	switch c {
	case FontAlt1:
		return &freemono.Bold24pt7b
	case FontAlt2:
		return &freeserif.Bold24pt7b
	default:
		return &freesans.Bold24pt7b
	}
}
