package pipeline

import (
	"image/color"

	"github.com/ironsheep/plate-gate/internal/imaging"
	"github.com/ironsheep/plate-gate/internal/store"
)

var (
	statusColors = map[store.Status]color.Color{
		store.Unauthorized: mustColor("#E01B24"),
		store.Authorized:   mustColor("#33D17A"),
		store.Unregistered: mustColor("#F6D32D"),
	}
	pendingColor = mustColor("#3584E4")
)

// StatusColor returns the highlight color for a plate status.
func StatusColor(s store.Status) color.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return pendingColor
}

func mustColor(hex string) color.Color {
	c, err := imaging.ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}
