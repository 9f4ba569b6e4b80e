package api

import "github.com/jengzang/heatmap-viewer-go/internal/interaction"

func wheelIn() interaction.Event {
	return interaction.Event{Kind: interaction.KindWheel, X: 300, Y: 200, DeltaY: -1}
}
