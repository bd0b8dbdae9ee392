package service

import (
	"fmt"

	"github.com/smartcity/weatherwidget/internal/domain"
	"github.com/smartcity/weatherwidget/pkg/utils"
)

const (
	tiltDamping     = 20.0
	tiltScale       = 1.02
	tiltPerspective = "perspective(1000px)"
)

// RestTransform is the card's untilted pose
func RestTransform() domain.Transform {
	return domain.Transform{
		Scale: 1,
		CSS:   tiltPerspective + " rotateX(0) rotateY(0) scale(1)",
	}
}

// TiltTransform follows a pointer at (x, y) inside a card of the given size.
// Coordinates are relative to the card's top-left corner and clamped into it.
func TiltTransform(x, y, width, height float64) domain.Transform {
	if width <= 0 || height <= 0 {
		return RestTransform()
	}
	x = utils.Clamp(x, 0, width)
	y = utils.Clamp(y, 0, height)

	rotateX := utils.RoundTo((y-height/2)/tiltDamping, 2)
	rotateY := utils.RoundTo((width/2-x)/tiltDamping, 2)
	return domain.Transform{
		RotateX: rotateX,
		RotateY: rotateY,
		Scale:   tiltScale,
		CSS: fmt.Sprintf("%s rotateX(%sdeg) rotateY(%sdeg) scale(%s)",
			tiltPerspective, utils.FormatNumber(rotateX), utils.FormatNumber(rotateY), utils.FormatNumber(tiltScale)),
	}
}
