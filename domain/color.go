package domain

import (
	"fmt"
	"math/rand/v2"

	"github.com/gookit/color"
)

// Pastel bounds for display colors: any hue, low saturation, high lightness.
const (
	pastelMinSaturation = 25
	pastelMaxSaturation = 45
	pastelMinLightness  = 75
	pastelMaxLightness  = 90
)

// PastelColor returns a random light color as "#rrggbb".
func PastelColor() string {
	h := rand.IntN(361)
	s := pastelMinSaturation + rand.IntN(pastelMaxSaturation-pastelMinSaturation+1)
	l := pastelMinLightness + rand.IntN(pastelMaxLightness-pastelMinLightness+1)
	return HslToHex(h, s, l)
}

// HslToHex converts hue (0-360), saturation and lightness (0-100) to "#rrggbb".
func HslToHex(h, s, l int) string {
	rgb := color.HslIntToRgb(h, s, l)
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}
