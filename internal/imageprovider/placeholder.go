package imageprovider

import (
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder canvas dimensions. Text is rendered at base size and the
// canvas scaled up so the bitmap font stays legible.
const (
	placeholderBaseWidth  = 300
	placeholderBaseHeight = 200
	placeholderScale      = 4
)

// placeholderPalette holds the background colors placeholders are keyed
// into. The brand hash picks the slot, so a brand always gets the same
// color across runs and machines.
var placeholderPalette = []color.RGBA{
	{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff}, // slate
	{R: 0x8e, G: 0x44, B: 0xad, A: 0xff}, // violet
	{R: 0x27, G: 0x60, B: 0x8b, A: 0xff}, // steel blue
	{R: 0x1e, G: 0x84, B: 0x49, A: 0xff}, // green
	{R: 0xa0, G: 0x43, B: 0x00, A: 0xff}, // rust
	{R: 0x7f, G: 0x23, B: 0x3c, A: 0xff}, // maroon
	{R: 0x34, G: 0x49, B: 0x5e, A: 0xff}, // dark slate
	{R: 0x6c, G: 0x35, B: 0x83, A: 0xff}, // plum
	{R: 0x14, G: 0x66, B: 0x66, A: 0xff}, // teal
	{R: 0x5d, G: 0x6d, B: 0x1e, A: 0xff}, // olive
}

// brandColor maps a brand name onto a stable palette slot.
func brandColor(brand string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(brand))
	return placeholderPalette[h.Sum32()%uint32(len(placeholderPalette))]
}

// renderPlaceholder synthesizes the deterministic branded stand-in image:
// a brand-colored rectangle with the brand and model names rendered on it.
func renderPlaceholder(brand, model string) image.Image {
	base := image.NewRGBA(image.Rect(0, 0, placeholderBaseWidth, placeholderBaseHeight))
	bg := brandColor(brand)
	draw.Draw(base, base.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	// Darker footer band behind the model name.
	band := image.Rect(0, placeholderBaseHeight-40, placeholderBaseWidth, placeholderBaseHeight)
	bandColor := color.RGBA{
		R: bg.R / 2,
		G: bg.G / 2,
		B: bg.B / 2,
		A: 0xff,
	}
	draw.Draw(base, band, &image.Uniform{C: bandColor}, image.Point{}, draw.Src)

	drawCenteredText(base, brand, placeholderBaseHeight/2-10)
	drawCenteredText(base, model, placeholderBaseHeight-16)

	// Scale up with nearest neighbor so the bitmap font stays sharp.
	dst := image.NewRGBA(image.Rect(0, 0,
		placeholderBaseWidth*placeholderScale, placeholderBaseHeight*placeholderScale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	return dst
}

func drawCenteredText(dst draw.Image, text string, baselineY int) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13

	width := font.MeasureString(face, text).Ceil()
	maxWidth := placeholderBaseWidth - 16
	for width > maxWidth && len(text) > 1 {
		text = text[:len(text)-1]
		width = font.MeasureString(face, text).Ceil()
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I((placeholderBaseWidth - width) / 2),
			Y: fixed.I(baselineY),
		},
	}
	d.DrawString(text)
}
