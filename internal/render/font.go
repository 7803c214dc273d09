package render

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	gofontOnce      sync.Once
	gofontFaceCache = make(map[float64]font.Face)
	gofontErr       error
	gofontMu        sync.Mutex
	gofontData      *opentype.Font
)

func getGoFontFace(size float64) font.Face {
	gofontOnce.Do(func() {
		gofontData, gofontErr = opentype.Parse(goregular.TTF)
	})
	if gofontErr != nil || gofontData == nil {
		return nil
	}
	gofontMu.Lock()
	defer gofontMu.Unlock()
	if face, ok := gofontFaceCache[size]; ok {
		return face
	}
	face, err := opentype.NewFace(gofontData, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	gofontFaceCache[size] = face
	return face
}

// resolveFontFace goフォントが使えなければbasicfontに落とす
func resolveFontFace(size float64) font.Face {
	if face := getGoFontFace(size); face != nil {
		return face
	}
	return basicfont.Face7x13
}

func drawText(img draw.Image, text string, x, y int, c color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func measureText(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

func drawTitle(img draw.Image, text string, width, height int, size float64) {
	face := resolveFontFace(size)
	textWidth := measureText(face, text)
	ascent := face.Metrics().Ascent.Ceil()
	x := (width - textWidth) / 2
	y := (height-ascent)/2 + ascent
	drawText(img, text, x, y, color.NRGBA{255, 255, 255, 255}, face)
}
