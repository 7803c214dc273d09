package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

const maxEncodedBytes = 8 * 1024 * 1024

// FailureMessage 描画面を初期化できなかったときの表示
const FailureMessage = "Failed to load map. This may be due to browser security settings or network issues."

// Encode PNGで収まらなければJPEG(品質85)にする
func Encode(img image.Image) ([]byte, string, string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err == nil {
		if buf.Len() <= maxEncodedBytes {
			return buf.Bytes(), "image/png", "popmap.png", nil
		}
	}
	buf.Reset()
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", "", err
	}
	return buf.Bytes(), "image/jpeg", "popmap.jpg", nil
}

// FailureImage 失敗メッセージだけを中央に描いた画像
func FailureImage(width, height int) *image.NRGBA {
	if width <= 0 || width > MaxDimension {
		width = DefaultWidth
	}
	if height <= 0 || height > MaxDimension {
		height = DefaultHeight
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}}, image.Point{}, draw.Src)
	face := resolveFontFace(16)
	w := measureText(face, FailureMessage)
	ascent := face.Metrics().Ascent.Ceil()
	drawText(img, FailureMessage, (width-w)/2, (height-ascent)/2+ascent, color.NRGBA{0xFF, 0x00, 0x00, 0xFF}, face)
	return img
}
