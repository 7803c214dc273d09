package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"Popmap_discord_bot/internal/choropleth"
)

const (
	panelMargin      = 10
	panelPadding     = 8
	panelFontSize    = 14
	panelTitleSize   = 15
	panelSwatch      = 18
	panelRowGap      = 4
	tooltipFontSize  = 14
	tooltipPadding   = 6
	tooltipArrowSize = 6
)

var (
	panelBackground   = color.NRGBA{0xFF, 0xFF, 0xFF, 0xCC}
	panelTextColor    = color.NRGBA{0x33, 0x33, 0x33, 0xFF}
	tooltipBackground = color.NRGBA{0xFF, 0xFF, 0xFF, 0xF0}
	tooltipBorder     = color.NRGBA{0x99, 0x99, 0x99, 0xFF}
)

// drawPanel 凡例パネルを地図領域の指定位置に描く
func drawPanel(img *image.NRGBA, p choropleth.Panel, area image.Rectangle) {
	face := resolveFontFace(panelFontSize)
	titleFace := resolveFontFace(panelTitleSize)
	lineHeight := face.Metrics().Height.Ceil()
	rowHeight := panelSwatch
	if lineHeight > rowHeight {
		rowHeight = lineHeight
	}

	width := measureText(titleFace, p.Title)
	for _, e := range p.Entries {
		if w := panelSwatch + panelRowGap*2 + measureText(face, e.Label); w > width {
			width = w
		}
	}
	width += panelPadding * 2
	headerHeight := titleFace.Metrics().Height.Ceil()
	height := panelPadding*2 + headerHeight + panelRowGap + len(p.Entries)*(rowHeight+panelRowGap)

	var origin image.Point
	switch p.Position {
	case "topleft":
		origin = image.Pt(area.Min.X+panelMargin, area.Min.Y+panelMargin)
	case "topright":
		origin = image.Pt(area.Max.X-panelMargin-width, area.Min.Y+panelMargin)
	case "bottomleft":
		origin = image.Pt(area.Min.X+panelMargin, area.Max.Y-panelMargin-height)
	default:
		origin = image.Pt(area.Max.X-panelMargin-width, area.Max.Y-panelMargin-height)
	}
	box := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(width, height))}
	draw.Draw(img, box, &image.Uniform{C: panelBackground}, image.Point{}, draw.Over)

	y := box.Min.Y + panelPadding + titleFace.Metrics().Ascent.Ceil()
	drawText(img, p.Title, box.Min.X+panelPadding, y, panelTextColor, titleFace)
	y = box.Min.Y + panelPadding + headerHeight + panelRowGap

	ascent := face.Metrics().Ascent.Ceil()
	for _, e := range p.Entries {
		swatch := image.Rect(box.Min.X+panelPadding, y, box.Min.X+panelPadding+panelSwatch, y+panelSwatch)
		draw.Draw(img, swatch, &image.Uniform{C: e.Color}, image.Point{}, draw.Src)
		textY := y + (rowHeight-lineHeight)/2 + ascent
		drawText(img, e.Label, swatch.Max.X+panelRowGap*2, textY, panelTextColor, face)
		y += rowHeight + panelRowGap
	}
}

// drawTooltip 重心の上にラベルを描く。"<br>" で改行
func drawTooltip(img *image.NRGBA, t *choropleth.Tooltip, anchor point) {
	lines := strings.Split(t.Text, choropleth.LabelBreak)
	face := resolveFontFace(tooltipFontSize)
	lineHeight := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	width := 0
	for _, line := range lines {
		if w := measureText(face, line); w > width {
			width = w
		}
	}
	width += tooltipPadding * 2
	height := len(lines)*lineHeight + tooltipPadding*2

	ax := int(anchor.x) + t.Offset.X
	ay := int(anchor.y) + t.Offset.Y
	box := image.Rect(ax-width/2, ay-tooltipArrowSize-height, ax-width/2+width, ay-tooltipArrowSize)
	if t.Direction != "" && t.Direction != "top" {
		box = box.Add(image.Pt(0, height+tooltipArrowSize*2-2*t.Offset.Y))
	}

	bounds := img.Bounds()
	if box.Min.X < bounds.Min.X {
		box = box.Add(image.Pt(bounds.Min.X-box.Min.X, 0))
	}
	if box.Max.X > bounds.Max.X {
		box = box.Add(image.Pt(bounds.Max.X-box.Max.X, 0))
	}
	if box.Min.Y < bounds.Min.Y+titleHeight {
		box = box.Add(image.Pt(0, bounds.Min.Y+titleHeight-box.Min.Y))
	}

	border := box.Inset(-1)
	draw.Draw(img, border, &image.Uniform{C: tooltipBorder}, image.Point{}, draw.Over)
	draw.Draw(img, box, &image.Uniform{C: tooltipBackground}, image.Point{}, draw.Src)
	for i, line := range lines {
		y := box.Min.Y + tooltipPadding + i*lineHeight + ascent
		drawText(img, line, box.Min.X+tooltipPadding, y, panelTextColor, face)
	}
}
