package render

import (
	"image"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"

	"Popmap_discord_bot/internal/utils"
)

type point struct{ x, y float64 }

// ring 投影済みの閉じた座標列
type ring []point

// projection 経度緯度を地図領域のピクセル座標へ変換する（縦横比を保つ）
type projection struct {
	area   image.Rectangle
	scale  float64
	offX   float64
	offY   float64
	minY   float64
	minLat float64
	maxLat float64
}

func newProjection(area image.Rectangle, minLat, maxLat float64) projection {
	top := utils.MercatorY(maxLat)
	bottom := utils.MercatorY(minLat)
	spanY := bottom - top
	if spanY <= 0 {
		spanY = 1
	}
	scale := math.Min(float64(area.Dx()), float64(area.Dy())/spanY)
	return projection{
		area:   area,
		scale:  scale,
		offX:   float64(area.Min.X) + (float64(area.Dx())-scale)/2,
		offY:   float64(area.Min.Y) + (float64(area.Dy())-scale*spanY)/2,
		minY:   top,
		minLat: minLat,
		maxLat: maxLat,
	}
}

func (p projection) project(lng, lat float64) point {
	if lat > p.maxLat {
		lat = p.maxLat
	}
	if lat < p.minLat {
		lat = p.minLat
	}
	x, y := utils.LngLatToMercator(lng, lat)
	return point{
		x: p.offX + x*p.scale,
		y: p.offY + (y-p.minY)*p.scale,
	}
}

// unproject 画像座標を経度緯度に戻す（地図範囲外でも外挿する）
func (p projection) unproject(pt point) utils.LngLat {
	return utils.MercatorToLngLat((pt.x-p.offX)/p.scale, (pt.y-p.offY)/p.scale+p.minY)
}

// projectGeometry Polygon/MultiPolygonの全リングを投影する。
// 先頭リングは外周、以降は穴（even-oddで扱うので区別はしない）
func (p projection) projectGeometry(g *geojson.Geometry) (rings []ring, outers []ring) {
	if g == nil {
		return nil, nil
	}
	var polygons [][][][]float64
	switch {
	case g.IsPolygon():
		polygons = [][][][]float64{g.Polygon}
	case g.IsMultiPolygon():
		polygons = g.MultiPolygon
	}
	for _, poly := range polygons {
		for i, coords := range poly {
			r := make(ring, 0, len(coords))
			for _, c := range coords {
				if len(c) < 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
					continue
				}
				r = append(r, p.project(c[0], c[1]))
			}
			if len(r) < 3 {
				continue
			}
			rings = append(rings, r)
			if i == 0 {
				outers = append(outers, r)
			}
		}
	}
	return rings, outers
}

func ringsBounds(rings []ring) image.Rectangle {
	if len(rings) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rings {
		for _, pt := range r {
			minX = math.Min(minX, pt.x)
			minY = math.Min(minY, pt.y)
			maxX = math.Max(maxX, pt.x)
			maxY = math.Max(maxY, pt.y)
		}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
}

// contains even-oddでの内外判定
func contains(rings []ring, x, y float64) bool {
	inside := false
	for _, r := range rings {
		n := len(r)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := r[i], r[j]
			if (a.y > y) != (b.y > y) {
				crossX := a.x + (y-a.y)/(b.y-a.y)*(b.x-a.x)
				if x < crossX {
					inside = !inside
				}
			}
		}
	}
	return inside
}

// signedArea シューレース公式
func signedArea(r ring) float64 {
	area := 0.0
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i].x*r[j].y - r[j].x*r[i].y
	}
	return area / 2
}

// visualCentroid 最大の外周リングの重心。面積が0ならバウンディングボックス中心
func visualCentroid(outers []ring) point {
	var best ring
	bestArea := -1.0
	for _, r := range outers {
		if a := math.Abs(signedArea(r)); a > bestArea {
			best, bestArea = r, a
		}
	}
	if best == nil {
		return point{}
	}
	area := signedArea(best)
	if math.Abs(area) < 1e-9 {
		b := ringsBounds([]ring{best})
		return point{x: float64(b.Min.X+b.Max.X) / 2, y: float64(b.Min.Y+b.Max.Y) / 2}
	}
	var cx, cy float64
	n := len(best)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := best[i].x*best[j].y - best[j].x*best[i].y
		cx += (best[i].x + best[j].x) * cross
		cy += (best[i].y + best[j].y) * cross
	}
	return point{x: cx / (6 * area), y: cy / (6 * area)}
}

// fillMask スキャンラインでリングを塗りつぶしたマスクを作る（even-odd）
func fillMask(rings []ring, bounds image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(bounds)
	var nodes []float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		fy := float64(y) + 0.5
		nodes = nodes[:0]
		for _, r := range rings {
			n := len(r)
			for i := 0; i < n; i++ {
				j := (i + 1) % n
				a, b := r[i], r[j]
				if (a.y < fy && b.y >= fy) || (b.y < fy && a.y >= fy) {
					nodes = append(nodes, a.x+(fy-a.y)/(b.y-a.y)*(b.x-a.x))
				}
			}
		}
		sort.Float64s(nodes)
		for i := 0; i+1 < len(nodes); i += 2 {
			xs := int(math.Round(nodes[i]))
			xe := int(math.Round(nodes[i+1]))
			if xs < bounds.Min.X {
				xs = bounds.Min.X
			}
			if xe > bounds.Max.X {
				xe = bounds.Max.X
			}
			off := mask.PixOffset(xs, y)
			for x := xs; x < xe; x++ {
				mask.Pix[off] = 0xFF
				off++
			}
		}
	}
	return mask
}

// strokeMask リングの輪郭を太さweightで描いたマスク
func strokeMask(rings []ring, bounds image.Rectangle, weight float64) *image.Alpha {
	w := int(math.Round(weight))
	if w < 1 {
		w = 1
	}
	bounds = bounds.Inset(-w)
	mask := image.NewAlpha(bounds)
	for _, r := range rings {
		n := len(r)
		for i := 0; i < n; i++ {
			a, b := r[i], r[(i+1)%n]
			drawLine(mask, int(math.Round(a.x)), int(math.Round(a.y)), int(math.Round(b.x)), int(math.Round(b.y)), w)
		}
	}
	return mask
}

// drawLine ブレゼンハム法。各点にw×wの正方形を置く
func drawLine(mask *image.Alpha, x1, y1, x2, y2, w int) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := -1, -1
	if x1 < x2 {
		sx = 1
	}
	if y1 < y2 {
		sy = 1
	}
	err := dx - dy
	half := (w - 1) / 2
	b := mask.Bounds()
	for {
		for oy := -half; oy < w-half; oy++ {
			for ox := -half; ox < w-half; ox++ {
				px, py := x1+ox, y1+oy
				if px >= b.Min.X && px < b.Max.X && py >= b.Min.Y && py < b.Max.Y {
					mask.Pix[mask.PixOffset(px, py)] = 0xFF
				}
			}
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
