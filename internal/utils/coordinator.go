package utils

import (
	"math"
)

const (
	// MaxMercatorLat Webメルカトルで表現できる緯度の上限
	MaxMercatorLat = 85.05112878
)

// LngLat 経度緯度
type LngLat struct {
	Lng float64
	Lat float64
}

// ClampLat 緯度をメルカトルの有効範囲に収める
func ClampLat(lat float64) float64 {
	if lat > MaxMercatorLat {
		return MaxMercatorLat
	}
	if lat < -MaxMercatorLat {
		return -MaxMercatorLat
	}
	return lat
}

// MercatorX 経度を 0..1 の正規化X座標に変換（-180が0）
func MercatorX(lng float64) float64 {
	return (lng + 180) / 360
}

// MercatorY 緯度を 0..1 の正規化Y座標に変換（北端が0）
func MercatorY(lat float64) float64 {
	latRad := ClampLat(lat) * math.Pi / 180
	return (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2
}

// LngLatToMercator 経度緯度から正規化座標
func LngLatToMercator(lng, lat float64) (float64, float64) {
	return MercatorX(lng), MercatorY(lat)
}

// MercatorToLngLat 正規化座標から経度緯度（逆変換）
func MercatorToLngLat(x, y float64) LngLat {
	lng := x*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*y)))
	return LngLat{
		Lng: lng,
		Lat: latRad * 180 / math.Pi,
	}
}
