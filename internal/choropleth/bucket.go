package choropleth

import (
	"fmt"
	"image/color"
	"math"
)

// Bucket 人口区分。値が大きいほど人口が多い区分（NoDataは最下位）
type Bucket int

const (
	BucketNoData Bucket = iota
	BucketUnder1M
	Bucket1M
	Bucket10M
	Bucket20M
	Bucket50M
	Bucket100M
)

const (
	threshold1M   = 1_000_000
	threshold10M  = 10_000_000
	threshold20M  = 20_000_000
	threshold50M  = 50_000_000
	threshold100M = 100_000_000
)

var bucketColors = map[Bucket]color.NRGBA{
	BucketNoData:  {0x55, 0x55, 0x55, 0xFF},
	BucketUnder1M: {0xFF, 0xF7, 0xEC, 0xFF},
	Bucket1M:      {0xFE, 0xE8, 0xC8, 0xFF},
	Bucket10M:     {0xFD, 0xBB, 0x84, 0xFF},
	Bucket20M:     {0xFC, 0x8D, 0x59, 0xFF},
	Bucket50M:     {0xE3, 0x4A, 0x33, 0xFF},
	Bucket100M:    {0xB3, 0x00, 0x00, 0xFF},
}

// BucketFor 人口値から区分を決定する。NaN・負数はNoData
// 上位区分の境界は排他（ちょうど100,000,000は50M区分）
func BucketFor(population float64) Bucket {
	if math.IsNaN(population) || population < 0 {
		return BucketNoData
	}
	switch {
	case population > threshold100M:
		return Bucket100M
	case population > threshold50M:
		return Bucket50M
	case population > threshold20M:
		return Bucket20M
	case population > threshold10M:
		return Bucket10M
	case population > threshold1M:
		return Bucket1M
	default:
		return BucketUnder1M
	}
}

// ColorFor BucketFor(population).Color() の短縮形
func ColorFor(population float64) color.NRGBA {
	return BucketFor(population).Color()
}

// Severity 並び順。NoDataは-1
func (b Bucket) Severity() int {
	if b == BucketNoData {
		return -1
	}
	return int(b) - int(BucketUnder1M)
}

func (b Bucket) Color() color.NRGBA {
	if c, ok := bucketColors[b]; ok {
		return c
	}
	return bucketColors[BucketNoData]
}

// Hex "#rrggbb" 形式
func (b Bucket) Hex() string {
	return HexColor(b.Color())
}

func (b Bucket) String() string {
	switch b {
	case BucketUnder1M:
		return "<=1M"
	case Bucket1M:
		return ">1M"
	case Bucket10M:
		return ">10M"
	case Bucket20M:
		return ">20M"
	case Bucket50M:
		return ">50M"
	case Bucket100M:
		return ">100M"
	default:
		return "no-data"
	}
}

// Buckets 有効な区分を昇順で返す（NoDataを含まない）
func Buckets() []Bucket {
	return []Bucket{BucketUnder1M, Bucket1M, Bucket10M, Bucket20M, Bucket50M, Bucket100M}
}

// HexColor アルファを無視して "#rrggbb" を返す
func HexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
