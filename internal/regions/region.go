package regions

import (
	"fmt"
	"math"
	"sort"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// Region 国・地域1件。ロード後は変更しない
type Region struct {
	ID         string
	Name       string
	Population float64 // 数値でない場合はNaN
	Geometry   *geojson.Geometry
	Properties map[string]interface{}
}

// HasPopulation 人口が有効な数値か
func (r *Region) HasPopulation() bool {
	return !math.IsNaN(r.Population) && r.Population >= 0
}

// Dataset 読み込んだ地域の集合。元データの順序を保持する
type Dataset struct {
	Regions []*Region
	byID    map[string]*Region
	byName  map[string]*Region
}

// NewDataset 地域リストからインデックスを構築
func NewDataset(list []*Region) *Dataset {
	ds := &Dataset{
		Regions: list,
		byID:    make(map[string]*Region, len(list)),
		byName:  make(map[string]*Region, len(list)),
	}
	for _, r := range list {
		if _, exists := ds.byID[r.ID]; !exists {
			ds.byID[r.ID] = r
		}
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if _, exists := ds.byName[key]; !exists && key != "" {
			ds.byName[key] = r
		}
	}
	return ds
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Regions)
}

// Get IDで検索
func (d *Dataset) Get(id string) (*Region, bool) {
	if d == nil {
		return nil, false
	}
	r, ok := d.byID[id]
	return r, ok
}

// Find IDまたは名前（大文字小文字を区別しない）で検索
func (d *Dataset) Find(query string) (*Region, bool) {
	if d == nil {
		return nil, false
	}
	query = strings.TrimSpace(query)
	if r, ok := d.byID[query]; ok {
		return r, true
	}
	if r, ok := d.byID[strings.ToUpper(query)]; ok {
		return r, true
	}
	r, ok := d.byName[strings.ToLower(query)]
	return r, ok
}

// SortedByName 名前順のコピー
func (d *Dataset) SortedByName() []*Region {
	if d == nil {
		return nil
	}
	out := make([]*Region, len(d.Regions))
	copy(out, d.Regions)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (r *Region) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ID)
}
