package regions

import (
	"errors"
	"fmt"
	"math"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// ErrMalformed GeoJSONとして解釈できないペイロード
var ErrMalformed = errors.New("malformed region payload")

// PropertyKeys 各属性を探すプロパティ名（先頭から順に、大文字小文字を区別しない）
type PropertyKeys struct {
	ID         []string
	Name       []string
	Population []string
}

// DefaultPropertyKeys Natural Earth admin_0 データ向けの既定値
var DefaultPropertyKeys = PropertyKeys{
	ID:         []string{"adm0_a3", "iso_a3"},
	Name:       []string{"admin", "name"},
	Population: []string{"pop_est"},
}

// Parse FeatureCollectionを地域リストに変換する。
// Polygon/MultiPolygon以外のジオメトリを持つFeatureは読み飛ばす
func Parse(data []byte, keys PropertyKeys) (*Dataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !strings.EqualFold(fc.Type, "FeatureCollection") {
		return nil, fmt.Errorf("%w: unexpected type %q", ErrMalformed, fc.Type)
	}
	keys = keys.withDefaults()

	list := make([]*Region, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	for idx, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if !f.Geometry.IsPolygon() && !f.Geometry.IsMultiPolygon() {
			continue
		}
		props := f.Properties
		if props == nil {
			props = map[string]interface{}{}
		}
		id := lookupString(props, keys.ID)
		if id == "" || id == "-99" {
			id = featureID(f, idx)
		}
		// IDが重複したら2件目以降に連番を付ける
		if seen[id] {
			id = fmt.Sprintf("%s-%d", id, idx)
		}
		seen[id] = true
		list = append(list, &Region{
			ID:         id,
			Name:       lookupString(props, keys.Name),
			Population: lookupNumber(props, keys.Population),
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return NewDataset(list), nil
}

func (k PropertyKeys) withDefaults() PropertyKeys {
	if len(k.ID) == 0 {
		k.ID = DefaultPropertyKeys.ID
	}
	if len(k.Name) == 0 {
		k.Name = DefaultPropertyKeys.Name
	}
	if len(k.Population) == 0 {
		k.Population = DefaultPropertyKeys.Population
	}
	return k
}

func featureID(f *geojson.Feature, idx int) string {
	switch v := f.ID.(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("region-%d", idx)
}

func lookup(props map[string]interface{}, keys []string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := props[key]; ok {
			return v, true
		}
		for name, v := range props {
			if strings.EqualFold(name, key) {
				return v, true
			}
		}
	}
	return nil, false
}

func lookupString(props map[string]interface{}, keys []string) string {
	v, ok := lookup(props, keys)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return fmt.Sprintf("%d", int64(s))
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// lookupNumber 数値以外（文字列・null・欠損）はNaN
func lookupNumber(props map[string]interface{}, keys []string) float64 {
	v, ok := lookup(props, keys)
	if !ok {
		return math.NaN()
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return math.NaN()
	}
}
