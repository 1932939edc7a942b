package render

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Layer selects which per-module vectors are drawn.
type Layer uint8

const (
	LayerTranslational Layer = 1 << iota
	LayerRotational
	LayerTotal

	AllLayers = LayerTranslational | LayerRotational | LayerTotal
)

var layerNames = map[string]Layer{
	"translational": LayerTranslational,
	"rotational":    LayerRotational,
	"total":         LayerTotal,
}

// LayerByIndex maps the toggle keys 1, 2, 3 to layers, in the order the
// check boxes appear.
var LayerByIndex = []Layer{LayerTranslational, LayerRotational, LayerTotal}

func ParseLayers(names []string) (Layer, error) {
	var l Layer
	for _, n := range names {
		layer, ok := layerNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, errors.Errorf("unknown layer %q", n)
		}
		l |= layer
	}
	return l, nil
}

func (l Layer) Has(o Layer) bool {
	return l&o == o
}

func (l Layer) Toggle(o Layer) Layer {
	return l ^ o
}

func (l Layer) Names() []string {
	var names []string
	for n, layer := range layerNames {
		if l.Has(layer) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
