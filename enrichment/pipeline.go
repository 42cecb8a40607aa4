package enrichment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/hwi-pipeline/logging"
	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

var (
	ErrCycle             = errors.New("enrichment layers form a dependency cycle")
	ErrUnknownDependency = errors.New("enrichment layer depends on an unknown layer")
)

// Pipeline applies layers in dependency order. It is immutable once built and
// safe for concurrent use.
type Pipeline struct {
	layers []Layer
}

// NewPipeline orders layers so that every layer runs after its dependencies.
// Layers without a dependency between them keep the order they were given in.
// A second layer with an id already present is ignored.
func NewPipeline(layers ...Layer) (*Pipeline, error) {
	order, err := resolveOrder(layers)
	if err != nil {
		return nil, err
	}
	return &Pipeline{layers: order}, nil
}

// NewDefaultPipeline builds the pipeline of every built-in layer.
func NewDefaultPipeline() (*Pipeline, error) {
	return NewPipeline(DefaultLayers()...)
}

// DefaultLayers returns the built-in layers.
func DefaultLayers() []Layer {
	return []Layer{
		HealthIndexLayer{},
		RegionNormalizationLayer{},
		AntibioticIndexLayer{},
		AnalgesicIndexLayer{},
		TimeLagIndicatorLayer{},
	}
}

const (
	unvisited = iota
	visiting
	visited
)

func resolveOrder(layers []Layer) ([]Layer, error) {
	byID := make(map[string]Layer, len(layers))
	ids := make([]string, 0, len(layers))

	for _, l := range layers {
		if _, dup := byID[l.ID()]; dup {
			logging.Debug("Ignoring duplicate enrichment layer", "layer", l.ID())
			continue
		}
		byID[l.ID()] = l
		ids = append(ids, l.ID())
	}

	state := make(map[string]int, len(ids))
	order := make([]Layer, 0, len(ids))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path, id), " -> "))
		}

		state[id] = visiting
		layer := byID[id]
		next := append(append([]string{}, path...), id)

		for _, dep := range layer.DependsOn() {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("%w: %q requires %q", ErrUnknownDependency, id, dep)
			}
			if err := visit(dep, next); err != nil {
				return err
			}
		}

		state[id] = visited
		order = append(order, layer)
		return nil
	}

	for _, id := range ids {
		if err := visit(id, nil); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// Order returns the layer ids in execution order.
func (p *Pipeline) Order() []string {
	ids := make([]string, len(p.layers))
	for i, l := range p.layers {
		ids[i] = l.ID()
	}
	return ids
}

// Apply runs every layer over one period.
func (p *Pipeline) Apply(record entities.PeriodRecord) Period {
	period := Period{PeriodRecord: record}
	for _, l := range p.layers {
		period = l.Enrich(period)
	}
	return period
}

// ApplyAll enriches every period, keeping input order.
func (p *Pipeline) ApplyAll(records []entities.PeriodRecord) []Period {
	out := make([]Period, len(records))
	for i, r := range records {
		out[i] = p.Apply(r)
	}
	logging.Debug("Enrichment applied", "periods", len(records), "layers", strings.Join(p.Order(), ","))
	return out
}
