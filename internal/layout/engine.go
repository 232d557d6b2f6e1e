package layout

import (
	"math"

	"github.com/haatos/stageflow/internal/topology"
)

const (
	DefaultRadius         = 14
	DefaultBridgeWidth    = 40
	DefaultAlignTolerance = 1
)

type Options struct {
	Radius         float64
	BridgeWidth    float64
	AlignTolerance float64
}

func DefaultOptions() Options {
	return Options{
		Radius:         DefaultRadius,
		BridgeWidth:    DefaultBridgeWidth,
		AlignTolerance: DefaultAlignTolerance,
	}
}

// Engine turns a pipeline and the current node geometry into connector
// paths. It keeps no state between passes.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Radius < 0 {
		opts.Radius = def.Radius
	}
	if opts.BridgeWidth < 0 {
		opts.BridgeWidth = def.BridgeWidth
	}
	if opts.AlignTolerance <= 0 {
		opts.AlignTolerance = def.AlignTolerance
	}
	return &Engine{opts: opts}
}

// Compute runs one full layout pass. Jobs the oracle has no box for get no
// connectors.
func (e *Engine) Compute(p topology.Pipeline, oracle Oracle) []Path {
	paths := make([]Path, 0)
	for si, s := range p.Stages {
		paths = append(paths, e.serial(si, s, oracle)...)
		// The source stage and the last stage open no bus.
		if si > 0 && si < len(p.Stages)-1 {
			paths = append(paths, e.bus(si, s, p.Stages[si+1], oracle)...)
		}
	}
	return paths
}

func (e *Engine) serial(si int, s topology.Stage, oracle Oracle) []Path {
	paths := make([]Path, 0)
	for _, g := range s.Groups {
		for k := 0; k+1 < len(g); k++ {
			a, okA := oracle.BoundingBox(g[k].ID)
			b, okB := oracle.BoundingBox(g[k+1].ID)
			if !okA || !okB {
				continue
			}
			from, to := a.RightCenter(), b.LeftCenter()
			y := (from.Y + to.Y) / 2
			paths = append(paths, Path{
				Kind:  KindSerial,
				Stage: si,
				Segments: []Segment{
					moveTo(Point{X: from.X, Y: y}),
					lineTo(Point{X: to.X, Y: y}),
				},
			})
		}
	}
	return paths
}

func (e *Engine) bus(si int, s, next topology.Stage, oracle Oracle) []Path {
	outputs := make([]Point, 0, len(s.Groups))
	for _, g := range s.Groups {
		if len(g) == 0 {
			continue
		}
		if b, ok := oracle.BoundingBox(g[len(g)-1].ID); ok {
			outputs = append(outputs, b.RightCenter())
		}
	}
	inputs := make([]Point, 0, len(next.Groups))
	for _, g := range next.Groups {
		if len(g) == 0 {
			continue
		}
		if b, ok := oracle.BoundingBox(g[0].ID); ok {
			inputs = append(inputs, b.LeftCenter())
		}
	}
	if len(outputs) == 0 || len(inputs) == 0 {
		return nil
	}

	maxOut := outputs[0].X
	for _, o := range outputs[1:] {
		maxOut = math.Max(maxOut, o.X)
	}
	minIn := inputs[0].X
	for _, in := range inputs[1:] {
		minIn = math.Min(minIn, in.X)
	}
	trunkY := outputs[0].Y
	center := maxOut + (minIn-maxOut)/2
	mergeX := center - e.opts.BridgeWidth/2
	forkX := center + e.opts.BridgeWidth/2

	paths := make([]Path, 0, len(outputs)+len(inputs)+1)
	for _, o := range outputs {
		paths = append(paths, Path{Kind: KindFanIn, Stage: si, Segments: e.join(o, mergeX, trunkY)})
	}
	paths = append(paths, Path{
		Kind:  KindTrunk,
		Stage: si,
		Segments: []Segment{
			moveTo(Point{X: mergeX, Y: trunkY}),
			lineTo(Point{X: forkX, Y: trunkY}),
		},
	})
	for _, in := range inputs {
		paths = append(paths, Path{Kind: KindFanOut, Stage: si, Segments: e.split(forkX, trunkY, in)})
	}
	return paths
}

func (e *Engine) radius(dx, dy float64) float64 {
	return math.Min(e.opts.Radius, math.Min(math.Abs(dx)/2, math.Abs(dy)/2))
}

// join runs horizontally from start to the merge line, bends and drops
// vertically to the trunk.
func (e *Engine) join(start Point, mergeX, trunkY float64) []Segment {
	if math.Abs(start.Y-trunkY) < e.opts.AlignTolerance {
		return []Segment{moveTo(start), lineTo(Point{X: mergeX, Y: start.Y})}
	}
	dir := 1.0
	if trunkY < start.Y {
		dir = -1
	}
	r := e.radius(mergeX-start.X, trunkY-start.Y)
	if r == 0 {
		return []Segment{
			moveTo(start),
			lineTo(Point{X: mergeX, Y: start.Y}),
			lineTo(Point{X: mergeX, Y: trunkY}),
		}
	}
	return []Segment{
		moveTo(start),
		lineTo(Point{X: mergeX - r, Y: start.Y}),
		quadTo(Point{X: mergeX, Y: start.Y}, Point{X: mergeX, Y: start.Y + r*dir}),
		lineTo(Point{X: mergeX, Y: trunkY}),
	}
}

// split mirrors join: down the fork line, bend, across to the input.
func (e *Engine) split(forkX, trunkY float64, end Point) []Segment {
	from := Point{X: forkX, Y: trunkY}
	if math.Abs(trunkY-end.Y) < e.opts.AlignTolerance {
		return []Segment{moveTo(from), lineTo(end)}
	}
	dir := 1.0
	if end.Y < trunkY {
		dir = -1
	}
	r := e.radius(end.X-forkX, end.Y-trunkY)
	if r == 0 {
		return []Segment{
			moveTo(from),
			lineTo(Point{X: forkX, Y: end.Y}),
			lineTo(end),
		}
	}
	return []Segment{
		moveTo(from),
		lineTo(Point{X: forkX, Y: end.Y - r*dir}),
		quadTo(Point{X: forkX, Y: end.Y}, Point{X: forkX + r, Y: end.Y}),
		lineTo(end),
	}
}
