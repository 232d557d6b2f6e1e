package layout

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is the rendered bounding box of a job node.
type Box struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

func (b Box) centerY() float64 {
	return b.Top + (b.Bottom-b.Top)/2
}

func (b Box) LeftCenter() Point {
	return Point{X: b.Left, Y: b.centerY()}
}

func (b Box) RightCenter() Point {
	return Point{X: b.Right, Y: b.centerY()}
}

// Oracle reports the current bounding box of a job node. It is queried on
// every pass and never cached.
type Oracle interface {
	BoundingBox(jobID string) (Box, bool)
}

type OracleFunc func(jobID string) (Box, bool)

func (f OracleFunc) BoundingBox(jobID string) (Box, bool) {
	return f(jobID)
}

// BoxMap is an Oracle backed by a fixed set of boxes.
type BoxMap map[string]Box

func (m BoxMap) BoundingBox(jobID string) (Box, bool) {
	b, ok := m[jobID]
	return b, ok
}

type Op string

const (
	MoveTo Op = "M"
	LineTo Op = "L"
	QuadTo Op = "Q"
)

// Segment is one drawing command. Control is only meaningful for QuadTo.
type Segment struct {
	Op      Op     `json:"op"`
	Control *Point `json:"control,omitempty"`
	To      Point  `json:"to"`
}

type Kind string

const (
	KindSerial Kind = "serial"
	KindFanIn  Kind = "fan_in"
	KindTrunk  Kind = "trunk"
	KindFanOut Kind = "fan_out"
)

type Path struct {
	Kind     Kind      `json:"kind"`
	Stage    int       `json:"stage"`
	Segments []Segment `json:"segments"`
}

func moveTo(p Point) Segment { return Segment{Op: MoveTo, To: p} }

func lineTo(p Point) Segment { return Segment{Op: LineTo, To: p} }

func quadTo(ctrl, p Point) Segment { return Segment{Op: QuadTo, Control: &ctrl, To: p} }
