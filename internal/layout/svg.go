package layout

import (
	"strconv"
	"strings"
)

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writePoint(sb *strings.Builder, p Point) {
	sb.WriteString(formatCoord(p.X))
	sb.WriteByte(' ')
	sb.WriteString(formatCoord(p.Y))
}

// SVG serializes the path as SVG path data.
func (p Path) SVG() string {
	var sb strings.Builder
	for i, s := range p.Segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(s.Op))
		sb.WriteByte(' ')
		if s.Op == QuadTo && s.Control != nil {
			writePoint(&sb, *s.Control)
			sb.WriteByte(' ')
		}
		writePoint(&sb, s.To)
	}
	return sb.String()
}
