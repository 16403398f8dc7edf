package debug

// LineVertex is a colored line endpoint.
type LineVertex struct {
	X, Y, Z float32
	R, G, B float32
}

// LineVertexStride is the size of a LineVertex in float32s.
const LineVertexStride = 6

// GenerateGridLines builds a square ground grid on the XZ plane centered on
// the origin. Lines run along both axes every size/divisions units; the two
// lines through the origin use centerColor.
func GenerateGridLines(size float32, divisions int, centerColor, color [3]float32) []LineVertex {
	if divisions <= 0 || size <= 0 {
		return nil
	}

	center := divisions / 2
	step := size / float32(divisions)
	half := size / 2

	vertices := make([]LineVertex, 0, (divisions+1)*4)
	for i := 0; i <= divisions; i++ {
		k := -half + float32(i)*step
		c := color
		if i == center {
			c = centerColor
		}
		vertices = append(vertices,
			LineVertex{-half, 0, k, c[0], c[1], c[2]},
			LineVertex{half, 0, k, c[0], c[1], c[2]},
			LineVertex{k, 0, -half, c[0], c[1], c[2]},
			LineVertex{k, 0, half, c[0], c[1], c[2]},
		)
	}
	return vertices
}

// FlattenLines converts line vertices to an interleaved float32 buffer.
func FlattenLines(vertices []LineVertex) []float32 {
	out := make([]float32, 0, len(vertices)*LineVertexStride)
	for _, v := range vertices {
		out = append(out, v.X, v.Y, v.Z, v.R, v.G, v.B)
	}
	return out
}
