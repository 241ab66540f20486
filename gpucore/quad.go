package gpucore

import "image"

// Winding selects the triangle index order of generated quads.
type Winding uint8

// Triangle windings.
const (
	WindingClockwise Winding = iota
	WindingCounterClockwise
)

// String returns "clockwise" or "counter_clockwise".
func (w Winding) String() string {
	if w == WindingCounterClockwise {
		return "counter_clockwise"
	}
	return "clockwise"
}

// QuadIndexCount is the number of indices of a quad (two triangles).
const QuadIndexCount = 6

// Quad index patterns over vertices ordered top-left, top-right,
// bottom-right, bottom-left.
var (
	quadIndicesCW  = [QuadIndexCount]uint32{0, 1, 3, 1, 2, 3}
	quadIndicesCCW = [QuadIndexCount]uint32{0, 3, 1, 1, 3, 2}
)

// QuadIndices returns the index pattern for w.
func QuadIndices(w Winding) IndexBuffer {
	p := quadIndicesCW
	if w == WindingCounterClockwise {
		p = quadIndicesCCW
	}
	return IndexBuffer{Indices: p[:]}
}

// QuadVertices returns the four corners of r (top-left, top-right,
// bottom-right, bottom-left) textured with uv. Vertices are white and
// carry the image fill type.
func QuadVertices(r image.Rectangle, uv UVRect) [4]Vertex2f4ub2f2f28f {
	x0, y0 := float32(r.Min.X), float32(r.Min.Y)
	x1, y1 := float32(r.Max.X), float32(r.Max.Y)

	corner := func(x, y, u, v float32) Vertex2f4ub2f2f28f {
		vt := Vertex2f4ub2f2f28f{
			Pos:   [2]float32{x, y},
			Color: [4]uint8{255, 255, 255, 255},
			Tex:   [2]float32{u, v},
			Obj:   [2]float32{x, y},
		}
		vt.Data[0][0] = FillImage
		return vt
	}
	return [4]Vertex2f4ub2f2f28f{
		corner(x0, y0, uv.Left, uv.Top),
		corner(x1, y0, uv.Right, uv.Top),
		corner(x1, y1, uv.Right, uv.Bottom),
		corner(x0, y1, uv.Left, uv.Bottom),
	}
}

// Quad builds the vertex and index buffers for a textured rectangle.
func Quad(r image.Rectangle, uv UVRect, w Winding) (VertexBuffer, IndexBuffer) {
	v := QuadVertices(r, uv)
	return FillVertexBuffer(v[:]), QuadIndices(w)
}
