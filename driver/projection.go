package driver

import (
	"github.com/gogpu/glasspane/gpucore"
	"golang.org/x/image/math/f32"
)

// Orthographic maps pixel coordinates of a width x height target to clip
// space: (0, 0) is the top-left corner and y grows downwards.
func Orthographic(width, height uint32) f32.Mat4 {
	w, h := float32(width), float32(height)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return f32.Mat4{
		2 / w, 0, 0, -1,
		0, -2 / h, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// MulMat4 returns a*b for row-major matrices.
func MulMat4(a, b f32.Mat4) f32.Mat4 {
	var m f32.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[r*4+k] * b[k*4+c]
			}
			m[r*4+c] = s
		}
	}
	return m
}

// Transform applies m to the point (x, y, 0, 1).
func Transform(m f32.Mat4, x, y float32) (float32, float32) {
	return m[0]*x + m[1]*y + m[3], m[4]*x + m[5]*y + m[7]
}

// uniformsFor builds the constant block of a draw. The projection is
// sized to the state's viewport, falling back to the target size.
func uniformsFor(st *gpucore.GPUState, targetW, targetH uint32) Uniforms {
	w, h := st.ViewportWidth, st.ViewportHeight
	if w == 0 || h == 0 {
		w, h = targetW, targetH
	}
	xf := st.Transform
	if xf == (f32.Mat4{}) {
		xf = gpucore.Identity()
	}
	u := Uniforms{
		Transform: MulMat4(Orthographic(w, h), xf),
		Viewport:  [2]float32{float32(w), float32(h)},
		Scalar:    st.Scalar,
		Vector:    st.Vector,
		ClipSize:  uint32(min(st.ClipSize, gpucore.MaxClips)),
		Clip:      st.Clip,
	}
	return u
}
