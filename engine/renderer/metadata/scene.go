package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/tessera/engine/math"
)

/** @brief Flags carried in Vertex.Aux[1] and interpreted by the fragment shader. */
const (
	/** @brief The tint in Aux[0] replaces the sampled texel. */
	AuxTintOnly uint32 = 1 << 0
	/** @brief The sampled texel alpha masks the tint (bitmap text). */
	AuxTintMask uint32 = 1 << 1
)

/**
 * @brief A single vertex as consumed by the pipeline. The layout is fixed: 16 bytes of clip
 * position, 8 bytes of texture coordinate, 8 bytes of auxiliary data. Aux[0] is a packed ARGB tint,
 * Aux[1] holds the Aux* flags.
 */
type Vertex struct {
	Pos mgl32.Vec4
	UV  mgl32.Vec2
	Aux [2]uint32
}

/** @brief Size in bytes of one Vertex, also the pipeline's vertex stride. */
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

// NewVertex builds a vertex at clip position (x, y) sampling the atlas at (u, v).
func NewVertex(x, y, u, v float32) Vertex {
	return Vertex{
		Pos: mgl32.Vec4{x, y, 0, 1},
		UV:  mgl32.Vec2{u, v},
	}
}

// Tinted returns a copy of the vertex carrying a packed ARGB tint and shader flags.
func (v Vertex) Tinted(argb uint32, flags uint32) Vertex {
	v.Aux = [2]uint32{argb, flags}
	return v
}

type Resolution struct {
	Width  uint32
	Height uint32
}

/**
 * @brief Everything the renderer needs to draw one frame: a single triangle list over the current
 * atlas, cleared to Background (packed ARGB) first. Resolution is the logical render target size,
 * independent of the window; Scaling decides how it is fitted into the surface.
 */
type Scene struct {
	Resolution Resolution
	Scaling    math.ScaleMode
	Background uint32
	Vertices   []Vertex
	Indices    []uint32
}

func NewScene(width, height uint32) *Scene {
	return &Scene{
		Resolution: Resolution{Width: width, Height: height},
	}
}

// Reset drops the geometry but keeps the backing storage for the next frame.
func (s *Scene) Reset() {
	s.Vertices = s.Vertices[:0]
	s.Indices = s.Indices[:0]
}

func (s *Scene) base() uint32 {
	return uint32(len(s.Vertices))
}

func (s *Scene) DrawTriangle(a, b, c Vertex) {
	base := s.base()
	s.Vertices = append(s.Vertices, a, b, c)
	s.Indices = append(s.Indices, base, base+1, base+2)
}

// DrawStrip appends a triangle strip: every vertex after the second closes a triangle with the two
// before it. Fewer than three vertices draw nothing.
func (s *Scene) DrawStrip(vs ...Vertex) {
	if len(vs) < 3 {
		return
	}
	base := s.base()
	s.Vertices = append(s.Vertices, vs...)
	for i := uint32(2); i < uint32(len(vs)); i++ {
		s.Indices = append(s.Indices, base+i-2, base+i-1, base+i)
	}
}

// DrawFan appends a triangle fan anchored at the first vertex. Fewer than three vertices draw
// nothing.
func (s *Scene) DrawFan(vs ...Vertex) {
	if len(vs) < 3 {
		return
	}
	base := s.base()
	s.Vertices = append(s.Vertices, vs...)
	for i := uint32(2); i < uint32(len(vs)); i++ {
		s.Indices = append(s.Indices, base, base+i-1, base+i)
	}
}

// DrawQuad appends the axis aligned rectangle (x0,y0)-(x1,y1) in clip space mapped to the atlas
// region (u0,v0)-(u1,v1).
func (s *Scene) DrawQuad(x0, y0, x1, y1, u0, v0, u1, v1 float32, argb, flags uint32) {
	s.DrawFan(
		NewVertex(x0, y0, u0, v0).Tinted(argb, flags),
		NewVertex(x1, y0, u1, v0).Tinted(argb, flags),
		NewVertex(x1, y1, u1, v1).Tinted(argb, flags),
		NewVertex(x0, y1, u0, v1).Tinted(argb, flags),
	)
}

// PixelToClip maps a point in the scene's logical pixel space to clip coordinates.
func (s *Scene) PixelToClip(x, y float32) mgl32.Vec2 {
	w, h := float32(s.Resolution.Width), float32(s.Resolution.Height)
	if w == 0 || h == 0 {
		return mgl32.Vec2{x, y}
	}
	return mgl32.Vec2{2*x/w - 1, 2*y/h - 1}
}
