package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

/** @brief Capacity of the dynamic vertex and index buffer, shared by everything drawn in a frame. */
const geometryCapacity uint64 = 1 << 20

/** @brief Regions start on a 4 byte boundary, the alignment uint32 indices require. */
const geometryAlignment uint64 = 4

/**
 * @brief Where one draw group's data landed in the dynamic buffer for the current frame.
 */
type geometryRegion struct {
	VertexCount        uint32
	VertexBufferOffset uint64
	IndexCount         uint32
	IndexBufferOffset  uint64
}

// geometryWriter appends byte regions one after the other into a mapped buffer.
type geometryWriter struct {
	dst []byte
	off uint64
}

func newGeometryWriter(dst []byte) *geometryWriter {
	return &geometryWriter{dst: dst}
}

// write copies src at the next aligned offset and returns that offset.
func (w *geometryWriter) write(src []byte) (uint64, error) {
	start := metadata.GetAligned(w.off, geometryAlignment)
	end := start + uint64(len(src))
	if end > uint64(len(w.dst)) {
		return 0, errors.Newf("geometry region of %d bytes does not fit at offset %d (capacity %d)", len(src), start, len(w.dst))
	}
	copy(w.dst[start:end], src)
	w.off = end
	return start, nil
}

func (w *geometryWriter) written() uint64 {
	return w.off
}

// fitGeometry decides how much of the scene fits into capacity bytes. Indexed geometry keeps all
// vertices and drops trailing triangles; if the vertices alone do not fit nothing is drawn, since
// any index could reference a dropped vertex. Non-indexed geometry drops trailing triangles.
func fitGeometry(vertexCount, indexCount int, capacity uint64) (vertices, indices int, truncated bool) {
	vsize := uint64(metadata.VertexSize)
	vbytes := uint64(vertexCount) * vsize

	if indexCount == 0 {
		if vbytes <= capacity {
			return vertexCount, 0, false
		}
		fit := int(capacity / vsize)
		return fit - fit%3, 0, true
	}

	if vbytes > capacity {
		return 0, 0, true
	}
	ibytes := uint64(indexCount) * 4
	// Index data starts aligned after the vertex data.
	start := metadata.GetAligned(vbytes, geometryAlignment)
	if start+ibytes <= capacity {
		return vertexCount, indexCount, false
	}
	fit := int((capacity - start) / 4)
	return vertexCount, fit - fit%3, true
}

// writeScene copies the scene into the mapped buffer, vertices first.
func writeScene(dst []byte, scene *metadata.Scene, capacity uint64) (geometryRegion, bool, error) {
	capacity = min(capacity, uint64(len(dst)))
	nv, ni, truncated := fitGeometry(len(scene.Vertices), len(scene.Indices), capacity)
	region := geometryRegion{
		VertexCount: uint32(nv),
		IndexCount:  uint32(ni),
	}
	if nv == 0 {
		return region, truncated, nil
	}

	w := newGeometryWriter(dst[:capacity])
	var err error
	if region.VertexBufferOffset, err = w.write(vertexBytes(scene.Vertices[:nv])); err != nil {
		return region, truncated, err
	}
	if ni > 0 {
		if region.IndexBufferOffset, err = w.write(indexBytes(scene.Indices[:ni])); err != nil {
			return region, truncated, err
		}
	}
	return region, truncated, nil
}
