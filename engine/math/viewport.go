package math

import "strings"

// ScaleMode decides how a scene's logical resolution maps onto the drawable surface.
type ScaleMode uint8

const (
	// Largest rectangle with the logical aspect ratio, centered (letterbox / pillarbox).
	ScaleFit ScaleMode = iota
	// Whole surface, aspect ratio ignored.
	ScaleStretch
	// Largest whole-number multiple of the logical size, centered. Falls back to fit when the
	// surface is smaller than the logical size.
	ScaleInteger
)

func ParseScaleMode(s string) ScaleMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stretch":
		return ScaleStretch
	case "integer", "pixel":
		return ScaleInteger
	default:
		return ScaleFit
	}
}

func (m ScaleMode) String() string {
	switch m {
	case ScaleStretch:
		return "stretch"
	case ScaleInteger:
		return "integer"
	default:
		return "fit"
	}
}

// Rect is an offset and extent in surface pixels.
type Rect struct {
	X, Y int32
	W, H uint32
}

// Viewport returns the rectangle inside a surfW x surfH drawable the scene is rendered into.
// A zero logical dimension means the scene has no declared resolution and gets the whole surface.
func Viewport(surfW, surfH, logW, logH uint32, mode ScaleMode) Rect {
	full := Rect{W: surfW, H: surfH}
	if surfW == 0 || surfH == 0 || logW == 0 || logH == 0 || mode == ScaleStretch {
		return full
	}

	if mode == ScaleInteger {
		scale := min(surfW/logW, surfH/logH)
		if scale >= 1 {
			return centered(surfW, surfH, logW*scale, logH*scale)
		}
	}

	sw, sh := uint64(surfW), uint64(surfH)
	lw, lh := uint64(logW), uint64(logH)
	var w, h uint64
	if sw*lh <= sh*lw {
		// Surface is narrower than the scene: full width, bars top and bottom.
		w = sw
		h = (sw*lh + lw/2) / lw
	} else {
		h = sh
		w = (sh*lw + lh/2) / lh
	}
	return centered(surfW, surfH, uint32(Clamp(w, 1, sw)), uint32(Clamp(h, 1, sh)))
}

func centered(surfW, surfH, w, h uint32) Rect {
	return Rect{
		X: int32((surfW - w) / 2),
		Y: int32((surfH - h) / 2),
		W: w,
		H: h,
	}
}
