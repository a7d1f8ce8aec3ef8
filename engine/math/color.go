package math

import gomath "math"

// FromSRGB converts one normalized sRGB encoded channel to linear light.
func FromSRGB(c float32) float32 {
	c = Clamp(c, 0, 1)
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(gomath.Pow((float64(c)+0.055)/1.055, 2.4))
}

// UnpackARGB splits a packed 0xAARRGGBB color into its channels.
func UnpackARGB(argb uint32) (a, r, g, b uint8) {
	return uint8(argb >> 24), uint8(argb >> 16), uint8(argb >> 8), uint8(argb)
}

// PackARGB is the inverse of UnpackARGB.
func PackARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// ClearColor turns a packed ARGB background into the RGBA float clear value of an sRGB
// attachment. Color channels are linearized; alpha is already linear.
func ClearColor(argb uint32) [4]float32 {
	a, r, g, b := UnpackARGB(argb)
	return [4]float32{
		FromSRGB(float32(r) / 255),
		FromSRGB(float32(g) / 255),
		FromSRGB(float32(b) / 255),
		float32(a) / 255,
	}
}
