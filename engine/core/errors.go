package core

import (
	"github.com/cockroachdb/errors"
)

var (
	// Soft swapchain conditions. The frame loop rebuilds the swapchain and carries on.
	ErrSwapchainOutOfDate  = errors.New("swapchain out of date")
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal")

	// Terminal conditions for the renderable.
	ErrDeviceLost  = errors.New("device lost")
	ErrSurfaceLost = errors.New("surface lost")

	ErrShaderCompile = errors.New("shader compilation failed")
	ErrAssetNotFound = errors.New("asset not found")
	ErrUnknown       = errors.New("unknown")

	// The compiler executable could not be started. Says nothing about the shader itself.
	ErrShaderCompilerMissing = errors.New("shader compiler not available")
)

// IsSoft reports whether err only asks for a swapchain rebuild.
func IsSoft(err error) bool {
	return errors.IsAny(err, ErrSwapchainOutOfDate, ErrSwapchainSuboptimal)
}
