//go:build debug

package core

// DebugBuild enables validation layers and verbose shader diagnostics.
const DebugBuild = true
