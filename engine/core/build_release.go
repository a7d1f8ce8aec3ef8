//go:build !debug

package core

const DebugBuild = false
