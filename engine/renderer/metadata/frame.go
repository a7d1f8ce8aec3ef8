package metadata

/** @brief Outcome of rendering one frame. */
type FrameStatus int

const (
	FrameOK FrameStatus = iota
	/** @brief Presented, but the swapchain no longer matches the surface exactly. */
	FrameSuboptimal
	/** @brief The swapchain can no longer be used with the surface. */
	FrameOutOfDate
	/** @brief A hard failure; the accompanying error says what broke. */
	FrameFailed
)

func (s FrameStatus) String() string {
	switch s {
	case FrameOK:
		return "ok"
	case FrameSuboptimal:
		return "suboptimal"
	case FrameOutOfDate:
		return "out_of_date"
	default:
		return "failed"
	}
}

// NeedsRemake reports the soft statuses answered by rebuilding the swapchain.
func (s FrameStatus) NeedsRemake() bool {
	return s == FrameSuboptimal || s == FrameOutOfDate
}
