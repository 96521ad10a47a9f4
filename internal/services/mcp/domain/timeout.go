package domain

import "github.com/louisbranch/demoscope/internal/platform/timeouts"

// toolCallTimeout caps a single tool invocation.
const toolCallTimeout = timeouts.ToolCall
