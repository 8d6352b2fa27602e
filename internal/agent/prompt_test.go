package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildInstructionsWithWritingTask(t *testing.T) {
	now := time.Date(2025, time.November, 3, 12, 0, 0, 0, time.UTC)
	got := BuildInstructions("blog intro", now)

	assert.Contains(t, got, "Writing Task: blog intro")
	assert.NotContains(t, got, "General writing assistance.")
	assert.Contains(t, got, "November 3, 2025")
	assert.Contains(t, got, "web_search")
}

func TestBuildInstructionsDefault(t *testing.T) {
	now := time.Date(2026, time.February, 1, 9, 30, 0, 0, time.UTC)
	got := BuildInstructions("", now)

	assert.Contains(t, got, "General writing assistance.")
	assert.NotContains(t, got, "Writing Task:")
	assert.Contains(t, got, "February 1, 2026")
}
