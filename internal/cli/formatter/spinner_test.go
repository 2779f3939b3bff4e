package formatter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinner_StopClearsLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Saving...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()
	s.Stop()

	out := stripANSI(buf.String())
	assert.Contains(t, out, "Saving...")
	assert.Contains(t, buf.String(), "\r\033[K")
}
