package debuglog

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfRespectsSwitch(t *testing.T) {
	var buf bytes.Buffer
	loggersMu.Lock()
	loggers["test"] = log.New(&buf, "wlshot/test ", 0)
	loggersMu.Unlock()
	t.Cleanup(func() {
		loggersMu.Lock()
		delete(loggers, "test")
		loggersMu.Unlock()
		SetEnabled(false)
	})

	SetEnabled(false)
	Printf("test", "stage=%s", "connect")
	assert.Empty(t, buf.String())

	SetEnabled(true)
	assert.True(t, Enabled())
	Printf("test", "stage=%s", "connect")
	assert.Equal(t, "wlshot/test stage=connect\n", buf.String())
}
