package clipboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robertof/go-stylus-bridge/clipboard"
	"github.com/robertof/go-stylus-bridge/sink"
)

func TestImplementsSinkClipboard(t *testing.T) {
	var _ sink.Clipboard = clipboard.System{}
	var _ sink.Clipboard = clipboard.Discard{}
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, clipboard.Discard{}.SetText("1234"))
}
