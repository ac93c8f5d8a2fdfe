package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBootstrapRegex(t *testing.T) {
	page := `<script>var trackpollBootstrap = {"a":{"b":1}};
var other = {"x":2};</script>`

	obj, ok := ExtractBootstrap(page, ExtractRegex)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, obj)
}

func TestExtractBootstrapWithoutVar(t *testing.T) {
	page := "<script>\ntrackpollBootstrap={\n  \"a\": 1\n};\n</script>"

	for _, mode := range []Extraction{ExtractRegex, ExtractScanner} {
		obj, ok := ExtractBootstrap(page, mode)
		require.True(t, ok, string(mode))
		assert.Equal(t, "{\n  \"a\": 1\n}", obj, string(mode))
	}
}

func TestExtractBootstrapMissing(t *testing.T) {
	page := `<html><script>var somethingElse = {"a":1};</script></html>`
	for _, mode := range []Extraction{ExtractRegex, ExtractScanner} {
		_, ok := ExtractBootstrap(page, mode)
		assert.False(t, ok, string(mode))
	}
}

func TestExtractBootstrapEmbeddedTerminator(t *testing.T) {
	page := `<script>var trackpollBootstrap = {"note":"gate closed};reopened","n":{"m":1}};</script>`

	// the regex stops at the first "};" inside the string value
	obj, ok := ExtractBootstrap(page, ExtractRegex)
	require.True(t, ok)
	assert.Equal(t, `{"note":"gate closed}`, obj)

	obj, ok = ExtractBootstrap(page, ExtractScanner)
	require.True(t, ok)
	assert.Equal(t, `{"note":"gate closed};reopened","n":{"m":1}}`, obj)
}

func TestScannerHandlesEscapesAndSkipsMentions(t *testing.T) {
	page := `<script>// trackpollBootstrap is set below
var trackpollBootstrap = {"q":"say \"}\" twice","k":{}};</script>`

	obj, ok := ExtractBootstrap(page, ExtractScanner)
	require.True(t, ok)
	assert.Equal(t, `{"q":"say \"}\" twice","k":{}}`, obj)
}

func TestScannerUnterminatedObject(t *testing.T) {
	_, ok := ExtractBootstrap(`var trackpollBootstrap = {"a":{"b":1}`, ExtractScanner)
	assert.False(t, ok)
}

func TestParseExtraction(t *testing.T) {
	mode, err := ParseExtraction("")
	require.NoError(t, err)
	assert.Equal(t, ExtractRegex, mode)

	mode, err = ParseExtraction(" Scanner ")
	require.NoError(t, err)
	assert.Equal(t, ExtractScanner, mode)

	_, err = ParseExtraction("xpath")
	assert.Error(t, err)
}
