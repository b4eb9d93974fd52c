package preview

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer escapes raw HTML in the source; the policy below still runs
// over the output.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var bodyPolicy = bluemonday.UGCPolicy()

// RenderMarkdown converts an item body to sanitized HTML. A body that fails
// to convert is shown escaped.
func RenderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return html.EscapeString(md)
	}
	return string(bodyPolicy.SanitizeBytes(buf.Bytes()))
}
