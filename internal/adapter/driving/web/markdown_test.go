package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	result := RenderMarkdown("handles the storefront checkout")
	assert.Contains(t, result, "handles the storefront checkout")
}

func TestRenderMarkdown_Bold(t *testing.T) {
	result := RenderMarkdown("**critical** system")
	assert.Contains(t, result, "<strong>critical</strong>")
}

func TestRenderMarkdown_Link(t *testing.T) {
	result := RenderMarkdown("[runbook](https://wiki.example.com/runbook)")
	assert.Contains(t, result, `<a href="https://wiki.example.com/runbook"`)
	assert.Contains(t, result, "runbook</a>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderMarkdown_SanitizesEventHandlers(t *testing.T) {
	result := RenderMarkdown(`<img src="x" onerror="alert(1)">`)
	assert.NotContains(t, result, "onerror")
}

func TestRenderMarkdown_GFMStrikethrough(t *testing.T) {
	result := RenderMarkdown("~~decommissioned~~")
	assert.Contains(t, result, "<del>decommissioned</del>")
}

func TestRenderMarkdown_GFMTable(t *testing.T) {
	result := RenderMarkdown("| env | url |\n| --- | --- |\n| prod | shop.example.com |")
	assert.Contains(t, result, "<table>")
	assert.Contains(t, result, "shop.example.com")
}
