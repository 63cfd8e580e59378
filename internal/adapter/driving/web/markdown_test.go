package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(""))
}

func TestRenderMarkdown_PlainText(t *testing.T) {
	result := RenderMarkdown("oatmeal with berries")
	assert.Contains(t, result, "oatmeal with berries")
}

func TestRenderMarkdown_Bold(t *testing.T) {
	result := RenderMarkdown("**spicy** curry")
	assert.Contains(t, result, "<strong>spicy</strong>")
}

func TestRenderMarkdown_EscapesAngleBrackets(t *testing.T) {
	result := RenderMarkdown("rice & beans <3")
	assert.Contains(t, result, "&amp;")
	assert.NotContains(t, result, "<3")
}

func TestRenderMarkdown_Link(t *testing.T) {
	result := RenderMarkdown("[recipe](https://example.com)")
	assert.Contains(t, result, `<a href="https://example.com"`)
	assert.Contains(t, result, "recipe</a>")
}

func TestRenderMarkdown_SanitizesScript(t *testing.T) {
	result := RenderMarkdown(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderMarkdown_GFMStrikethrough(t *testing.T) {
	result := RenderMarkdown("~~dairy~~")
	assert.Contains(t, result, "<del>dairy</del>")
}

func TestRenderMarkdown_GFMTaskList(t *testing.T) {
	result := RenderMarkdown("- [x] toast\n- [ ] eggs")
	assert.Contains(t, result, "<li>")
	assert.Contains(t, result, "toast")
	assert.Contains(t, result, "eggs")
}
