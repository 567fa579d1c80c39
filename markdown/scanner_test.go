package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = "# Shop\n" +
	"\n" +
	"```go\n" +
	"fmt.Println(\"not a diagram\")\n" +
	"```\n" +
	"\n" +
	"```mermaid\n" +
	"erDiagram\n" +
	"    CUSTOMER ||--o{ ORDER : places\n" +
	"```\n" +
	"\n" +
	"- list item\n" +
	"  ```dot\n" +
	"  graph erd {\n" +
	"    a -- b;\n" +
	"  }\n" +
	"  ```\n" +
	"\n" +
	"```mermaid\n" +
	"erDiagram\n"

func TestFindDiagramBlocks(t *testing.T) {
	blocks := NewScanner(doc).FindDiagramBlocks()
	require.Len(t, blocks, 2, "go block skipped, unterminated block ignored")

	assert.Equal(t, "mermaid", blocks[0].Lang)
	assert.Equal(t, 6, blocks[0].StartLine)
	assert.Equal(t, 9, blocks[0].EndLine)
	assert.Equal(t, "erDiagram\n    CUSTOMER ||--o{ ORDER : places", blocks[0].Content)

	assert.Equal(t, "dot", blocks[1].Lang)
	assert.Equal(t, "  ", blocks[1].Indent)
	assert.Equal(t, "graph erd {\n  a -- b;\n}", blocks[1].Content)
}

func TestBlock(t *testing.T) {
	s := NewScanner(doc)

	b, err := s.Block(2)
	require.NoError(t, err)
	assert.Equal(t, "dot", b.Lang)

	_, err = s.Block(0)
	assert.Error(t, err)
	_, err = s.Block(3)
	assert.Error(t, err)

	_, err = NewScanner("no fences here").Block(1)
	assert.ErrorContains(t, err, "no diagram blocks")
}

func TestReplaceBlock(t *testing.T) {
	s := NewScanner(doc)
	b, err := s.Block(2)
	require.NoError(t, err)

	out, err := s.ReplaceBlock(b, "graph erd {\n  a [pos=\"0,0!\"];\n}\n")
	require.NoError(t, err)

	assert.Contains(t, out, "  ```dot\n  graph erd {\n    a [pos=\"0,0!\"];\n  }\n  ```\n")
	assert.True(t, strings.HasPrefix(out, "# Shop\n"))
	assert.True(t, strings.HasSuffix(out, "```mermaid\nerDiagram\n"), "rest of the document kept")

	again, err := NewScanner(out).Block(2)
	require.NoError(t, err)
	assert.Equal(t, "graph erd {\n  a [pos=\"0,0!\"];\n}", again.Content)
}

func TestReplaceBlock_Stale(t *testing.T) {
	b, err := NewScanner(doc).Block(1)
	require.NoError(t, err)

	edited := strings.Replace(doc, "places", "buys", 1)
	_, err = NewScanner(edited).ReplaceBlock(b, "erDiagram")
	assert.ErrorContains(t, err, "hash mismatch")

	b.EndLine = 1000
	_, err = NewScanner(doc).ReplaceBlock(b, "erDiagram")
	assert.ErrorContains(t, err, "invalid block boundaries")
}

func TestFormatBlockInfo(t *testing.T) {
	blocks := NewScanner(doc).FindDiagramBlocks()
	assert.Equal(t, "1. [mermaid] line 7: erDiagram", FormatBlockInfo(blocks[0], 1))
	assert.Equal(t, "2. [dot] line 13: graph erd {", FormatBlockInfo(blocks[1], 2))
}
