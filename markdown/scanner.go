// Package markdown finds ER diagram code blocks in Markdown documents and
// replaces them with laid-out versions.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DiagramBlock is a fenced diagram block found in a Markdown document.
type DiagramBlock struct {
	Lang        string // mermaid, dot or graphviz
	Content     string // block body with the fence indentation removed
	StartLine   int    // line of the opening fence (0-based)
	EndLine     int    // line of the closing fence
	Indent      string // indentation before the opening fence
	ContentHash string // SHA-256 of Content when scanned
}

// Scanner finds and rewrites diagram blocks.
type Scanner struct {
	lines []string
}

// NewScanner creates a scanner over a Markdown document.
func NewScanner(content string) *Scanner {
	return &Scanner{lines: strings.Split(content, "\n")}
}

// FindDiagramBlocks returns every closed diagram block in document order.
func (s *Scanner) FindDiagramBlocks() []DiagramBlock {
	var (
		blocks  []DiagramBlock
		current *DiagramBlock
		body    []string
	)

	for i, line := range s.lines {
		trimmed := strings.TrimLeft(line, " \t")
		if current == nil {
			if !strings.HasPrefix(trimmed, "```") {
				continue
			}
			lang := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(trimmed, "```")))
			if IsDiagramLanguage(lang) {
				current = &DiagramBlock{Lang: lang, StartLine: i, Indent: line[:len(line)-len(trimmed)]}
				body = body[:0]
			}
			continue
		}

		if strings.HasPrefix(trimmed, "```") {
			current.EndLine = i
			current.Content = strings.Join(body, "\n")
			current.ContentHash = hash(current.Content)
			blocks = append(blocks, *current)
			current = nil
			continue
		}
		body = append(body, strings.TrimPrefix(line, current.Indent))
	}

	return blocks
}

// Block returns the index'th block, counting from 1.
func (s *Scanner) Block(index int) (DiagramBlock, error) {
	blocks := s.FindDiagramBlocks()
	if len(blocks) == 0 {
		return DiagramBlock{}, fmt.Errorf("no diagram blocks found")
	}
	if index < 1 || index > len(blocks) {
		return DiagramBlock{}, fmt.Errorf("block %d out of range: found %d block(s)", index, len(blocks))
	}
	return blocks[index-1], nil
}

// ValidateBlockUnchanged checks that the block still holds the content it
// had when scanned.
func (s *Scanner) ValidateBlockUnchanged(block DiagramBlock) error {
	if block.StartLine < 0 || block.EndLine >= len(s.lines) || block.StartLine >= block.EndLine {
		return fmt.Errorf("invalid block boundaries: start=%d, end=%d, total lines=%d",
			block.StartLine, block.EndLine, len(s.lines))
	}

	body := make([]string, 0, block.EndLine-block.StartLine-1)
	for _, line := range s.lines[block.StartLine+1 : block.EndLine] {
		body = append(body, strings.TrimPrefix(line, block.Indent))
	}
	if hash(strings.Join(body, "\n")) != block.ContentHash {
		return fmt.Errorf("block content has been modified (hash mismatch)")
	}
	return nil
}

// ReplaceBlock returns the document with the body of block replaced by
// content, indented like the original fence. The fences are kept.
func (s *Scanner) ReplaceBlock(block DiagramBlock, content string) (string, error) {
	if err := s.ValidateBlockUnchanged(block); err != nil {
		return "", err
	}

	start := strings.TrimLeft(s.lines[block.StartLine], " \t")
	if !strings.HasPrefix(strings.ToLower(start), "```"+block.Lang) {
		return "", fmt.Errorf("block start marker has changed at line %d: expected '```%s', found '%s'",
			block.StartLine+1, block.Lang, start)
	}

	content = strings.TrimRight(content, "\n")
	out := make([]string, 0, len(s.lines))
	out = append(out, s.lines[:block.StartLine+1]...)
	for _, line := range strings.Split(content, "\n") {
		out = append(out, block.Indent+line)
	}
	out = append(out, s.lines[block.EndLine:]...)
	return strings.Join(out, "\n"), nil
}

// IsDiagramLanguage reports whether a fence language holds a diagram erd
// can read.
func IsDiagramLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case "mermaid", "dot", "graphviz":
		return true
	default:
		return false
	}
}

// FormatBlockInfo returns a one-line description of a block for listings.
func FormatBlockInfo(block DiagramBlock, index int) string {
	preview := ""
	for _, line := range strings.Split(block.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "%%") {
			preview = trimmed
			break
		}
	}
	if len(preview) > 50 {
		preview = preview[:47] + "..."
	}
	return fmt.Sprintf("%d. [%s] line %d: %s", index, block.Lang, block.StartLine+1, preview)
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
