// Package view reads a single file and returns its contents with type
// detection: text files come back line by line, binary and image files
// as a descriptive message with metadata.
package view

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Contents type tags.
const (
	ContentsText   = "text"
	ContentsBinary = "binary"
	ContentsImage  = "image"
)

// Options configure a view operation.
type Options struct {
	// MaxSize rejects files larger than this many bytes. nil means no
	// limit. When a line range is set, the limit applies to the
	// filtered content instead of the whole file.
	MaxSize *int64

	// LineFrom and LineTo select a 1-based inclusive line range of a
	// text file. Out-of-range values clamp silently; an inverted range
	// yields empty content. Metadata still describes the whole file.
	LineFrom *int
	LineTo   *int
}

// LineContent is a single line of a text file.
type LineContent struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
}

// TextContent is the line-by-line body of a text file.
type TextContent struct {
	LineContents []LineContent `json:"line_contents"`
}

// Contains reports whether any line contains s.
func (c TextContent) Contains(s string) bool {
	for _, l := range c.LineContents {
		if strings.Contains(l.Line, s) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the content holds no lines.
func (c TextContent) IsEmpty() bool {
	return len(c.LineContents) == 0
}

// String joins the lines back into one newline-separated string.
func (c TextContent) String() string {
	lines := make([]string, len(c.LineContents))
	for i, l := range c.LineContents {
		lines[i] = l.Line
	}
	return strings.Join(lines, "\n")
}

// Metadata describes the viewed file. The populated fields depend on
// the contents type.
type Metadata struct {
	// Text files.
	LineCount int `json:"line_count,omitempty"`
	CharCount int `json:"char_count,omitempty"`

	// Binary and image files.
	Binary    bool   `json:"binary,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

// Contents is the tagged body of a FileView.
type Contents struct {
	// Type is one of "text", "binary", or "image".
	Type string `json:"type"`

	// Content is set for text files.
	Content *TextContent `json:"content,omitempty"`

	// Message is set for binary and image files.
	Message string `json:"message,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// FileView is the result of viewing one file.
type FileView struct {
	FilePath string   `json:"file_path"`
	FileType string   `json:"file_type"`
	Contents Contents `json:"contents"`

	// TotalLineNum is the full line count, set for text files only.
	TotalLineNum *int `json:"total_line_num,omitempty"`
}

// File reads and classifies the file at path.
func File(path string, opts Options) (*FileView, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file metadata for %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a file: %s", path)
	}

	usingLineFilters := opts.LineFrom != nil || opts.LineTo != nil
	if opts.MaxSize != nil && !usingLineFilters && info.Size() > *opts.MaxSize {
		return nil, fmt.Errorf("file is too large: %s (size: %d, limit: %d)",
			path, info.Size(), *opts.MaxSize)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to determine file type: %w", err)
	}
	fileType := mtype.String()
	if i := strings.Index(fileType, ";"); i >= 0 {
		fileType = strings.TrimSpace(fileType[:i])
	}

	switch {
	case isText(mtype):
		return textView(path, fileType, info.Size(), opts)
	case strings.HasPrefix(fileType, "image/"):
		if opts.MaxSize != nil && usingLineFilters && info.Size() > *opts.MaxSize {
			return nil, fmt.Errorf("file is too large: %s (size: %d, limit: %d)",
				path, info.Size(), *opts.MaxSize)
		}
		return &FileView{
			FilePath: path,
			FileType: fileType,
			Contents: Contents{
				Type:    ContentsImage,
				Message: fmt.Sprintf("Image file detected: %s", fileType),
				Metadata: Metadata{
					Binary:    true,
					SizeBytes: info.Size(),
					MediaType: "image",
				},
			},
		}, nil
	default:
		if opts.MaxSize != nil && usingLineFilters && info.Size() > *opts.MaxSize {
			return nil, fmt.Errorf("file is too large: %s (size: %d, limit: %d)",
				path, info.Size(), *opts.MaxSize)
		}
		return &FileView{
			FilePath: path,
			FileType: fileType,
			Contents: Contents{
				Type:    ContentsBinary,
				Message: fmt.Sprintf("Binary file detected, size: %d bytes, type: %s", info.Size(), fileType),
				Metadata: Metadata{
					Binary:    true,
					SizeBytes: info.Size(),
					MimeType:  fileType,
				},
			},
		}, nil
	}
}

// isText walks the detected type's parent chain looking for text/plain.
// This classifies structured text such as JSON or XML as text, the way
// a plain extension map cannot.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func textView(path, fileType string, size int64, opts Options) (*FileView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if !utf8.Valid(data) {
		// Sniffing said text but the bytes disagree; fall back to a
		// binary view.
		return &FileView{
			FilePath: path,
			FileType: fileType,
			Contents: Contents{
				Type:    ContentsBinary,
				Message: fmt.Sprintf("Binary file detected, size: %d bytes", size),
				Metadata: Metadata{
					Binary:    true,
					SizeBytes: size,
				},
			},
		}, nil
	}

	text := string(data)
	allLines := splitLines(text)
	lineCount := len(allLines)
	charCount := utf8.RuneCountInString(text)

	from := 1
	if opts.LineFrom != nil && *opts.LineFrom > 1 {
		from = *opts.LineFrom
	}
	to := lineCount
	if opts.LineTo != nil && *opts.LineTo < lineCount {
		to = *opts.LineTo
	}

	var lineContents []LineContent
	if from <= lineCount && from <= to {
		for n := from; n <= to; n++ {
			lineContents = append(lineContents, LineContent{
				LineNumber: n,
				Line:       allLines[n-1],
			})
		}
	}

	usingLineFilters := opts.LineFrom != nil || opts.LineTo != nil
	if usingLineFilters && opts.MaxSize != nil {
		var filteredSize int64
		for _, l := range lineContents {
			filteredSize += int64(len(l.Line)) + 1
		}
		if filteredSize > *opts.MaxSize {
			return nil, fmt.Errorf("filtered content is too large: %s (filtered size: %d, limit: %d)",
				path, filteredSize, *opts.MaxSize)
		}
	}

	total := lineCount
	return &FileView{
		FilePath: path,
		FileType: fileType,
		Contents: Contents{
			Type:    ContentsText,
			Content: &TextContent{LineContents: lineContents},
			Metadata: Metadata{
				LineCount: lineCount,
				CharCount: charCount,
			},
		},
		TotalLineNum: &total,
	}, nil
}

// splitLines splits on newlines without producing a trailing empty line
// for newline-terminated files.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
