package luastack

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Displayable reports whether a frame is rendered at all. Native frames
// carry no script position and are skipped.
func Displayable(f FrameInfo) bool {
	return text(f.Source) != NativeSource
}

// DisplayName returns the name a frame is rendered with.
func DisplayName(f FrameInfo) string {
	if f.Name == "" {
		return anonymousName
	}
	return text(f.Name)
}

// Filename returns the component of source after the last '/'.
func Filename(source string) string {
	source = text(source)
	if source == NativeSource {
		return nativeFile
	}
	if i := strings.LastIndexByte(source, '/'); i >= 0 {
		return source[i+1:]
	}
	return source
}

// text substitutes a placeholder for strings the runtime handed us that are
// not valid UTF-8.
func text(s string) string {
	if !utf8.ValidString(s) {
		return invalidText
	}
	return s
}

// WriteFrame renders f as name@filename:line. Every frame but the first is
// prefixed with a single space so a whole walk stays on one line.
func WriteFrame(w io.Writer, f FrameInfo, first bool) error {
	var num [20]byte

	if !first {
		if _, err := io.WriteString(w, " "); err != nil {
			return err
		}
	}
	for _, s := range [...]string{DisplayName(f), "@", Filename(f.Source), ":"} {
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	_, err := w.Write(strconv.AppendInt(num[:0], int64(f.Line), 10))
	return err
}

// writeFrame is WriteFrame against the concrete Buffer, so nothing it
// touches escapes to the heap.
func writeFrame(b *Buffer, f FrameInfo, first bool) error {
	if !first {
		if _, err := b.WriteString(" "); err != nil {
			return err
		}
	}
	for _, s := range [...]string{DisplayName(f), "@", Filename(f.Source), ":"} {
		if _, err := b.WriteString(s); err != nil {
			return err
		}
	}
	return b.writeInt(int64(f.Line))
}
