package contentstream

import "bytes"

// IsWhitespace reports whether b is a PDF whitespace byte
func IsWhitespace(b byte) bool {
	switch b {
	case 0x00, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// IsDelimiter reports whether b is a PDF delimiter byte
func IsDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// IsRegular reports whether b can be part of a keyword, name or number
func IsRegular(b byte) bool {
	return !IsWhitespace(b) && !IsDelimiter(b)
}

// Split partitions data into operator text and inline image spans.
// Each BI ... ID ... EI sequence becomes one binary segment; everything
// else is operator text. Concatenating the segments yields data again.
func Split(data []byte) []Segment {
	var segments []Segment
	start := 0
	i := 0
	for i < len(data) {
		switch data[i] {
		case '(':
			i = skipLiteral(data, i)
			continue
		case '%':
			i = skipComment(data, i)
			continue
		}

		if !keywordAt(data, i, "BI") {
			i++
			continue
		}

		end := inlineImageEnd(data, i)
		if i > start {
			segments = append(segments, Segment{Kind: SegmentOperators, Bytes: data[start:i]})
		}
		segments = append(segments, Segment{Kind: SegmentBinary, Bytes: data[i:end]})
		i = end
		start = end
	}

	if start < len(data) {
		segments = append(segments, Segment{Kind: SegmentOperators, Bytes: data[start:]})
	}
	return segments
}

// keywordAt reports whether kw starts at i as a standalone keyword.
// A slash before it makes it part of a name.
func keywordAt(data []byte, i int, kw string) bool {
	if !bytes.HasPrefix(data[i:], []byte(kw)) {
		return false
	}
	if i > 0 {
		prev := data[i-1]
		if prev == '/' || IsRegular(prev) {
			return false
		}
	}
	end := i + len(kw)
	return end == len(data) || !IsRegular(data[end])
}

// inlineImageEnd returns the offset just past the EI closing the inline
// image that begins at bi. Without an ID or EI the image runs to the end.
func inlineImageEnd(data []byte, bi int) int {
	i := bi + 2
	for ; i < len(data); i++ {
		if data[i] == '(' {
			i = skipLiteral(data, i) - 1
			continue
		}
		if keywordAt(data, i, "ID") {
			break
		}
	}
	if i >= len(data) {
		return len(data)
	}

	// one whitespace byte separates ID from the image data
	i += 2
	if i < len(data) && IsWhitespace(data[i]) {
		i++
	}

	for ; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > 0 && !IsWhitespace(data[i-1]) && !IsDelimiter(data[i-1]) {
			continue
		}
		end := i + 2
		if end == len(data) || IsWhitespace(data[end]) || IsDelimiter(data[end]) {
			return end
		}
	}
	return len(data)
}

// skipLiteral returns the offset just past the literal string opening at i
func skipLiteral(data []byte, i int) int {
	depth := 0
	for ; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(data)
}

// skipComment returns the offset of the end-of-line byte closing the comment at i
func skipComment(data []byte, i int) int {
	for ; i < len(data); i++ {
		if data[i] == '\r' || data[i] == '\n' {
			return i
		}
	}
	return len(data)
}
