package xmlstream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when the underlying stream ends while a fragment
// is still open. Fragments already delivered are not affected.
var ErrTruncated = errors.New("xmlstream: stream ended inside an open fragment")

const readChunkSize = 64 * 1024

// Extract scans r for top-level occurrences of <tag ...>...</tag> and hands
// the raw bytes of each complete fragment to fn as it is seen. The document
// is never materialized in full - outside a fragment only a tail the length
// of the opening token is retained. Byte sequences that are not valid UTF-8
// are passed through untouched; sanitizing is the caller's concern.
//
// A non-nil error from fn aborts the scan. Returns the number of fragments
// delivered.
func Extract(r io.Reader, tag string, fn func(raw []byte) error) (int, error) {
	if tag == "" {
		return 0, errors.New("xmlstream: tag must not be empty")
	}

	openToken := []byte("<" + tag)
	closeToken := []byte("</" + tag + ">")

	br := bufio.NewReaderSize(r, readChunkSize)
	var buf []byte
	var inFragment bool
	count := 0
	chunk := make([]byte, readChunkSize)

	for {
		n, readErr := br.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				if !inFragment {
					start := indexOpenToken(buf, openToken)
					if start < 0 {
						// Keep enough tail to match a token split across reads.
						if len(buf) > len(openToken) {
							buf = buf[len(buf)-len(openToken):]
						}
						break
					}
					buf = buf[start:]
					inFragment = true
				}

				end := bytes.Index(buf, closeToken)
				if end < 0 {
					break
				}
				end += len(closeToken)
				fragment := make([]byte, end)
				copy(fragment, buf[:end])
				buf = buf[end:]
				inFragment = false
				count++
				if err := fn(fragment); err != nil {
					return count, err
				}
			}
		}

		if readErr == io.EOF {
			if inFragment {
				return count, fmt.Errorf("%w: <%s> after %d complete fragments", ErrTruncated, tag, count)
			}
			return count, nil
		}
		if readErr != nil {
			return count, fmt.Errorf("xmlstream: reading stream: %w", readErr)
		}
	}
}

// indexOpenToken finds "<tag" followed by a name boundary, so that a search
// for <Fund> does not open on <FundCode>.
func indexOpenToken(buf, token []byte) int {
	from := 0
	for {
		i := bytes.Index(buf[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(token)
		if next >= len(buf) {
			// Boundary byte not read yet; treat as no match and retain tail.
			return -1
		}
		switch buf[next] {
		case ' ', '\t', '\r', '\n', '>', '/':
			return i
		}
		from = i + 1
	}
}
