package lookup

import (
	"bufio"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// sniffSize is how much of the stream the encoding heuristic inspects.
const sniffSize = 64 * 1024

// replacementThreshold is the fraction of invalid UTF-8 runes in the sniffed
// window above which the stream is treated as Latin-1. The upstream encoding
// is not officially documented; this heuristic follows what the published
// dumps actually contain.
const replacementThreshold = 0.002

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeReader wraps r so its bytes come out as UTF-8. A BOM decides
// directly; otherwise the sniffed window picks UTF-8 or Latin-1.
func DecodeReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffSize)

	peek, _ := br.Peek(sniffSize)
	if len(peek) >= len(utf8BOM) && peek[0] == utf8BOM[0] && peek[1] == utf8BOM[1] && peek[2] == utf8BOM[2] {
		br.Discard(len(utf8BOM))
		return br
	}

	if looksLikeUTF8(peek) {
		return br
	}
	return charmap.ISO8859_1.NewDecoder().Reader(br)
}

// looksLikeUTF8 reports whether the sample decodes as UTF-8 with a tolerable
// rate of replacement runes.
func looksLikeUTF8(sample []byte) bool {
	// Drop an incomplete trailing rune so a window boundary inside a
	// multi-byte sequence does not count as corruption.
	for i := 0; i < utf8.UTFMax && len(sample) > 0; i++ {
		if r, _ := utf8.DecodeLastRune(sample); r != utf8.RuneError {
			break
		}
		sample = sample[:len(sample)-1]
	}

	var total, invalid int
	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		total++
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		sample = sample[size:]
	}

	if total == 0 {
		return true
	}
	return float64(invalid)/float64(total) <= replacementThreshold
}
