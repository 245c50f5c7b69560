package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// compressMarker помечает сжатый payload; вход без маркера проходит
	// через Decompress без изменений (fallback-safe)
	compressMarker = "JK1:"

	// compressMinSize — порог, ниже которого сжатие не применяется,
	// чтобы не платить накладные расходы на крошечных payload
	compressMinSize = 64

	windowSize    = 4096
	minMatchLen   = 4
	maxMatchLen   = 255
	maxLiteralRun = 255

	tokenLiteral = 0x00
	tokenMatch   = 0x01
)

// Compress applies dictionary/back-reference compression to text and returns
// a marked Base64 payload. Input below the size threshold, or input that the
// scheme cannot shrink, is returned unchanged, so Decompress(Compress(s)) == s
// holds for every string.
func Compress(text string) string {
	if len(text) < compressMinSize {
		return text
	}

	packed := pack([]byte(text))
	encoded := compressMarker + base64.StdEncoding.EncodeToString(packed)

	// Сжатие без выигрыша (с учетом base64 и маркера) не имеет смысла
	if len(encoded) >= len(text) {
		return text
	}
	return encoded
}

// Decompress reverses Compress. Unmarked input is passed through unchanged;
// a corrupted marked payload is likewise returned as-is rather than failing.
func Decompress(text string) string {
	if !strings.HasPrefix(text, compressMarker) {
		return text
	}

	packed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, compressMarker))
	if err != nil {
		return text
	}

	out, err := unpack(packed)
	if err != nil {
		return text
	}
	return string(out)
}

// pack кодирует данные потоком токенов:
//
//	0x00 <n> <n литеральных байт>  — литеральный прогон, 1..255 байт
//	0x01 <offset:2> <len:1>        — ссылка назад в окно, длина 4..255
//
// Словарем служит скользящее окно последних windowSize байт.
func pack(data []byte) []byte {
	out := make([]byte, 0, len(data))
	// Индекс позиций 4-байтовых префиксов для поиска совпадений
	index := make(map[uint32][]int)

	var literals []byte
	flushLiterals := func() {
		for len(literals) > 0 {
			n := len(literals)
			if n > maxLiteralRun {
				n = maxLiteralRun
			}
			out = append(out, tokenLiteral, byte(n))
			out = append(out, literals[:n]...)
			literals = literals[n:]
		}
	}

	i := 0
	for i < len(data) {
		matchOff, matchLen := findMatch(data, i, index)

		if matchLen >= minMatchLen {
			flushLiterals()
			out = append(out, tokenMatch)
			out = binary.BigEndian.AppendUint16(out, uint16(matchOff))
			out = append(out, byte(matchLen))
		} else {
			matchLen = 1
			literals = append(literals, data[i])
		}

		// Индексируем пройденные позиции
		for j := i; j < i+matchLen && j+minMatchLen <= len(data); j++ {
			key := prefixKey(data[j:])
			positions := index[key]
			if len(positions) >= 16 {
				positions = positions[1:]
			}
			index[key] = append(positions, j)
		}
		i += matchLen
	}

	flushLiterals()
	return out
}

// findMatch ищет самое длинное совпадение для позиции i в пределах окна
func findMatch(data []byte, i int, index map[uint32][]int) (offset, length int) {
	if i+minMatchLen > len(data) {
		return 0, 0
	}

	candidates := index[prefixKey(data[i:])]
	for k := len(candidates) - 1; k >= 0; k-- {
		pos := candidates[k]
		off := i - pos
		if off > windowSize {
			break
		}

		l := 0
		for i+l < len(data) && l < maxMatchLen && data[pos+l] == data[i+l] {
			l++
		}
		if l > length {
			offset, length = off, l
		}
	}
	return offset, length
}

func prefixKey(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// unpack декодирует поток токенов; любое нарушение формата — ошибка,
// которую Decompress превращает в passthrough
func unpack(packed []byte) ([]byte, error) {
	out := make([]byte, 0, len(packed)*2)

	i := 0
	for i < len(packed) {
		switch packed[i] {
		case tokenLiteral:
			if i+2 > len(packed) {
				return nil, fmt.Errorf("truncated literal token at %d", i)
			}
			n := int(packed[i+1])
			if n == 0 || i+2+n > len(packed) {
				return nil, fmt.Errorf("invalid literal run length %d at %d", n, i)
			}
			out = append(out, packed[i+2:i+2+n]...)
			i += 2 + n

		case tokenMatch:
			if i+4 > len(packed) {
				return nil, fmt.Errorf("truncated match token at %d", i)
			}
			off := int(binary.BigEndian.Uint16(packed[i+1 : i+3]))
			l := int(packed[i+3])
			if off == 0 || off > len(out) || l < minMatchLen {
				return nil, fmt.Errorf("invalid back-reference off=%d len=%d at %d", off, l, i)
			}
			// Копируем байт за байтом: ссылка может перекрывать саму себя
			start := len(out) - off
			for j := 0; j < l; j++ {
				out = append(out, out[start+j])
			}
			i += 4

		default:
			return nil, fmt.Errorf("unknown token 0x%02x at %d", packed[i], i)
		}
	}

	return out, nil
}
