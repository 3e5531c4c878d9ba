package sourcemap

import (
	"slices"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/zerr"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqShift    = 5
	vlqBase     = 1 << vlqShift
	vlqMask     = vlqBase - 1
	vlqContinue = vlqBase
)

var base64Index = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := range len(base64Chars) {
		idx[base64Chars[i]] = int8(i)
	}
	return idx
}()

func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinue
		}
		b.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

// EncodeMappings serializes mappings as a version 3 mappings string.
// Mappings are grouped by generated line and keep their recorded order within
// a line. Lines without mappings produce empty groups.
func EncodeMappings(mappings []domain.Mapping) string {
	sorted := slices.Clone(mappings)
	slices.SortStableFunc(sorted, func(a, b domain.Mapping) int {
		return a.GeneratedLine - b.GeneratedLine
	})

	var (
		b                         strings.Builder
		line, col                 int
		source, origLine, origCol int
		name                      int
	)
	first := true
	for _, m := range sorted {
		for line < m.GeneratedLine {
			b.WriteByte(';')
			line++
			col = 0
			first = true
		}
		if !first {
			b.WriteByte(',')
		}
		first = false

		writeVLQ(&b, m.GeneratedColumn-col)
		writeVLQ(&b, m.SourceIndex-source)
		writeVLQ(&b, m.OriginalLine-origLine)
		writeVLQ(&b, m.OriginalColumn-origCol)
		col, source, origLine, origCol = m.GeneratedColumn, m.SourceIndex, m.OriginalLine, m.OriginalColumn
		if m.HasName() {
			writeVLQ(&b, m.NameIndex-name)
			name = m.NameIndex
		}
	}
	return b.String()
}

// DecodeMappings parses a version 3 mappings string. Segments carrying only a
// generated column have no original position and are skipped.
func DecodeMappings(s string) ([]domain.Mapping, error) {
	var (
		out                       []domain.Mapping
		line, col                 int
		source, origLine, origCol int
		name                      int
	)

	for lineText := range strings.SplitSeq(s, ";") {
		col = 0
		if lineText != "" {
			for seg := range strings.SplitSeq(lineText, ",") {
				fields, err := decodeSegment(seg)
				if err != nil {
					return nil, zerr.With(err, "line", line)
				}
				col += fields[0]
				if len(fields) == 1 {
					continue
				}
				source += fields[1]
				origLine += fields[2]
				origCol += fields[3]
				m := domain.Mapping{
					GeneratedLine:   line,
					GeneratedColumn: col,
					SourceIndex:     source,
					OriginalLine:    origLine,
					OriginalColumn:  origCol,
					NameIndex:       domain.NoName,
				}
				if len(fields) == 5 {
					name += fields[4]
					m.NameIndex = name
				}
				out = append(out, m)
			}
		}
		line++
	}
	return out, nil
}

func decodeSegment(seg string) ([]int, error) {
	fields := make([]int, 0, 5)
	value, shift := 0, 0
	for i := range len(seg) {
		c := seg[i]
		if c >= 128 || base64Index[c] < 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "invalid mappings character"), "segment", seg)
		}
		digit := int(base64Index[c])
		value += (digit & vlqMask) << shift
		if digit&vlqContinue != 0 {
			shift += vlqShift
			continue
		}
		if value&1 == 1 {
			fields = append(fields, -(value >> 1))
		} else {
			fields = append(fields, value>>1)
		}
		value, shift = 0, 0
	}
	if shift != 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "truncated mappings segment"), "segment", seg)
	}
	switch len(fields) {
	case 1, 4, 5:
		return fields, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceMap, "invalid mappings segment"), "segment", seg)
	}
}
