package ctiformat

import (
	"encoding/binary"
	"fmt"
	"math"

	"cti/ctierr"
)

// Section type tags.
const (
	SectionTypeRES uint32 = 0x20534552 // "RES "
	SectionTypeICC uint32 = 0x20434349 // "ICC "

	sectionTOCEntrySize = 4 + 8 + 8
)

// Section is one section's type tag and raw payload, ready to serialize.
type Section struct {
	Type    uint32
	Payload []byte
}

// EncodeDPI builds a RES section payload from a DPI pair.
func EncodeDPI(x, y float32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(x))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(y))
	return buf
}

// DecodeDPI parses a RES section payload. The payload must be exactly 8 bytes.
func DecodeDPI(payload []byte) (x, y float32, err error) {
	if len(payload) != 8 {
		return 0, 0, fmt.Errorf("%w: RES payload must be 8 bytes, got %d", ctierr.ErrBadSectionTOC, len(payload))
	}
	x = math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4]))
	y = math.Float32frombits(binary.LittleEndian.Uint32(payload[4:8]))
	return x, y, nil
}

// EncodeSections serializes the section trailer (RES before ICC per the
// fixed emission order) starting at baseOffset in the final file, returning
// the trailer bytes. Pass no sections to omit the trailer entirely.
func EncodeSections(sections []Section, baseOffset uint64) []byte {
	if len(sections) == 0 {
		return nil
	}
	ordered := orderSections(sections)

	count := uint32(len(ordered))
	tocSize := uint64(4) + uint64(count)*sectionTOCEntrySize
	payloadOffset := baseOffset + tocSize

	buf := make([]byte, 0, tocSize+totalPayloadSize(ordered))
	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, count)
	buf = append(buf, header...)

	offsets := make([]uint64, len(ordered))
	off := payloadOffset
	for i, s := range ordered {
		offsets[i] = off
		off += uint64(len(s.Payload))
	}
	for i, s := range ordered {
		rec := make([]byte, sectionTOCEntrySize)
		binary.LittleEndian.PutUint32(rec[0:4], s.Type)
		binary.LittleEndian.PutUint64(rec[4:12], offsets[i])
		binary.LittleEndian.PutUint64(rec[12:20], uint64(len(s.Payload)))
		buf = append(buf, rec...)
	}
	for _, s := range ordered {
		buf = append(buf, s.Payload...)
	}
	return buf
}

// orderSections returns sections sorted RES-before-ICC-before-others, so
// trailer layout is reproducible regardless of caller-supplied order.
func orderSections(sections []Section) []Section {
	rank := func(ty uint32) int {
		switch ty {
		case SectionTypeRES:
			return 0
		case SectionTypeICC:
			return 1
		default:
			return 2
		}
	}
	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && rank(ordered[j].Type) < rank(ordered[j-1].Type); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

func totalPayloadSize(sections []Section) uint64 {
	var n uint64
	for _, s := range sections {
		n += uint64(len(s.Payload))
	}
	return n
}

// DecodeSectionTOC parses the section count + TOC entries from buf (the
// bytes starting at the trailer). It does not read payloads.
func DecodeSectionTOC(buf []byte) (count uint32, entries []SectionTOCEntry, tocLen int, err error) {
	if len(buf) < 4 {
		return 0, nil, 0, fmt.Errorf("%w: trailer too short for count", ctierr.ErrBadSectionTOC)
	}
	count = binary.LittleEndian.Uint32(buf[0:4])
	need := 4 + int(count)*sectionTOCEntrySize
	if len(buf) < need {
		return 0, nil, 0, fmt.Errorf("%w: need %d bytes for %d sections, got %d", ctierr.ErrBadSectionTOC, need, count, len(buf))
	}
	entries = make([]SectionTOCEntry, count)
	for i := range entries {
		rec := buf[4+i*sectionTOCEntrySize:]
		entries[i] = SectionTOCEntry{
			Type:   binary.LittleEndian.Uint32(rec[0:4]),
			Offset: binary.LittleEndian.Uint64(rec[4:12]),
			Size:   binary.LittleEndian.Uint64(rec[12:20]),
		}
	}
	return count, entries, need, nil
}

// SectionTOCEntry is one parsed (type, offset, size) record.
type SectionTOCEntry struct {
	Type   uint32
	Offset uint64
	Size   uint64
}
