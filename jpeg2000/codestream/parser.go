package codestream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Parser parses a JPEG 2000 codestream into a Codestream tree.
type Parser struct {
	data   []byte
	offset int
}

// NewParser creates a parser over data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the entire codestream: SOC, main header, then tile-parts
// up to EOC.
func (p *Parser) Parse() (*Codestream, error) {
	cs := &Codestream{Data: p.data}

	marker, err := p.readMarker()
	if err != nil {
		return nil, fmt.Errorf("failed to read SOC: %w", err)
	}
	if marker != MarkerSOC {
		return nil, fmt.Errorf("expected SOC marker (0x%04X), got 0x%04X", MarkerSOC, marker)
	}

	if err := p.parseMainHeader(cs); err != nil {
		return nil, fmt.Errorf("failed to parse main header: %w", err)
	}

	for {
		marker, err := p.peekMarker()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if marker == MarkerEOC {
			_, _ = p.readMarker()
			break
		}
		if marker != MarkerSOT {
			return nil, fmt.Errorf("unexpected marker in tile sequence: 0x%04X (%s)", marker, MarkerName(marker))
		}
		tile, err := p.parseTile(cs)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tile: %w", err)
		}
		// A later tile-part of an already-seen tile extends that tile's data.
		merged := false
		for _, prev := range cs.Tiles {
			if prev.Index == tile.Index {
				prev.Data = append(append([]byte(nil), prev.Data...), tile.Data...)
				merged = true
				break
			}
		}
		if !merged {
			cs.Tiles = append(cs.Tiles, tile)
		}
	}

	return cs, nil
}

// parseMainHeader consumes marker segments until SOT or EOC.
func (p *Parser) parseMainHeader(cs *Codestream) error {
	for {
		marker, err := p.peekMarker()
		if err != nil {
			return err
		}
		if marker == MarkerSOT || marker == MarkerEOC {
			break
		}
		if marker, err = p.readMarker(); err != nil {
			return err
		}
		if err := p.applyMainHeaderSegment(cs, marker); err != nil {
			return err
		}
	}

	switch {
	case cs.SIZ == nil:
		return fmt.Errorf("missing required SIZ segment")
	case cs.COD == nil:
		return fmt.Errorf("missing required COD segment")
	case cs.QCD == nil:
		return fmt.Errorf("missing required QCD segment")
	}
	return nil
}

func (p *Parser) applyMainHeaderSegment(cs *Codestream, marker uint16) error {
	switch marker {
	case MarkerSIZ:
		siz, err := p.parseSIZ()
		if err != nil {
			return fmt.Errorf("failed to parse SIZ: %w", err)
		}
		cs.SIZ = siz
	case MarkerCOD:
		cod, err := p.parseCOD()
		if err != nil {
			return fmt.Errorf("failed to parse COD: %w", err)
		}
		cs.COD = cod
	case MarkerQCD:
		qcd, err := p.parseQCD()
		if err != nil {
			return fmt.Errorf("failed to parse QCD: %w", err)
		}
		cs.QCD = qcd
	case MarkerRGN:
		rgn, err := p.parseRGN()
		if err != nil {
			return fmt.Errorf("failed to parse RGN: %w", err)
		}
		cs.RGN = append(cs.RGN, *rgn)
	case MarkerCOM:
		com, err := p.parseCOM()
		if err != nil {
			return fmt.Errorf("failed to parse COM: %w", err)
		}
		cs.COM = append(cs.COM, *com)
	case MarkerMCT:
		seg, err := p.parseMCT()
		if err != nil {
			return fmt.Errorf("failed to parse MCT: %w", err)
		}
		cs.MCT = append(cs.MCT, *seg)
	case MarkerMCC:
		seg, err := p.parseMCC()
		if err != nil {
			return fmt.Errorf("failed to parse MCC: %w", err)
		}
		cs.MCC = append(cs.MCC, *seg)
	case MarkerMCO:
		seg, err := p.parseMCO()
		if err != nil {
			return fmt.Errorf("failed to parse MCO: %w", err)
		}
		cs.MCO = append(cs.MCO, *seg)
	default:
		if err := p.skipSegment(); err != nil {
			return fmt.Errorf("failed to skip segment 0x%04X: %w", marker, err)
		}
	}
	return nil
}

// parseTile parses one SOT...SOD tile-part header plus its compressed data.
func (p *Parser) parseTile(cs *Codestream) (*Tile, error) {
	tileStart := p.offset

	marker, err := p.readMarker()
	if err != nil {
		return nil, err
	}
	if marker != MarkerSOT {
		return nil, fmt.Errorf("expected SOT, got 0x%04X", marker)
	}

	sot, err := p.parseSOT()
	if err != nil {
		return nil, err
	}
	tile := &Tile{Index: int(sot.Isot), SOT: sot}

	for {
		marker, err := p.peekMarker()
		if err != nil {
			return nil, err
		}
		if marker == MarkerSOD {
			_, _ = p.readMarker()
			break
		}
		if marker, err = p.readMarker(); err != nil {
			return nil, err
		}
		if err := p.applyTilePartSegment(cs, tile, marker); err != nil {
			return nil, err
		}
	}

	tile.Data = p.readTileDataWithLength(tileStart, sot.Psot)
	return tile, nil
}

func (p *Parser) applyTilePartSegment(cs *Codestream, tile *Tile, marker uint16) error {
	switch marker {
	case MarkerCOD:
		cod, err := p.parseCOD()
		if err != nil {
			return err
		}
		tile.COD = cod
	case MarkerQCD:
		qcd, err := p.parseQCD()
		if err != nil {
			return err
		}
		tile.QCD = qcd
	case MarkerRGN:
		rgn, err := p.parseRGN()
		if err != nil {
			return err
		}
		tile.RGN = append(tile.RGN, rgn)
	case MarkerMCT:
		seg, err := p.parseMCT()
		if err != nil {
			return err
		}
		if cs != nil {
			cs.MCT = append(cs.MCT, *seg)
		}
	case MarkerMCC:
		seg, err := p.parseMCC()
		if err != nil {
			return err
		}
		if cs != nil {
			cs.MCC = append(cs.MCC, *seg)
		}
	case MarkerMCO:
		seg, err := p.parseMCO()
		if err != nil {
			return err
		}
		if cs != nil {
			cs.MCO = append(cs.MCO, *seg)
		}
	default:
		return p.skipSegment()
	}
	return nil
}

// fieldReader lets a marker-segment parser read a sequence of fixed-width
// fields without an if-err-return after every one; the first error short
// circuits the rest and is returned by err().
type fieldReader struct {
	p   *Parser
	err error
}

func (p *Parser) fields() *fieldReader { return &fieldReader{p: p} }

func (f *fieldReader) u8() uint8 {
	if f.err != nil {
		return 0
	}
	v, err := f.p.readUint8()
	if err != nil {
		f.err = err
	}
	return v
}

func (f *fieldReader) u16() uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.p.readUint16()
	if err != nil {
		f.err = err
	}
	return v
}

func (f *fieldReader) u32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.p.readUint32()
	if err != nil {
		f.err = err
	}
	return v
}

func (f *fieldReader) bytes(buf []byte) {
	if f.err != nil {
		return
	}
	if _, err := f.p.read(buf); err != nil {
		f.err = err
	}
}

// parseRGN parses an RGN (ROI) segment. Assumes Csiz <= 256, so Crgn fits
// in a single byte.
func (p *Parser) parseRGN() (*RGNSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	if length < 5 {
		return nil, fmt.Errorf("invalid RGN length: %d", length)
	}

	f := p.fields()
	crgn := f.u8()
	srgn := f.u8()
	sprgn := f.u8()
	if f.err != nil {
		return nil, f.err
	}

	if remain := int(length) - 5; remain > 0 {
		if _, err := p.read(make([]byte, remain)); err != nil {
			return nil, err
		}
	}

	return &RGNSegment{Crgn: uint16(crgn), Srgn: srgn, SPrgn: sprgn}, nil
}

// parseSIZ parses the image-and-tile-size segment.
func (p *Parser) parseSIZ() (*SIZSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	siz := &SIZSegment{}
	f := p.fields()
	siz.Rsiz = f.u16()
	siz.Xsiz = f.u32()
	siz.Ysiz = f.u32()
	siz.XOsiz = f.u32()
	siz.YOsiz = f.u32()
	siz.XTsiz = f.u32()
	siz.YTsiz = f.u32()
	siz.XTOsiz = f.u32()
	siz.YTOsiz = f.u32()
	siz.Csiz = f.u16()
	if f.err != nil {
		return nil, f.err
	}

	siz.Components = make([]ComponentSize, siz.Csiz)
	for i := range siz.Components {
		siz.Components[i].Ssiz = f.u8()
		siz.Components[i].XRsiz = f.u8()
		siz.Components[i].YRsiz = f.u8()
	}
	if f.err != nil {
		return nil, f.err
	}

	if expected := 38 + 3*int(siz.Csiz); int(length) != expected {
		return nil, fmt.Errorf("SIZ segment length mismatch: expected %d, got %d", expected, length)
	}
	return siz, nil
}

// parseCOD parses the coding-style-default segment.
func (p *Parser) parseCOD() (*CODSegment, error) {
	if _, err := p.readUint16(); err != nil { // length, unvalidated
		return nil, err
	}

	cod := &CODSegment{}
	f := p.fields()
	cod.Scod = f.u8()
	cod.ProgressionOrder = f.u8()
	cod.NumberOfLayers = f.u16()
	cod.MultipleComponentTransform = f.u8()
	cod.NumberOfDecompositionLevels = f.u8()
	cod.CodeBlockWidth = f.u8()
	cod.CodeBlockHeight = f.u8()
	cod.CodeBlockStyle = f.u8()
	cod.Transformation = f.u8()
	if f.err != nil {
		return nil, f.err
	}

	if cod.Scod&0x01 != 0 {
		numLevels := int(cod.NumberOfDecompositionLevels) + 1
		cod.PrecinctSizes = make([]PrecinctSize, numLevels)
		for i := range cod.PrecinctSizes {
			ppxppy := f.u8()
			if f.err != nil {
				return nil, f.err
			}
			cod.PrecinctSizes[i].PPx = ppxppy & 0x0F
			cod.PrecinctSizes[i].PPy = ppxppy >> 4
		}
	}

	return cod, nil
}

// parseQCD parses the quantization-default segment.
func (p *Parser) parseQCD() (*QCDSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	qcd := &QCDSegment{}
	f := p.fields()
	qcd.Sqcd = f.u8()
	if f.err != nil {
		return nil, f.err
	}

	qcd.SPqcd = make([]byte, int(length)-3) // length covers itself (2) + Sqcd (1)
	f.bytes(qcd.SPqcd)
	if f.err != nil {
		return nil, f.err
	}
	return qcd, nil
}

// parseCOM parses a comment segment.
func (p *Parser) parseCOM() (*COMSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}

	com := &COMSegment{}
	f := p.fields()
	com.Rcom = f.u16()
	if f.err != nil {
		return nil, f.err
	}

	com.Data = make([]byte, int(length)-4) // length covers itself (2) + Rcom (2)
	f.bytes(com.Data)
	if f.err != nil {
		return nil, f.err
	}
	return com, nil
}

func (p *Parser) parseMCT() (*MCTSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	payloadLen := int(length) - 2
	if payloadLen < 6 {
		return nil, fmt.Errorf("invalid MCT length")
	}

	f := p.fields()
	zmct := f.u16()
	imct := f.u16()
	ymct := f.u16()
	if f.err != nil {
		return nil, f.err
	}
	if zmct != 0 {
		return nil, fmt.Errorf("unsupported Zmct=%d", zmct)
	}
	if ymct != 0 {
		return nil, fmt.Errorf("unsupported Ymct=%d", ymct)
	}

	idx := uint8(imct & 0xFF)
	at := uint8((imct >> 8) & 0x3)
	et := uint8((imct >> 10) & 0x3)

	buf := make([]byte, payloadLen-6)
	f.bytes(buf)
	if f.err != nil {
		return nil, f.err
	}
	return &MCTSegment{Index: idx, ElementType: MCTElementType(et), ArrayType: MCTArrayType(at), Data: buf}, nil
}

// readComponentList reads an Nmcc/Mmcc-style component index list: a
// 16-bit count whose top bit selects 1- or 2-byte component indices.
func (p *Parser) readComponentList(f *fieldReader) []uint16 {
	header := f.u16()
	if f.err != nil {
		return nil
	}
	wide := header&0x8000 != 0
	count := int(header & 0x7FFF)

	ids := make([]uint16, count)
	for i := range ids {
		if wide {
			ids[i] = f.u16()
		} else {
			ids[i] = uint16(f.u8())
		}
	}
	return ids
}

func (p *Parser) parseMCC() (*MCCSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	payloadLen := int(length) - 2
	if payloadLen < 7 {
		return nil, fmt.Errorf("invalid MCC length")
	}

	start := p.offset
	f := p.fields()
	zmcc := f.u16()
	idx := f.u8()
	ymcc := f.u16()
	qmcc := f.u16()
	if f.err != nil {
		return nil, f.err
	}
	if zmcc != 0 {
		return nil, fmt.Errorf("unsupported Zmcc=%d", zmcc)
	}
	if ymcc != 0 {
		return nil, fmt.Errorf("unsupported Ymcc=%d", ymcc)
	}
	if qmcc == 0 {
		return nil, fmt.Errorf("invalid MCC collections")
	}

	collectionType := f.u8()
	if f.err != nil {
		return nil, f.err
	}
	comps := p.readComponentList(f)
	if f.err != nil {
		return nil, f.err
	}
	outComps := p.readComponentList(f)
	if f.err != nil {
		return nil, f.err
	}

	b0, b1, b2 := f.u8(), f.u8(), f.u8()
	if f.err != nil {
		return nil, f.err
	}
	tmcc := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)

	if remain := payloadLen - (p.offset - start); remain > 0 {
		if _, err := p.read(make([]byte, remain)); err != nil {
			return nil, err
		}
	}

	return &MCCSegment{
		Index:              idx,
		CollectionType:     collectionType,
		NumComponents:      uint16(len(comps)),
		ComponentIDs:       comps,
		OutputComponentIDs: outComps,
		DecorrelateIndex:   uint8(tmcc & 0xFF),
		OffsetIndex:        uint8((tmcc >> 8) & 0xFF),
		Reversible:         (tmcc>>16)&0x1 != 0,
	}, nil
}

func (p *Parser) parseMCO() (*MCOSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	payloadLen := int(length) - 2
	if payloadLen < 1 {
		return nil, fmt.Errorf("invalid MCO length")
	}

	f := p.fields()
	numStages := f.u8()
	if f.err != nil {
		return nil, f.err
	}
	stages := make([]uint8, numStages)
	for i := range stages {
		stages[i] = f.u8()
	}
	if f.err != nil {
		return nil, f.err
	}

	if remain := payloadLen - (1 + int(numStages)); remain > 0 {
		if _, err := p.read(make([]byte, remain)); err != nil {
			return nil, err
		}
	}
	return &MCOSegment{NumStages: numStages, StageIndices: stages}, nil
}

// parseSOT parses the start-of-tile-part segment.
func (p *Parser) parseSOT() (*SOTSegment, error) {
	length, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	if length != 10 {
		return nil, fmt.Errorf("invalid SOT segment length: %d", length)
	}

	sot := &SOTSegment{}
	f := p.fields()
	sot.Isot = f.u16()
	sot.Psot = f.u32()
	sot.TPsot = f.u8()
	sot.TNsot = f.u8()
	if f.err != nil {
		return nil, f.err
	}
	return sot, nil
}

func (p *Parser) readMarker() (uint16, error) {
	return p.readUint16()
}

func (p *Parser) peekMarker() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, io.EOF
	}
	return binary.BigEndian.Uint16(p.data[p.offset : p.offset+2]), nil
}

func (p *Parser) readUint8() (uint8, error) {
	if p.offset+1 > len(p.data) {
		return 0, io.EOF
	}
	val := p.data[p.offset]
	p.offset++
	return val, nil
}

func (p *Parser) readUint16() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, io.EOF
	}
	val := binary.BigEndian.Uint16(p.data[p.offset : p.offset+2])
	p.offset += 2
	return val, nil
}

func (p *Parser) readUint32() (uint32, error) {
	if p.offset+4 > len(p.data) {
		return 0, io.EOF
	}
	val := binary.BigEndian.Uint32(p.data[p.offset : p.offset+4])
	p.offset += 4
	return val, nil
}

func (p *Parser) read(buf []byte) (int, error) {
	if p.offset+len(buf) > len(p.data) {
		return 0, io.EOF
	}
	n := copy(buf, p.data[p.offset:p.offset+len(buf)])
	p.offset += n
	return n, nil
}

func (p *Parser) skipSegment() error {
	length, err := p.readUint16()
	if err != nil {
		return err
	}
	skip := int(length) - 2 // length field covers itself
	if p.offset+skip > len(p.data) {
		return io.EOF
	}
	p.offset += skip
	return nil
}

// readTileData scans forward to the next marker (0xFF followed by a byte
// that isn't a stuffing 0x00 or below the marker range), used when no
// Psot length is available.
func (p *Parser) readTileData() []byte {
	start := p.offset
	for p.offset < len(p.data) {
		if p.data[p.offset] == 0xFF && p.offset+1 < len(p.data) {
			next := p.data[p.offset+1]
			if next != 0x00 && next >= 0x4F {
				break
			}
		}
		p.offset++
	}
	return p.data[start:p.offset]
}

func (p *Parser) readTileDataWithLength(tileStart int, psot uint32) []byte {
	if psot == 0 {
		return p.readTileData()
	}
	remaining := int(psot) - (p.offset - tileStart)
	if remaining <= 0 {
		return []byte{}
	}
	if p.offset+remaining > len(p.data) {
		remaining = len(p.data) - p.offset
	}
	start := p.offset
	p.offset += remaining
	return p.data[start:p.offset]
}
