package codestream

// Codestream holds a fully parsed JPEG 2000 codestream: main-header
// marker segments plus zero or more tile-parts.
type Codestream struct {
	SIZ *SIZSegment
	COD *CODSegment
	QCD *QCDSegment
	COC map[uint16]*COCSegment
	QCC map[uint16]*QCCSegment
	POC []POCSegment
	RGN []RGNSegment
	COM []COMSegment

	// Part 2 multi-component transform segments (optional).
	MCT []MCTSegment
	MCC []MCCSegment
	MCO []MCOSegment

	Tiles []*Tile

	Data []byte // original encoded bytes, kept for debugging
}

// SIZSegment is the image-and-tile-size marker segment (A.5.1).
type SIZSegment struct {
	Rsiz   uint16 // capabilities (0 = baseline)
	Xsiz   uint32
	Ysiz   uint32
	XOsiz  uint32
	YOsiz  uint32
	XTsiz  uint32
	YTsiz  uint32
	XTOsiz uint32
	YTOsiz uint32
	Csiz   uint16

	Components []ComponentSize
}

// ComponentSize is one component's entry in a SIZ segment.
type ComponentSize struct {
	Ssiz  uint8 // bit 7 = sign, bits 0-6 = depth-1
	XRsiz uint8
	YRsiz uint8
}

func (c *ComponentSize) BitDepth() int { return int(c.Ssiz&0x7F) + 1 }
func (c *ComponentSize) IsSigned() bool { return c.Ssiz&0x80 != 0 }

// CODSegment is the coding-style-default marker segment (A.6.1). Scod
// bits: 0 = precincts present, 1 = SOP markers, 2 = EPH markers.
type CODSegment struct {
	Scod uint8

	ProgressionOrder           uint8 // 0=LRCP 1=RLCP 2=RPCL 3=PCRL 4=CPRL
	NumberOfLayers             uint16
	MultipleComponentTransform uint8 // 0=none, 1=RCT or ICT

	NumberOfDecompositionLevels uint8
	CodeBlockWidth              uint8 // exponent, actual size = 2^(n+2)
	CodeBlockHeight             uint8
	CodeBlockStyle              uint8
	Transformation              uint8 // 0=9/7 irreversible, 1=5/3 reversible

	PrecinctSizes []PrecinctSize // one per resolution level, if Scod bit 0 set
}

// CodeBlockSize returns the actual code-block dimensions encoded by the
// CodeBlockWidth/Height exponents.
func (c *CODSegment) CodeBlockSize() (width, height int) {
	return 1 << (c.CodeBlockWidth + 2), 1 << (c.CodeBlockHeight + 2)
}

// PrecinctSize holds precinct dimensions for one resolution level.
type PrecinctSize struct {
	PPx, PPy uint8
}

// QCDSegment is the quantization-default marker segment (A.6.4). Sqcd
// packs quantization type in bits 0-4 and guard-bit count in bits 5-7.
type QCDSegment struct {
	Sqcd  uint8
	SPqcd []byte
}

func (q *QCDSegment) QuantizationType() int { return int(q.Sqcd & 0x1F) }
func (q *QCDSegment) GuardBits() int        { return int(q.Sqcd >> 5) }

// COMSegment is a comment marker segment.
type COMSegment struct {
	Rcom uint16 // 0=binary, 1=ISO/IEC 8859-15
	Data []byte
}

// COCSegment is the coding-style-component marker segment (A.6.2),
// overriding CODSegment fields for a single component.
type COCSegment struct {
	Component uint16
	Scoc      uint8

	NumberOfDecompositionLevels uint8
	CodeBlockWidth              uint8
	CodeBlockHeight             uint8
	CodeBlockStyle              uint8
	Transformation              uint8
	PrecinctSizes               []PrecinctSize
}

// QCCSegment is the quantization-component marker segment (A.6.5).
type QCCSegment struct {
	Component uint16
	Sqcc      uint8
	SPqcc     []byte
}

// POCEntry is one progression-order-change entry.
type POCEntry struct {
	RSpoc  uint8
	CSpoc  uint16
	LYEpoc uint16
	REpoc  uint8
	CEpoc  uint16
	Ppoc   uint8
}

// POCSegment is the progression-order-change marker segment (A.6.6).
type POCSegment struct {
	Entries []POCEntry
}

// MCTArrayType enumerates multi-component transform array usages.
type MCTArrayType uint8

const (
	MCTArrayDependency  MCTArrayType = 0
	MCTArrayDecorrelate MCTArrayType = 1
	MCTArrayOffset      MCTArrayType = 2
)

// MCTElementType enumerates element representations used in MCT arrays.
type MCTElementType uint8

const (
	MCTElementInt16   MCTElementType = 0
	MCTElementInt32   MCTElementType = 1
	MCTElementFloat32 MCTElementType = 2
	MCTElementFloat64 MCTElementType = 3
)

// MCTSegment describes a multi-component transform segment (Part 2).
type MCTSegment struct {
	Index       uint8
	ElementType MCTElementType
	ArrayType   MCTArrayType
	Data        []byte
}

// MCCSegment describes a multiple component collection segment (Part 2).
type MCCSegment struct {
	Index              uint8
	CollectionType     uint8
	NumComponents      uint16
	ComponentIDs       []uint16
	OutputComponentIDs []uint16
	DecorrelateIndex   uint8
	OffsetIndex        uint8
	Reversible         bool
}

// MCOSegment describes an MCT ordering segment (Part 2).
type MCOSegment struct {
	NumStages    uint8
	StageIndices []uint8
}

// RGNSegment is the region-of-interest (MaxShift) marker segment (A.6.3).
type RGNSegment struct {
	Crgn  uint16
	Srgn  uint8 // 0 = MaxShift
	SPrgn uint8 // most-significant bit-planes to skip
}

// Tile holds one tile-part's markers, compressed data, and (once
// decoded) its per-component coefficient tree.
type Tile struct {
	Index int
	SOT   *SOTSegment
	COD   *CODSegment
	QCD   *QCDSegment
	COC   map[uint16]*COCSegment
	QCC   map[uint16]*QCCSegment
	POC   []POCSegment
	RGN   []*RGNSegment
	Data  []byte

	Components []*TileComponent
}

// TileCOD returns the tile's COD, falling back to the main-header default.
func (cs *Codestream) TileCOD(tile *Tile) *CODSegment {
	if tile != nil && tile.COD != nil {
		return tile.COD
	}
	if cs == nil {
		return nil
	}
	return cs.COD
}

// TileQCD returns the tile's QCD, falling back to the main-header default.
func (cs *Codestream) TileQCD(tile *Tile) *QCDSegment {
	if tile != nil && tile.QCD != nil {
		return tile.QCD
	}
	if cs == nil {
		return nil
	}
	return cs.QCD
}

// ComponentCOD resolves COD/COC inheritance for a component: main-header
// COC override, then tile-level COC override, applied on top of the
// resolved tile COD.
func (cs *Codestream) ComponentCOD(tile *Tile, component int) *CODSegment {
	if cs == nil || component < 0 {
		return nil
	}
	base := cs.TileCOD(tile)
	if base == nil {
		return nil
	}
	out := cloneCOD(base)
	if coc := lookupComponent(cs.COC, component); coc != nil {
		out = applyCOC(out, coc)
	}
	if tile != nil {
		if coc := lookupComponent(tile.COC, component); coc != nil {
			out = applyCOC(out, coc)
		}
	}
	return out
}

// ComponentQCD resolves QCD/QCC inheritance for a component, mirroring
// ComponentCOD.
func (cs *Codestream) ComponentQCD(tile *Tile, component int) *QCDSegment {
	if cs == nil || component < 0 {
		return nil
	}
	base := cs.TileQCD(tile)
	if base == nil {
		return nil
	}
	out := cloneQCD(base)
	if qcc := lookupComponent(cs.QCC, component); qcc != nil {
		out = applyQCC(out, qcc)
	}
	if tile != nil {
		if qcc := lookupComponent(tile.QCC, component); qcc != nil {
			out = applyQCC(out, qcc)
		}
	}
	return out
}

func lookupComponent[V any](m map[uint16]V, component int) V {
	return m[uint16(component)]
}

func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	return append([]T(nil), src...)
}

func cloneCOD(src *CODSegment) *CODSegment {
	if src == nil {
		return nil
	}
	dst := *src
	dst.PrecinctSizes = cloneSlice(src.PrecinctSizes)
	return &dst
}

func cloneQCD(src *QCDSegment) *QCDSegment {
	if src == nil {
		return nil
	}
	dst := *src
	dst.SPqcd = cloneSlice(src.SPqcd)
	return &dst
}

func applyCOC(base *CODSegment, coc *COCSegment) *CODSegment {
	if base == nil {
		return nil
	}
	out := cloneCOD(base)
	if coc == nil {
		return out
	}
	out.Scod = coc.Scoc
	out.NumberOfDecompositionLevels = coc.NumberOfDecompositionLevels
	out.CodeBlockWidth = coc.CodeBlockWidth
	out.CodeBlockHeight = coc.CodeBlockHeight
	out.CodeBlockStyle = coc.CodeBlockStyle
	out.Transformation = coc.Transformation
	out.PrecinctSizes = cloneSlice(coc.PrecinctSizes)
	return out
}

func applyQCC(base *QCDSegment, qcc *QCCSegment) *QCDSegment {
	if base == nil {
		return nil
	}
	out := cloneQCD(base)
	if qcc == nil {
		return out
	}
	out.Sqcd = qcc.Sqcc
	out.SPqcd = cloneSlice(qcc.SPqcc)
	return out
}

// SOTSegment is the start-of-tile-part marker segment (A.4.2).
type SOTSegment struct {
	Isot  uint16
	Psot  uint32
	TPsot uint8
	TNsot uint8
}

// TileComponent is one component's resolution/subband/code-block tree
// within a tile.
type TileComponent struct {
	Index       int
	Width       int
	Height      int
	Resolutions []*Resolution
}

// Resolution is one resolution level (0 = lowest, LL-only).
type Resolution struct {
	Level    int
	Width    int
	Height   int
	Subbands []*Subband
}

// Subband is one LL/HL/LH/HH subband and its code-blocks.
type Subband struct {
	Type   SubbandType
	Width  int
	Height int

	CodeBlocks []*CodeBlock

	Coefficients []int32
}

// SubbandType identifies a subband's orientation.
type SubbandType int

const (
	SubbandLL SubbandType = iota // approximation
	SubbandHL                    // horizontal detail
	SubbandLH                    // vertical detail
	SubbandHH                    // diagonal detail
)

var subbandTypeNames = [...]string{"LL", "HL", "LH", "HH"}

func (s SubbandType) String() string {
	if s < 0 || int(s) >= len(subbandTypeNames) {
		return "UNKNOWN"
	}
	return subbandTypeNames[s]
}

// CodeBlock is one EBCOT code-block.
type CodeBlock struct {
	X0, Y0 int
	X1, Y1 int
	Data   []byte
	Passes int

	Coefficients []int32
}

func (cb *CodeBlock) Width() int  { return cb.X1 - cb.X0 }
func (cb *CodeBlock) Height() int { return cb.Y1 - cb.Y0 }
