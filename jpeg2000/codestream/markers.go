package codestream

// Marker codes, per ISO/IEC 15444-1:2019 Table A.1.

// Delimiting markers.
const (
	MarkerSOC uint16 = 0xFF4F // Start of codestream
	MarkerSOT uint16 = 0xFF90 // Start of tile-part
	MarkerSOD uint16 = 0xFF93 // Start of data
	MarkerEOC uint16 = 0xFFD9 // End of codestream
)

// Fixed information marker segments.
const (
	MarkerSIZ uint16 = 0xFF51 // Image and tile size
)

// Functional marker segments.
const (
	MarkerCOD uint16 = 0xFF52 // Coding style default
	MarkerCOC uint16 = 0xFF53 // Coding style component
	MarkerRGN uint16 = 0xFF5E // Region of interest
	MarkerQCD uint16 = 0xFF5C // Quantization default
	MarkerQCC uint16 = 0xFF5D // Quantization component
	MarkerPOC uint16 = 0xFF5F // Progression order change
)

// Pointer marker segments.
const (
	MarkerTLM uint16 = 0xFF55 // Tile-part lengths
	MarkerPLM uint16 = 0xFF57 // Packet length, main header
	MarkerPLT uint16 = 0xFF58 // Packet length, tile-part header
	MarkerPPM uint16 = 0xFF60 // Packed packet headers, main header
	MarkerPPT uint16 = 0xFF61 // Packed packet headers, tile-part header
)

// Informational marker segments, plus Part 2 multi-component transform
// markers (ISO/IEC 15444-2).
const (
	MarkerCRG uint16 = 0xFF63 // Component registration
	MarkerCOM uint16 = 0xFF64 // Comment
	MarkerMCT uint16 = 0xFF74 // Multi-component transform
	MarkerMCC uint16 = 0xFF75 // Multiple component collection
	MarkerMCO uint16 = 0xFF77 // MCT ordering
)

var markerNames = map[uint16]string{
	MarkerSOC: "SOC", MarkerSOT: "SOT", MarkerSOD: "SOD", MarkerEOC: "EOC",
	MarkerSIZ: "SIZ",
	MarkerCOD: "COD", MarkerCOC: "COC", MarkerRGN: "RGN",
	MarkerQCD: "QCD", MarkerQCC: "QCC", MarkerPOC: "POC",
	MarkerTLM: "TLM", MarkerPLM: "PLM", MarkerPLT: "PLT",
	MarkerPPM: "PPM", MarkerPPT: "PPT",
	MarkerCRG: "CRG", MarkerCOM: "COM",
	MarkerMCT: "MCT", MarkerMCC: "MCC", MarkerMCO: "MCO",
}

// noLengthMarkers holds the delimiting markers that carry no length field.
var noLengthMarkers = map[uint16]bool{
	MarkerSOC: true,
	MarkerSOD: true,
	MarkerEOC: true,
}

// MarkerName returns the mnemonic for a marker code, or "UNKNOWN".
func MarkerName(marker uint16) string {
	if name, ok := markerNames[marker]; ok {
		return name
	}
	return "UNKNOWN"
}

// HasLength reports whether marker is followed by a two-byte length field.
func HasLength(marker uint16) bool {
	return !noLengthMarkers[marker]
}
