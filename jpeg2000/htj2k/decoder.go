package htj2k

import (
	"encoding/binary"
	"fmt"
)

// HTDecoder is the HTJ2K block decoder used by the JPEG2000 pipeline.
// It preserves the legacy raw passthrough mode (mel/vlc length == 0).
type HTDecoder struct {
	// Block dimensions
	width  int
	height int

	// Decoders for three segments
	magsgn *MagSgnDecoder
	mel    *MELDecoder
	vlc    *VLCDecoder

	// Decoded data
	data []int32

	// Decoding state
	maxBitplane int

	// Dimensions in quads
	qw int
	qh int

	// Raw passthrough mode (mel/vlc length == 0)
	rawMode bool
}

// quadPairState tracks one decoded quad's rho/u-offset/exponent-bound
// values across the VLC, UVLC and MagSgn decode steps of decodeQuadPair.
type quadPairState struct {
	rho  uint8
	uOff uint8
	uq   int // u - Kq, decoded via UVLC when uOff == 1
	Uq   int // exponent bound Kq + uq
}

// NewHTDecoder creates a new HT decoder.
func NewHTDecoder(width, height int) *HTDecoder {
	qw := (width + 1) / 2
	qh := (height + 1) / 2

	return &HTDecoder{
		width:  width,
		height: height,
		qw:     qw,
		qh:     qh,
		data:   make([]int32, width*height),
	}
}

// Decode decodes a HTJ2K code-block.
// params: codeblock - encoded bytes, numPasses - pass count (unused in HT path)
// returns: decoded int32 coefficients and error
func (h *HTDecoder) Decode(codeblock []byte, _ int) ([]int32, error) {
	if len(codeblock) == 0 {
		return h.data, nil
	}

	if err := h.parseCodeblock(codeblock); err != nil {
		return nil, fmt.Errorf("parse codeblock: %w", err)
	}

	if h.rawMode {
		return h.data, nil
	}

	if err := h.decodeCleanupPass(); err != nil {
		return nil, fmt.Errorf("decode cleanup pass: %w", err)
	}
	return h.data, nil
}

// decodeCleanupPass decodes every quad-pair in the block, mirroring
// EncodeQuadPair's wire format exactly: a VLC codeword per quad (always
// present, self-describing via its zero flag), followed by UVLC residuals
// for quads with u-offset set, followed by MagSgn magnitude/sign bits for
// every significant sample.
func (h *HTDecoder) decodeCleanupPass() error {
	context := NewContextComputer(h.width, h.height)
	expPred := NewExponentPredictorComputer(h.qw, h.qh)
	uvlcDec := NewUVLCDecoder(&VLCBitReader{decoder: h.vlc})

	for qy := 0; qy < h.qh; qy++ {
		isFirstRow := qy == 0
		for qx := 0; qx < h.qw; qx += 2 {
			if err := h.decodeQuadPair(qx, qy, isFirstRow, context, expPred, uvlcDec); err != nil {
				return fmt.Errorf("quad pair (%d,%d): %w", qx, qy, err)
			}
		}
	}

	return nil
}

func (h *HTDecoder) decodeQuadPair(qx, qy int, isFirstRow bool, context *ContextComputer,
	expPred *ExponentPredictorComputer, uvlcDec *UVLCDecoder) error {

	hasSecondQuad := qx+1 < h.qw

	decodeOne := func(qxi int) (quadPairState, error) {
		var s quadPairState
		ctx := context.ComputeContext(qxi, qy, isFirstRow)
		rho, uOff, _, _, found := h.vlc.DecodeQuadWithContext(ctx, isFirstRow)
		if !found {
			return s, ErrInsufficientData
		}
		s.rho = rho
		s.uOff = uOff
		if rho != 0 {
			context.UpdateQuadSignificance(qxi, qy, rho)
		}
		return s, nil
	}

	s1, err := decodeOne(qx)
	if err != nil {
		return err
	}
	Kq1 := expPred.ComputePredictor(qx, qy)

	var s2 quadPairState
	if hasSecondQuad {
		s2, err = decodeOne(qx + 1)
		if err != nil {
			return err
		}
	}
	Kq2 := 0
	if hasSecondQuad {
		Kq2 = expPred.ComputePredictor(qx+1, qy)
	}

	// UVLC residuals, in the same order EncodePair wrote them.
	if s1.uOff == 1 {
		u, err := uvlcDec.DecodeUnsignedResidual()
		if err != nil {
			return fmt.Errorf("decode u0: %w", err)
		}
		s1.uq = int(u)
	}
	if hasSecondQuad && s2.uOff == 1 {
		u, err := uvlcDec.DecodeUnsignedResidual()
		if err != nil {
			return fmt.Errorf("decode u1: %w", err)
		}
		s2.uq = int(u)
	}

	if s1.uOff == 1 {
		s1.Uq = Kq1 + s1.uq
	} else {
		s1.Uq = Kq1
	}

	if hasSecondQuad {
		if s2.uOff == 1 {
			s2.Uq = Kq2 + s2.uq
		} else {
			s2.Uq = Kq2
		}
	}

	maxE1, sigCount1 := h.decodeQuadSamples(qx, qy, s1.rho, s1.Uq)
	expPred.SetQuadExponents(qx, qy, maxE1, sigCount1)

	if hasSecondQuad {
		maxE2, sigCount2 := h.decodeQuadSamples(qx+1, qy, s2.rho, s2.Uq)
		expPred.SetQuadExponents(qx+1, qy, maxE2, sigCount2)
	}

	return nil
}

// decodeQuadSamples decodes MagSgn magnitude/sign bits for one quad's
// significant samples and writes them into h.data, returning the quad's
// maximum magnitude exponent and significant-sample count for the
// exponent predictor.
func (h *HTDecoder) decodeQuadSamples(qx, qy int, rho uint8, Uq int) (maxE int, sigCount int) {
	sx := qx * 2
	sy := qy * 2

	for i := 0; i < 4; i++ {
		if (rho>>i)&1 == 0 {
			continue
		}

		mn := Uq
		if mn < 0 {
			mn = 0
		}
		mag, sign, _ := h.magsgn.DecodeMagSgn(mn)

		coeff := int32(mag)
		if sign != 0 {
			coeff = -coeff
		}

		px := sx + i%2
		py := sy + i/2
		if px < h.width && py < h.height {
			h.data[py*h.width+px] = coeff
		}

		sigCount++
		if e := MagnitudeExponent(mag); e > maxE {
			maxE = e
		}
	}

	return maxE, sigCount
}

// parseCodeblock parses segments.
// Footer format: 4 bytes - melLen (uint16 LE) + vlcLen (uint16 LE)
// Layout: [MagSgn][MEL][VLC][melLen(2)][vlcLen(2)]
func (h *HTDecoder) parseCodeblock(codeblock []byte) error {
	if len(codeblock) < 4 {
		return fmt.Errorf("codeblock too short")
	}

	lcup := len(codeblock)
	melLen := int(binary.LittleEndian.Uint16(codeblock[lcup-4 : lcup-2]))
	vlcLen := int(binary.LittleEndian.Uint16(codeblock[lcup-2 : lcup]))
	scup := melLen + vlcLen

	magsgnLen := lcup - 4 - scup
	if magsgnLen < 0 {
		return fmt.Errorf("invalid segment lengths")
	}

	magsgnData := codeblock[0:magsgnLen]

	// Raw mode: mel/vlc lengths are both zero; read int32 coefficients directly.
	if scup == 0 {
		h.rawMode = true
		for i := 0; i < h.width*h.height && i*4+3 < len(magsgnData); i++ {
			h.data[i] = int32(binary.LittleEndian.Uint32(magsgnData[i*4:]))
		}
		return nil
	}

	h.rawMode = false
	h.magsgn = NewMagSgnDecoder(magsgnData)
	h.mel = NewMELDecoder(codeblock[magsgnLen : magsgnLen+melLen])
	h.vlc = NewVLCDecoder(codeblock[magsgnLen+melLen : magsgnLen+melLen+vlcLen])

	return nil
}

// GetData returns decoded data.
func (h *HTDecoder) GetData() []int32 {
	return h.data
}

// DecodeWithBitplane implements BlockDecoder interface.
func (h *HTDecoder) DecodeWithBitplane(data []byte, numPasses int, maxBitplane int, _ int) error {
	h.maxBitplane = maxBitplane
	_, err := h.Decode(data, numPasses)
	return err
}

// DecodeLayered implements BlockDecoder interface.
func (h *HTDecoder) DecodeLayered(data []byte, passLengths []int, maxBitplane int, _ int) error {
	h.maxBitplane = maxBitplane
	numPasses := len(passLengths)
	if numPasses == 0 {
		numPasses = 1
	}
	_, err := h.Decode(data, numPasses)
	return err
}

// Reset resets decoder.
func (h *HTDecoder) Reset() {
	for i := range h.data {
		h.data[i] = 0
	}
}
