package mqc

// bypassCtInit marks a bypass bit counter as "not yet primed" for its first
// BypassEncode call, distinguishing it from a counter that legitimately hit
// zero mid-stream.
const bypassCtInit = 0xDEADBEEF

// MQEncoder implements the MQ arithmetic encoder (ISO/IEC 15444-1 Annex C).
type MQEncoder struct {
	buffer []byte // output bytes; index 0 is a dummy byte byteout() can carry-propagate into
	start  int
	bp     int

	a  uint32 // probability interval register
	c  uint32 // code register
	ct int    // bits buffered before the next byteout

	contexts []uint8
}

// NewMQEncoder creates an encoder with numContexts adaptive contexts, all
// initialized to state 0.
func NewMQEncoder(numContexts int) *MQEncoder {
	return &MQEncoder{
		buffer:   make([]byte, 1, 1024),
		start:    1,
		a:        0x8000,
		ct:       12,
		contexts: make([]uint8, numContexts),
	}
}

// Encode encodes bit under contextID, per C.2.1's CODE1/CODE0 procedures.
func (mqe *MQEncoder) Encode(bit int, contextID int) {
	cx := &mqe.contexts[contextID]
	state := int(*cx & 0x7F)
	mps := int(*cx >> 7)
	qe := qeTable[state]

	if bit == mps {
		if next, transitioned := mqe.encodeMPS(state, mps, qe); transitioned {
			*cx = next
		}
	} else {
		*cx = mqe.encodeLPS(state, mps, qe)
	}
}

// encodeMPS runs the CODEMPS procedure (C.2.2): narrow the interval by Qe.
// The state only advances when narrowing forces renormalization — an MPS
// decision that doesn't underflow the interval leaves the context alone.
func (mqe *MQEncoder) encodeMPS(state, mps int, qe uint32) (next uint8, transitioned bool) {
	mqe.a -= qe
	if mqe.a&0x8000 != 0 {
		mqe.c += qe
		return 0, false
	}
	if mqe.a < qe {
		mqe.a = qe
	} else {
		mqe.c += qe
	}
	next = nmpsTable[state] | uint8(mps)<<7
	mqe.renorme()
	return next, true
}

// encodeLPS runs the CODELPS procedure (C.2.3): the LPS interval is always
// narrow enough to force renormalization.
func (mqe *MQEncoder) encodeLPS(state, mps int, qe uint32) uint8 {
	mqe.a -= qe
	if mqe.a < qe {
		mqe.c += qe
	} else {
		mqe.a = qe
	}
	next := lpsTransition(state, mps)
	mqe.renorme()
	return next
}

// renorme doubles the interval register until it clears 0x8000, flushing a
// byte out each time the bit counter empties (C.2.4 RENORME).
func (mqe *MQEncoder) renorme() {
	for mqe.a < 0x8000 {
		mqe.a <<= 1
		mqe.c <<= 1
		mqe.ct--
		if mqe.ct == 0 {
			mqe.byteout()
		}
	}
}

// byteout implements C.2.5's BYTEOUT, including the carry-propagation and
// 0xFF stuffing rules that keep the code register's top byte from ever
// exceeding 0xFE once emitted.
func (mqe *MQEncoder) byteout() {
	if mqe.bp >= len(mqe.buffer) {
		mqe.ensureIndex(mqe.bp)
	}

	if mqe.buffer[mqe.bp] == 0xFF {
		mqe.emitStuffed(20, 7)
		return
	}

	if mqe.c&0x8000000 == 0 {
		mqe.emit(19, 8)
		return
	}

	mqe.buffer[mqe.bp]++
	if mqe.buffer[mqe.bp] == 0xFF {
		mqe.c &= 0x7FFFFFF
		mqe.emitStuffed(20, 7)
		return
	}
	mqe.emit(19, 8)
}

// emit advances bp and writes the next output byte from bits [shift+7:shift]
// of the code register, masking the consumed bits away and reloading ct.
func (mqe *MQEncoder) emit(shift uint, ct int) {
	mqe.bp++
	mqe.ensureIndex(mqe.bp)
	mqe.buffer[mqe.bp] = byte(mqe.c >> shift)
	mqe.c &= 1<<shift - 1
	mqe.ct = ct
}

// emitStuffed is emit's variant for the byte-stuffing case, where the
// previous output byte was 0xFF and the standard reserves one bit of the
// next byte to guarantee it can never itself decode as a marker prefix.
func (mqe *MQEncoder) emitStuffed(shift uint, ct int) {
	mqe.emit(shift, ct)
}

// Flush finalizes encoding, setting the trailing bits so the decoder's
// interval arithmetic recovers the same values, and returns the encoded
// bytes. Mirrors OpenJPEG's opj_mqc_flush / opj_mqc_setbits.
func (mqe *MQEncoder) Flush() []byte {
	mqe.setBits()
	mqe.c <<= uint(mqe.ct)
	mqe.byteout()
	mqe.c <<= uint(mqe.ct)
	mqe.byteout()

	if mqe.buffer[mqe.bp] != 0xFF {
		mqe.bp++
	}
	if mqe.bp < mqe.start {
		return []byte{}
	}
	return mqe.buffer[mqe.start:mqe.bp]
}

// setBits fills the code register's remaining low bits with ones without
// disturbing the interval it represents, per opj_mqc_setbits.
func (mqe *MQEncoder) setBits() {
	high := mqe.c + mqe.a
	mqe.c |= 0xFFFF
	if mqe.c >= high {
		mqe.c -= 0x8000
	}
}

// GetBuffer returns the bytes encoded so far, for layered encoding where a
// caller inspects output size mid-stream.
func (mqe *MQEncoder) GetBuffer() []byte {
	if mqe.bp < mqe.start {
		return []byte{}
	}
	return mqe.buffer[mqe.start:mqe.bp]
}

// NumBytes returns the number of bytes encoded so far, for rate-distortion
// tracking during multi-layer encoding.
func (mqe *MQEncoder) NumBytes() int {
	if mqe.bp < mqe.start {
		return 0
	}
	return mqe.bp - mqe.start
}

// FlushToOutput performs the same trailing-bit fixup as Flush without
// slicing a result, for pass termination inside multi-layer encoding where
// the caller tracks output length separately.
func (mqe *MQEncoder) FlushToOutput() {
	mqe.setBits()
	mqe.c <<= uint(mqe.ct)
	mqe.byteout()
	mqe.c <<= uint(mqe.ct)
	mqe.byteout()

	if mqe.buffer[mqe.bp] != 0xFF {
		mqe.bp++
	}
}

// ErtermEnc performs the predictable (PTERM) termination flush.
func (mqe *MQEncoder) ErtermEnc() {
	k := 11 - mqe.ct + 1
	for k > 0 {
		mqe.c <<= uint(mqe.ct)
		mqe.ct = 0
		mqe.byteout()
		k -= mqe.ct
	}
	if mqe.buffer[mqe.bp] != 0xFF {
		mqe.byteout()
	}
}

// BypassInitEnc switches the encoder into RAW (bypass) mode, which writes
// bits directly without adaptive probability estimation.
func (mqe *MQEncoder) BypassInitEnc() {
	mqe.c = 0
	mqe.ct = bypassCtInit
}

// BypassEncode encodes one bit in RAW mode.
func (mqe *MQEncoder) BypassEncode(bit int) {
	if mqe.ct == bypassCtInit {
		mqe.ct = 8
	}
	mqe.ct--
	mqe.c += uint32(bit) << uint(mqe.ct)
	if mqe.ct != 0 {
		return
	}
	if mqe.bp >= len(mqe.buffer) {
		mqe.ensureIndex(mqe.bp)
	}
	mqe.buffer[mqe.bp] = byte(mqe.c)
	mqe.ct = 8
	if mqe.buffer[mqe.bp] == 0xFF {
		mqe.ct = 7
	}
	mqe.bp++
	mqe.c = 0
}

// BypassExtraBytes reports whether a non-terminating RAW pass needs one
// extra output byte once flushed.
func (mqe *MQEncoder) BypassExtraBytes(erterm bool) int {
	if mqe.ct < 7 {
		return 1
	}
	if mqe.ct == 7 && (erterm || (mqe.bp > 0 && mqe.buffer[mqe.bp-1] != 0xFF)) {
		return 1
	}
	return 0
}

// BypassFlushEnc flushes RAW-mode encoding, with or without ERTERM-style
// termination.
func (mqe *MQEncoder) BypassFlushEnc(erterm bool) {
	switch {
	case mqe.ct < 7 || (mqe.ct == 7 && (erterm || (mqe.bp > 0 && mqe.buffer[mqe.bp-1] != 0xFF))):
		bitValue := 0
		for mqe.ct > 0 {
			mqe.ct--
			mqe.c += uint32(bitValue) << uint(mqe.ct)
			bitValue = 1 - bitValue
		}
		if mqe.bp >= len(mqe.buffer) {
			mqe.ensureIndex(mqe.bp)
		}
		mqe.buffer[mqe.bp] = byte(mqe.c)
		mqe.bp++
	case mqe.ct == 7 && mqe.bp > 0 && mqe.buffer[mqe.bp-1] == 0xFF:
		if !erterm {
			mqe.bp--
		}
	case mqe.ct == 8 && !erterm && mqe.bp > 1 && mqe.buffer[mqe.bp-1] == 0x7F && mqe.buffer[mqe.bp-2] == 0xFF:
		mqe.bp -= 2
	}
}

// Reset clears the encoder back to its freshly-constructed state, discarding
// any buffered output. Context states are left untouched — callers that
// also want those cleared call ResetContexts.
func (mqe *MQEncoder) Reset() {
	mqe.buffer = make([]byte, 1, 1024)
	mqe.start = 1
	mqe.bp = 0
	mqe.a = 0x8000
	mqe.c = 0
	mqe.ct = 12
}

// SegmarkEnc emits the four-bit SEGSYM segmentation symbol.
func (mqe *MQEncoder) SegmarkEnc() {
	for i := 1; i < 5; i++ {
		mqe.Encode(i%2, 18)
	}
}

// ResetContext resets a single context to its initial value.
func (mqe *MQEncoder) ResetContext(contextID int) {
	mqe.contexts[contextID] = 0
}

// ResetContexts resets every context to its initial value.
func (mqe *MQEncoder) ResetContexts() {
	for i := range mqe.contexts {
		mqe.contexts[i] = 0
	}
}

// GetContextState returns a context's raw state byte.
func (mqe *MQEncoder) GetContextState(contextID int) uint8 {
	return mqe.contexts[contextID]
}

// SetContextState overwrites a context's raw state byte.
func (mqe *MQEncoder) SetContextState(contextID int, state uint8) {
	mqe.contexts[contextID] = state
}

// RestartInitEnc reinitializes the interval/code registers after a
// terminated pass, mirroring OpenJPEG's opj_mqc_restart_init_enc.
func (mqe *MQEncoder) RestartInitEnc() {
	mqe.a = 0x8000
	mqe.c = 0
	mqe.ct = 12
	if mqe.bp > mqe.start-1 {
		mqe.bp--
	}
	if mqe.bp >= 0 && mqe.bp < len(mqe.buffer) && mqe.buffer[mqe.bp] == 0xFF {
		mqe.ct = 13
	}
}

// ensureIndex grows the buffer so index idx is valid, doubling capacity
// geometrically to keep amortized append cost constant.
func (mqe *MQEncoder) ensureIndex(idx int) {
	if idx < len(mqe.buffer) {
		return
	}
	needed := idx + 1
	if needed <= cap(mqe.buffer) {
		mqe.buffer = mqe.buffer[:needed]
		return
	}
	newCap := cap(mqe.buffer) * 2
	if newCap < needed {
		newCap = needed
	}
	newBuf := make([]byte, needed, newCap)
	copy(newBuf, mqe.buffer)
	mqe.buffer = newBuf
}
