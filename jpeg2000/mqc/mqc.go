// Package mqc implements the MQ binary arithmetic coder used by EBCOT
// (ISO/IEC 15444-1 Annex C): a multiplication-free, table-driven adaptive
// coder with 47 probability states and a renormalizing interval register.
package mqc

// sentinelPad is appended after real data so bytein's lookahead never runs
// past the end of the slice; 0xFF 0xFF also acts as the standard's marker
// for "no more data" (C.3.4).
const sentinelPad = "\xff\xff"

func withSentinel(data []byte) []byte {
	padded := make([]byte, len(data)+len(sentinelPad))
	copy(padded, data)
	copy(padded[len(data):], sentinelPad)
	return padded
}

// MQDecoder implements the MQ arithmetic decoder.
type MQDecoder struct {
	data    []byte // padded with sentinelPad
	bp      int    // position of the last byte consumed by bytein
	dataLen int    // length of data excluding the sentinel

	a   uint32 // probability interval register
	c   uint32 // code register
	ct  int    // bits remaining before the next bytein
	eos int    // bytein calls past end-of-stream (diagnostic counter)

	contexts []uint8 // one adaptive state per context slot
}

// NewMQDecoder creates a decoder over data with numContexts adaptive
// contexts, all initialized to state 0.
func NewMQDecoder(data []byte, numContexts int) *MQDecoder {
	mqc := &MQDecoder{
		data:     withSentinel(data),
		dataLen:  len(data),
		contexts: make([]uint8, numContexts),
	}
	mqc.init()
	return mqc
}

// NewMQDecoderWithContexts creates a decoder that inherits context state
// from a previous pass, for coding modes (e.g. TERMALL) where only the
// interval/code registers reset between passes but learned probabilities
// must carry over.
func NewMQDecoderWithContexts(data []byte, prevContexts []uint8) *MQDecoder {
	mqc := &MQDecoder{
		data:     withSentinel(data),
		dataLen:  len(data),
		contexts: append([]uint8(nil), prevContexts...),
	}
	mqc.init()
	return mqc
}

// NewRawDecoder creates a decoder for RAW (bypass) coding, which has no
// adaptive contexts.
func NewRawDecoder(data []byte) *MQDecoder {
	return &MQDecoder{data: withSentinel(data), dataLen: len(data)}
}

// SetData rebinds the decoder to a new byte slice and reinitializes the
// interval/code registers, preserving learned context state — used for
// TERMALL mode, where each coding pass is independently terminated but
// shares one context table across the tile's passes.
func (mqc *MQDecoder) SetData(data []byte) {
	mqc.data = withSentinel(data)
	mqc.bp = 0
	mqc.dataLen = len(data)
	mqc.eos = 0
	mqc.a, mqc.c, mqc.ct = 0, 0, 0
	mqc.init()
}

// RawInit rebinds a RAW decoder to a new byte slice.
func (mqc *MQDecoder) RawInit(data []byte) {
	mqc.data = withSentinel(data)
	mqc.bp = 0
	mqc.dataLen = len(data)
	mqc.eos = 0
	mqc.a, mqc.c, mqc.ct = 0, 0, 0
}

// GetContexts snapshots the current context states.
func (mqc *MQDecoder) GetContexts() []uint8 {
	return append([]uint8(nil), mqc.contexts...)
}

// init runs the standard's INITDEC procedure (C.3.5).
func (mqc *MQDecoder) init() {
	if mqc.dataLen == 0 {
		mqc.c = 0xFF << 16
	} else {
		mqc.c = uint32(mqc.data[0]) << 16
	}
	mqc.bytein()
	mqc.c <<= 7
	mqc.ct -= 7
	mqc.a = 0x8000
}

// Decode decodes one bit under contextID, per C.3.2's DECODE procedure.
func (mqc *MQDecoder) Decode(contextID int) int {
	cx := &mqc.contexts[contextID]
	state := int(*cx & 0x7F)
	mps := int(*cx >> 7)
	qe := qeTable[state]

	mqc.a -= qe

	if (mqc.c >> 16) < qe {
		d, next := mqc.lpsExchange(state, mps, qe)
		*cx = next
		mqc.renormd()
		return d
	}

	mqc.c -= qe << 16
	if mqc.a&0x8000 != 0 {
		return mps
	}

	d, next := mqc.mpsExchange(state, mps, qe)
	*cx = next
	mqc.renormd()
	return d
}

// lpsExchange resolves the C.3.2 LPS_EXCHANGE procedure: the coded bit is
// the LPS unless the current interval is too narrow to represent it, in
// which case interval and symbol swap roles.
func (mqc *MQDecoder) lpsExchange(state, mps int, qe uint32) (bit int, next uint8) {
	if mqc.a < qe {
		mqc.a = qe
		return mps, nmpsTable[state] | uint8(mps)<<7
	}
	mqc.a = qe
	return 1 - mps, lpsTransition(state, mps)
}

// mpsExchange resolves the C.3.2 MPS_EXCHANGE procedure: the symmetric case
// of lpsExchange taken when the coded bit was provisionally the MPS.
func (mqc *MQDecoder) mpsExchange(state, mps int, qe uint32) (bit int, next uint8) {
	if mqc.a < qe {
		return 1 - mps, lpsTransition(state, mps)
	}
	return mps, nmpsTable[state] | uint8(mps)<<7
}

// lpsTransition computes the new context byte after an LPS decode,
// applying the table's conditional MPS/LPS sense switch.
func lpsTransition(state, mps int) uint8 {
	newMPS := mps
	if switchTable[state] == 1 {
		newMPS = 1 - mps
	}
	return nlpsTable[state] | uint8(newMPS)<<7
}

// renormd renormalizes the interval register by doubling until it again
// exceeds 0x8000, pulling in fresh bytes as needed (C.3.3 RENORMD).
func (mqc *MQDecoder) renormd() {
	for mqc.a < 0x8000 {
		if mqc.ct == 0 {
			mqc.bytein()
		}
		mqc.a <<= 1
		mqc.c <<= 1
		mqc.ct--
	}
}

// bytein implements the standard's BYTEIN procedure (C.3.4), including the
// 0xFF byte-stuffing special case. mqc.bp tracks the last-consumed byte;
// the lookahead byte is mqc.data[mqc.bp+1].
func (mqc *MQDecoder) bytein() {
	next := mqc.data[mqc.bp+1]
	switch {
	case mqc.data[mqc.bp] == 0xFF && next > 0x8F:
		mqc.c += 0xFF00
		mqc.ct = 8
		mqc.eos++
	case mqc.data[mqc.bp] == 0xFF:
		mqc.bp++
		mqc.c += uint32(next) << 9
		mqc.ct = 7
	default:
		mqc.bp++
		mqc.c += uint32(next) << 8
		mqc.ct = 8
	}
}

// RawDecode decodes one raw (bypass-coded) bit, with the same 0xFF
// stuffing rule as bytein but reading directly from the byte stream
// without an interval register.
func (mqc *MQDecoder) RawDecode() int {
	if mqc.ct == 0 {
		if mqc.c == 0xFF {
			next := mqc.data[mqc.bp]
			if next > 0x8F {
				mqc.c, mqc.ct = 0xFF, 8
			} else {
				mqc.c, mqc.ct = uint32(next), 7
				mqc.bp++
			}
		} else {
			mqc.c = uint32(mqc.data[mqc.bp])
			mqc.bp++
			mqc.ct = 8
		}
	}
	mqc.ct--
	return int((mqc.c >> uint(mqc.ct)) & 1)
}

// ResetContext resets a single context to its initial (state 0, MPS 0)
// value.
func (mqc *MQDecoder) ResetContext(contextID int) {
	mqc.contexts[contextID] = 0
}

// ResetContexts resets every context to its initial value.
func (mqc *MQDecoder) ResetContexts() {
	for i := range mqc.contexts {
		mqc.contexts[i] = 0
	}
}

// ReinitAfterTermination resets the interval/code registers after a
// terminated coding pass, leaving the bit position and context table
// untouched so decoding continues from where the pass left off.
func (mqc *MQDecoder) ReinitAfterTermination() {
	mqc.a, mqc.c, mqc.ct = 0x8000, 0, 0
}

// GetContextState returns a context's raw state byte.
func (mqc *MQDecoder) GetContextState(contextID int) uint8 {
	return mqc.contexts[contextID]
}

// SetContextState overwrites a context's raw state byte.
func (mqc *MQDecoder) SetContextState(contextID int, state uint8) {
	mqc.contexts[contextID] = state
}

// State transition tables, ISO/IEC 15444-1:2019 Table C.2.

var qeTable = [47]uint32{
	0x5601, 0x3401, 0x1801, 0x0AC1, 0x0521, 0x0221, 0x5601, 0x5401,
	0x4801, 0x3801, 0x3001, 0x2401, 0x1C01, 0x1601, 0x5601, 0x5401,
	0x5101, 0x4801, 0x3801, 0x3401, 0x3001, 0x2801, 0x2401, 0x2201,
	0x1C01, 0x1801, 0x1601, 0x1401, 0x1201, 0x1101, 0x0AC1, 0x09C1,
	0x08A1, 0x0521, 0x0441, 0x02A1, 0x0221, 0x0141, 0x0111, 0x0085,
	0x0049, 0x0025, 0x0015, 0x0009, 0x0005, 0x0001, 0x5601,
}

var nmpsTable = [47]uint8{
	1, 2, 3, 4, 5, 38, 7, 8,
	9, 10, 11, 12, 13, 29, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24,
	25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40,
	41, 42, 43, 44, 45, 45, 46,
}

var nlpsTable = [47]uint8{
	1, 6, 9, 12, 29, 33, 6, 14,
	14, 14, 17, 18, 20, 21, 14, 14,
	15, 16, 17, 18, 19, 19, 20, 21,
	22, 23, 24, 25, 26, 27, 28, 29,
	30, 31, 32, 33, 34, 35, 36, 37,
	38, 39, 40, 41, 42, 43, 46,
}

var switchTable = [47]uint8{
	1, 0, 0, 0, 0, 0, 1, 0,
	0, 0, 0, 0, 0, 0, 1, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0,
}

// GetQeTable returns the Qe probability estimation table, for conformance
// cross-checks against a reference implementation's table.
func GetQeTable() [47]uint32 { return qeTable }

// GetNmpsTable returns the NMPS state transition table.
func GetNmpsTable() [47]uint8 { return nmpsTable }

// GetNlpsTable returns the NLPS state transition table.
func GetNlpsTable() [47]uint8 { return nlpsTable }

// GetSwitchTable returns the MPS/LPS sense-switch table.
func GetSwitchTable() [47]uint8 { return switchTable }
