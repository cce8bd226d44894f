package jpeg2000

// MCTBindingBuilder builds an MCTBindingParams value in a fluent style.
type MCTBindingBuilder struct {
	params MCTBindingParams
}

// NewMCTBinding starts a new MCTBindingParams builder.
func NewMCTBinding() *MCTBindingBuilder {
	return &MCTBindingBuilder{}
}

func (b *MCTBindingBuilder) Assoc(t uint8) *MCTBindingBuilder {
	b.params.AssocType = t
	return b
}

func (b *MCTBindingBuilder) Components(ids []uint16) *MCTBindingBuilder {
	b.params.ComponentIDs = ids
	return b
}

func (b *MCTBindingBuilder) Matrix(m [][]float64) *MCTBindingBuilder {
	b.params.Matrix = m
	return b
}

func (b *MCTBindingBuilder) Inverse(m [][]float64) *MCTBindingBuilder {
	b.params.Inverse = m
	return b
}

func (b *MCTBindingBuilder) Offsets(o []int32) *MCTBindingBuilder {
	b.params.Offsets = o
	return b
}

func (b *MCTBindingBuilder) ElementType(t uint8) *MCTBindingBuilder {
	b.params.ElementType = t
	return b
}

func (b *MCTBindingBuilder) MCOPrecision(p uint8) *MCTBindingBuilder {
	b.params.MCOPrecision = p
	return b
}

func (b *MCTBindingBuilder) NormScale(s float64) *MCTBindingBuilder {
	b.params.MCONormScale = s
	return b
}

func (b *MCTBindingBuilder) RecordOrder(order []uint8) *MCTBindingBuilder {
	b.params.MCTRecordOrder = order
	return b
}

// Build returns the constructed MCTBindingParams.
func (b *MCTBindingBuilder) Build() MCTBindingParams {
	return b.params
}
