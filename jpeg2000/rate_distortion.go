package jpeg2000

import (
	"math"
	"sort"

	"github.com/raster-lab/j2kswift/jpeg2000/t1"
)

// LayerAllocation is the result of distributing each code-block's coding
// passes across quality layers.
type LayerAllocation struct {
	NumLayers int

	// CodeBlockPasses[cb][layer] is the cumulative number of passes from
	// code-block cb included up to and including layer. Monotonically
	// increasing in layer, e.g. [3, 7, 10] means layer 0 holds passes
	// 0-2, layer 1 adds passes 3-6, layer 2 adds passes 7-9.
	CodeBlockPasses [][]int
}

// CodeBlockContribution is one code-block pass's rate/distortion tradeoff,
// used to rank passes for inclusion in progressively larger layers.
type CodeBlockContribution struct {
	CodeBlockIndex int
	PassIndex      int
	Rate           float64
	Distortion     float64
	Slope          float64 // Distortion / Rate; higher sorts first
}

func newAllocation(numLayers, numCodeBlocks int) *LayerAllocation {
	if numLayers <= 0 {
		numLayers = 1
	}
	alloc := &LayerAllocation{
		NumLayers:       numLayers,
		CodeBlockPasses: make([][]int, numCodeBlocks),
	}
	for i := range alloc.CodeBlockPasses {
		alloc.CodeBlockPasses[i] = make([]int, numLayers)
	}
	return alloc
}

// enforceMonotonic ensures that pass counts never decrease layer over
// layer for any code-block, since each layer is a superset of the last.
func (la *LayerAllocation) enforceMonotonic(layer int) {
	if layer == 0 {
		return
	}
	for cb := range la.CodeBlockPasses {
		if la.CodeBlockPasses[cb][layer] < la.CodeBlockPasses[cb][layer-1] {
			la.CodeBlockPasses[cb][layer] = la.CodeBlockPasses[cb][layer-1]
		}
	}
}

// AllocateLayersSimple distributes passes across layers by a fixed
// exponential curve rather than measured rate-distortion contributions:
// layer L gets roughly ((L+1)/numLayers)^0.7 of the total passes, with the
// final layer always getting everything.
func AllocateLayersSimple(totalPasses, numLayers, numCodeBlocks int) *LayerAllocation {
	if numLayers <= 1 {
		alloc := newAllocation(1, numCodeBlocks)
		for i := range alloc.CodeBlockPasses {
			alloc.CodeBlockPasses[i][0] = totalPasses
		}
		return alloc
	}

	alloc := newAllocation(numLayers, numCodeBlocks)
	for cb := range alloc.CodeBlockPasses {
		for layer := 0; layer < numLayers; layer++ {
			if layer == numLayers-1 {
				alloc.CodeBlockPasses[cb][layer] = totalPasses
				continue
			}
			fraction := math.Pow(float64(layer+1)/float64(numLayers), 0.7)
			passes := clampInt(int(float64(totalPasses)*fraction), layer+1, totalPasses)
			alloc.CodeBlockPasses[cb][layer] = passes
		}
	}
	return alloc
}

// AllocateLayersRateDistortion performs a simplified PCRD-opt
// (ISO/IEC 15444-1:2019 Annex J.2): contributions across all code-blocks
// are ranked by distortion/rate slope, then greedily assigned to each
// layer until that layer's target rate is reached.
func AllocateLayersRateDistortion(codeBlockSizes [][]int, targetRates []float64) *LayerAllocation {
	numCodeBlocks := len(codeBlockSizes)
	if numCodeBlocks == 0 {
		return &LayerAllocation{NumLayers: 1}
	}

	if len(targetRates) == 0 {
		total := 0.0
		for _, sizes := range codeBlockSizes {
			for _, size := range sizes {
				total += float64(size)
			}
		}
		targetRates = []float64{total}
	}
	numLayers := len(targetRates)

	contributions := buildContributions(codeBlockSizes)
	sortBySlopeDescending(contributions)

	alloc := newAllocation(numLayers, numCodeBlocks)
	for layer, targetRate := range targetRates {
		currentRate := 0.0
		for _, contrib := range contributions {
			if currentRate >= targetRate {
				break
			}
			cb, pass := contrib.CodeBlockIndex, contrib.PassIndex
			if alloc.CodeBlockPasses[cb][layer] <= pass {
				alloc.CodeBlockPasses[cb][layer] = pass + 1
			}
			currentRate = contrib.Rate
		}
		alloc.enforceMonotonic(layer)
	}
	return alloc
}

func buildContributions(codeBlockSizes [][]int) []CodeBlockContribution {
	contributions := make([]CodeBlockContribution, 0)
	for cbIdx, sizes := range codeBlockSizes {
		cumulative := 0.0
		for passIdx, size := range sizes {
			cumulative += float64(size)
			// Higher bit-planes reduce distortion more; approximate that
			// with an exponential weight keyed off remaining passes.
			distortionReduction := math.Pow(2.0, float64(len(sizes)-passIdx))
			slope := 0.0
			if cumulative > 0 {
				slope = distortionReduction / cumulative
			}
			contributions = append(contributions, CodeBlockContribution{
				CodeBlockIndex: cbIdx,
				PassIndex:      passIdx,
				Rate:           cumulative,
				Distortion:     distortionReduction,
				Slope:          slope,
			})
		}
	}
	return contributions
}

func sortBySlopeDescending(contributions []CodeBlockContribution) {
	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Slope > contributions[j].Slope
	})
}

// AllocateLayersRateDistortionPasses performs PCRD-like allocation from
// measured per-pass rate/distortion data rather than raw byte sizes.
// targetBudget bounds the final layer's cumulative byte count; <= 0 uses
// the full available rate.
func AllocateLayersRateDistortionPasses(passesPerBlock [][]t1.PassData, numLayers int, targetBudget float64) *LayerAllocation {
	numBlocks := len(passesPerBlock)
	if numBlocks == 0 {
		return &LayerAllocation{NumLayers: max(numLayers, 1)}
	}
	alloc := newAllocation(numLayers, numBlocks)
	numLayers = alloc.NumLayers

	if numLayers == 1 {
		for cb, passes := range passesPerBlock {
			alloc.CodeBlockPasses[cb][0] = len(passes)
		}
		return alloc
	}

	contribs, totalRate := buildPassContributions(passesPerBlock)
	if targetBudget <= 0 || targetBudget > totalRate {
		targetBudget = totalRate
	}
	sort.Slice(contribs, func(i, j int) bool { return contribs[i].Slope > contribs[j].Slope })

	targetRates := make([]float64, numLayers)
	for layer := range targetRates {
		frac := math.Pow(float64(layer+1)/float64(numLayers), 1.1)
		targetRates[layer] = targetBudget * frac
	}

	selected := make([]int, numBlocks)
	for layer, budget := range targetRates {
		currentRate := 0.0
		for cb := range selected {
			currentRate += float64(getPassBytes(passesPerBlock[cb], selected[cb]))
		}

		for _, c := range contribs {
			if currentRate >= budget {
				break
			}
			if c.PassIndex+1 <= selected[c.CodeBlockIndex] {
				continue
			}
			newCount := c.PassIndex + 1
			delta := getPassBytes(passesPerBlock[c.CodeBlockIndex], newCount) - getPassBytes(passesPerBlock[c.CodeBlockIndex], selected[c.CodeBlockIndex])
			if delta <= 0 {
				continue
			}
			selected[c.CodeBlockIndex] = newCount
			currentRate += float64(delta)
		}

		for cb := range selected {
			alloc.CodeBlockPasses[cb][layer] = selected[cb]
		}
		alloc.enforceMonotonic(layer)
	}
	return alloc
}

type passContribution struct {
	CodeBlockIndex int
	PassIndex      int
	Rate           int
	Distortion     float64
	Slope          float64
}

func buildPassContributions(passesPerBlock [][]t1.PassData) ([]passContribution, float64) {
	contribs := make([]passContribution, 0)
	totalRate := 0.0
	for cbIdx, passes := range passesPerBlock {
		prevRate, prevDist := 0, 0.0
		for pi, p := range passes {
			cumRate := p.ActualBytes
			if cumRate == 0 {
				cumRate = p.Rate
			}
			incRate := cumRate - prevRate
			if incRate <= 0 {
				incRate = 1
			}
			incDist := math.Max(p.Distortion-prevDist, 0)
			slope := 0.0
			if incRate > 0 {
				slope = incDist / float64(incRate)
			}
			contribs = append(contribs, passContribution{
				CodeBlockIndex: cbIdx,
				PassIndex:      pi,
				Rate:           incRate,
				Distortion:     incDist,
				Slope:          slope,
			})
			prevRate, prevDist = cumRate, p.Distortion
		}
		totalRate += float64(getPassBytes(passes, len(passes)))
	}
	return contribs, totalRate
}

func getPassBytes(passes []t1.PassData, count int) int {
	count = clampInt(count, 0, len(passes))
	if count == 0 {
		return 0
	}
	b := passes[count-1].ActualBytes
	if b == 0 {
		b = passes[count-1].Rate
	}
	return b
}

// GetPassesForLayer returns the cumulative pass count for codeBlockIndex
// up to and including layer.
func (la *LayerAllocation) GetPassesForLayer(codeBlockIndex, layer int) int {
	if codeBlockIndex >= len(la.CodeBlockPasses) || layer >= len(la.CodeBlockPasses[codeBlockIndex]) {
		return 0
	}
	return la.CodeBlockPasses[codeBlockIndex][layer]
}

// GetNewPassesForLayer returns the passes added by layer beyond what the
// previous layer already carried.
func (la *LayerAllocation) GetNewPassesForLayer(codeBlockIndex, layer int) int {
	if codeBlockIndex >= len(la.CodeBlockPasses) || layer >= len(la.CodeBlockPasses[codeBlockIndex]) {
		return 0
	}
	current := la.CodeBlockPasses[codeBlockIndex][layer]
	if layer == 0 {
		return current
	}
	return current - la.CodeBlockPasses[codeBlockIndex][layer-1]
}
