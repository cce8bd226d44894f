package colorspace

// mapTriple applies a per-sample 3-component transform across three
// parallel slices, shared by the RCT and ICT component helpers.
func mapTriple(a, b, c []int32, transform func(int32, int32, int32) (int32, int32, int32)) ([]int32, []int32, []int32) {
	n := len(a)
	out1 := make([]int32, n)
	out2 := make([]int32, n)
	out3 := make([]int32, n)
	for i := 0; i < n; i++ {
		out1[i], out2[i], out3[i] = transform(a[i], b[i], c[i])
	}
	return out1, out2, out3
}
