package integrators

import "github.com/san-kum/geomint/internal/dynamo"

// StageVectors holds one length-D vector per stage, backed by a single
// contiguous slice.
type StageVectors [][]float64

func NewStageVectors(n, d int) StageVectors {
	data := make([]float64, n*d)
	v := make(StageVectors, n)
	for i := range v {
		v[i] = data[i*d : (i+1)*d : (i+1)*d]
	}
	return v
}

// Pack writes blocks into x with stage i, component k at i*D+k.
func Pack(blocks StageVectors, x []float64) error {
	if err := checkBlocks(blocks, len(x)); err != nil {
		return err
	}
	for i, b := range blocks {
		copy(x[i*len(b):], b)
	}
	return nil
}

// Unpack is the inverse of Pack.
func Unpack(x []float64, blocks StageVectors) error {
	if err := checkBlocks(blocks, len(x)); err != nil {
		return err
	}
	for i, b := range blocks {
		copy(b, x[i*len(b):(i+1)*len(b)])
	}
	return nil
}

func checkBlocks(blocks StageVectors, n int) error {
	d := 0
	if len(blocks) > 0 {
		d = len(blocks[0])
	}
	for _, b := range blocks {
		if len(b) != d {
			return dynamo.Mismatch("stage vector", len(b), d)
		}
	}
	if len(blocks)*d != n {
		return dynamo.Mismatch("flat unknowns", n, len(blocks)*d)
	}
	return nil
}

// unpackStrided copies the D-block at off+i*stride into each blocks[i].
func unpackStrided(x []float64, off, stride int, blocks StageVectors) {
	for i, b := range blocks {
		o := off + i*stride
		copy(b, x[o:o+len(b)])
	}
}

func packStrided(blocks StageVectors, off, stride int, x []float64) {
	for i, b := range blocks {
		copy(x[off+i*stride:], b)
	}
}

// checkSize guards the entry of every residual assembler.
func checkSize(x, b []float64, n int) error {
	if len(x) != n {
		return dynamo.Mismatch("unknowns", len(x), n)
	}
	if len(b) != n {
		return dynamo.Mismatch("residual", len(b), n)
	}
	return nil
}
