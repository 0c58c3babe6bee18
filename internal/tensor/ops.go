package tensor

import (
	"fmt"
	"math"

	"github.com/whisker-ml/whisker/internal/parallel"
)

// lossFloor is the minimum probability fed to the logarithm in
// CrossEntropyLoss, bounding the per-row loss by -log(1e-7).
const lossFloor = 1e-7

// MatMul computes out = a @ b for a (m,k) and b (k,n).
//
// out must be pre-sized to (m,n); it is zeroed before accumulation.
// Rows of the output are computed independently and in parallel; the full
// result is materialized before MatMul returns.
func MatMul(out, a, b *Tensor) error {
	if a.Rank() != 2 || b.Rank() != 2 || out.Rank() != 2 {
		return fmt.Errorf("%w: MatMul requires rank-2 operands, got a=%v b=%v out=%v",
			ErrShape, a.shape, b.shape, out.shape)
	}
	m, k := a.shape[0], a.shape[1]
	n := b.shape[1]
	if b.shape[0] != k {
		return fmt.Errorf("%w: MatMul inner dimensions %d and %d differ", ErrShape, k, b.shape[0])
	}
	if out.shape[0] != m || out.shape[1] != n {
		return fmt.Errorf("%w: MatMul output is %v, want (%d, %d)", ErrShape, out.shape, m, n)
	}

	out.Zero()
	parallel.For(m, func(i int) {
		aRow := a.data[i*k : (i+1)*k]
		outRow := out.data[i*n : (i+1)*n]
		for p, av := range aRow {
			bRow := b.data[p*n : (p+1)*n]
			for j, bv := range bRow {
				outRow[j] += av * bv
			}
		}
	}, parallel.Default())
	return nil
}

// Add computes out = a + b elementwise. All three shapes must be equal.
func Add(out, a, b *Tensor) error {
	if !a.shape.Equal(b.shape) || !a.shape.Equal(out.shape) {
		return fmt.Errorf("%w: Add shapes a=%v b=%v out=%v", ErrShape, a.shape, b.shape, out.shape)
	}
	for i := range out.data {
		out.data[i] = a.data[i] + b.data[i]
	}
	return nil
}

// AddBias adds the rank-1 bias to every row of the rank-2 tensor x, in place.
func AddBias(x, bias *Tensor) error {
	if x.Rank() != 2 || bias.Rank() != 1 {
		return fmt.Errorf("%w: AddBias requires rank-2 x and rank-1 bias, got x=%v bias=%v",
			ErrShape, x.shape, bias.shape)
	}
	cols := x.shape[1]
	if bias.shape[0] != cols {
		return fmt.Errorf("%w: AddBias bias length %d, want %d", ErrShape, bias.shape[0], cols)
	}
	for r := 0; r < x.shape[0]; r++ {
		row := x.data[r*cols : (r+1)*cols]
		for j := range row {
			row[j] += bias.data[j]
		}
	}
	return nil
}

// ReLU applies x = max(0, x) elementwise, in place.
func ReLU(x *Tensor) {
	for i, v := range x.data {
		if v < 0 {
			x.data[i] = 0
		}
	}
}

// ReLUBackward masks the upstream gradient dy by the forward pre-activation x:
// dx[i] = dy[i] where x[i] > 0, else 0.
func ReLUBackward(dx, dy, x *Tensor) error {
	if !dx.shape.Equal(dy.shape) || !dx.shape.Equal(x.shape) {
		return fmt.Errorf("%w: ReLUBackward shapes dx=%v dy=%v x=%v", ErrShape, dx.shape, dy.shape, x.shape)
	}
	for i := range dx.data {
		if x.data[i] > 0 {
			dx.data[i] = dy.data[i]
		} else {
			dx.data[i] = 0
		}
	}
	return nil
}

// Softmax applies a numerically stable softmax to every row of a rank-2
// tensor, in place. The row maximum is subtracted before exponentiating, so
// rows with large-magnitude entries do not overflow.
func Softmax(x *Tensor) error {
	if x.Rank() != 2 {
		return fmt.Errorf("%w: Softmax requires a rank-2 tensor, got %v", ErrShape, x.shape)
	}
	cols := x.shape[1]
	for r := 0; r < x.shape[0]; r++ {
		row := x.data[r*cols : (r+1)*cols]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for j, v := range row {
			e := float32(math.Exp(float64(v - maxVal)))
			row[j] = e
			sum += e
		}
		for j := range row {
			row[j] /= sum
		}
	}
	return nil
}

// CrossEntropyLoss computes the mean negative log-likelihood over the rows
// of predictions, assuming one-hot targets.
//
// For each row, only the class whose target probability exceeds 0.5
// contributes; the predicted probability is floored at 1e-7 before the
// logarithm. A row with no such class (an all-zero target) contributes 0.
func CrossEntropyLoss(predictions, targets *Tensor) (float32, error) {
	if predictions.Rank() != 2 || !predictions.shape.Equal(targets.shape) {
		return 0, fmt.Errorf("%w: CrossEntropyLoss predictions=%v targets=%v",
			ErrShape, predictions.shape, targets.shape)
	}
	rows, cols := predictions.shape[0], predictions.shape[1]

	var total float32
	for r := 0; r < rows; r++ {
		predRow := predictions.data[r*cols : (r+1)*cols]
		tgtRow := targets.data[r*cols : (r+1)*cols]
		for j, tv := range tgtRow {
			if tv > 0.5 {
				p := predRow[j]
				if p < lossFloor {
					p = lossFloor
				}
				total += -float32(math.Log(float64(p)))
			}
		}
	}
	return total / float32(rows), nil
}

// CrossEntropyBackward computes dz = (predictions - targets) / batchSize,
// the combined softmax + cross-entropy gradient.
//
// The heuristic train step does not use this kernel; it is provided for a
// future full-backpropagation path.
func CrossEntropyBackward(dz, predictions, targets *Tensor) error {
	if predictions.Rank() != 2 || !predictions.shape.Equal(targets.shape) || !predictions.shape.Equal(dz.shape) {
		return fmt.Errorf("%w: CrossEntropyBackward dz=%v predictions=%v targets=%v",
			ErrShape, dz.shape, predictions.shape, targets.shape)
	}
	batch := float32(predictions.shape[0])
	for i := range dz.data {
		dz.data[i] = (predictions.data[i] - targets.data[i]) / batch
	}
	return nil
}
