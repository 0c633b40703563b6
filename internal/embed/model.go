// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"math"
	"math/rand/v2"
)

// logClamp bounds log(p) in the binary cross-entropy.
const logClamp = -100

// Dense is a fully connected layer y = Wx + b with W stored as [Out][In].
type Dense struct {
	In, Out int
	W       [][]float64
	B       []float64
}

// newDense initialises weights and biases uniformly in ±1/sqrt(in).
func newDense(in, out int, rng *rand.Rand) *Dense {
	bound := 1 / math.Sqrt(float64(in))
	d := &Dense{In: in, Out: out, W: matrix(out, in), B: make([]float64, out)}
	for j := range d.W {
		for i := range d.W[j] {
			d.W[j][i] = (rng.Float64()*2 - 1) * bound
		}
	}
	for j := range d.B {
		d.B[j] = (rng.Float64()*2 - 1) * bound
	}
	return d
}

func matrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for r := range m {
		m[r] = backing[r*cols : (r+1)*cols]
	}
	return m
}

func (d *Dense) params() int { return d.In*d.Out + d.Out }

// forward computes Wx + b into a new slice.
func (d *Dense) forward(x []float64) []float64 {
	y := make([]float64, d.Out)
	for j, row := range d.W {
		s := d.B[j]
		for i, w := range row {
			s += w * x[i]
		}
		y[j] = s
	}
	return y
}

// forwardSparse computes Wx + b for a binary x given by its active indices.
func (d *Dense) forwardSparse(active []int) []float64 {
	y := make([]float64, d.Out)
	for j, row := range d.W {
		s := d.B[j]
		for _, i := range active {
			s += row[i]
		}
		y[j] = s
	}
	return y
}

// Autoencoder compresses a vocabulary-sized bag of words into an embedding
// and reconstructs it.
//
//	encoder: V -> H (ReLU) -> E
//	decoder: E -> H (ReLU) -> V (sigmoid)
type Autoencoder struct {
	Enc1, Enc2 *Dense
	Dec1, Dec2 *Dense
}

// NewAutoencoder builds a randomly initialised model.
func NewAutoencoder(vocabSize, hiddenDim, embeddingDim int, rng *rand.Rand) *Autoencoder {
	return &Autoencoder{
		Enc1: newDense(vocabSize, hiddenDim, rng),
		Enc2: newDense(hiddenDim, embeddingDim, rng),
		Dec1: newDense(embeddingDim, hiddenDim, rng),
		Dec2: newDense(hiddenDim, vocabSize, rng),
	}
}

func (m *Autoencoder) layers() []*Dense {
	return []*Dense{m.Enc1, m.Enc2, m.Dec1, m.Dec2}
}

// Parameters is the total number of weights and biases.
func (m *Autoencoder) Parameters() int {
	n := 0
	for _, l := range m.layers() {
		n += l.params()
	}
	return n
}

// activations holds the intermediate values of one forward pass.
type activations struct {
	active []int
	h1     []float64 // encoder hidden after ReLU
	emb    []float64
	h2     []float64 // decoder hidden after ReLU
	recon  []float64 // sigmoid output
}

func (m *Autoencoder) forward(active []int) activations {
	h1 := relu(m.Enc1.forwardSparse(active))
	emb := m.Enc2.forward(h1)
	h2 := relu(m.Dec1.forward(emb))
	recon := m.Dec2.forward(h2)
	for k, z := range recon {
		recon[k] = sigmoid(z)
	}
	return activations{active: active, h1: h1, emb: emb, h2: h2, recon: recon}
}

// Encode returns the embedding of a bag of word indices.
func (m *Autoencoder) Encode(bag []int) []float64 {
	return m.Enc2.forward(relu(m.Enc1.forwardSparse(bag)))
}

// Reconstruct returns the embedding and the mean reconstruction loss of bag.
func (m *Autoencoder) Reconstruct(bag []int) ([]float64, float64) {
	a := m.forward(bag)
	return a.emb, bce(a.recon, target(bag, len(a.recon)))
}

func relu(x []float64) []float64 {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
	return x
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func target(bag []int, size int) []float64 {
	y := make([]float64, size)
	for _, i := range bag {
		y[i] = 1
	}
	return y
}

// bce is the mean binary cross-entropy between p and y with log(p) and
// log(1-p) clamped at logClamp.
func bce(p, y []float64) float64 {
	var sum float64
	for k := range p {
		sum -= y[k]*clampedLog(p[k]) + (1-y[k])*clampedLog(1-p[k])
	}
	return sum / float64(len(p))
}

func clampedLog(x float64) float64 {
	return math.Max(math.Log(x), logClamp)
}

// gradients mirrors the shape of an Autoencoder's parameters.
type gradients struct {
	w [4][][]float64
	b [4][]float64
}

func newGradients(m *Autoencoder) *gradients {
	g := &gradients{}
	for i, l := range m.layers() {
		g.w[i] = matrix(l.Out, l.In)
		g.b[i] = make([]float64, l.Out)
	}
	return g
}

func (g *gradients) zero() {
	for i := range g.w {
		for _, row := range g.w[i] {
			clear(row)
		}
		clear(g.b[i])
	}
}

// backward accumulates the gradient of the batch-mean BCE for one sample.
// scale is 1/(batch size * vocabulary size). The sigmoid and BCE derivatives
// combine to p - y.
func (m *Autoencoder) backward(a activations, g *gradients, scale float64) {
	y := target(a.active, len(a.recon))

	dz := make([]float64, len(a.recon))
	for k := range dz {
		dz[k] = (a.recon[k] - y[k]) * scale
	}

	dh2 := backDense(m.Dec2, dz, a.h2, g.w[3], g.b[3])
	reluGrad(dh2, a.h2)
	demb := backDense(m.Dec1, dh2, a.emb, g.w[2], g.b[2])
	dh1 := backDense(m.Enc2, demb, a.h1, g.w[1], g.b[1])
	reluGrad(dh1, a.h1)

	for j, d := range dh1 {
		if d == 0 {
			continue
		}
		row := g.w[0][j]
		for _, i := range a.active {
			row[i] += d
		}
		g.b[0][j] += d
	}
}

// backDense accumulates dW = dy xᵀ and db = dy, and returns dx = Wᵀ dy.
func backDense(l *Dense, dy, x []float64, gw [][]float64, gb []float64) []float64 {
	dx := make([]float64, l.In)
	for j, d := range dy {
		if d == 0 {
			continue
		}
		gb[j] += d
		row, grow := l.W[j], gw[j]
		for i := range row {
			grow[i] += d * x[i]
			dx[i] += row[i] * d
		}
	}
	return dx
}

func reluGrad(d, activated []float64) {
	for i, v := range activated {
		if v <= 0 {
			d[i] = 0
		}
	}
}

// Adam implements the Adam optimiser with the usual defaults for the
// moment decay rates.
type Adam struct {
	LR, Beta1, Beta2, Eps float64

	step int
	m, v *gradients
}

// NewAdam returns an optimiser for model with learning rate lr.
func NewAdam(model *Autoencoder, lr float64) *Adam {
	return &Adam{
		LR:    lr,
		Beta1: 0.9,
		Beta2: 0.999,
		Eps:   1e-8,
		m:     newGradients(model),
		v:     newGradients(model),
	}
}

// Step applies one update from g to model.
func (o *Adam) Step(model *Autoencoder, g *gradients) {
	o.step++
	c1 := 1 - math.Pow(o.Beta1, float64(o.step))
	c2 := 1 - math.Pow(o.Beta2, float64(o.step))

	update := func(p, grad, m, v []float64) {
		for i, gi := range grad {
			m[i] = o.Beta1*m[i] + (1-o.Beta1)*gi
			v[i] = o.Beta2*v[i] + (1-o.Beta2)*gi*gi
			p[i] -= o.LR * (m[i] / c1) / (math.Sqrt(v[i]/c2) + o.Eps)
		}
	}
	for li, l := range model.layers() {
		for j := range l.W {
			update(l.W[j], g.w[li][j], o.m.w[li][j], o.v.w[li][j])
		}
		update(l.B, g.b[li], o.m.b[li], o.v.b[li])
	}
}

// trainBatch runs one optimisation step over the bags in batch and returns
// the batch-mean loss before the update.
func (m *Autoencoder) trainBatch(batch [][]int, g *gradients, opt *Adam) float64 {
	g.zero()
	vocab := m.Dec2.Out
	scale := 1 / float64(len(batch)*vocab)

	var loss float64
	for _, bag := range batch {
		a := m.forward(bag)
		loss += bce(a.recon, target(bag, vocab))
		m.backward(a, g, scale)
	}
	opt.Step(m, g)
	return loss / float64(len(batch))
}
