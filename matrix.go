package particlelife

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// MaxCoefficient bounds the values produced by Mutate.
const MaxCoefficient = 2.0

// InteractionMatrix is the K×K table of type-pair coefficients.
// Entry (a, b) is felt by a particle of type a from a neighbour of type b
// and need not equal (b, a). It is safe for concurrent use.
type InteractionMatrix struct {
	mu    sync.RWMutex
	dense *mat.Dense
}

// NewInteractionMatrix returns a zero k×k matrix.
func NewInteractionMatrix(k int) *InteractionMatrix {
	return &InteractionMatrix{dense: mat.NewDense(k, k, nil)}
}

// MatrixFromRows builds a matrix from square row data.
func MatrixFromRows(rows [][]float64) (*InteractionMatrix, error) {
	k := len(rows)
	if k == 0 {
		return nil, fmt.Errorf("empty matrix: %w", ErrInvalidConfig)
	}
	m := NewInteractionMatrix(k)
	for i, row := range rows {
		if len(row) != k {
			return nil, fmt.Errorf("matrix row %d has %d columns, want %d: %w", i, len(row), k, ErrInvalidConfig)
		}
		m.dense.SetRow(i, row)
	}
	return m, nil
}

// K returns the number of particle types.
func (m *InteractionMatrix) K() int {
	k, _ := m.dense.Dims()
	return k
}

// At returns the coefficient for (row, col).
func (m *InteractionMatrix) At(row, col int) (float64, error) {
	if err := m.check(row, col); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dense.At(row, col), nil
}

// Set overwrites the coefficient for (row, col). The change is seen by
// the next step, never by one already running.
func (m *InteractionMatrix) Set(row, col int, v float64) error {
	if err := m.check(row, col); err != nil {
		return err
	}
	m.mu.Lock()
	m.dense.Set(row, col, v)
	m.mu.Unlock()
	return nil
}

// Rows returns a copy of the coefficients.
func (m *InteractionMatrix) Rows() [][]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := m.K()
	rows := make([][]float64, k)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m.dense)
	}
	return rows
}

// Randomize draws every coefficient uniformly from [-1, 1).
func (m *InteractionMatrix) Randomize(rng *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dense.Apply(func(_, _ int, _ float64) float64 {
		return rng.Float64()*2 - 1
	}, m.dense)
}

// Mutate perturbs every coefficient by N(0, sigma), clamped to
// [-MaxCoefficient, MaxCoefficient].
func (m *InteractionMatrix) Mutate(rng *rand.Rand, sigma float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dense.Apply(func(_, _ int, v float64) float64 {
		v += rng.NormFloat64() * sigma
		return max(-MaxCoefficient, min(MaxCoefficient, v))
	}, m.dense)
}

// Snapshot copies the current coefficients into an immutable table.
func (m *InteractionMatrix) Snapshot() Coefficients {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := m.K()
	vals := make([]float64, 0, k*k)
	for i := 0; i < k; i++ {
		vals = append(vals, m.dense.RawRowView(i)...)
	}
	return Coefficients{k: k, vals: vals}
}

func (m *InteractionMatrix) check(row, col int) error {
	k := m.K()
	if row < 0 || row >= k || col < 0 || col >= k {
		return fmt.Errorf("matrix entry (%d,%d) outside %dx%d: %w", row, col, k, k, ErrOutOfRange)
	}
	return nil
}

// Coefficients is a read-only copy of an InteractionMatrix taken at the
// start of a step.
type Coefficients struct {
	k    int
	vals []float64
}

// K returns the number of types.
func (c Coefficients) K() int { return c.k }

// At returns the coefficient felt by type a from type b.
func (c Coefficients) At(a, b int) float64 { return c.vals[a*c.k+b] }
