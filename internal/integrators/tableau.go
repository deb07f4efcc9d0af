package integrators

// Tableau is the Butcher tableau of an explicit embedded Runge-Kutta pair.
// A[i] holds the weights of stages 0..i-1 used to build the input of
// stage i. B gives the higher-order solution, Bhat the embedded one.
type Tableau struct {
	Name       string
	Order      int
	ErrorOrder int
	C          []float64
	A          [][]float64
	B          []float64
	Bhat       []float64
}

func (t Tableau) Stages() int { return len(t.C) }

// CashKarp returns the Cash-Karp 5(4) tableau.
//
// Reference: J. R. Cash, A. H. Karp, "A variable order Runge-Kutta method
// for initial value problems with rapidly varying right-hand sides",
// ACM Transactions on Mathematical Software 16 (1990) 201-222.
//
// The entries are untyped constant divisions, so each one is the correctly
// rounded float64 of its exact rational. A fresh copy is returned on every
// call.
func CashKarp() Tableau {
	return Tableau{
		Name:       "Cash-Karp",
		Order:      5,
		ErrorOrder: 4,
		C: []float64{
			0,
			1.0 / 5,
			3.0 / 10,
			3.0 / 5,
			1,
			7.0 / 8,
		},
		A: [][]float64{
			{},
			{1.0 / 5},
			{3.0 / 40, 9.0 / 40},
			{3.0 / 10, -9.0 / 10, 6.0 / 5},
			{-11.0 / 54, 5.0 / 2, -70.0 / 27, 35.0 / 27},
			{1631.0 / 55296, 175.0 / 512, 575.0 / 13824, 44275.0 / 110592, 253.0 / 4096},
		},
		B: []float64{
			37.0 / 378,
			0,
			250.0 / 621,
			125.0 / 594,
			0,
			512.0 / 1771,
		},
		Bhat: []float64{
			2825.0 / 27648,
			0,
			18575.0 / 48384,
			13525.0 / 55296,
			277.0 / 14336,
			1.0 / 4,
		},
	}
}
