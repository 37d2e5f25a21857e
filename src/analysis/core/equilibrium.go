package core

// -----------------------------------------------------------------------------

// EquilibriumPrice is the equilibrium curve a + b*t^2. The simulator uses it to
// seed the first two steps.
func EquilibriumPrice(a, b float64, t int) float64 {
	ft := float64(t)
	return a + b*ft*ft
}

// -----------------------------------------------------------------------------

// MarginalTerm is k_c(t) = (a + b*t^2)*k_sd + b*(2t+1): the discrete step of
// the equilibrium curve plus the decay that keeps the price near it.
func MarginalTerm(a, b, kSD float64, t int) float64 {
	ft := float64(t)
	return (a+b*ft*ft)*kSD + b*(2*ft+1)
}
