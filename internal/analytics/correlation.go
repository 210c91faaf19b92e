package analytics

// covariance computes population covariance over paired values truncated to
// the shorter length.
func covariance(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return 0
	}

	x = x[:n]
	y = y[:n]
	meanX := Mean(x)
	meanY := Mean(y)

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (x[i] - meanX) * (y[i] - meanY)
	}
	return sum / float64(n)
}

// Correlation computes the Pearson coefficient over paired return series
// truncated to the shorter length. Returns 0 when either side has zero
// variance.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return 0
	}

	sx := StdDev(x[:n])
	sy := StdDev(y[:n])
	if sx == 0 || sy == 0 {
		return 0
	}
	return covariance(x[:n], y[:n]) / (sx * sy)
}

// CorrelationMatrix builds the pairwise Pearson matrix for the given return
// series. The diagonal is exactly 1 and the matrix is symmetric by
// construction: each off-diagonal pair is computed once and mirrored.
func CorrelationMatrix(series [][]float64) [][]float64 {
	n := len(series)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := Correlation(series[i], series[j])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return matrix
}

// Beta is cov(asset, benchmark) / var(benchmark), truncated to the shorter
// length. Defaults to 1 when the benchmark variance is 0 or the sample is
// empty — a neutral exposure rather than an error.
func Beta(asset, benchmark []float64) float64 {
	n := len(asset)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n == 0 {
		return 1
	}

	benchVar := covariance(benchmark[:n], benchmark[:n])
	if benchVar == 0 {
		return 1
	}
	return covariance(asset[:n], benchmark[:n]) / benchVar
}
