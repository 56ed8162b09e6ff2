package services

import "math"

// CosineSimilarity computes the cosine between two embedding vectors.
// Empty or mismatched vectors yield 0 so that components without embeddings
// are skipped rather than treated as the zero vector.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Centroid computes the component-wise mean of a set of embeddings. Nil
// vectors and vectors whose dimension disagrees with the first usable vector
// are skipped. Returns nil when no usable vector exists.
func Centroid(vectors [][]float64) []float64 {
	var dim int
	for _, v := range vectors {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	sum := make([]float64, dim)
	count := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i := range v {
			sum[i] += v[i]
		}
		count++
	}

	if count == 0 {
		return nil
	}
	for i := range sum {
		sum[i] /= float64(count)
	}
	return sum
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev returns the population standard deviation of values, 0 for
// fewer than two values.
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// RollingAverage smooths a series with a trailing window of the given size.
// The output has the same length as the input; window sizes below 1 return a
// copy of the input.
func RollingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		span := window
		if i+1 < window {
			span = i + 1
		}
		out[i] = sum / float64(span)
	}
	return out
}

// HalvesTrend compares the average of the second half of a series against the
// first half. Positive values indicate a rising series.
func HalvesTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mid := len(values) / 2
	return Mean(values[mid:]) - Mean(values[:mid])
}
