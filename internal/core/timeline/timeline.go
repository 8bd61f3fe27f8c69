// Package timeline smooths per-message emotion intensities and flags
// intensity peaks across a conversation.
package timeline

const (
	DefaultSmoothingWindow = 3
	DefaultPeakThreshold   = 0.7
)

// Smooth applies a centered moving average of the given window size and
// returns a slice of the same length. A window below 1 is a no-op.
func Smooth(values []float64, window int) []float64 {
	if window < 1 {
		return values
	}

	smoothed := make([]float64, len(values))
	for i := range values {
		start := i - window/2
		if start < 0 {
			start = 0
		}
		end := i + window/2 + 1
		if end > len(values) {
			end = len(values)
		}

		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		smoothed[i] = sum / float64(end-start)
	}

	return smoothed
}

// DetectPeaks returns the indices of intensity peaks: interior points
// above the threshold that strictly exceed both neighbors. The final
// index is appended unconditionally when its value exceeds the threshold,
// even without a following point to compare against — a conversation that
// ends hot is worth flagging.
func DetectPeaks(values []float64, threshold float64) []int {
	var peaks []int
	for i := 1; i < len(values)-1; i++ {
		if values[i] > threshold && values[i] > values[i-1] && values[i] > values[i+1] {
			peaks = append(peaks, i)
		}
	}

	if len(values) > 0 && values[len(values)-1] > threshold {
		peaks = append(peaks, len(values)-1)
	}

	return peaks
}
