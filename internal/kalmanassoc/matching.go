package kalmanassoc

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MatchStrategy resolves a cost matrix (rows = detections, cols = tracks) into
// a set of one-to-one matches. Entries above costThreshold must never be
// matched.
type MatchStrategy func(cost *mat.Dense, costThreshold float64) (detIdx, trackIdx []int)

// GreedyMatch repeatedly picks the globally smallest remaining cost and
// commits it, invalidating its row and column, until the smallest remaining
// cost exceeds costThreshold. Adapted from the teacher's MatchDetectionsAndObjects:
// simple, not globally optimal, but cheap and stable in practice.
func GreedyMatch(cost *mat.Dense, costThreshold float64) (detIdx, trackIdx []int) {
	rows, cols := cost.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil
	}

	working := mat.DenseCopyOf(cost)
	invalid := costThreshold + 1.0

	for {
		r, c, min := argMin(working)
		if min > costThreshold {
			break
		}
		detIdx = append(detIdx, r)
		trackIdx = append(trackIdx, c)
		for j := 0; j < cols; j++ {
			working.Set(r, j, invalid)
		}
		for i := 0; i < rows; i++ {
			working.Set(i, c, invalid)
		}
	}
	return detIdx, trackIdx
}

// HungarianMatch solves the assignment optimally via the Hungarian algorithm
// (go-hungarian, called through LinearSumAssignment in hungarian.go), rejecting matches whose cost
// exceeds costThreshold.
func HungarianMatch(cost *mat.Dense, costThreshold float64) (detIdx, trackIdx []int) {
	rows, cols := cost.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil
	}

	costRows := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		costRows[i] = mat.Row(nil, i, cost)
	}

	assignments, _, _ := LinearSumAssignment(costRows, costThreshold)
	for _, a := range assignments {
		detIdx = append(detIdx, a.RowIdx)
		trackIdx = append(trackIdx, a.ColIdx)
	}
	return detIdx, trackIdx
}

func argMin(m *mat.Dense) (row, col int, val float64) {
	rows, cols := m.Dims()
	val = math.Inf(1)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v < val {
				val = v
				row, col = i, j
			}
		}
	}
	return row, col, val
}
