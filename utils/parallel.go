package utils

import (
	"image"
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// ParallelForEachRow calls f for every row in [0, height). Rows are split into ParallelFactor
// contiguous bands and each band runs on its own goroutine. f must only write state owned by
// its row.
func ParallelForEachRow(height int, f func(y int)) {
	if height <= 0 {
		return
	}
	bands := ParallelFactor
	if bands > height {
		bands = height
	}
	bandSize := int(math.Ceil(float64(height) / float64(bands)))

	var waitGroup sync.WaitGroup
	for start := 0; start < height; start += bandSize {
		end := start + bandSize
		if end > height {
			end = height
		}
		waitGroup.Add(1)
		from, to := start, end
		utils.PanicCapturingGo(func() {
			defer waitGroup.Done()
			for y := from; y < to; y++ {
				f(y)
			}
		})
	}
	waitGroup.Wait()
}

// ParallelForEachPixel loops through the image and calls f for each [x, y] position.
// Work is split by rows, see ParallelForEachRow.
func ParallelForEachPixel(size image.Point, f func(x, y int)) {
	ParallelForEachRow(size.Y, func(y int) {
		for x := 0; x < size.X; x++ {
			f(x, y)
		}
	})
}
