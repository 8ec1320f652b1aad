package motiondetection

import (
	"image"

	"go.viam.com/motiondetect/utils"
)

// Connectivity is the neighborhood used to join foreground pixels into regions.
type Connectivity int

const (
	// Connectivity4 joins pixels sharing an edge.
	Connectivity4 Connectivity = 4
	// Connectivity8 joins pixels sharing an edge or a corner.
	Connectivity8 Connectivity = 8
)

var (
	fourNeighbors  = []image.Point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	eightNeighbors = []image.Point{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// Region is an outer connected foreground area of a delta mask. Area counts the pixels enclosed
// by the region's outer boundary: its own pixels plus any holes, and anything nested inside those
// holes. Area can still be smaller than Width*Height.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Area   int `json:"area"`
}

// Rect returns the bounding box of the region.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Postprocessor filters or modifies a list of regions.
type Postprocessor func([]Region) []Region

// NewAreaFilter returns a function that filters out regions below a certain area.
func NewAreaFilter(area int) Postprocessor {
	return func(in []Region) []Region {
		out := make([]Region, 0, len(in))
		for _, r := range in {
			if r.Area >= area {
				out = append(out, r)
			}
		}
		return out
	}
}

// RegionExtractor finds outer connected foreground components in a mask.
type RegionExtractor struct {
	neighbors   []image.Point
	bgNeighbors []image.Point
	filter      Postprocessor
}

// NewRegionExtractor returns an extractor that drops regions enclosing fewer than minArea pixels.
func NewRegionExtractor(minArea int, connectivity Connectivity) (*RegionExtractor, error) {
	if minArea <= 0 {
		return nil, NewConfigurationError("min_area", "must be positive, got %d", minArea)
	}
	re := &RegionExtractor{filter: NewAreaFilter(minArea)}
	// background uses the dual neighborhood so that a closed outline always separates its hole
	// from the outside.
	switch connectivity {
	case Connectivity4:
		re.neighbors, re.bgNeighbors = fourNeighbors, eightNeighbors
	case Connectivity8:
		re.neighbors, re.bgNeighbors = eightNeighbors, fourNeighbors
	default:
		return nil, NewConfigurationError("connectivity", "must be 4 or 8, got %d", connectivity)
	}
	return re, nil
}

// maskRegion is a connected set of same valued pixels, foreground or background.
type maskRegion struct {
	foreground bool
	// border is set when the region touches the edge of the mask.
	border         bool
	x0, y0, x1, y1 int
	count          int
	// root is the outer foreground region enclosing this one, or -1 for the outside background.
	root int
}

// Extract returns the outer regions of mask that pass the area filter. Any non zero pixel is
// foreground. Components lying inside the hole of another component are folded into it rather
// than reported. Regions are ordered by the raster position of their first pixel, so the same mask
// always produces the same slice. The result is never nil.
func (re *RegionExtractor) Extract(mask *image.Gray) []Region {
	size := mask.Bounds().Size()
	labels := make([]int32, size.X*size.Y)
	for i := range labels {
		labels[i] = -1
	}
	isForeground := func(p image.Point) bool {
		return mask.Pix[p.Y*mask.Stride+p.X] != 0
	}

	var all []maskRegion
	queue := make([]image.Point, 0, 64)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if labels[y*size.X+x] >= 0 {
				continue
			}
			id := int32(len(all))
			seed := image.Point{x, y}
			region := maskRegion{foreground: isForeground(seed), x0: x, y0: y, x1: x, y1: y}
			neighbors := re.bgNeighbors
			if region.foreground {
				neighbors = re.neighbors
			}
			labels[y*size.X+x] = id
			queue = append(queue[:0], seed)
			for head := 0; head < len(queue); head++ {
				pt := queue[head]
				region.count++
				if pt.X == 0 || pt.Y == 0 || pt.X == size.X-1 || pt.Y == size.Y-1 {
					region.border = true
				}
				region.x0 = utils.MinInt(region.x0, pt.X)
				region.x1 = utils.MaxInt(region.x1, pt.X)
				region.y1 = utils.MaxInt(region.y1, pt.Y)
				for _, d := range neighbors {
					n := pt.Add(d)
					if n.X < 0 || n.Y < 0 || n.X >= size.X || n.Y >= size.Y {
						continue
					}
					nIdx := n.Y*size.X + n.X
					if labels[nIdx] >= 0 || isForeground(n) != region.foreground {
						continue
					}
					labels[nIdx] = id
					queue = append(queue, n)
				}
			}

			// the pixel above a region's first pixel belongs to the region surrounding it, and
			// that region was labeled earlier in the scan.
			var above int32 = -1
			if y > 0 {
				above = labels[(y-1)*size.X+x]
			}
			switch {
			case !region.foreground && region.border:
				region.root = -1
			case !region.foreground:
				region.root = all[above].root
			case region.border || above < 0 || all[above].root < 0:
				region.root = int(id)
			default:
				region.root = all[above].root
			}
			all = append(all, region)
		}
	}

	enclosed := make([]int, len(all))
	for _, region := range all {
		if region.root >= 0 {
			enclosed[region.root] += region.count
		}
	}
	regions := []Region{}
	for id, region := range all {
		if !region.foreground || region.root != id {
			continue
		}
		regions = append(regions, Region{
			X:      region.x0,
			Y:      region.y0,
			Width:  region.x1 - region.x0 + 1,
			Height: region.y1 - region.y0 + 1,
			Area:   enclosed[id],
		})
	}
	return re.filter(regions)
}
