// Package blobs extracts object points from a classified frame and decides
// whether the robot is holding an object in its gripper.
package blobs

import "github.com/banshee-data/localnav/internal/localmap/sensed"

// Blob is an 8-connected region of same-class pixels.
type Blob struct {
	X0, X1 int   // column bounds, inclusive
	Y0, Y1 int   // row bounds, inclusive
	Pixels []int // frame indices (j*Width + i) of the member pixels
}

// Area returns the number of member pixels.
func (b Blob) Area() int { return len(b.Pixels) }

// Centre returns the pixel at the centre of the bounding box.
func (b Blob) Centre() (i, j int) {
	return (b.X0 + b.X1) / 2, (b.Y0 + b.Y1) / 2
}

// neighbours8 lists the offsets of the 8-connected neighbourhood.
var neighbours8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Finder labels blobs in frames of a fixed size. It reuses its buffers
// between calls and is not safe for concurrent use.
type Finder struct {
	labels []bool
	stack  []int
}

// Find returns every blob of class t in f, in row-major order of each blob's
// first pixel. Labelling uses an explicit stack, so blob size is bounded
// only by the frame.
func (fd *Finder) Find(f *sensed.Frame, t sensed.Type) []Blob {
	n := f.Width * f.Height
	if cap(fd.labels) < n {
		fd.labels = make([]bool, n)
	}
	fd.labels = fd.labels[:n]
	for k := range fd.labels {
		fd.labels[k] = false
	}

	var blobs []Blob
	for k, px := range f.Pixels {
		if px != t || fd.labels[k] {
			continue
		}
		blobs = append(blobs, fd.flood(f, t, k))
	}
	return blobs
}

func (fd *Finder) flood(f *sensed.Frame, t sensed.Type, seed int) Blob {
	w := f.Width
	b := Blob{X0: seed % w, X1: seed % w, Y0: seed / w, Y1: seed / w}

	fd.labels[seed] = true
	fd.stack = append(fd.stack[:0], seed)
	for len(fd.stack) > 0 {
		k := fd.stack[len(fd.stack)-1]
		fd.stack = fd.stack[:len(fd.stack)-1]
		b.Pixels = append(b.Pixels, k)

		i, j := k%w, k/w
		b.X0 = min(b.X0, i)
		b.X1 = max(b.X1, i)
		b.Y0 = min(b.Y0, j)
		b.Y1 = max(b.Y1, j)

		for _, d := range neighbours8 {
			ni, nj := i+d[0], j+d[1]
			if ni < 0 || nj < 0 || ni >= w || nj >= f.Height {
				continue
			}
			nk := nj*w + ni
			if fd.labels[nk] || f.Pixels[nk] != t {
				continue
			}
			fd.labels[nk] = true
			fd.stack = append(fd.stack, nk)
		}
	}
	return b
}
