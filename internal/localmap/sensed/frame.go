package sensed

// Frame is one tick of classified pixels, stored row-major:
// index = j*Width + i, where i is the column and j the row.
type Frame struct {
	Width  int
	Height int
	Pixels []Type
}

// NewFrame returns a frame of the given size with every pixel set to Nothing.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]Type, width*height),
	}
}

// At returns the class at column i, row j. Out-of-range coordinates read as
// Hidden.
func (f *Frame) At(i, j int) Type {
	if i < 0 || j < 0 || i >= f.Width || j >= f.Height {
		return Hidden
	}
	return f.Pixels[j*f.Width+i]
}

// Set stores t at column i, row j. Out-of-range writes are ignored.
func (f *Frame) Set(i, j int, t Type) {
	if i < 0 || j < 0 || i >= f.Width || j >= f.Height {
		return
	}
	f.Pixels[j*f.Width+i] = t
}

// Fill sets every pixel to t.
func (f *Frame) Fill(t Type) {
	for k := range f.Pixels {
		f.Pixels[k] = t
	}
}
