package calib

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// csvRow is one line of a phase2 calibration file: a pixel and the
// ground-plane point its ray meets.
type csvRow struct {
	PX int     `csv:"px"`
	PY int     `csv:"py"`
	X  float64 `csv:"x"`
	Y  float64 `csv:"y"`
}

// resCode is the image-size suffix used by every calibration file name.
func resCode(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// CSVPath returns the path of the phase2 CSV for the given image size.
func CSVPath(dir string, width, height int) string {
	return filepath.Join(dir, "phase2_"+resCode(width, height)+".csv")
}

// BodyMaskPath returns the path of the gripper body mask.
func BodyMaskPath(dir string, width, height int) string {
	return filepath.Join(dir, "gripperBody_"+resCode(width, height)+".png")
}

// HoldMaskPath returns the path of the gripper hold-region mask.
func HoldMaskPath(dir string, width, height int) string {
	return filepath.Join(dir, "gripperHole_"+resCode(width, height)+".png")
}

// Load reads a grid calibration from dir. The directory holds
// phase2_WxH.csv (header px,py,x,y; lines starting with '#' are comments)
// plus gripperBody_WxH.png and gripperHole_WxH.png masks in which a non-zero
// blue channel marks the pixel. Width and Height in params select the files.
func Load(dir string, params Params) (*Calibration, error) {
	w, h := params.Width, params.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrMalformedCalibration, w, h)
	}

	rows, err := readCSV(CSVPath(dir, w, h))
	if err != nil {
		return nil, err
	}

	pixels := make([]Pixel, w*h)
	for _, r := range rows {
		if r.PX < 0 || r.PY < 0 || r.PX >= w || r.PY >= h {
			return nil, fmt.Errorf("%w: csv pixel (%d,%d) outside %dx%d image", ErrMalformedCalibration, r.PX, r.PY, w, h)
		}
		pixels[r.PY*w+r.PX] = Pixel{X: r.X, Y: r.Y, Valid: true}
	}

	body, err := readMask(BodyMaskPath(dir, w, h), w, h)
	if err != nil {
		return nil, err
	}
	hold, err := readMask(HoldMaskPath(dir, w, h), w, h)
	if err != nil {
		return nil, err
	}
	for k := range pixels {
		if !pixels[k].Valid {
			continue
		}
		pixels[k].GripperBody = body[k]
		pixels[k].HoldRegion = hold[k]
	}

	return New(params, pixels)
}

func readCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calibration csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true

	var rows []csvRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("parse calibration csv %s: %w", path, err)
	}
	return rows, nil
}

func readMask(path string, w, h int) ([]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode mask %s: %w", path, err)
	}
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("%w: mask %s is %dx%d, want %dx%d", ErrMalformedCalibration, path, b.Dx(), b.Dy(), w, h)
	}

	mask := make([]bool, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			_, _, blue, _ := img.At(b.Min.X+i, b.Min.Y+j).RGBA()
			mask[j*w+i] = blue>>8 != 0
		}
	}
	return mask, nil
}

// Save writes c to dir in the format read by Load. Existing files are
// overwritten.
func Save(dir string, c *Calibration) error {
	w, h := c.Width(), c.Height()

	rows := make([]*csvRow, 0, len(c.pixels))
	body := image.NewGray(image.Rect(0, 0, w, h))
	hold := image.NewGray(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			p := c.At(i, j)
			if !p.Valid {
				continue
			}
			rows = append(rows, &csvRow{PX: i, PY: j, X: p.X, Y: p.Y})
			if p.GripperBody {
				body.SetGray(i, j, color.Gray{Y: 255})
			}
			if p.HoldRegion {
				hold.SetGray(i, j, color.Gray{Y: 255})
			}
		}
	}

	f, err := os.Create(CSVPath(dir, w, h))
	if err != nil {
		return fmt.Errorf("create calibration csv: %w", err)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return fmt.Errorf("write calibration csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close calibration csv: %w", err)
	}

	if err := writeMask(BodyMaskPath(dir, w, h), body); err != nil {
		return err
	}
	return writeMask(HoldMaskPath(dir, w, h), hold)
}

func writeMask(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mask: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode mask %s: %w", path, err)
	}
	return f.Close()
}
