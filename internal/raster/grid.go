// Package raster reads and writes single-band ESRI ASCII grids and
// provides the co-registered stack abstraction the extractor and
// trainer work against. All grids in a project share one geometry;
// mismatches are fatal before any per-pair work starts.
package raster

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrGridMismatch indicates two grids are not co-registered
	// (different size, origin or cell size).
	ErrGridMismatch = errors.New("raster: grids are not co-registered")

	// ErrFlatRaster indicates a normalization over a raster whose finite
	// cells are all equal, which has no defined [0,1] image.
	ErrFlatRaster = errors.New("raster: all finite cells are equal, cannot normalize")
)

// Grid is a single-band raster. Data is row-major from the top (north)
// row down, matching the ASCII grid body order.
type Grid struct {
	NCols, NRows int
	Xll, Yll     float64 // lower-left corner of the grid
	CellSize     float64
	NoData       float64
	Data         []float64
}

// NewGrid allocates a grid with every cell set to the no-data value.
func NewGrid(ncols, nrows int, xll, yll, cellSize, noData float64) *Grid {
	data := make([]float64, ncols*nrows)
	for i := range data {
		data[i] = noData
	}
	return &Grid{
		NCols: ncols, NRows: nrows,
		Xll: xll, Yll: yll,
		CellSize: cellSize, NoData: noData,
		Data: data,
	}
}

// At returns the value at (row, col); row 0 is the top row.
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.NCols+col]
}

// Set writes the value at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.NCols+col] = v
}

// IsNoData reports whether v is the grid's no-data marker or non-finite.
func (g *Grid) IsNoData(v float64) bool {
	return v == g.NoData || math.IsNaN(v) || math.IsInf(v, 0)
}

// CellCenter returns the projected coordinates of the center of (row, col).
func (g *Grid) CellCenter(row, col int) (x, y float64) {
	x = g.Xll + (float64(col)+0.5)*g.CellSize
	y = g.Yll + (float64(g.NRows-row)-0.5)*g.CellSize
	return x, y
}

// CellAt returns the (row, col) containing the projected point, and
// whether the point falls inside the grid extent.
func (g *Grid) CellAt(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - g.Xll) / g.CellSize))
	row = g.NRows - 1 - int(math.Floor((y-g.Yll)/g.CellSize))
	if col < 0 || col >= g.NCols || row < 0 || row >= g.NRows {
		return 0, 0, false
	}
	return row, col, true
}

// SameShape reports whether o shares this grid's geometry. Origins and
// cell size are compared with a small tolerance to absorb header
// round-tripping.
func (g *Grid) SameShape(o *Grid) bool {
	const eps = 1e-6
	return g.NCols == o.NCols && g.NRows == o.NRows &&
		math.Abs(g.Xll-o.Xll) < eps && math.Abs(g.Yll-o.Yll) < eps &&
		math.Abs(g.CellSize-o.CellSize) < eps
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.Data = make([]float64, len(g.Data))
	copy(c.Data, g.Data)
	return &c
}

// Read parses an ESRI ASCII grid. Header keys are matched
// case-insensitively; both xllcorner and xllcenter conventions are
// accepted (centers are shifted back to corners).
func Read(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	header := make(map[string]float64, 6)
	centerX, centerY := false, false
	for i := 0; i < 6; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("raster %s: truncated header at line %d", path, i+1)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("raster %s: malformed header line %q", path, sc.Text())
		}
		key := strings.ToLower(fields[0])
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("raster %s: bad header value %q: %w", path, fields[1], err)
		}
		switch key {
		case "xllcenter":
			key, centerX = "xllcorner", true
		case "yllcenter":
			key, centerY = "yllcorner", true
		}
		header[key] = val
	}

	for _, k := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"} {
		if _, ok := header[k]; !ok {
			return nil, fmt.Errorf("raster %s: header missing %s", path, k)
		}
	}

	g := &Grid{
		NCols:    int(header["ncols"]),
		NRows:    int(header["nrows"]),
		Xll:      header["xllcorner"],
		Yll:      header["yllcorner"],
		CellSize: header["cellsize"],
		NoData:   header["nodata_value"],
	}
	if g.NCols <= 0 || g.NRows <= 0 || g.CellSize <= 0 {
		return nil, fmt.Errorf("raster %s: invalid dimensions %dx%d cellsize %g", path, g.NCols, g.NRows, g.CellSize)
	}
	if centerX {
		g.Xll -= g.CellSize / 2
	}
	if centerY {
		g.Yll -= g.CellSize / 2
	}

	g.Data = make([]float64, 0, g.NCols*g.NRows)
	for sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("raster %s: bad cell value %q: %w", path, tok, err)
			}
			g.Data = append(g.Data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("raster %s: %w", path, err)
	}
	if len(g.Data) != g.NCols*g.NRows {
		return nil, fmt.Errorf("raster %s: expected %d cells, got %d", path, g.NCols*g.NRows, len(g.Data))
	}
	return g, nil
}

// HeaderCase selects the header key casing for Write.
type HeaderCase int

const (
	// UpperHeader writes the conventional NCOLS/NROWS/... keys.
	UpperHeader HeaderCase = iota
	// LowerHeader writes lowercase keys, the form the downstream
	// connectivity simulator requires.
	LowerHeader
)

// Write serializes the grid: exactly 6 header lines followed by one
// row of cell values per line, row-major from the top row.
func (g *Grid) Write(path string, hc HeaderCase) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	keys := []string{"NCOLS", "NROWS", "XLLCORNER", "YLLCORNER", "CELLSIZE", "NODATA_VALUE"}
	if hc == LowerHeader {
		for i, k := range keys {
			keys[i] = strings.ToLower(k)
		}
	}
	fmt.Fprintf(w, "%s %d\n", keys[0], g.NCols)
	fmt.Fprintf(w, "%s %d\n", keys[1], g.NRows)
	fmt.Fprintf(w, "%s %s\n", keys[2], formatFloat(g.Xll))
	fmt.Fprintf(w, "%s %s\n", keys[3], formatFloat(g.Yll))
	fmt.Fprintf(w, "%s %s\n", keys[4], formatFloat(g.CellSize))
	fmt.Fprintf(w, "%s %s\n", keys[5], formatFloat(g.NoData))

	for row := 0; row < g.NRows; row++ {
		for col := 0; col < g.NCols; col++ {
			if col > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(formatFloat(g.At(row, col)))
		}
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write raster %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
