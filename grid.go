package ibcao

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ctessum/cdf"
	"github.com/edsrzf/mmap-go"
)

// A Grid is an open IBCAO grid. The grid file is memory mapped and the depth
// raster z is read lazily. A Grid is safe for concurrent use.
type Grid struct {
	mutex         sync.RWMutex
	closed        bool
	resources     *gridResources
	cleanup       runtime.Cleanup
	filename      string
	edition       Edition
	bandRows      int
	bandCacheSize int
	logger        *slog.Logger
	title         string
	metadata      *Metadata
	x             []float64
	y             []float64
	z             *bandRaster

	splineMutex  sync.Mutex
	spline       atomic.Pointer[bicubicSpline]
	splineBuilds atomic.Int64
}

// A GridOption sets an option on a Grid.
type GridOption func(*Grid)

// gridResources are the operating system resources held by a Grid. They are
// kept separate from the Grid so that they can be released by a cleanup when
// the Grid becomes unreachable.
type gridResources struct {
	once sync.Once
	file *os.File
	mmap mmap.MMap
	err  error
}

func (r *gridResources) release() error {
	r.once.Do(func() {
		var errs []error
		if r.mmap != nil {
			errs = append(errs, r.mmap.Unmap())
		}
		errs = append(errs, r.file.Close())
		r.err = errors.Join(errs...)
	})
	return r.err
}

// WithEdition sets the expected edition of the grid.
func WithEdition(edition Edition) GridOption {
	return func(g *Grid) {
		g.edition = edition
	}
}

// WithBandRows sets the number of rows read from the grid file at a time.
func WithBandRows(bandRows int) GridOption {
	return func(g *Grid) {
		g.bandRows = bandRows
	}
}

// WithBandCacheSize sets the size of the band cache, in bytes.
func WithBandCacheSize(bandCacheSize int) GridOption {
	return func(g *Grid) {
		g.bandCacheSize = bandCacheSize
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GridOption {
	return func(g *Grid) {
		g.logger = logger
	}
}

// Open opens the grid filename in fsys. fsys must return *os.Files, for
// example the value returned by [os.DirFS].
func Open(fsys fs.FS, filename string, options ...GridOption) (*Grid, error) {
	g := &Grid{
		filename:      filename,
		edition:       IBCAOv3,
		bandRows:      128,
		bandCacheSize: 256 << 20, // 256MB.
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(g)
	}

	file, err := fsys.Open(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &NotFoundError{Filename: filename, Err: err}
	case err != nil:
		return nil, err
	}
	osFile, ok := file.(*os.File)
	if !ok {
		_ = file.Close()
		return nil, errors.ErrUnsupported
	}
	resources := &gridResources{
		file: osFile,
	}
	ok = false
	defer func() {
		if !ok {
			_ = resources.release()
		}
	}()

	fileInfo, err := osFile.Stat()
	if err != nil {
		return nil, err
	}
	if fileInfo.Size() == 0 {
		return nil, &FormatError{Filename: filename, Reason: "empty file"}
	}
	resources.mmap, err = mmap.Map(osFile, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}

	cdfFile, err := cdf.Open(readOnlyReaderAt{bytes.NewReader(resources.mmap)})
	if err != nil {
		return nil, &FormatError{Filename: filename, Reason: "not a netCDF classic file", Err: err}
	}
	if err := g.init(cdfFile); err != nil {
		return nil, err
	}

	g.resources = resources
	g.cleanup = runtime.AddCleanup(g, func(resources *gridResources) {
		_ = resources.release()
	}, resources)
	gridOpens.Inc()
	g.logger.Debug("opened grid",
		slog.String("filename", filename),
		slog.String("title", g.title),
		slog.Int("rows", len(g.y)),
		slog.Int("cols", len(g.x)),
	)

	ok = true
	return g, nil
}

// OpenFile opens the grid at path.
func OpenFile(path string, options ...GridOption) (*Grid, error) {
	return Open(os.DirFS(filepath.Dir(path)), filepath.Base(path), options...)
}

// init validates and reads the header and axes of file.
func (g *Grid) init(file *cdf.File) error {
	formatError := func(reason string, err error) error {
		return &FormatError{Filename: g.filename, Reason: reason, Err: err}
	}

	switch title := file.Header.GetAttribute("", "title").(type) {
	case string:
		g.title = strings.TrimRight(title, "\x00")
	default:
		return formatError("no title", nil)
	}
	if !strings.Contains(g.title, g.edition.TitleTag) {
		return formatError(fmt.Sprintf("title %q does not contain %q", g.title, g.edition.TitleTag), nil)
	}

	var err error
	if g.x, err = readAxis(file, "x"); err != nil {
		return formatError("invalid x axis", err)
	}
	if g.y, err = readAxis(file, "y"); err != nil {
		return formatError("invalid y axis", err)
	}
	if err := g.edition.checkAxis(g.x); err != nil {
		return formatError("x axis does not match edition "+g.edition.Version, err)
	}
	if err := g.edition.checkAxis(g.y); err != nil {
		return formatError("y axis does not match edition "+g.edition.Version, err)
	}

	if dimensions := file.Header.Dimensions("z"); len(dimensions) != 2 {
		return formatError("invalid z", fmt.Errorf("dimensions %v", dimensions))
	}
	if lengths := file.Header.Lengths("z"); lengths[0] != len(g.y) || lengths[1] != len(g.x) {
		return formatError("invalid z", fmt.Errorf("shape %v, expected [%d %d]", lengths, len(g.y), len(g.x)))
	}
	if g.z, err = newBandRaster(file, "z", g.bandRows, g.bandCacheSize); err != nil {
		return formatError("invalid z", err)
	}

	g.metadata = ParseMetadata(file.Header)
	return nil
}

// checkAxis checks that axis spans [-e.Extent, e.Extent] at e.Resolution.
func (e Edition) checkAxis(axis []float64) error {
	if n := e.Samples(); len(axis) != n {
		return fmt.Errorf("got %d values, expected %d", len(axis), n)
	}
	if axis[0] != -e.Extent || axis[len(axis)-1] != e.Extent {
		return fmt.Errorf("range [%g, %g], expected [%g, %g]", axis[0], axis[len(axis)-1], -e.Extent, e.Extent)
	}
	if spacing := axis[1] - axis[0]; spacing != e.Resolution {
		return fmt.Errorf("spacing %g, expected %g", spacing, e.Resolution)
	}
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return fmt.Errorf("not strictly increasing at index %d", i)
		}
	}
	return nil
}

// Close releases the resources held by g. Subsequent queries on g return
// [ErrClosed].
func (g *Grid) Close() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.closed = true
	g.cleanup.Stop()
	g.spline.Store(nil)
	g.logger.Debug("closed grid", slog.String("filename", g.filename))
	return g.resources.release()
}

// acquire locks g for reading. The caller must call g.release if acquire
// succeeds.
func (g *Grid) acquire() error {
	g.mutex.RLock()
	if g.closed {
		g.mutex.RUnlock()
		return ErrClosed
	}
	return nil
}

func (g *Grid) release() {
	g.mutex.RUnlock()
}

// Edition returns g's edition.
func (g *Grid) Edition() Edition {
	return g.edition
}

// Title returns g's title.
func (g *Grid) Title() string {
	return g.title
}

// Metadata returns g's attributes.
func (g *Grid) Metadata() *Metadata {
	return g.metadata
}

// X returns a copy of g's x axis.
func (g *Grid) X() []float64 {
	return append([]float64(nil), g.x...)
}

// Y returns a copy of g's y axis.
func (g *Grid) Y() []float64 {
	return append([]float64(nil), g.y...)
}

// Shape returns the number of rows and columns of z.
func (g *Grid) Shape() (int, int) {
	return len(g.y), len(g.x)
}

// Extent returns the half-width of g's square domain.
func (g *Grid) Extent() float64 {
	return g.edition.Extent
}

// Resolution returns the spacing between samples.
func (g *Grid) Resolution() float64 {
	return g.edition.Resolution
}

// XLim returns the range of x.
func (g *Grid) XLim() (float64, float64) {
	return -g.edition.Extent, g.edition.Extent
}

// YLim returns the range of y.
func (g *Grid) YLim() (float64, float64) {
	return -g.edition.Extent, g.edition.Extent
}

// ImExtent returns the image extent as xmin, xmax, ymin, ymax.
func (g *Grid) ImExtent() [4]float64 {
	return [4]float64{-g.edition.Extent, g.edition.Extent, -g.edition.Extent, g.edition.Extent}
}

// InBounds returns whether x and y are both in [-extent, extent].
func (g *Grid) InBounds(x, y float64) bool {
	extent := g.edition.Extent
	return -extent <= x && x <= extent && -extent <= y && y <= extent
}

// Z returns the sample at row and col. It returns NaN if row or col is out
// of range.
func (g *Grid) Z(ctx context.Context, row, col int) (float64, error) {
	if err := g.acquire(); err != nil {
		return 0, err
	}
	defer g.release()
	return g.z.Sample(ctx, Coord{Row: row, Col: col})
}

// Row returns the samples in row.
func (g *Grid) Row(ctx context.Context, row int) ([]float64, error) {
	if err := g.acquire(); err != nil {
		return nil, err
	}
	defer g.release()
	return g.z.Row(ctx, row)
}

// Samples returns the samples at coords. It implements [Raster].
func (g *Grid) Samples(ctx context.Context, coords []Coord) ([]float64, error) {
	if err := g.acquire(); err != nil {
		return nil, err
	}
	defer g.release()
	return g.z.Samples(ctx, coords)
}

// Mesh returns the planar coordinates of every div-th sample in each
// direction, starting at the lower left corner and excluding the upper and
// right edges. xs and ys have the same shape.
func (g *Grid) Mesh(div int) (xs, ys [][]float64) {
	div = max(div, 1)
	step := g.edition.Resolution * float64(div)
	n := int(math.Ceil(2 * g.edition.Extent / step))
	xs = make([][]float64, n)
	ys = make([][]float64, n)
	for i := range n {
		xs[i] = make([]float64, n)
		ys[i] = make([]float64, n)
		for j := range n {
			xs[i][j] = -g.edition.Extent + float64(j)*step
			ys[i][j] = -g.edition.Extent + float64(i)*step
		}
	}
	return xs, ys
}
