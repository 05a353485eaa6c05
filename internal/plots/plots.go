// Package plots renders the dataset figures as PNG files.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/describe"
)

// Output file names inside the image directory.
const (
	MissingFile  = "missing_data.png"
	BoxPlotsFile = "boxplots.png"
	LinesFile    = "photos_matches.png"
	HistFile     = "histplot_days_users.png"
	RegPlotFile  = "regplot.png"
)

// ContingencyFile names the bar chart of one chi-squared table.
func ContingencyFile(variable string) string {
	return fmt.Sprintf("contingency-%s-%s.png", dataset.ColGender, variable)
}

var axisLabel = map[string]string{
	dataset.ColScore:                "Score",
	dataset.ColMatches:              "Matches",
	dataset.ColPhotos:               "Photos",
	dataset.ColDaysToLastConnection: "Days of presence",
	dataset.ColGender:               "Gender",
}

// Renderer writes figures of a fixed size into Dir.
type Renderer struct {
	Dir           string
	Width, Height vg.Length
	log           *zap.Logger
}

// New returns a renderer for dir with sizes given in centimetres.
func New(dir string, widthCM, heightCM float64, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		Dir:    dir,
		Width:  vg.Length(widthCM) * vg.Centimeter,
		Height: vg.Length(heightCM) * vg.Centimeter,
		log:    log.Named("plots"),
	}
}

// All renders every figure and returns the written paths.
func (r *Renderer) All(ds *dataset.Dataset, nulls []cleaning.NullCount, chi []analysis.ChiSquared) ([]string, error) {
	steps := []func() (string, error){
		func() (string, error) { return r.Missing(nulls) },
		func() (string, error) { return r.BoxPlots(ds) },
		func() (string, error) { return r.MatchesByPhotos(ds) },
		func() (string, error) { return r.DaysHistogram(ds) },
		func() (string, error) { return r.RegPlot(ds) },
	}
	for _, c := range chi {
		steps = append(steps, func() (string, error) { return r.Contingency(c) })
	}
	var out []string
	for _, step := range steps {
		p, err := step()
		if err != nil {
			return out, err
		}
		r.log.Debug("plot written", zap.String("path", p))
		out = append(out, p)
	}
	return out, nil
}

func (r *Renderer) save(p *plot.Plot, name string) (string, error) {
	path := filepath.Join(r.Dir, name)
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}

// Missing draws the null count of each column.
func (r *Renderer) Missing(nulls []cleaning.NullCount) (string, error) {
	p := plot.New()
	p.Title.Text = "Missing values"
	p.Y.Label.Text = "Null cells"
	vals := make(plotter.Values, len(nulls))
	names := make([]string, len(nulls))
	for i, n := range nulls {
		vals[i] = float64(n.Nulls)
		names[i] = n.Column
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return "", fmt.Errorf("missing values: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	return r.save(p, MissingFile)
}

// genderColumn splits col by gender label, dropping nulls on either side.
func genderColumn(ds *dataset.Dataset, col string) ([]string, map[string]plotter.Values, error) {
	labels, err := ds.Labels(dataset.ColGender)
	if err != nil {
		return nil, nil, err
	}
	vals, err := ds.Floats(col)
	if err != nil {
		return nil, nil, err
	}
	out := map[string]plotter.Values{}
	for i, v := range vals {
		if labels[i] == "" || math.IsNaN(v) {
			continue
		}
		out[labels[i]] = append(out[labels[i]], v)
	}
	groups := make([]string, 0, len(out))
	for g := range out {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, out, nil
}

// BoxPlots tiles one box plot per value column, boxes split by gender.
func (r *Renderer) BoxPlots(ds *dataset.Dataset) (string, error) {
	const rows, cols = 2, 2
	tiles := make([][]*plot.Plot, rows)
	for i, col := range describe.DefaultValueColumns {
		groups, byGroup, err := genderColumn(ds, col)
		if err != nil {
			return "", err
		}
		p := plot.New()
		p.X.Label.Text = axisLabel[dataset.ColGender]
		p.Y.Label.Text = axisLabel[col]
		for j, g := range groups {
			box, err := plotter.NewBoxPlot(vg.Points(20), float64(j), byGroup[g])
			if err != nil {
				return "", fmt.Errorf("boxplot %s: %w", col, err)
			}
			box.FillColor = plotutil.Color(j)
			p.Add(box)
		}
		if len(groups) > 0 {
			p.NominalX(groups...)
		}
		tiles[i/cols] = append(tiles[i/cols], p)
	}

	img := vgimg.New(r.Width*2, r.Height*2)
	dc := draw.New(img)
	t := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(tiles, t, dc)
	for i := range tiles {
		for j := range tiles[i] {
			tiles[i][j].Draw(canvases[i][j])
		}
	}

	path := filepath.Join(r.Dir, BoxPlotsFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", BoxPlotsFile, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", BoxPlotsFile, err)
	}
	return path, f.Close()
}

// MatchesByPhotos draws the mean match count per photo count, one line per
// gender.
func (r *Renderer) MatchesByPhotos(ds *dataset.Dataset) (string, error) {
	labels, err := ds.Labels(dataset.ColGender)
	if err != nil {
		return "", err
	}
	photos, err := ds.Floats(dataset.ColPhotos)
	if err != nil {
		return "", err
	}
	matches, err := ds.Floats(dataset.ColMatches)
	if err != nil {
		return "", err
	}
	type acc struct{ sum, n float64 }
	byGroup := map[string]map[float64]*acc{}
	for i := range labels {
		if labels[i] == "" || math.IsNaN(photos[i]) || math.IsNaN(matches[i]) {
			continue
		}
		m := byGroup[labels[i]]
		if m == nil {
			m = map[float64]*acc{}
			byGroup[labels[i]] = m
		}
		a := m[photos[i]]
		if a == nil {
			a = &acc{}
			m[photos[i]] = a
		}
		a.sum += matches[i]
		a.n++
	}

	p := plot.New()
	p.X.Label.Text = axisLabel[dataset.ColPhotos]
	p.Y.Label.Text = "Mean " + axisLabel[dataset.ColMatches]
	p.Legend.Top = true
	for i, g := range sortedKeys(byGroup) {
		xs := make([]float64, 0, len(byGroup[g]))
		for x := range byGroup[g] {
			xs = append(xs, x)
		}
		sort.Float64s(xs)
		pts := make(plotter.XYs, len(xs))
		for k, x := range xs {
			a := byGroup[g][x]
			pts[k] = plotter.XY{X: x, Y: a.sum / a.n}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("line %s: %w", g, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(g, line)
	}
	return r.save(p, LinesFile)
}

// DaysHistogram overlays the presence-days distribution of each gender.
func (r *Renderer) DaysHistogram(ds *dataset.Dataset) (string, error) {
	groups, byGroup, err := genderColumn(ds, dataset.ColDaysToLastConnection)
	if err != nil {
		return "", err
	}
	p := plot.New()
	p.X.Label.Text = axisLabel[dataset.ColDaysToLastConnection]
	p.Y.Label.Text = "Profiles"
	p.Legend.Top = true
	for i, g := range groups {
		h, err := plotter.NewHist(byGroup[g], 20)
		if err != nil {
			return "", fmt.Errorf("histogram %s: %w", g, err)
		}
		h.FillColor = translucent(plotutil.Color(i))
		p.Add(h)
		p.Legend.Add(g, h)
	}
	return r.save(p, HistFile)
}

// Contingency draws the observed counts of a chi-squared table as grouped
// bars: one group per gender, one bar per level of the variable.
func (r *Renderer) Contingency(c analysis.ChiSquared) (string, error) {
	t := c.Table
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s x %s", dataset.ColGender, c.Variable)
	p.X.Label.Text = axisLabel[dataset.ColGender]
	p.Y.Label.Text = "Profiles"
	p.Legend.Top = true
	w := vg.Points(14)
	for j, g := range t.ColLabels {
		vals := make(plotter.Values, len(t.RowLabels))
		for i := range t.RowLabels {
			vals[i] = t.Observed[i][j]
		}
		bars, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return "", fmt.Errorf("contingency %s: %w", c.Variable, err)
		}
		bars.Color = plotutil.Color(j)
		bars.Offset = w * vg.Length(float64(j)-float64(len(t.ColLabels)-1)/2)
		p.Add(bars)
		p.Legend.Add(g, bars)
	}
	p.NominalX(t.RowLabels...)
	return r.save(p, ContingencyFile(c.Variable))
}

// RegPlot scatters score against matches with a least-squares line per
// gender.
func (r *Renderer) RegPlot(ds *dataset.Dataset) (string, error) {
	labels, err := ds.Labels(dataset.ColGender)
	if err != nil {
		return "", err
	}
	score, err := ds.Floats(dataset.ColScore)
	if err != nil {
		return "", err
	}
	matches, err := ds.Floats(dataset.ColMatches)
	if err != nil {
		return "", err
	}
	byGroup := map[string]plotter.XYs{}
	for i := range labels {
		if labels[i] == "" || math.IsNaN(score[i]) || math.IsNaN(matches[i]) {
			continue
		}
		byGroup[labels[i]] = append(byGroup[labels[i]], plotter.XY{X: score[i], Y: matches[i]})
	}

	p := plot.New()
	p.X.Label.Text = axisLabel[dataset.ColScore]
	p.Y.Label.Text = axisLabel[dataset.ColMatches]
	p.Legend.Top = true
	for i, g := range sortedKeys(byGroup) {
		pts := byGroup[g]
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return "", fmt.Errorf("scatter %s: %w", g, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add(g, sc)

		if len(pts) < 2 {
			continue
		}
		xs, ys := make([]float64, len(pts)), make([]float64, len(pts))
		for k, pt := range pts {
			xs[k], ys[k] = pt.X, pt.Y
		}
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		if math.IsNaN(alpha) || math.IsNaN(beta) {
			continue
		}
		fit := plotter.NewFunction(func(x float64) float64 { return alpha + beta*x })
		fit.XMin, fit.XMax = minMax(xs)
		fit.LineStyle.Color = plotutil.Color(i)
		fit.LineStyle.Width = vg.Points(1.5)
		p.Add(fit)
	}
	return r.save(p, RegPlotFile)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

func translucent(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 140}
}
