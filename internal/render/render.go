package render

import (
	"fmt"
	"image/color"

	"tsch-topology/internal/mesh"
	"tsch-topology/internal/topology"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	linkColor   = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	moteColor   = color.RGBA{B: 200, A: 255}
	anchorColor = color.RGBA{R: 220, A: 255}
)

// Options controls the rendered image.
type Options struct {
	Title     string
	LinkRange float64
	Size      vg.Length
}

// Topology draws motes and the links between them. The anchor is drawn
// separately so the root stands out.
func Topology(table mesh.PositionTable, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	if opts.LinkRange > 0 {
		gr := topology.NewGraph(table, opts.LinkRange)
		for i := 0; i < table.Len(); i++ {
			for _, j := range gr.Neighbours(i) {
				if j < i {
					continue
				}
				a, b := table.At(i), table.At(j)
				line, err := plotter.NewLine(plotter.XYs{{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}})
				if err != nil {
					return nil, err
				}
				line.LineStyle.Color = linkColor
				line.LineStyle.Width = vg.Points(0.5)
				p.Add(line)
			}
		}
	}

	if table.Len() == 0 {
		return p, nil
	}

	motes := make(plotter.XYs, 0, table.Len()-1)
	for i := 1; i < table.Len(); i++ {
		at := table.At(i)
		motes = append(motes, plotter.XY{X: at.X, Y: at.Y})
	}
	if len(motes) > 0 {
		sc, err := plotter.NewScatter(motes)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = moteColor
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("mote", sc)
	}

	anchor := table.Anchor()
	root, err := plotter.NewScatter(plotter.XYs{{X: anchor.X, Y: anchor.Y}})
	if err != nil {
		return nil, err
	}
	root.GlyphStyle.Color = anchorColor
	root.GlyphStyle.Radius = vg.Points(5)
	root.GlyphStyle.Shape = draw.PyramidGlyph{}
	p.Add(root)
	p.Legend.Add("root", root)

	return p, nil
}

// SavePNG renders table and writes it to path. The format follows the
// file extension.
func SavePNG(path string, table mesh.PositionTable, opts Options) error {
	p, err := Topology(table, opts)
	if err != nil {
		return fmt.Errorf("render topology: %w", err)
	}
	size := opts.Size
	if size == 0 {
		size = 6 * vg.Inch
	}
	return p.Save(size, size, path)
}
