package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AtlasStatus/internal/model"
	"AtlasStatus/internal/viewer"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// NowLayout is how the page prints the render time.
const NowLayout = "2006-01-02 15:04:05 UTC"

// formLayout matches <input type="datetime-local">.
const formLayout = "2006-01-02T15:04"

// Meta is the page-level text that does not come from telemetry.
type Meta struct {
	Title       string
	Notice      string
	GifURL      string
	Interactive bool // draw the pan/zoom/roll forms; static renders leave them out
}

// Panel is one chart as the template sees it.
type Panel struct {
	Name        string
	Title       string
	State       string
	Columns     []string
	Points      int
	Suffix      string
	RollPeriod  int
	WindowStart string
	WindowEnd   string
	Window      string
	Highlight   string
	Values      []string
	SVG         template.HTML
	RangeSVG    template.HTML
	Outcome     Outcome
	Error       string
}

// Page is everything index.html.tmpl renders.
type Page struct {
	Meta
	PageID string
	Status model.StatusVars
	Panels []Panel
	Errors []string
}

// Renderer turns a dashboard into SVG charts and the HTML page.
type Renderer struct {
	tmpl        *template.Template
	Width       int
	Height      int
	RangeHeight int
}

// New parses the embedded templates.
func New(width int) (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if width <= 0 {
		width = DefaultChartWidth
	}
	return &Renderer{tmpl: tmpl, Width: width, Height: DefaultChartHeight, RangeHeight: DefaultRangeHeight}, nil
}

// PrepareStatus fills the fields the page derives itself: the render time when upstream left
// it out, gallery tab ids, and exactly one active tab.
func PrepareStatus(st model.StatusVars, now time.Time) model.StatusVars {
	if st.Now == "" {
		st.Now = now.UTC().Format(NowLayout)
	}
	images := make([]model.LatestImage, len(st.LatestImages))
	copy(images, st.LatestImages)
	active := -1
	for i := range images {
		if images[i].ID == "" {
			images[i].ID = "latest_image_" + strings.ToLower(strings.ReplaceAll(images[i].Name, " ", "_"))
		}
		if images[i].Active != "" && active < 0 {
			active = i
		}
		images[i].Active = ""
	}
	if len(images) > 0 {
		if active < 0 {
			active = 0
		}
		images[active].Active = "active"
	}
	st.LatestImages = images
	return st
}

// Build draws every chart of d and assembles the page. The dashboard stays locked while the
// charts are drawn so the panels all show one consistent window.
func (r *Renderer) Build(d *viewer.Dashboard, status model.StatusVars, meta Meta) (*Page, error) {
	p := &Page{
		Meta:   meta,
		PageID: d.ID(),
		Status: PrepareStatus(status, d.OpenedAt()),
	}
	var err error
	d.Read(func(charts []*viewer.ChartView) {
		for _, c := range charts {
			var panel Panel
			panel, err = r.panel(c)
			if err != nil {
				return
			}
			if panel.Error != "" {
				p.Errors = append(p.Errors, panel.Error)
			}
			p.Panels = append(p.Panels, panel)
		}
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Renderer) panel(c *viewer.ChartView) (Panel, error) {
	win := c.VisibleWindow()
	p := Panel{
		Name:        c.Name(),
		Title:       c.Title(),
		State:       c.State().String(),
		Columns:     c.Columns(),
		Points:      c.PointCount(),
		Suffix:      c.Formatter().Suffix(),
		RollPeriod:  c.RollPeriod(),
		WindowStart: win.Start.UTC().Format(formLayout),
		WindowEnd:   win.End.UTC().Format(formLayout),
		Window:      win.String(),
	}
	if err := c.Err(); err != nil {
		p.Error = err.Error()
	}
	if at, ok := c.Highlight(); ok {
		p.Highlight = at.UTC().Format(NowLayout)
		if vals, ok := c.HighlightedValues(); ok {
			for _, v := range vals {
				p.Values = append(p.Values, c.Formatter().Format(v))
			}
		}
	}

	var buf bytes.Buffer
	outcome, err := ChartSVG(&buf, c, r.Width, r.Height)
	if err != nil {
		return p, err
	}
	p.Outcome = outcome
	p.SVG = template.HTML(buf.String())

	buf.Reset()
	if _, err := RangeSVG(&buf, c, r.Width, r.RangeHeight); err != nil {
		return p, err
	}
	p.RangeSVG = template.HTML(buf.String())
	return p, nil
}

// WritePage executes the page template.
func (r *Renderer) WritePage(w io.Writer, p *Page) error {
	if err := r.tmpl.ExecuteTemplate(w, "index.html.tmpl", p); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

// Static returns the embedded stylesheet and script, rooted at their directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}

// RenderToDir writes index.html and static/ under dir. index.html is replaced atomically so a
// web server never serves a half-written page.
func (r *Renderer) RenderToDir(dir string, p *Page) error {
	if err := os.MkdirAll(filepath.Join(dir, "static"), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := WriteStatic(filepath.Join(dir, "static")); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.WritePage(&buf, p); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(dir, "index.html"), buf.Bytes())
}

// WriteStatic copies the embedded static files into dir.
func WriteStatic(dir string) error {
	return fs.WalkDir(Static(), ".", func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if e.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		data, err := fs.ReadFile(Static(), path)
		if err != nil {
			return err
		}
		return writeAtomic(target, data)
	})
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
