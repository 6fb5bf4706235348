package spotlight

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Document is an entry shown as an icon on the home screen.
type Document struct {
	Name string
	Path string
}

type UnitOptions struct {
	Wallpaper  image.Image
	Documents  []Document
	BrowserURL string
	BootTime   time.Duration
}

// NewUnitFactory returns the factory producing one unit per screen state.
func NewUnitFactory(opts UnitOptions) UnitFactory {
	if opts.BootTime <= 0 {
		opts.BootTime = time.Second
	}
	if opts.BrowserURL == "" {
		opts.BrowserURL = "https://mywebsite.com"
	}
	var wallpaper image.Image
	if opts.Wallpaper != nil {
		wallpaper = imaging.Blur(opts.Wallpaper, 1.5)
	}
	return func(state ScreenState) (ScreenUnit, error) {
		switch state {
		case ScreenNone:
			return &blankUnit{}, nil
		case ScreenBootup:
			return &bootupUnit{duration: opts.BootTime}, nil
		case ScreenHome:
			return &homeUnit{wallpaper: wallpaper, documents: opts.Documents, url: opts.BrowserURL}, nil
		case ScreenDesktop:
			return &desktopUnit{}, nil
		case ScreenApp:
			return &appUnit{}, nil
		case ScreenBrowser:
			return &browserUnit{url: opts.BrowserURL}, nil
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownScreen, int(state))
	}
}

var (
	colBlack     = color.RGBA{0x00, 0x00, 0x00, 0xff}
	colWhite     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colTermGreen = color.RGBA{0x00, 0xff, 0x00, 0xff}
	colDarkGrey  = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
	colGrey      = color.RGBA{0x33, 0x33, 0x33, 0xff}
	colMidGrey   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colLightGrey = color.RGBA{0xf5, 0xf5, 0xf5, 0xff}
	colBarGrey   = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	colIndigo    = color.RGBA{0x66, 0x7e, 0xea, 0xff}
	colPurple    = color.RGBA{0x76, 0x4b, 0xa2, 0xff}
	colGlass     = color.RGBA{0xff, 0xff, 0xff, 0x33}
	colRed       = color.RGBA{0xff, 0x55, 0x55, 0xff}
	colBlue      = color.RGBA{0x00, 0x7b, 0xff, 0xff}
	colGoogle    = color.RGBA{0x42, 0x85, 0xf4, 0xff}
	colPdf       = color.RGBA{0xd3, 0x2f, 0x2f, 0xff}
)

type blankUnit struct{}

func (u *blankUnit) Screen() ScreenState { return ScreenNone }
func (u *blankUnit) Teardown()           {}

func (u *blankUnit) Render(c *Canvas, _ Navigator) error {
	c.Clear(colBlack)
	return nil
}

type bootupUnit struct {
	duration  time.Duration
	start     time.Time
	progress  float64
	navigated bool
}

func (u *bootupUnit) Screen() ScreenState { return ScreenBootup }
func (u *bootupUnit) Teardown()           {}

func bootText(progress float64) string {
	switch {
	case progress < 0.3:
		return "Initializing system..."
	case progress < 0.6:
		return "Loading modules..."
	case progress < 0.9:
		return "Starting services..."
	default:
		return "Ready"
	}
}

func (u *bootupUnit) Animate(now time.Time, navigate Navigator) bool {
	if u.start.IsZero() {
		u.start = now
	}
	elapsed := now.Sub(u.start)
	progress := min(float64(elapsed)/float64(u.duration), 1)
	if progress >= 1 && !u.navigated && elapsed >= u.duration+100*time.Millisecond {
		u.navigated = true
		navigate(ScreenHome)
		return false
	}
	changed := progress != u.progress
	u.progress = progress
	return changed
}

func (u *bootupUnit) Render(c *Canvas, _ Navigator) error {
	b := c.Bounds()
	c.Clear(colBlack)
	cx := b.Dx() / 2
	top := b.Dy()/2 - 60

	c.TextCentered(image.Rect(0, top, b.Dx(), top+20), "SYSTEM BOOT", colTermGreen)
	c.TextCentered(image.Rect(0, top+30, b.Dx(), top+50), bootText(u.progress), colTermGreen)

	barW := b.Dx() * 8 / 10
	bar := image.Rect(cx-barW/2, top+70, cx+barW/2, top+90)
	c.Fill(bar, colDarkGrey)
	c.Border(bar, 1, colTermGreen)
	filled := bar
	filled.Max.X = bar.Min.X + int(float64(bar.Dx())*u.progress)
	c.Fill(filled, colTermGreen)

	c.TextCentered(image.Rect(0, top+100, b.Dx(), top+120), fmt.Sprintf("%d%%", int(u.progress*100+0.5)), colTermGreen)
	c.TextCentered(image.Rect(0, b.Max.Y-40, b.Dx(), b.Max.Y-20), "Press any key to continue...", colTermGreen)
	return nil
}

type homeUnit struct {
	wallpaper   image.Image
	documents   []Document
	url         string
	selected    *Document
	showBrowser bool
	browser     browserLoad
}

func (u *homeUnit) Screen() ScreenState { return ScreenHome }

func (u *homeUnit) Teardown() {
	u.selected = nil
	u.showBrowser = false
}

func (u *homeUnit) Animate(now time.Time, _ Navigator) bool {
	if !u.showBrowser {
		return false
	}
	return u.browser.advance(now)
}

func (u *homeUnit) Render(c *Canvas, _ Navigator) error {
	b := c.Bounds()
	if u.wallpaper != nil {
		c.Clear(colBlack)
		c.DrawImage(b, u.wallpaper)
	} else {
		c.Clear(colIndigo)
		c.FillGradient(b, colIndigo, colPurple)
	}

	for i := range u.documents {
		doc := &u.documents[i]
		icon := image.Rect(20, 20+i*85, 80, 95+i*85)
		c.Fill(icon, colWhite)
		c.Fill(image.Rect(icon.Min.X, icon.Min.Y, icon.Max.X, icon.Min.Y+22), colPdf)
		c.TextCentered(image.Rect(icon.Min.X, icon.Min.Y, icon.Max.X, icon.Min.Y+22), "PDF", colWhite)
		c.TextCentered(image.Rect(icon.Min.X-10, icon.Max.Y-22, icon.Max.X+10, icon.Max.Y), doc.Name, colGrey)
		c.Region(icon, func() { u.selected = doc })
	}

	c.Button(image.Rect(120, 20, 180, 80), "WEB", colGoogle, colWhite, func() {
		u.showBrowser = !u.showBrowser
		u.browser = browserLoad{}
	})

	if u.showBrowser {
		panel := image.Rect(20, 100, b.Max.X-20, b.Max.Y-20)
		c.Fill(panel, colWhite)
		header := image.Rect(panel.Min.X, panel.Min.Y, panel.Max.X, panel.Min.Y+36)
		c.Fill(header, colLightGrey)
		c.Text(header.Min.X+15, header.Min.Y+23, "Web Application", colGrey)
		c.Button(image.Rect(header.Max.X-36, header.Min.Y+4, header.Max.X-8, header.Max.Y-4), "X", colLightGrey, colMidGrey, func() {
			u.showBrowser = false
		})
		u.browser.render(c, image.Rect(panel.Min.X, header.Max.Y, panel.Max.X, panel.Max.Y), u.url)
	}

	if u.selected != nil {
		u.renderDocument(c, *u.selected)
	}
	return nil
}

func (u *homeUnit) renderDocument(c *Canvas, doc Document) {
	b := c.Bounds()
	c.Fill(b, color.RGBA{0, 0, 0, 0xb0})
	page := image.Rect(b.Min.X+60, b.Min.Y+30, b.Max.X-60, b.Max.Y-30)
	c.Fill(page, colWhite)
	c.Text(page.Min.X+15, page.Min.Y+22, doc.Name, colGrey)
	c.Button(image.Rect(page.Max.X-36, page.Min.Y+4, page.Max.X-8, page.Min.Y+32), "X", colRed, colWhite, func() {
		u.selected = nil
	})

	lines, err := documentLines(doc)
	if err != nil {
		c.Text(page.Min.X+15, page.Min.Y+60, "Unable to load document", colPdf)
		c.Text(page.Min.X+15, page.Min.Y+60+c.LineHeight(), err.Error(), colMidGrey)
		return
	}
	y := page.Min.Y + 60
	for _, line := range lines {
		if y > page.Max.Y-10 {
			break
		}
		c.Text(page.Min.X+15, y, line, colGrey)
		y += c.LineHeight() + 2
	}
}

func documentLines(doc Document) ([]string, error) {
	if doc.Path == "" {
		return []string{"No preview available for " + doc.Name}, nil
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.Name, err)
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), nil
}

// browserLoad emulates the page load of the embedded browser panel.
type browserLoad struct {
	start  time.Time
	loaded bool
}

const browserLoadTime = 1500 * time.Millisecond

func (l *browserLoad) advance(now time.Time) bool {
	if l.loaded {
		return false
	}
	if l.start.IsZero() {
		l.start = now
		return false
	}
	if now.Sub(l.start) >= browserLoadTime {
		l.loaded = true
		return true
	}
	return false
}

func (l *browserLoad) render(c *Canvas, r image.Rectangle, url string) {
	c.Fill(r, colLightGrey)
	if !l.loaded {
		c.TextCentered(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+r.Dy()/2+10), "Loading application...", colMidGrey)
		c.TextCentered(image.Rect(r.Min.X, r.Min.Y+r.Dy()/2, r.Max.X, r.Min.Y+r.Dy()/2+40), "This may take a few moments", colMidGrey)
		return
	}
	c.TextCentered(image.Rect(r.Min.X, r.Min.Y+10, r.Max.X, r.Min.Y+40), url, colGrey)
	c.TextCentered(image.Rect(r.Min.X, r.Min.Y+40, r.Max.X, r.Max.Y), "Application running", colGrey)
}

type desktopUnit struct{}

func (u *desktopUnit) Screen() ScreenState { return ScreenDesktop }
func (u *desktopUnit) Teardown()           {}

func (u *desktopUnit) Render(c *Canvas, navigate Navigator) error {
	b := c.Bounds()
	c.Clear(colIndigo)
	c.FillGradient(b, colIndigo, colPurple)
	c.TextCentered(image.Rect(0, b.Dy()/2-70, b.Dx(), b.Dy()/2-40), "Welcome", colWhite)
	c.TextCentered(image.Rect(0, b.Dy()/2-30, b.Dx(), b.Dy()/2-10), "This is a screen rendered on the laptop", colWhite)

	cx := b.Dx() / 2
	c.Button(image.Rect(cx-130, b.Dy()/2+20, cx-10, b.Dy()/2+60), "Open App", colGlass, colWhite, func() {
		navigate(ScreenApp)
	})
	c.Button(image.Rect(cx+10, b.Dy()/2+20, cx+130, b.Dy()/2+60), "Browser", colGlass, colWhite, func() {
		navigate(ScreenBrowser)
	})
	return nil
}

type appUnit struct{}

func (u *appUnit) Screen() ScreenState { return ScreenApp }
func (u *appUnit) Teardown()           {}

var dashboardTiles = []struct{ title, value string }{
	{"Users", "1,234"},
	{"Revenue", "$12,345"},
	{"Orders", "567"},
	{"Growth", "+23%"},
}

func (u *appUnit) Render(c *Canvas, navigate Navigator) error {
	b := c.Bounds()
	c.Clear(colDarkGrey)
	header := image.Rect(0, 0, b.Dx(), 40)
	c.Fill(header, colGrey)
	c.Text(20, 25, "My App", colWhite)
	c.Button(image.Rect(b.Dx()-45, 8, b.Dx()-15, 32), "X", colRed, colWhite, func() {
		navigate(ScreenDesktop)
	})

	c.Text(20, 70, "Dashboard", colWhite)
	tileW := (b.Dx() - 40 - 15*(len(dashboardTiles)-1)) / len(dashboardTiles)
	for i, tile := range dashboardTiles {
		x := 20 + i*(tileW+15)
		r := image.Rect(x, 85, x+tileW, 165)
		c.Fill(r, colGrey)
		c.Text(r.Min.X+10, r.Min.Y+25, tile.title, colBarGrey)
		c.Text(r.Min.X+10, r.Min.Y+55, tile.value, colTermGreen)
	}
	return nil
}

type browserUnit struct {
	url string
}

func (u *browserUnit) Screen() ScreenState { return ScreenBrowser }
func (u *browserUnit) Teardown()           {}

func (u *browserUnit) Render(c *Canvas, navigate Navigator) error {
	b := c.Bounds()
	c.Clear(colLightGrey)
	bar := image.Rect(0, 0, b.Dx(), 34)
	c.Fill(bar, colBarGrey)
	for i, col := range []color.RGBA{{0xff, 0x5f, 0x57, 0xff}, {0xff, 0xbd, 0x2e, 0xff}, {0x28, 0xca, 0x42, 0xff}} {
		x := 15 + i*17
		c.Fill(image.Rect(x, 11, x+12, 23), col)
	}
	address := image.Rect(75, 6, b.Dx()-15, 28)
	c.Fill(address, colWhite)
	c.Text(address.Min.X+8, address.Min.Y+15, u.url, colGrey)

	page := image.Rect(0, bar.Max.Y, b.Dx(), b.Dy())
	c.Fill(page, colWhite)
	mid := page.Min.Y + page.Dy()/2
	c.TextCentered(image.Rect(0, mid-60, b.Dx(), mid-30), "My Website", colGrey)
	c.TextCentered(image.Rect(0, mid-25, b.Dx(), mid-5), "This is a simulated browser showing a website", colMidGrey)
	c.TextCentered(image.Rect(0, mid-5, b.Dx(), mid+15), "directly on the laptop screen in the 3D scene.", colMidGrey)
	c.Button(image.Rect(b.Dx()/2-70, mid+35, b.Dx()/2+70, mid+70), "Back to Desktop", colBlue, colWhite, func() {
		navigate(ScreenDesktop)
	})
	return nil
}

// renderFallback paints the placeholder shown when a screen unit cannot be
// created or rendered.
func renderFallback(c *Canvas) {
	b := c.Bounds()
	c.Clear(color.RGBA{0xff, 0x00, 0xff, 0xff})
	c.Border(b, 3, colWhite)
	c.TextCentered(b, "Fallback Screen", colWhite)
}
