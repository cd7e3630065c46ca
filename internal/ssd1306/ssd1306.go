// Package ssd1306 drives a 128x64 SSD1306 OLED panel over I2C as a
// line-oriented display. Text is drawn with tinyfont.
package ssd1306

import (
	"fmt"
	"image/color"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/sweeney/airmon/internal/display"
	"github.com/sweeney/airmon/internal/i2c"
)

// Address is the panel's usual I2C address.
const Address = 0x3c

const (
	Width  = 128
	Height = 64

	// LinePitch is the vertical distance between text lines in pixels.
	LinePitch = Height / display.Lines
)

const (
	ctrlCommand = 0x00
	ctrlData    = 0x40
)

var initSequence = []byte{
	0xae,       // display off
	0xd5, 0x80, // clock divide
	0xa8, 0x3f, // multiplex 64
	0xd3, 0x00, // display offset
	0x40,       // start line 0
	0x8d, 0x14, // charge pump on
	0x20, 0x00, // horizontal addressing
	0xa1,       // segment remap
	0xc8,       // COM scan descending
	0xda, 0x12, // COM pins
	0x81, 0xcf, // contrast
	0xd9, 0xf1, // pre-charge
	0xdb, 0x40, // VCOMH
	0xa4, // follow RAM
	0xa6, // normal, not inverted
	0xaf, // display on
}

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Panel is an SSD1306 on a bus.
type Panel struct {
	bus   i2c.Bus
	addr  uint16
	buf   []byte
	lines []string
	last  string
	font  tinyfont.Fonter
}

var (
	_ display.Display   = (*Panel)(nil)
	_ drivers.Displayer = (*Panel)(nil)
)

// New initialises the panel at addr and blanks it.
func New(bus i2c.Bus, addr uint16) (*Panel, error) {
	p := &Panel{
		bus:   bus,
		addr:  addr,
		buf:   make([]byte, Width*Height/8),
		lines: make([]string, display.Lines),
		font:  &tinyfont.TomThumb,
	}
	if err := p.command(initSequence...); err != nil {
		return nil, fmt.Errorf("ssd1306 init: %w", err)
	}
	if err := p.Display(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Panel) command(cmd ...byte) error {
	return p.bus.Write(p.addr, append([]byte{ctrlCommand}, cmd...))
}

// Clear implements display.Display.
func (p *Panel) Clear() {
	for i := range p.lines {
		p.lines[i] = ""
	}
}

// DrawText implements display.Display. Lines outside the screen are
// ignored.
func (p *Panel) DrawText(line int, text string) {
	if line < 0 || line >= len(p.lines) {
		return
	}
	p.lines[line] = text
}

// Present implements display.Display. Unchanged frames are not resent.
func (p *Panel) Present() error {
	frame := strings.Join(p.lines, "\n")
	if frame == p.last {
		return nil
	}
	clear(p.buf)
	for i, text := range p.lines {
		if text == "" {
			continue
		}
		tinyfont.WriteLine(p, p.font, 0, int16(i*LinePitch+LinePitch-3), text, white)
	}
	if err := p.Display(); err != nil {
		return err
	}
	p.last = frame
	return nil
}

// Size implements drivers.Displayer.
func (p *Panel) Size() (x, y int16) {
	return Width, Height
}

// SetPixel implements drivers.Displayer. Any non-black colour lights the
// pixel.
func (p *Panel) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	i := int(x) + int(y/8)*Width
	bit := byte(1) << (y % 8)
	if c.R|c.G|c.B != 0 {
		p.buf[i] |= bit
	} else {
		p.buf[i] &^= bit
	}
}

// Display implements drivers.Displayer: it sends the frame buffer.
func (p *Panel) Display() error {
	if err := p.command(0x21, 0, Width-1, 0x22, 0, Height/8-1); err != nil {
		return fmt.Errorf("ssd1306 address: %w", err)
	}
	if err := p.bus.Write(p.addr, append([]byte{ctrlData}, p.buf...)); err != nil {
		return fmt.Errorf("ssd1306 write: %w", err)
	}
	return nil
}
