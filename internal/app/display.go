package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/drone_dashboard/internal/config"
	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
)

// 128x64 SSD1306 layout: text on the left, the XY map and the altitude bar
// on the right.
const (
	displayW = 128
	displayH = 64

	mapX0 = 72
	mapY0 = 8
	mapW  = 48
	mapH  = 48

	altX0 = 123
	altW  = 5

	headingTick = 6
)

// displayState holds the latest view received over MQTT.
type displayState struct {
	mu   sync.RWMutex
	view dashboard.View
	have bool
}

func (s *displayState) Render(v dashboard.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
	s.have = true
}

func (s *displayState) snapshot() (dashboard.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.have
}

// RunDisplay mirrors the dashboard view published on TOPIC_VIEW to an SSD1306
// OLED on the I2C bus named by DISPLAY_I2C_BUS.
func RunDisplay(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the display")
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", cfg.DisplayI2CBus, err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Info("display: initialized", "bus", bus.String())

	if err := dev.Draw(dev.Bounds(), drawSplash(), image.Point{}); err != nil {
		log.Warn("display: error showing splash", "error", err)
	}

	client, err := connectMQTT(log, cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	state := &displayState{}
	if err := subscribeViews(log, client, cfg.TopicView, state.Render); err != nil {
		return err
	}

	ticker := time.NewTicker(cfg.DisplayPeriod())
	defer ticker.Stop()
	log.Info("display: starting update loop", "interval", cfg.DisplayPeriod())

	var lastDrawn time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v, have := state.snapshot()
			if have && v.UpdatedAt.Equal(lastDrawn) {
				continue
			}
			if err := dev.Draw(dev.Bounds(), drawView(v, have), image.Point{}); err != nil {
				log.Warn("display: error updating display", "error", err)
				continue
			}
			lastDrawn = v.UpdatedAt
		}
	}
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawText(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func drawSplash() *image1bit.VerticalLSB {
	img, d := newFrame()
	drawText(d, 10, 26, "Drone Dashboard")
	drawText(d, 5, 43, "Waiting for")
	drawText(d, 25, 56, "views")
	return img
}

// drawView renders v into a full display frame.
func drawView(v dashboard.View, have bool) *image1bit.VerticalLSB {
	img, d := newFrame()

	if !have {
		drawText(d, 0, 26, "Drone Dashboard")
		drawText(d, 0, 39, "Waiting...")
		return img
	}

	if !v.Connected && !v.PositionVisible {
		drawText(d, 0, 26, "Drone")
		drawText(d, 0, 39, v.Ping)
		return img
	}

	drawText(d, 0, 11, v.Ping)
	if v.PositionVisible {
		drawText(d, 0, 24, "X"+v.X)
		drawText(d, 0, 37, "Y"+v.Y)
		drawText(d, 0, 50, "Z"+v.Z)
		drawText(d, 0, 63, "A"+v.A)
	}

	drawRect(img, mapX0, mapY0, mapW, mapH)
	if v.PositionVisible {
		px, py := mapPoint(v.Left, v.Bottom)
		fillRect(img, px-1, py-1, 3, 3)
		drawHeading(img, px, py, v.Heading)
	}

	drawRect(img, altX0, mapY0, altW, mapH)
	if v.AltitudeVisible {
		h := int(math.Round(clampPercent(v.AltitudeBottom) / 100 * float64(mapH-2)))
		fillRect(img, altX0+1, mapY0+mapH-1-h, altW-2, h)
	}
	return img
}

// mapPoint converts percentages to a pixel inside the map border.
func mapPoint(left, bottom float64) (int, int) {
	x := mapX0 + 1 + int(math.Round(clampPercent(left)/100*float64(mapW-3)))
	y := mapY0 + mapH - 2 - int(math.Round(clampPercent(bottom)/100*float64(mapH-3)))
	return x, y
}

func clampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

// drawHeading draws a short line from (x, y) towards heading degrees,
// clockwise from up.
func drawHeading(img *image1bit.VerticalLSB, x, y int, heading float64) {
	rad := heading * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	for i := 0; i <= headingTick; i++ {
		setBit(img, x+int(math.Round(dx*float64(i))), y+int(math.Round(dy*float64(i))))
	}
}

func drawRect(img *image1bit.VerticalLSB, x, y, w, h int) {
	for i := x; i < x+w; i++ {
		setBit(img, i, y)
		setBit(img, i, y+h-1)
	}
	for j := y; j < y+h; j++ {
		setBit(img, x, j)
		setBit(img, x+w-1, j)
	}
}

func fillRect(img *image1bit.VerticalLSB, x, y, w, h int) {
	for i := x; i < x+w; i++ {
		for j := y; j < y+h; j++ {
			setBit(img, i, j)
		}
	}
}

func setBit(img *image1bit.VerticalLSB, x, y int) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetBit(x, y, image1bit.On)
	}
}
