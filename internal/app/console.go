package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/relabs-tech/drone_dashboard/internal/config"
	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
)

// consoleRenderer prints one line per view.
type consoleRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleRenderer(w io.Writer) *consoleRenderer {
	return &consoleRenderer{w: w}
}

func (r *consoleRenderer) Render(v dashboard.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, formatViewLine(v))
}

func formatViewLine(v dashboard.View) string {
	if !v.Connected && !v.PositionVisible {
		return fmt.Sprintf("[VIEW] %s", v.Ping)
	}
	line := fmt.Sprintf("[VIEW] ping=%-8s", v.Ping)
	if v.PositionVisible {
		line += fmt.Sprintf("  x=%-8s y=%-8s z=%-8s a=%-10s  left=%5.1f%% bottom=%5.1f%% alt=%5.1f%%",
			v.X, v.Y, v.Z, v.A, v.Left, v.Bottom, v.AltitudeBottom)
	}
	return line
}

// RunConsole polls the simulator directly and prints every view to w.
func RunConsole(ctx context.Context, log *slog.Logger, w io.Writer) error {
	cfg := config.Get()

	ctrl, client, err := newController(log, cfg, newConsoleRenderer(w))
	if err != nil {
		return err
	}
	log.Info("console: polling simulator", "baseURL", client.BaseURL())

	err = ctrl.Run(ctx)
	client.Wait()
	return err
}
