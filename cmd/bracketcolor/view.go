package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/host/term"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/sched"
)

// paintInterval is how often the viewer repaints the screen.
const paintInterval = 50 * time.Millisecond

// view shows the document until the user quits. Everything that touches
// the document runs on the loop goroutine; terminal events and config
// reloads are posted to it.
func view(opts Options, doc *document, logger *logging.Logger) error {
	loop, ok := doc.sched.(*sched.Loop)
	if !ok {
		return errors.New("viewer needs an event loop")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	painter := term.NewPainter(screen)
	if bg, ok := painter.Background(); ok && opts.Background == "" {
		doc.buf.SetBackground(bg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath,
			func(cfg *config.Config) {
				loop.Post(func() {
					if err := doc.registry.Apply(cfg); err != nil {
						logger.Error("reload config: %v", err)
					}
				})
			},
			config.WithErrorHandler(func(err error) {
				logger.Warn("reload config: %v", err)
			}),
			config.WithWatcherLogger(logger),
		)
		if err != nil {
			logger.Warn("watch config: %v", err)
		} else {
			defer func() { _ = w.Close() }()
		}
	}

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			loop.Post(func() { handleEvent(ev, screen, painter, cancel) })
		}
	}()

	loop.SchedulePeriodic(paintInterval, func() bool {
		painter.Paint(doc.buf, doc.canvas)
		return true
	})

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func handleEvent(ev tcell.Event, screen tcell.Screen, painter *term.Painter, quit func()) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		screen.Sync()
	case *tcell.EventKey:
		_, height := screen.Size()
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			quit()
		case tcell.KeyUp:
			painter.Scroll(-1)
		case tcell.KeyDown:
			painter.Scroll(1)
		case tcell.KeyPgUp:
			painter.Scroll(-height)
		case tcell.KeyPgDn:
			painter.Scroll(height)
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				quit()
			}
		}
	}
}
