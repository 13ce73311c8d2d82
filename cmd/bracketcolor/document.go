package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/bracketcolor/internal/config"
	"github.com/dshills/bracketcolor/internal/host"
	"github.com/dshills/bracketcolor/internal/logging"
	"github.com/dshills/bracketcolor/internal/sched"
	"github.com/dshills/bracketcolor/internal/session"
)

// edit is one -edit flag: an insertion of text or a deletion of length
// runes at pos.
type edit struct {
	insert bool
	pos    int
	text   string
	length int
}

func parseEdit(s string) (edit, error) {
	if len(s) < 2 || (s[0] != '+' && s[0] != '-') {
		return edit{}, fmt.Errorf("%w %q: want +POS:TEXT or -POS:LEN", errBadEdit, s)
	}
	posText, arg, ok := strings.Cut(s[1:], ":")
	if !ok {
		return edit{}, fmt.Errorf("%w %q: missing ':'", errBadEdit, s)
	}
	pos, err := strconv.Atoi(posText)
	if err != nil || pos < 0 {
		return edit{}, fmt.Errorf("%w %q: bad position", errBadEdit, s)
	}

	if s[0] == '+' {
		return edit{insert: true, pos: pos, text: arg}, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return edit{}, fmt.Errorf("%w %q: bad length", errBadEdit, s)
	}
	return edit{pos: pos, length: n}, nil
}

// editList implements flag.Value for repeated -edit flags.
type editList []edit

func (l *editList) String() string {
	return fmt.Sprintf("%d edits", len(*l))
}

func (l *editList) Set(s string) error {
	e, err := parseEdit(s)
	if err != nil {
		return err
	}
	*l = append(*l, e)
	return nil
}

// document is one file opened into a host buffer with a session tracking
// its brackets.
type document struct {
	name     string
	buf      *host.Buffer
	canvas   *host.Canvas
	styler   *host.Styler
	registry *session.Registry
	session  *session.Session
	sched    sched.Scheduler
	logger   *logging.Logger
}

func openDocument(opts Options, cfg *config.Config, logger *logging.Logger) (*document, error) {
	data, err := os.ReadFile(opts.File)
	if err != nil {
		return nil, err
	}
	text := string(data)
	name := filepath.Base(opts.File)

	buf := host.NewBuffer(text)
	if opts.Background != "" {
		bg, err := parseBackground(opts.Background)
		if err != nil {
			return nil, err
		}
		buf.SetBackground(bg)
	}

	styler := host.NewStyler(name, text)
	if _, _, err := styler.Restyle(buf); err != nil {
		return nil, fmt.Errorf("style %s: %w", name, err)
	}
	logger.Debug("lexing %s as %s", name, styler.Language())

	settings, err := session.SettingsFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	// The viewer runs timers on a real loop. A report only flushes, so its
	// timers never need to fire.
	var s sched.Scheduler = sched.NewManual()
	if opts.View {
		s = sched.NewLoop()
	}

	reg := session.NewRegistry(s,
		session.WithLogger(logger),
		session.WithSettings(settings),
	)

	canvas := host.NewCanvas()
	buf.Attach(canvas)
	sess, err := reg.Open(name, buf, canvas)
	if err != nil {
		return nil, err
	}
	buf.Attach(sess)

	return &document{
		name:     name,
		buf:      buf,
		canvas:   canvas,
		styler:   styler,
		registry: reg,
		session:  sess,
		sched:    s,
		logger:   logger,
	}, nil
}

// apply performs e and restyles the buffer.
func (d *document) apply(e edit) error {
	var err error
	if e.insert {
		err = d.buf.Insert(e.pos, e.text)
	} else {
		err = d.buf.Delete(e.pos, e.length)
	}
	if err != nil {
		return fmt.Errorf("edit at %d: %w", e.pos, err)
	}
	_, _, err = d.styler.Restyle(d.buf)
	return err
}

// Close closes the session and releases the classifier.
func (d *document) Close() {
	classifier := d.registry.Settings().Classifier
	d.registry.CloseAll()
	if c, ok := classifier.(interface{ Close() }); ok {
		c.Close()
	}
	d.buf.Close()
}
