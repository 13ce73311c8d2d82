package main

import (
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/bracketcolor/internal/palette"
	"github.com/dshills/bracketcolor/internal/session"
)

// dump applies the -edit flags, flushes the session and writes the report.
func dump(w io.Writer, opts Options, doc *document) error {
	if err := doc.session.Flush(); err != nil {
		return err
	}
	for _, e := range opts.Edits {
		if err := doc.apply(e); err != nil {
			return err
		}
		if err := doc.session.Flush(); err != nil {
			return err
		}
	}

	out, err := report(doc, opts.Stats)
	if err != nil {
		return err
	}
	if opts.Query != "" {
		res := gjson.Get(out, opts.Query)
		if !res.Exists() {
			return fmt.Errorf("query %q matched nothing", opts.Query)
		}
		out = res.Raw
	}

	b := pretty.Pretty([]byte(out))
	if opts.Color {
		b = pretty.Color(b, nil)
	}
	_, err = w.Write(b)
	return err
}

// report renders the document's bracket indexes as JSON:
//
//	{"file":"main.go","language":"Go","palette":[...],"palette_bgr":[...],
//	 "kinds":{"paren":{"entries":[...]}},"marks":{"12":0}}
func report(doc *document, stats bool) (string, error) {
	sess := doc.session
	out := "{}"

	set := func(path string, v any) error {
		next, err := sjson.Set(out, path, v)
		if err != nil {
			return fmt.Errorf("report %s: %w", path, err)
		}
		out = next
		return nil
	}

	if err := set("file", doc.name); err != nil {
		return "", err
	}
	if err := set("language", doc.styler.Language()); err != nil {
		return "", err
	}
	if err := set("palette", sess.Palette().Hex()); err != nil {
		return "", err
	}
	bgr := make([]uint32, 0, sess.Palette().Len())
	for _, c := range sess.Palette().Colors() {
		bgr = append(bgr, palette.ToBGR(c))
	}
	if err := set("palette_bgr", bgr); err != nil {
		return "", err
	}
	if err := set("kinds", map[string]any{}); err != nil {
		return "", err
	}
	for _, k := range sess.Kinds().Kinds() {
		t, ok := sess.Tracker(k)
		if !ok {
			continue
		}
		dump, err := t.Index().Dump()
		if err != nil {
			return "", fmt.Errorf("report %s: %w", k, err)
		}
		next, err := sjson.SetRaw(out, "kinds."+k.String(), dump)
		if err != nil {
			return "", fmt.Errorf("report %s: %w", k, err)
		}
		out = next
	}

	marks := make(map[string]int, doc.canvas.Len())
	for pos, class := range doc.canvas.Marks() {
		marks[fmt.Sprint(pos)] = class
	}
	if err := set("marks", marks); err != nil {
		return "", err
	}

	if stats {
		if err := set("metrics", metricsJSON(doc.registry.Metrics().Snapshot())); err != nil {
			return "", err
		}
	}
	return out, nil
}

func metricsJSON(s session.MetricsSnapshot) map[string]any {
	return map[string]any{
		"recompute_ticks":     s.RecomputeTicks,
		"avg_recompute_us":    s.AvgRecompute.Microseconds(),
		"positions_processed": s.PositionsProcessed,
		"redraw_ticks":        s.RedrawTicks,
		"avg_redraw_us":       s.AvgRedraw.Microseconds(),
		"pairs_painted":       s.PairsPainted,
		"palette_switches":    s.PaletteSwitches,
		"suspensions":         s.Suspensions,
		"crossings":           s.Crossings,
	}
}
