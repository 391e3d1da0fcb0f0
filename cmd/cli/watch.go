package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/yourusername/mediadl/internal/domain"
)

const labelWidth = 40

var watchCmd = &cobra.Command{
	Use:   "watch [urls...]",
	Short: "Follow download events with progress bars",
	Long: `Follow download events from the server. With URLs, watch returns once each
of them has finished; without, it follows every download until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer(cmd)
		w, err := dialWatcher(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer w.Close()
		return w.Run()
	},
}

type watchResult struct {
	url     string
	outcome string
	detail  string
}

type trackedBar struct {
	bar     *mpb.Bar
	percent int64
}

// watcher renders one progress bar per URL from the server's event stream
type watcher struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	pc     *mpb.Progress

	// pending is nil when following every URL
	pending map[string]bool
	titles  map[string]string
	bars    map[string]*trackedBar
	closed  map[string]bool
	results []watchResult
}

func newWatcher(ctx context.Context, urls []string, output io.Writer) *watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		ctx:    ctx,
		cancel: cancel,
		pc:     mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(output)),
		titles: make(map[string]string),
		bars:   make(map[string]*trackedBar),
		closed: make(map[string]bool),
	}
	if len(urls) > 0 {
		w.pending = make(map[string]bool, len(urls))
		for _, u := range urls {
			w.pending[u] = true
		}
	}
	return w
}

// dialWatcher connects to the event stream. A single URL is filtered server side.
func dialWatcher(ctx context.Context, urls []string) (*watcher, error) {
	endpoint, err := eventsURL(serverURL, urls)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}
	w := newWatcher(ctx, urls, os.Stdout)
	w.conn = conn
	return w, nil
}

func eventsURL(server string, urls []string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/events"
	if len(urls) == 1 {
		u.RawQuery = url.Values{"url": {urls[0]}}.Encode()
	}
	return u.String(), nil
}

// Run reads events until every watched URL has finished or the context ends
func (w *watcher) Run() error {
	go func() {
		<-w.ctx.Done()
		w.conn.Close()
	}()

	var runErr error
	for !w.finished() {
		var event domain.Event
		if err := w.conn.ReadJSON(&event); err != nil {
			if w.ctx.Err() == nil {
				runErr = fmt.Errorf("event stream closed: %w", err)
			}
			break
		}
		w.handle(event)
	}

	// unfinished bars are aborted with the context
	if !w.finished() {
		w.cancel()
	}
	w.pc.Wait()
	w.printSummary(os.Stdout)
	return runErr
}

func (w *watcher) Close() {
	w.cancel()
}

func (w *watcher) finished() bool {
	return w.pending != nil && len(w.pending) == 0
}

func (w *watcher) tracks(u string) bool {
	if w.pending == nil {
		return true
	}
	return w.pending[u]
}

func (w *watcher) handle(event domain.Event) {
	// a refused resubmission says nothing about the download being watched
	if event.Rejected || !w.tracks(event.URL) {
		return
	}
	// a URL that was removed and queued again starts a new bar
	if w.closed[event.URL] && !event.IsTerminal() && event.Message != domain.MessageCancelling {
		delete(w.closed, event.URL)
		delete(w.bars, event.URL)
	}

	switch event.Type {
	case domain.EventTitle:
		w.titles[event.URL] = event.Title
	case domain.EventProgress:
		w.advance(event.URL, int64(event.Percent))
	case domain.EventCompleted:
		w.advance(event.URL, 100)
		w.finish(event.URL, "completed", event.Filename)
	case domain.EventError:
		outcome := "failed"
		if event.Message == domain.MessageCancelled {
			outcome = "cancelled"
		}
		w.finish(event.URL, outcome, event.Message)
	case domain.EventStatus:
		if event.Message == domain.MessageCancelling {
			w.finish(event.URL, "cancelled", "")
		}
	}
}

func (w *watcher) bar(u string) *trackedBar {
	if b, ok := w.bars[u]; ok {
		return b
	}
	label := w.titles[u]
	if label == "" {
		label = u
	}
	b := &trackedBar{
		bar: w.pc.AddBar(100,
			mpb.BarWidth(32),
			mpb.PrependDecorators(
				decor.Name(truncate(label, labelWidth), decor.WC{W: labelWidth + 1, C: decor.DidentRight}),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WC{W: 5}),
			),
		),
	}
	w.bars[u] = b
	return b
}

func (w *watcher) advance(u string, percent int64) {
	b := w.bar(u)
	if delta := percent - b.percent; delta > 0 {
		b.bar.IncrInt64(delta)
		b.percent = percent
	}
}

func (w *watcher) finish(u, outcome, detail string) {
	if w.closed[u] {
		return
	}
	w.closed[u] = true
	if b, ok := w.bars[u]; ok {
		b.bar.SetTotal(b.percent, true)
	}
	w.results = append(w.results, watchResult{url: u, outcome: outcome, detail: detail})
	if w.pending != nil {
		delete(w.pending, u)
	}
}

func (w *watcher) printSummary(out io.Writer) {
	for _, r := range w.results {
		label := w.titles[r.url]
		if label == "" {
			label = r.url
		}
		if r.detail != "" {
			fmt.Fprintf(out, "%-9s %s: %s\n", r.outcome, label, r.detail)
		} else {
			fmt.Fprintf(out, "%-9s %s\n", r.outcome, label)
		}
	}
}
