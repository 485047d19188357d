package app

import (
	"bytes"
	"errors"
	tele "gopkg.in/telebot.v4"
	"pixellize/pkg/logger"
	"strings"
	"testing"
)

func TestParseGrid(t *testing.T) {
	tests := []struct {
		data string
		want int
		ok   bool
	}{
		{"\fgrid_72", 72, true},
		{"grid_32", 32, true},
		{" grid_128 ", 128, true},
		{"grid_73", 0, false},
		{"level_3", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := parseGrid(tt.data)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("parseGrid(%q) = %d, %v; want %d", tt.data, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("parseGrid(%q) = %d, want error", tt.data, got)
		}
	}
}

func TestGridMenu(t *testing.T) {
	menu := gridMenu()
	var n int
	for _, row := range menu.InlineKeyboard {
		if len(row) > 3 {
			t.Errorf("row has %d buttons", len(row))
		}
		n += len(row)
	}
	if n != len(Grids) {
		t.Fatalf("menu has %d buttons, want %d", n, len(Grids))
	}
}

func TestPendingFiles(t *testing.T) {
	p := newPendingFiles()
	if _, ok := p.Take(1); ok {
		t.Fatal("Take on empty store succeeded")
	}
	p.Put(1, pendingFile{ID: "a", Source: "photo"})
	p.Put(1, pendingFile{ID: "b", Source: "document"})
	f, ok := p.Take(1)
	if !ok || f.ID != "b" || f.Source != "document" {
		t.Fatalf("Take(1) = %+v, %v", f, ok)
	}
	if _, ok := p.Take(1); ok {
		t.Fatal("file taken twice")
	}
}

func TestUserLimiter(t *testing.T) {
	l := newUserLimiter(0.001, 2)
	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("burst not allowed")
	}
	if l.Allow(1) {
		t.Fatal("third request allowed")
	}
	if !l.Allow(2) {
		t.Fatal("limits leak between users")
	}

	unlimited := newUserLimiter(0, 0)
	for range 100 {
		if !unlimited.Allow(1) {
			t.Fatal("zero rate should disable throttling")
		}
	}
}

type callbackContext struct {
	tele.Context
	data      string
	responded bool
	sent      []any
}

func (c *callbackContext) Respond(...*tele.CallbackResponse) error {
	c.responded = true
	return errors.New("query is too old")
}

func (c *callbackContext) Sender() *tele.User       { return &tele.User{ID: 7} }
func (c *callbackContext) Callback() *tele.Callback { return &tele.Callback{Data: c.data} }
func (c *callbackContext) Send(what any, _ ...any) error {
	c.sent = append(c.sent, what)
	return nil
}

func TestOnCallbackLogsRespondError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf)
	log.SetLogLevel("debug")
	a := &App{log: log, pending: newPendingFiles(), limiter: newUserLimiter(0, 0)}

	c := &callbackContext{data: gridPrefix + "72"}
	if err := a.onCallback(c); err != nil {
		t.Fatal(err)
	}
	if !c.responded {
		t.Fatal("callback was not answered")
	}
	if out := buf.String(); !strings.Contains(out, "failed to answer callback") || !strings.Contains(out, "query is too old") {
		t.Fatalf("log = %q, want the respond error", out)
	}
	if len(c.sent) != 0 {
		t.Fatalf("sent %v with nothing pending", c.sent)
	}
}
