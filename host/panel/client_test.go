package panel

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"fungen/core"
)

type nopSPI struct{}

func (nopSPI) Tx(w, r []byte) error          { return nil }
func (nopSPI) Transfer(b byte) (byte, error) { return 0, nil }

type nopCS struct{}

func (nopCS) Set(bool) {}

// runGenerator serves a generator on mock hardware over conn until the
// connection closes
func runGenerator(conn net.Conn) {
	s := core.DefaultSettings()
	s.ProbeWav = false
	g := core.NewGenerator(core.Hardware{
		SPI:      nopSPI{},
		DDSCS:    nopCS{},
		AmpCS:    nopCS{},
		OffsetCS: nopCS{},
	}, s)
	g.Init()
	link := core.NewLink(g)

	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		link.Feed(buf[:n])
		if out := link.Poll(); len(out) > 0 {
			if _, err := conn.Write(out); err != nil {
				return
			}
			link.Flushed()
		}
		g.Idle()
	}
}

func newTestClient(t *testing.T) *Client {
	host, dev := net.Pipe()
	go runGenerator(dev)
	c := New(host)
	c.Start(context.Background())
	t.Cleanup(func() {
		c.Close()
		dev.Close()
	})
	return c
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRetrieveDictionary(t *testing.T) {
	c := newTestClient(t)
	ctx := testContext(t)

	if err := c.Call(ctx, "get_status"); !errors.Is(err, ErrNoDictionary) {
		t.Errorf("Expected ErrNoDictionary before identify, got %v", err)
	}
	if err := c.RetrieveDictionary(ctx); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	d := c.Dictionary()
	if e, ok := d.Command("identify"); !ok || e.ID != 1 {
		t.Errorf("Expected identify at id 1, got %+v", e)
	}
	if e, ok := d.Response("identify_response"); !ok || e.ID != 0 {
		t.Errorf("Expected identify_response at id 0, got %+v", e)
	}
	e, ok := d.Command("set_field")
	if !ok || e.Format != "field=%c value=%i" {
		t.Errorf("Expected set_field format, got %+v", e)
	}
	if !strings.HasPrefix(string(c.RawDictionary()), `{"version":"`) {
		t.Errorf("Unexpected raw dictionary %q", c.RawDictionary())
	}
	t.Logf("Dictionary: %d bytes, %d commands", len(c.RawDictionary()), len(d.Names()))
}

func TestStatusFollowsCommands(t *testing.T) {
	c := newTestClient(t)
	ctx := testContext(t)
	if err := c.RetrieveDictionary(ctx); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Mode != core.ModeDDS {
		t.Errorf("Expected dds mode after init, got %s", st.Mode)
	}

	if err := c.SetMode(ctx, core.ModeArb); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if err := c.SetWaveform(ctx, core.WaveSine); err != nil {
		t.Fatalf("SetWaveform failed: %v", err)
	}
	st, err = c.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Mode != core.ModeArb {
		t.Errorf("Expected arb mode, got %s", st.Mode)
	}
	if st.Wave != core.WaveSine {
		t.Errorf("Expected sine, got %s", st.Wave)
	}
	if st.Drops != 0 {
		t.Errorf("Expected no bus drops, got %d", st.Drops)
	}
}

func TestFieldEdits(t *testing.T) {
	c := newTestClient(t)
	ctx := testContext(t)
	if err := c.RetrieveDictionary(ctx); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}

	fv, err := c.SetField(ctx, core.FieldPWMDuty, 2000)
	if err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if fv.Field != core.FieldPWMDuty || fv.Value != core.PWMDutyMax || !fv.Changed {
		t.Errorf("Expected duty clamped to %d, got %+v", core.PWMDutyMax, fv)
	}
	if fv.Min != core.PWMDutyMin || fv.Max != core.PWMDutyMax {
		t.Errorf("Expected limits %d..%d, got %d..%d", core.PWMDutyMin, core.PWMDutyMax, fv.Min, fv.Max)
	}

	fv, err = c.Rotate(ctx, core.FieldPWMDuty, -2, 1)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if fv.Value != 980 || !fv.Changed {
		t.Errorf("Expected 980 after two steps down, got %+v", fv)
	}

	fv, err = c.Rotate(ctx, core.FieldPWMDuty, 0, 0)
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if fv.Changed {
		t.Error("Expected zero step to leave the field alone")
	}
}

func TestTouchReportsChanges(t *testing.T) {
	c := newTestClient(t)
	ctx := testContext(t)
	if err := c.RetrieveDictionary(ctx); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	if err := c.SetWaveform(ctx, core.WaveTriangle); err != nil {
		t.Fatalf("SetWaveform failed: %v", err)
	}

	changed, err := c.Touch(ctx, 100, 50, 200)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if !changed {
		t.Error("Expected new split point to change the table")
	}
	changed, err = c.Touch(ctx, 100, 80, 200)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if changed {
		t.Error("Expected same split point to leave the table alone")
	}
}

func TestUnknownCommand(t *testing.T) {
	c := newTestClient(t)
	ctx := testContext(t)
	if err := c.RetrieveDictionary(ctx); err != nil {
		t.Fatalf("RetrieveDictionary failed: %v", err)
	}
	if err := c.Call(ctx, "get_uptime"); err == nil {
		t.Error("Expected error for unknown command")
	}
	if _, err := c.Request(ctx, "get_status", "clock", nil); err == nil {
		t.Error("Expected error for unknown response")
	}
}

func TestNoReplyTimesOut(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()
	c := New(host)
	c.ReplyTimeout = 20 * time.Millisecond
	c.Transport().AckTimeout = 20 * time.Millisecond
	c.Transport().Retries = 0
	c.Start(context.Background())
	defer c.Close()

	// Swallow everything so nothing is ever acknowledged.
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := dev.Read(buf); err != nil {
				return
			}
		}
	}()
	if err := c.RetrieveDictionary(testContext(t)); err == nil {
		t.Error("Expected error with a silent generator")
	}
}

func TestParseDictionary(t *testing.T) {
	d, err := ParseDictionary([]byte(`{"version":"1","commands":{"identify offset=%u count=%c":1,"arb_run":7},"responses":{"identify_response offset=%u data=%*s":0}}`))
	if err != nil {
		t.Fatalf("ParseDictionary failed: %v", err)
	}
	if e, _ := d.Command("arb_run"); e.ID != 7 || e.Format != "" {
		t.Errorf("Expected arb_run at 7 without args, got %+v", e)
	}
	if e, ok := d.ResponseByID(0); !ok || e.Name != "identify_response" {
		t.Errorf("Expected identify_response at 0, got %+v", e)
	}
	names := d.Names()
	if len(names) != 2 || names[0] != "identify" || names[1] != "arb_run" {
		t.Errorf("Expected names in id order, got %v", names)
	}
	if _, err := ParseDictionary([]byte("{")); err == nil {
		t.Error("Expected error for truncated JSON")
	}
}
