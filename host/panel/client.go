// Package panel is the host side of the front-panel link: it connects to a
// generator, reads its dictionary and drives it by command name.
package panel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fungen/config"
	"fungen/core"
	"fungen/host/serial"
	"fungen/protocol"
)

// Ids every generator reserves so the dictionary can be fetched first
const (
	identifyResponseID = 0
	identifyID         = 1
	identifyChunk      = 40
	maxDictionary      = 64 * 1024
)

var (
	ErrNoDictionary = errors.New("dictionary not loaded")
	ErrNoReply      = errors.New("no reply from generator")
)

// Client talks to one generator
type Client struct {
	// ReplyTimeout bounds the wait for a reply after the command was acked
	ReplyTimeout time.Duration
	// OnMessage receives replies nobody is waiting for
	OnMessage func(name string, args []byte)

	port io.ReadWriteCloser
	tr   *protocol.HostTransport
	dict *Dictionary
	raw  []byte

	reqMu   sync.Mutex
	mu      sync.Mutex
	waiters map[uint16]chan []byte

	cancel context.CancelFunc
	group  *errgroup.Group
	ctx    context.Context
}

// New wraps an open port. Call Start before sending anything.
func New(port io.ReadWriteCloser) *Client {
	return &Client{
		ReplyTimeout: time.Second,
		port:         port,
		tr:           protocol.NewHostTransport(port),
		waiters:      make(map[uint16]chan []byte),
	}
}

// Connect opens the serial port named in s and starts the client
func Connect(ctx context.Context, s config.SerialConfig) (*Client, error) {
	port, err := serial.Open(serial.FromSettings(s))
	if err != nil {
		return nil, err
	}
	c := New(port)
	if s.AckTimeoutMS > 0 {
		c.tr.AckTimeout = time.Duration(s.AckTimeoutMS) * time.Millisecond
	}
	c.tr.Retries = s.Retries
	c.Start(ctx)
	return c, nil
}

// Start runs the read and routing loops until ctx ends or Close
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.group, c.ctx = errgroup.WithContext(ctx)
	c.group.Go(func() error { return c.tr.ReadLoop(c.ctx) })
	c.group.Go(func() error { return c.route(c.ctx) })
}

// Close stops the loops and closes the port
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.port.Close()
	if c.group != nil {
		// Closing the port fails the pending read; that is the normal exit.
		_ = c.group.Wait()
	}
	return err
}

// Transport exposes the link for tests and tools
func (c *Client) Transport() *protocol.HostTransport {
	return c.tr
}

func (c *Client) route(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.tr.Responses():
			c.deliver(msg.Payload)
		}
	}
}

func (c *Client) deliver(payload []byte) {
	id, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return
	}
	c.mu.Lock()
	w, ok := c.waiters[uint16(id)]
	c.mu.Unlock()
	if ok {
		select {
		case w <- payload:
		default:
		}
		return
	}
	if c.OnMessage != nil && c.dict != nil {
		if e, ok := c.dict.ResponseByID(uint16(id)); ok {
			c.OnMessage(e.Name, payload)
		}
	}
}

// exchange sends cmdID and waits for a reply carrying replyID
func (c *Client) exchange(ctx context.Context, cmdID, replyID uint16, args func(out protocol.OutputBuffer)) ([]byte, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	w := make(chan []byte, 1)
	c.mu.Lock()
	c.waiters[replyID] = w
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, replyID)
		c.mu.Unlock()
	}()

	if err := c.tr.Send(ctx, cmdID, args); err != nil {
		return nil, err
	}
	timer := time.NewTimer(c.ReplyTimeout)
	defer timer.Stop()
	select {
	case data := <-w:
		return data, nil
	case <-timer.C:
		return nil, ErrNoReply
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RetrieveDictionary fetches and parses the dictionary
func (c *Client) RetrieveDictionary(ctx context.Context) error {
	var buf bytes.Buffer
	for buf.Len() < maxDictionary {
		offset := uint32(buf.Len())
		data, err := c.exchange(ctx, identifyID, identifyResponseID, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, offset)
			protocol.EncodeVLQUint(out, identifyChunk)
		})
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", offset, err)
		}
		got, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return fmt.Errorf("failed to decode identify offset: %w", err)
		}
		if got != offset {
			return fmt.Errorf("offset mismatch: expected %d, got %d", offset, got)
		}
		chunk, err := protocol.DecodeVLQBytes(&data)
		if err != nil {
			return fmt.Errorf("failed to decode identify data: %w", err)
		}
		buf.Write(chunk)
		if len(chunk) < identifyChunk {
			break
		}
	}
	dict, err := ParseDictionary(buf.Bytes())
	if err != nil {
		return err
	}
	c.raw = buf.Bytes()
	c.dict = dict
	return nil
}

// Dictionary returns the parsed dictionary, nil before RetrieveDictionary
func (c *Client) Dictionary() *Dictionary {
	return c.dict
}

// RawDictionary returns the dictionary as received
func (c *Client) RawDictionary() []byte {
	return c.raw
}

func (c *Client) lookup(name string) (uint16, error) {
	if c.dict == nil {
		return 0, ErrNoDictionary
	}
	e, ok := c.dict.Command(name)
	if !ok {
		return 0, fmt.Errorf("unknown command: %s", name)
	}
	return e.ID, nil
}

// Send runs a command that has no reply
func (c *Client) Send(ctx context.Context, name string, args func(out protocol.OutputBuffer)) error {
	id, err := c.lookup(name)
	if err != nil {
		return err
	}
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	return c.tr.Send(ctx, id, args)
}

// Request runs a command and returns the arguments of its reply
func (c *Client) Request(ctx context.Context, name, reply string, args func(out protocol.OutputBuffer)) ([]byte, error) {
	id, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	r, ok := c.dict.Response(reply)
	if !ok {
		return nil, fmt.Errorf("unknown response: %s", reply)
	}
	return c.exchange(ctx, id, r.ID, args)
}

// Call runs a command with plain integer arguments
func (c *Client) Call(ctx context.Context, name string, args ...int32) error {
	return c.Send(ctx, name, encodeInts(args))
}

func encodeInts(args []int32) func(out protocol.OutputBuffer) {
	return func(out protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQInt(out, a)
		}
	}
}

// Status is the generator state reported by get_status
type Status struct {
	Mode      core.Mode
	Wave      core.Waveform
	ArbState  core.ArbState
	Sink      core.SinkKind
	Mod       core.ModType
	ArbFreq   uint32 // deci-Hz
	TickRate  uint32
	Increment uint32
	DDSFreq   uint32 // deci-Hz
	PWMFreq   uint32 // deci-Hz
	PWMDuty   uint32 // per mille
	PWMTh     uint32
	PWMTl     uint32
	Vpp       int32
	Offset    int32
	Drops     uint32
}

// Status polls the generator state
func (c *Client) Status(ctx context.Context) (*Status, error) {
	data, err := c.Request(ctx, "get_status", "status", nil)
	if err != nil {
		return nil, err
	}
	var v [16]int32
	for i := range v {
		if v[i], err = protocol.DecodeVLQInt(&data); err != nil {
			return nil, fmt.Errorf("short status reply: %w", err)
		}
	}
	return &Status{
		Mode: core.Mode(v[0]), Wave: core.Waveform(v[1]), ArbState: core.ArbState(v[2]),
		Sink: core.SinkKind(v[3]), Mod: core.ModType(v[4]),
		ArbFreq: uint32(v[5]), TickRate: uint32(v[6]), Increment: uint32(v[7]),
		DDSFreq: uint32(v[8]), PWMFreq: uint32(v[9]), PWMDuty: uint32(v[10]),
		PWMTh: uint32(v[11]), PWMTl: uint32(v[12]),
		Vpp: v[13], Offset: v[14], Drops: uint32(v[15]),
	}, nil
}

// FieldValue is the reply to set_field and rotary
type FieldValue struct {
	Field    core.Field
	Value    int32
	Min, Max int32
	Changed  bool
}

func (c *Client) fieldRequest(ctx context.Context, name string, args ...int32) (*FieldValue, error) {
	data, err := c.Request(ctx, name, "field_value", encodeInts(args))
	if err != nil {
		return nil, err
	}
	var v [5]int32
	for i := range v {
		if v[i], err = protocol.DecodeVLQInt(&data); err != nil {
			return nil, fmt.Errorf("short field_value reply: %w", err)
		}
	}
	return &FieldValue{Field: core.Field(v[0]), Value: v[1], Min: v[2], Max: v[3], Changed: v[4] != 0}, nil
}

// SetMode switches the page that owns the outputs
func (c *Client) SetMode(ctx context.Context, m core.Mode) error {
	return c.Call(ctx, "set_mode", int32(m))
}

// SetField writes a field and returns the clamped result
func (c *Client) SetField(ctx context.Context, f core.Field, v int32) (*FieldValue, error) {
	return c.fieldRequest(ctx, "set_field", int32(f), v)
}

// Rotate turns the knob on field f by inc steps of the given digit
func (c *Client) Rotate(ctx context.Context, f core.Field, inc int8, digit uint8) (*FieldValue, error) {
	return c.fieldRequest(ctx, "rotary", int32(f), int32(inc), int32(digit))
}

// SetWaveform selects the ARB waveform
func (c *Client) SetWaveform(ctx context.Context, w core.Waveform) error {
	return c.Call(ctx, "arb_set_waveform", int32(w))
}

// SetOutput selects the ARB sink
func (c *Client) SetOutput(ctx context.Context, k core.SinkKind) error {
	return c.Call(ctx, "arb_set_output", int32(k))
}

// Touch reports a touch on the waveform preview. It returns whether the
// table changed.
func (c *Client) Touch(ctx context.Context, x, y, height int32) (bool, error) {
	data, err := c.Request(ctx, "arb_touch", "table_changed", encodeInts([]int32{x, y, height}))
	if err != nil {
		return false, err
	}
	v, err := protocol.DecodeVLQUint(&data)
	return v != 0, err
}

// SetDDSWave selects the DDS output kind
func (c *Client) SetDDSWave(ctx context.Context, w core.DDSWave) error {
	return c.Call(ctx, "dds_set_wave", int32(w))
}

// SetModulation configures AM or FM
func (c *Client) SetModulation(ctx context.Context, m core.Modulation) error {
	return c.Call(ctx, "mod_set", int32(m.Type), int32(m.AM.Frequency),
		m.AM.VppMin, m.AM.VppMax, int32(m.FM.FreqMin), int32(m.FM.FreqMax))
}

// SetPWM writes one PWM request field (core.PWMFieldFreq etc.)
func (c *Client) SetPWM(ctx context.Context, field uint8, v uint32) error {
	return c.Call(ctx, "pwm_set", int32(field), int32(v))
}

// LinkPWM keeps the period fixed while Th or Tl changes
func (c *Client) LinkPWM(ctx context.Context, linked bool) error {
	return c.Call(ctx, "pwm_link", boolInt(linked))
}

// SetDebug turns generator debug output on or off
func (c *Client) SetDebug(ctx context.Context, on bool) error {
	return c.Call(ctx, "set_debug", boolInt(on))
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
