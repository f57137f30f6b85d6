package core

import "fungen/protocol"

// Link couples the panel commands to a byte stream. The target feeds it
// whatever the serial port delivered and flushes what Poll returns.
type Link struct {
	In        *protocol.FifoBuffer
	Out       *protocol.ScratchOutput
	Transport *protocol.Transport
	Panel     *Panel

	errors uint32
}

// NewLink creates a link serving g
func NewLink(g *Generator) *Link {
	l := &Link{
		In:  protocol.NewFifoBuffer(256),
		Out: protocol.NewScratchOutput(),
	}
	l.Panel = NewPanel(g, nil)
	l.Transport = protocol.NewTransport(l.Out, l.Panel.Dispatch)
	l.Panel.SetResponder(l.Transport)
	l.Transport.SetResetCallback(func() {
		DebugPrintln("[LINK] panel restarted")
	})
	l.Transport.SetErrorCallback(func(err error) {
		l.errors++
		DebugPrintln("[LINK] command failed: " + err.Error())
	})
	return l
}

// Feed queues received bytes and returns how many fit
func (l *Link) Feed(data []byte) int {
	return l.In.Write(data)
}

// Poll handles every complete frame queued so far and returns the bytes to
// send. The slice is valid until Flushed.
func (l *Link) Poll() []byte {
	if l.In.Available() > 0 {
		l.Transport.Receive(l.In)
	}
	return l.Out.Result()
}

// Flushed drops output the caller has written out
func (l *Link) Flushed() {
	l.Out.Reset()
}

// Reset forgets buffered input, output and sequence state
func (l *Link) Reset() {
	l.In.Reset()
	l.Out.Reset()
	l.Transport.Reset()
}

// Errors returns the number of failed commands
func (l *Link) Errors() uint32 {
	return l.errors
}
