// Package protocol implements the framed serial link between the generator
// and a remote front panel.
//
// A frame is
//
//	[len][seq][payload ...][crc hi][crc lo][0x7E]
//
// where len counts the whole frame, seq carries 0x10 in its high nibble and a
// 4-bit sequence number in its low nibble, and the CRC covers len, seq and
// payload. Payloads are a command id followed by its arguments, all VLQ
// encoded. A frame with an empty payload is an acknowledgement.
package protocol

// Version is the panel protocol version reported in the dictionary
const Version = "1"

// Frame layout
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64
	FrameSync        = 0x7E
	FrameDest        = 0x10
	FrameSeqMask     = 0x0F

	posLen = 0
	posSeq = 1

	// ScratchMax bounds a single encoded reply batch
	ScratchMax = 512
)

// NextSeq returns the sequence byte that follows seq
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & FrameSeqMask) | FrameDest
}
