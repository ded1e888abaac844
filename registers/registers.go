// Package registers contains helpers for reading, and writing, the Z80
// CPU-state header which starts every .SNA snapshot file.
//
// The header is 27 bytes long, and multi-byte fields are stored in
// little-endian order, as you'd expect for a Z80-based machine.
package registers

// HeaderSize is the length of the CPU-state header, in bytes.
//
// Both the 48K and the 128K snapshot variants begin with a header
// of this size.
const HeaderSize = 27

// Registers holds the Z80 CPU state saved in a snapshot header.
//
// The fields appear here in the order they're stored on disk, and no
// meaning is given to their values - we save and restore them blindly.
type Registers struct {
	// I is the interrupt vector register.
	I uint8

	// HLPrime, DEPrime, BCPrime, and AFPrime are the alternate
	// register pairs, as swapped in via EXX / EX AF,AF'.
	HLPrime uint16
	DEPrime uint16
	BCPrime uint16
	AFPrime uint16

	// HL, DE, and BC are the main register pairs.
	HL uint16
	DE uint16
	BC uint16

	// IY and IX are the index registers.
	IY uint16
	IX uint16

	// IFF records the interrupt flip-flop state; bit 2 is set when
	// interrupts were enabled at the time the snapshot was taken.
	IFF uint8

	// R is the memory-refresh register.
	R uint8

	// AF is the accumulator and flags pair.
	AF uint16

	// SP is the stack pointer.
	SP uint16

	// IM is the interrupt mode, 0-2.
	IM uint8

	// Border holds the border colour, 0-7.
	Border uint8
}

// FromBytes returns the register state decoded from the given bytes,
// which must be at least HeaderSize long.
func FromBytes(bytes []uint8) Registers {

	word := func(off int) uint16 {
		return uint16(bytes[off]) | (uint16(bytes[off+1]) << 8)
	}

	return Registers{
		I:       bytes[0],
		HLPrime: word(1),
		DEPrime: word(3),
		BCPrime: word(5),
		AFPrime: word(7),
		HL:      word(9),
		DE:      word(11),
		BC:      word(13),
		IY:      word(15),
		IX:      word(17),
		IFF:     bytes[19],
		R:       bytes[20],
		AF:      word(21),
		SP:      word(23),
		IM:      bytes[25],
		Border:  bytes[26],
	}
}

// AsBytes returns the register state in the on-disk header layout,
// suitable for writing back to a snapshot file.
func (r *Registers) AsBytes() []uint8 {

	var out []uint8

	word := func(val uint16) {
		out = append(out, uint8(val&0xFF), uint8(val>>8))
	}

	out = append(out, r.I)
	word(r.HLPrime)
	word(r.DEPrime)
	word(r.BCPrime)
	word(r.AFPrime)
	word(r.HL)
	word(r.DE)
	word(r.BC)
	word(r.IY)
	word(r.IX)
	out = append(out, r.IFF, r.R)
	word(r.AF)
	word(r.SP)
	out = append(out, r.IM, r.Border)

	return out
}

// InterruptsEnabled reports whether interrupts were enabled when the
// snapshot was taken.
func (r *Registers) InterruptsEnabled() bool {
	return r.IFF&0x04 != 0
}
