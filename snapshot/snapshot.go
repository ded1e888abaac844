// Package snapshot decodes, and encodes, the .SNA snapshot format used
// to save the state of a ZX Spectrum.
//
// A snapshot is a 27-byte register header followed by the contents of
// RAM.  The 48K variant stores the three mapped banks and nothing else;
// the 128K variant adds a small extension record, and the five banks
// which weren't mapped at save-time.  We tell the two apart purely by
// length, which is how the format was always handled.
//
// Once decoded the snapshot can be read, and written, through its
// Memory field using the same address-space the emulated machine
// would see, including the bank-switching of the 128K models.
package snapshot

import (
	"errors"
	"fmt"
	"os"

	"github.com/skx/zxsna/memory"
	"github.com/skx/zxsna/registers"
)

const (
	// size48K is the length of a 48K snapshot: the register header
	// plus the three mapped banks.
	size48K = registers.HeaderSize + 3*memory.BankSize

	// extensionSize is the length of the 128K extension record.
	extensionSize = 4

	// size128K is the minimum length of a 128K snapshot: everything
	// a 48K snapshot has, plus the extension record, and the five
	// banks which weren't mapped when the snapshot was taken.
	size128K = size48K + extensionSize + 5*memory.BankSize
)

var (
	// ErrTruncated will be returned by Decode when the input is too
	// short to hold the format its length implies.
	//
	// It should be handled and expected by callers.
	ErrTruncated = errors.New("snapshot truncated")

	// ErrNoPaging is used to panic when bank-switching is attempted
	// on a 48K snapshot, which has a fixed memory map.  That is a
	// caller bug, not a data error.
	ErrNoPaging = errors.New("no paging hardware")
)

// Type describes which of the two snapshot variants we decoded.
type Type int

const (
	// Type48 is the 48K variant, with three banks and a fixed map.
	Type48 Type = iota

	// Type128 is the 128K variant, with eight banks and paging.
	Type128
)

// String returns a human-readable name for the snapshot type.
func (t Type) String() string {
	if t == Type128 {
		return "128k"
	}
	return "48k"
}

// Extension holds the extra record a 128K snapshot carries after the
// three mapped banks.
type Extension struct {
	// PC is the program counter.  The 48K variant stores the
	// program counter on the stack instead, which is why this
	// lives here rather than with the other registers.
	PC uint16

	// Port7FFD is the last value written to the paging-control
	// port, 0x7FFD.  The low three bits select the bank mapped
	// at 0xC000-0xFFFF.
	Port7FFD uint8

	// TRDOS is non-zero when the TR-DOS ROM was paged in.
	TRDOS uint8
}

// Snapshot is a decoded .SNA file.
//
// The Extension field is nil for a 48K snapshot - its presence is what
// distinguishes the two variants, there is no in-band marker.
type Snapshot struct {
	// Type records which variant was decoded.
	Type Type

	// Registers holds the CPU state from the header.
	Registers registers.Registers

	// Extension holds the 128K extension record, or nil.
	Extension *Extension

	// Memory holds the RAM banks, and the page-table which maps
	// them into the address-space.
	Memory *memory.RAM
}

// Decode parses the given bytes as a .SNA snapshot.
//
// The variant is chosen by length alone: anything longer than a 48K
// snapshot is treated as 128K.  Register and paging values are taken
// as-is, no validation is attempted beyond the length checks.
func Decode(bin []uint8) (*Snapshot, error) {

	if len(bin) < size48K {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrTruncated, len(bin), size48K)
	}

	snap := &Snapshot{
		Registers: registers.FromBytes(bin),
	}

	// chunk returns the n'th bank-sized run of RAM data,
	// counting from the end of the register header.
	chunk := func(n int) []uint8 {
		off := registers.HeaderSize + n*memory.BankSize
		return bin[off : off+memory.BankSize]
	}

	if len(bin) > size48K {

		// 128K - so the extension record follows the three
		// mapped banks, and the five free banks follow that.
		if len(bin) < size128K {
			return nil, fmt.Errorf("%w: got %d bytes, a 128k snapshot needs %d", ErrTruncated, len(bin), size128K)
		}

		snap.Type = Type128
		snap.Extension = &Extension{
			PC:       uint16(bin[size48K]) | (uint16(bin[size48K+1]) << 8),
			Port7FFD: bin[size48K+2],
			TRDOS:    bin[size48K+3],
		}

		// The machine saved whatever was mapped at the time:
		// bank 5 at 0x4000, bank 2 at 0x8000, and whichever
		// bank the paging-control selected at 0xC000.
		top := snap.Extension.Port7FFD & 0x07

		snap.Memory = memory.NewRAM(8, [3]uint8{5, 2, top})
		snap.Memory.LoadBank(5, chunk(0))
		snap.Memory.LoadBank(2, chunk(1))
		snap.Memory.LoadBank(int(top), chunk(2))

		// The remaining banks follow the extension record in
		// ascending order.  Banks 5 and 2 are always mapped so
		// never appear here, and neither does the top bank.
		//
		// When the top bank is 5 or 2 nothing drops out of the
		// list, and a sixth trailing bank is required - so the
		// length is re-checked as we go rather than up front.
		off := size48K + extensionSize
		for _, bank := range []int{0, 1, 3, 4, 6, 7} {
			if bank == int(top) {
				continue
			}
			if off+memory.BankSize > len(bin) {
				return nil, fmt.Errorf("%w: got %d bytes, bank %d needs %d", ErrTruncated, len(bin), bank, off+memory.BankSize)
			}
			snap.Memory.LoadBank(bank, bin[off:off+memory.BankSize])
			off += memory.BankSize
		}

		return snap, nil
	}

	// 48K - three banks, stored in address order, fixed map.
	snap.Type = Type48
	snap.Memory = memory.NewRAM(3, [3]uint8{0, 1, 2})
	snap.Memory.LoadBank(0, chunk(0))
	snap.Memory.LoadBank(1, chunk(1))
	snap.Memory.LoadBank(2, chunk(2))

	return snap, nil
}

// FromFile reads the named file and decodes it as a snapshot.
func FromFile(path string) (*Snapshot, error) {

	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Decode(bin)
}

// SetPagingControl records a write to the paging-control port, 0x7FFD,
// mapping the bank selected by the low three bits into 0xC000-0xFFFF.
//
// Only the 128K variant has paging hardware; calling this on a 48K
// snapshot panics with ErrNoPaging.
func (s *Snapshot) SetPagingControl(value uint8) {
	if s.Type != Type128 {
		panic(fmt.Errorf("%w: 48k snapshots have a fixed memory map", ErrNoPaging))
	}

	s.Extension.Port7FFD = value
	s.Memory.SetTopBank(value & 0x07)
}

// ProgramCounter returns the address execution should resume from.
//
// The 128K variant stores this in its extension record.  The 48K
// variant pushed it onto the stack before saving, so we read the word
// at SP - without popping it, the snapshot is left untouched.
func (s *Snapshot) ProgramCounter() uint16 {
	if s.Extension != nil {
		return s.Extension.PC
	}

	return s.Memory.PeekWord(s.Registers.SP)
}

// Bytes returns the snapshot in its on-disk layout, suitable for
// saving and decoding again later.
//
// The three mapped banks are emitted from the current page-table, so
// a 128K snapshot which has been re-paged since decode still round
// trips exactly.
func (s *Snapshot) Bytes() []uint8 {

	out := s.Registers.AsBytes()

	table := s.Memory.PageTable()
	for slot := 0; slot < 3; slot++ {
		out = append(out, s.Memory.BankBytes(int(table[slot]))...)
	}

	if s.Type != Type128 {
		return out
	}

	out = append(out,
		uint8(s.Extension.PC&0xFF),
		uint8(s.Extension.PC>>8),
		s.Extension.Port7FFD,
		s.Extension.TRDOS)

	for _, bank := range []int{0, 1, 3, 4, 6, 7} {
		if bank == int(table[2]) {
			continue
		}
		out = append(out, s.Memory.BankBytes(bank)...)
	}

	return out
}
