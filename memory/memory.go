// Memory is a package that provides the banked RAM of the ZX Spectrum,
// along with the page-table which maps banks into the address-space.
//
// The Spectrum divides its 64k address-space into four 16k windows.
// The lowest window, 0x0000-0x3FFF, is ROM and is not ours to manage;
// the other three windows each show one 16k bank of RAM.  On the 48k
// machine the mapping is fixed, on the 128k machine the topmost window
// can be switched between any of the eight banks.
package memory

import (
	"errors"
	"fmt"
)

// BankSize is the size of a single memory bank, in bytes.
const BankSize = 16 * 1024

var (
	// ErrAddressOutOfRange is used to panic when an address that has
	// no mapped RAM behind it is written to, or when a 16-bit access
	// is attempted at 0xFFFF, where the high byte has no home.
	//
	// These are caller bugs, not data errors, so we refuse loudly
	// rather than clamping.
	ErrAddressOutOfRange = errors.New("address out of range")

	// ErrBankOutOfRange is used to panic when a bank index doesn't
	// refer to a bank we actually hold.
	ErrBankOutOfRange = errors.New("bank out of range")
)

// Bank is a single 16k bank of RAM.
type Bank [BankSize]uint8

// RAM holds the memory banks of a snapshot, and the page-table which
// maps three of them into the logical address-space.
//
// Slot 0 of the table covers 0x4000-0x7FFF, slot 1 covers 0x8000-0xBFFF,
// and slot 2 covers 0xC000-0xFFFF.  Slots 0 and 1 never change after
// construction; slot 2 is updated via SetTopBank.
type RAM struct {
	// banks holds the RAM contents, three banks for a 48k machine
	// and eight for a 128k machine.
	banks []Bank

	// table maps the three 16k windows above 0x4000 to bank indices.
	table [3]uint8
}

// NewRAM allocates the given number of zero-filled banks, mapped
// according to the supplied page-table.
//
// The table is fixed at construction because slots 0 and 1 never
// change for the life of the machine; only the top slot may be
// remapped later, via SetTopBank.
func NewRAM(nbanks int, table [3]uint8) *RAM {
	if nbanks < 3 {
		panic(fmt.Errorf("%w: need at least three banks, got %d", ErrBankOutOfRange, nbanks))
	}

	r := &RAM{
		banks: make([]Bank, nbanks),
		table: table,
	}
	r.checkTable()

	return r
}

// Banks returns the number of banks we hold.
func (r *RAM) Banks() int {
	return len(r.banks)
}

// PageTable returns a copy of the current page-table.
func (r *RAM) PageTable() [3]uint8 {
	return r.table
}

// slot returns the page-table slot covering the given address.
//
// The caller must ensure the address is 0x4000, or higher.
func slot(addr uint16) int {
	return int((addr>>14)&0x03) - 1
}

// Peek reads a byte from the memory mapped at the given address.
//
// Addresses below 0x4000 are ROM, which we don't hold, so reads
// there return 0xFF.
func (r *RAM) Peek(addr uint16) uint8 {
	if addr < 0x4000 {
		return 0xFF
	}

	return r.banks[r.table[slot(addr)]][addr&0x3FFF]
}

// Poke writes a byte to the memory mapped at the given address.
//
// Addresses below 0x4000 are ROM, there is no write-path there, and
// attempting one panics with ErrAddressOutOfRange.
func (r *RAM) Poke(addr uint16, value uint8) {
	if addr < 0x4000 {
		panic(fmt.Errorf("%w: poke at %04X is below mapped RAM", ErrAddressOutOfRange, addr))
	}

	r.banks[r.table[slot(addr)]][addr&0x3FFF] = value
}

// PeekWord reads a 16-bit little-endian value from the memory mapped
// at the given address.
//
// An access at 0xFFFF panics with ErrAddressOutOfRange, as the high
// byte would have no logical address - we do not wrap.
func (r *RAM) PeekWord(addr uint16) uint16 {
	if addr == 0xFFFF {
		panic(fmt.Errorf("%w: 16-bit peek at FFFF", ErrAddressOutOfRange))
	}

	l := r.Peek(addr)
	h := r.Peek(addr + 1)
	return (uint16(h) << 8) | uint16(l)
}

// PokeWord writes a 16-bit little-endian value to the memory mapped
// at the given address.
//
// An access at 0xFFFF panics with ErrAddressOutOfRange, as the high
// byte would have no logical address - we do not wrap.
func (r *RAM) PokeWord(addr uint16, value uint16) {
	if addr == 0xFFFF {
		panic(fmt.Errorf("%w: 16-bit poke at FFFF", ErrAddressOutOfRange))
	}

	r.Poke(addr, uint8(value&0xFF))
	r.Poke(addr+1, uint8(value>>8))
}

// BankPeek reads a byte directly from the given bank, ignoring the
// page-table.  The address is masked to the bank size.
func (r *RAM) BankPeek(bank int, addr uint16) uint8 {
	if bank < 0 || bank >= len(r.banks) {
		panic(fmt.Errorf("%w: bank %d of %d", ErrBankOutOfRange, bank, len(r.banks)))
	}

	return r.banks[bank][addr&0x3FFF]
}

// BankPoke writes a byte directly to the given bank, ignoring the
// page-table.  The address is masked to the bank size.
func (r *RAM) BankPoke(bank int, addr uint16, value uint8) {
	if bank < 0 || bank >= len(r.banks) {
		panic(fmt.Errorf("%w: bank %d of %d", ErrBankOutOfRange, bank, len(r.banks)))
	}

	r.banks[bank][addr&0x3FFF] = value
}

// BankPeekWord reads a 16-bit little-endian value from the given bank.
//
// A read at the last offset of a bank, 0x3FFF, takes its high byte
// from offset zero - of the same bank when wrap is true, or of the
// following bank when wrap is false.  Which of the two the real
// hardware does depends on the chip revision, so the caller chooses.
func (r *RAM) BankPeekWord(bank int, addr uint16, wrap bool) uint16 {
	l := r.BankPeek(bank, addr)

	if addr&0x3FFF == 0x3FFF {
		addr = 0
		if !wrap {
			bank++
		}
	} else {
		addr++
	}

	h := r.BankPeek(bank, addr)
	return (uint16(h) << 8) | uint16(l)
}

// BankPokeWord writes a 16-bit little-endian value to the given bank.
//
// A write at the last offset of a bank, 0x3FFF, places its high byte
// at offset zero - of the same bank when wrap is true, or of the
// following bank when wrap is false.
func (r *RAM) BankPokeWord(bank int, addr uint16, value uint16, wrap bool) {
	r.BankPoke(bank, addr, uint8(value&0xFF))

	if addr&0x3FFF == 0x3FFF {
		addr = 0
		if !wrap {
			bank++
		}
	} else {
		addr++
	}

	r.BankPoke(bank, addr, uint8(value>>8))
}

// SetTopBank maps the given bank into the topmost window of the
// address-space, 0xC000-0xFFFF.  This is the only part of the
// page-table which may change after construction.
func (r *RAM) SetTopBank(bank uint8) {
	r.table[2] = bank
	r.checkTable()
}

// LoadBank replaces the contents of the given bank with the supplied
// bytes, which must not exceed the bank size.
func (r *RAM) LoadBank(bank int, data []uint8) {
	if bank < 0 || bank >= len(r.banks) {
		panic(fmt.Errorf("%w: bank %d of %d", ErrBankOutOfRange, bank, len(r.banks)))
	}

	copy(r.banks[bank][:], data)
}

// BankBytes returns a copy of the contents of the given bank.
func (r *RAM) BankBytes(bank int) []uint8 {
	if bank < 0 || bank >= len(r.banks) {
		panic(fmt.Errorf("%w: bank %d of %d", ErrBankOutOfRange, bank, len(r.banks)))
	}

	out := make([]uint8, BankSize)
	copy(out, r.banks[bank][:])
	return out
}

// Checksum sums every byte of the given bank, wrapping at 16 bits.
//
// This is cheap to compute and handy for confirming that bank data
// survived a decode, or a re-encode, intact.
func (r *RAM) Checksum(bank int) uint16 {
	if bank < 0 || bank >= len(r.banks) {
		panic(fmt.Errorf("%w: bank %d of %d", ErrBankOutOfRange, bank, len(r.banks)))
	}

	var sum uint16
	for _, b := range r.banks[bank] {
		sum += uint16(b)
	}
	return sum
}

// checkTable confirms that every page-table slot points at a bank we
// hold.  It runs after every table mutation.
func (r *RAM) checkTable() {
	for i, bank := range r.table {
		if int(bank) >= len(r.banks) {
			panic(fmt.Errorf("%w: page-table slot %d maps bank %d of %d", ErrBankOutOfRange, i, bank, len(r.banks)))
		}
	}
}
