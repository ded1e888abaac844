// machine.go - wiring between a decoded snapshot and the Z80 emulator
// we use, so that a caller can resume execution of the saved program.

package snapshot

import (
	"log/slog"

	"github.com/koron-go/z80"
)

// pair splits a 16-bit register pair into the form the CPU core uses.
func pair(val uint16) z80.Register {
	return z80.Register{
		Hi: uint8(val >> 8),
		Lo: uint8(val & 0xFF),
	}
}

// CPUState returns the register state of the snapshot in the form the
// Z80 emulator expects, with the program counter resolved via
// ProgramCounter.
//
// The caller would typically use this, along with a Machine, to build
// a z80.CPU and resume the saved program.
func (s *Snapshot) CPUState() z80.States {

	enabled := s.Registers.InterruptsEnabled()

	return z80.States{
		GPR: z80.GPR{
			AF: pair(s.Registers.AF),
			BC: pair(s.Registers.BC),
			DE: pair(s.Registers.DE),
			HL: pair(s.Registers.HL),
		},
		SPR: z80.SPR{
			IR: z80.Register{Hi: s.Registers.I, Lo: s.Registers.R},
			IX: s.Registers.IX,
			IY: s.Registers.IY,
			SP: s.Registers.SP,
			PC: s.ProgramCounter(),
		},
		Alternate: z80.GPR{
			AF: pair(s.Registers.AFPrime),
			BC: pair(s.Registers.BCPrime),
			DE: pair(s.Registers.DEPrime),
			HL: pair(s.Registers.HLPrime),
		},
		IFF1: enabled,
		IFF2: enabled,
		IM:   int(s.Registers.IM),
	}
}

// Machine presents a snapshot as the memory, and I/O ports, of a Z80
// emulator - it implements the z80.Memory and z80.IO interfaces.
//
// Unlike the snapshot's own Poke, writes beneath 0x4000 are silently
// dropped here, because that is what the ROM on the real machine does
// with them - running code must never be able to crash the host.
type Machine struct {
	// snap is the snapshot we're presenting.
	snap *Snapshot

	// Logger holds a logger which we use for debugging and diagnostics.
	Logger *slog.Logger
}

// NewMachine wraps the given snapshot for use by a Z80 emulator.
func NewMachine(snap *Snapshot, logger *slog.Logger) *Machine {

	if logger == nil {
		logger = slog.Default()
	}

	return &Machine{
		snap:   snap,
		Logger: logger,
	}
}

// Get returns a byte of memory, as seen by the running program.
func (m *Machine) Get(addr uint16) uint8 {
	return m.snap.Memory.Peek(addr)
}

// Set writes a byte of memory, as seen by the running program.
//
// Writes into the ROM region are dropped, not faulted.
func (m *Machine) Set(addr uint16, value uint8) {
	if addr < 0x4000 {
		return
	}

	m.snap.Memory.Poke(addr, value)
}

// In handles a port read from the running program.
//
// We emulate no input hardware, so every read sees the floating bus.
func (m *Machine) In(addr uint8) uint8 {
	return 0xFF
}

// Out handles a port write from the running program.
//
// The CPU core only gives us the low byte of the port address, which
// is enough for the two ports we care about: 0xFD for paging-control
// writes, and 0xFE for the border colour.
func (m *Machine) Out(addr uint8, val uint8) {

	switch addr {
	case 0xFD:
		if m.snap.Type != Type128 {
			m.Logger.Debug("paging write ignored",
				slog.String("type", m.snap.Type.String()),
				slog.Int("value", int(val)))
			return
		}
		m.snap.SetPagingControl(val)

	case 0xFE:
		m.snap.Registers.Border = val & 0x07

	default:
		m.Logger.Debug("unhandled port write",
			slog.Int("port", int(addr)),
			slog.Int("value", int(val)))
	}
}
