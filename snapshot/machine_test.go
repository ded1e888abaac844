package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCPUState ensures every header field lands in the right place in
// the CPU core's register file.
func TestCPUState(t *testing.T) {

	snap, err := Decode(image128(0, [8]uint16{}))
	require.NoError(t, err)

	st := snap.CPUState()

	require.Equal(t, uint8(0x45), st.AF.Hi)
	require.Equal(t, uint8(0xAB), st.AF.Lo)
	require.Equal(t, uint16(0xAB45), st.BC.U16())
	require.Equal(t, uint16(0xCD23), st.DE.U16())
	require.Equal(t, uint16(0xEF01), st.HL.U16())

	require.Equal(t, uint16(0xDEF0), st.Alternate.AF.U16())
	require.Equal(t, uint16(0x9ABC), st.Alternate.BC.U16())
	require.Equal(t, uint16(0x5678), st.Alternate.DE.U16())
	require.Equal(t, uint16(0x1234), st.Alternate.HL.U16())

	require.Equal(t, uint8(0x3F), st.IR.Hi)
	require.Equal(t, uint8(0x7F), st.IR.Lo)
	require.Equal(t, uint16(0x6789), st.IX)
	require.Equal(t, uint16(0x8967), st.IY)
	require.Equal(t, uint16(0x8000), st.SP)
	require.Equal(t, uint16(0x1234), st.PC)

	require.True(t, st.IFF1)
	require.True(t, st.IFF2)
	require.Equal(t, 1, st.IM)
}

// TestCPUState48 ensures the 48K variant takes its program counter
// from the stack.
func TestCPUState48(t *testing.T) {

	snap, err := Decode(image48([3]uint8{0, 0, 0}))
	require.NoError(t, err)

	snap.Memory.PokeWord(snap.Registers.SP, 0xBEEF)
	require.Equal(t, uint16(0xBEEF), snap.CPUState().PC)
}

// TestMachineMemory ensures the machine view reads like the logical
// view, and drops writes into ROM instead of faulting.
func TestMachineMemory(t *testing.T) {

	snap, err := Decode(image128(0, [8]uint16{}))
	require.NoError(t, err)

	m := NewMachine(snap, nil)

	m.Set(0x4000, 0xAA)
	require.Equal(t, uint8(0xAA), m.Get(0x4000))
	require.Equal(t, uint8(0xAA), snap.Memory.Peek(0x4000))

	// Writes beneath the mapped region go nowhere, quietly.
	m.Set(0x2000, 0x55)
	require.Equal(t, uint8(0xFF), m.Get(0x2000))
	for bank := 0; bank < 8; bank++ {
		if bank == 5 {
			continue
		}
		require.Equal(t, uint16(0), snap.Memory.Checksum(bank), "bank %d", bank)
	}
}

// TestMachinePorts ensures the two ports we emulate behave, and that
// everything else is harmless.
func TestMachinePorts(t *testing.T) {

	snap, err := Decode(image128(0, [8]uint16{}))
	require.NoError(t, err)

	m := NewMachine(snap, nil)

	// We have no input hardware, so reads see the floating bus.
	require.Equal(t, uint8(0xFF), m.In(0x00))
	require.Equal(t, uint8(0xFF), m.In(0xFE))

	// A paging-control write remaps the top window.
	m.Out(0xFD, 0x06)
	require.Equal(t, [3]uint8{5, 2, 6}, snap.Memory.PageTable())
	require.Equal(t, uint8(0x06), snap.Extension.Port7FFD)

	// A border write updates the saved colour, low bits only.
	m.Out(0xFE, 0xF2)
	require.Equal(t, uint8(0x02), snap.Registers.Border)

	// Anything else is ignored.
	m.Out(0x01, 0x99)
	require.Equal(t, [3]uint8{5, 2, 6}, snap.Memory.PageTable())
}

// TestMachinePortsOn48 ensures a paging write on a 48K machine is
// ignored, rather than treated as a caller bug - running code can
// write wherever it likes.
func TestMachinePortsOn48(t *testing.T) {

	snap, err := Decode(image48([3]uint8{0, 0, 0}))
	require.NoError(t, err)

	m := NewMachine(snap, nil)

	m.Out(0xFD, 0x03)
	require.Equal(t, [3]uint8{0, 1, 2}, snap.Memory.PageTable())
}
