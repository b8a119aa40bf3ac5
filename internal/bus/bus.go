/*
   PSX memory bus and address decoder: RAM, BIOS, scratchpad, and the
   fixed physical MMIO windows for every device, folding virtual
   addresses into a canonical physical space (spec.md §3, §4.2, §6).

   One function per access width (byte/half/word) reads or writes
   straight against a backing array rather than a generic templated
   accessor; a small routing table maps each physical MMIO window to
   its owning subcomponent.

   Copyright (c) 2026
*/

package bus

import (
	"log/slog"

	"github.com/rcornwell/psx/internal/device"
)

const (
	ramSize         = 2 * 1024 * 1024
	biosSize        = 512 * 1024
	scratchpadSize  = 1024
)

// AddrError models the CPU-visible LoadAddressError/StoreAddressError
// condition: an unaligned access, or the unaligned-left/right variants
// bypass it entirely by operating on the containing aligned word.
type AddrError struct {
	Addr  uint32
	Store bool
}

func (e *AddrError) Error() string {
	if e.Store {
		return "store address error"
	}
	return "load address error"
}

// WordDevice is implemented by devices that only accept word-sized MMIO
// access (GPU, DMA, IRQ, timers) per spec.md §4.2's fidelity contract.
type WordDevice interface {
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, v uint32)
}

// Bus owns the flat memories and routes MMIO to the wired devices.
type Bus struct {
	ram        [ramSize]byte
	bios       [biosSize]byte
	biosLoaded bool
	scratchpad [scratchpadSize]byte

	GPU    WordDevice
	DMA    WordDevice
	IRQ    WordDevice
	Timers WordDevice
	Cdrom  WordDevice
	SPU    WordDevice
	SIO    WordDevice

	warned map[uint32]bool
}

// New returns a bus with zero-initialized RAM/scratchpad and no BIOS
// loaded yet.
func New() *Bus {
	return &Bus{warned: make(map[uint32]bool)}
}

// LoadBIOS installs the boot ROM image. It must be exactly 512 KiB
// (spec.md §6); a wrong-size image is a startup failure the caller
// reports and exits on, not a fatal panic, since it originates from
// user-supplied input rather than an internal bug.
func (b *Bus) LoadBIOS(data []byte) error {
	if len(data) != biosSize {
		return &biosSizeError{got: len(data)}
	}
	copy(b.bios[:], data)
	b.biosLoaded = true
	return nil
}

type biosSizeError struct{ got int }

func (e *biosSizeError) Error() string {
	return "BIOS image must be exactly 524288 bytes"
}

// region masks used to fold KUSEG/KSEG0/KSEG1/KSEG2 virtual addresses
// into physical space. Indexed by the top 3 bits of the virtual
// address (addr>>29): KUSEG (0-3) and KSEG2 (6-7) pass through
// untouched, KSEG0 (4) clears the topmost bit, KSEG1 (5) clears the
// top three bits.
var regionMask = [8]uint32{
	0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF,
	0x7FFFFFFF,
	0x1FFFFFFF,
	0xFFFFFFFF, 0xFFFFFFFF,
}

// ToPhysical folds a virtual address into physical space.
func ToPhysical(vaddr uint32) uint32 {
	return vaddr & regionMask[vaddr>>29]
}

// ReadByte/ReadHalf/ReadWord and the matching Write* functions are the
// CPU-facing contract: read<T>/write<T> from spec.md §4.2. Half/word
// accesses enforce natural alignment; byte accesses are always aligned.
func (b *Bus) ReadByte(vaddr uint32) (uint8, error) {
	paddr := ToPhysical(vaddr)
	return b.readByte(paddr)
}

func (b *Bus) ReadHalf(vaddr uint32) (uint16, error) {
	if vaddr&1 != 0 {
		return 0, &AddrError{Addr: vaddr}
	}
	paddr := ToPhysical(vaddr)
	lo, err := b.readByte(paddr)
	if err != nil {
		return 0, err
	}
	hi, err := b.readByte(paddr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (b *Bus) ReadWord(vaddr uint32) (uint32, error) {
	if vaddr&3 != 0 {
		return 0, &AddrError{Addr: vaddr}
	}
	paddr := ToPhysical(vaddr)
	return b.readPhysicalWord(paddr, vaddr)
}

func (b *Bus) WriteByte(vaddr uint32, v uint8) error {
	paddr := ToPhysical(vaddr)
	return b.writeByte(paddr, v)
}

func (b *Bus) WriteHalf(vaddr uint32, v uint16) error {
	if vaddr&1 != 0 {
		return &AddrError{Addr: vaddr, Store: true}
	}
	paddr := ToPhysical(vaddr)
	if err := b.writeByte(paddr, uint8(v)); err != nil {
		return err
	}
	return b.writeByte(paddr+1, uint8(v>>8))
}

func (b *Bus) WriteWord(vaddr uint32, v uint32) error {
	if vaddr&3 != 0 {
		return &AddrError{Addr: vaddr, Store: true}
	}
	paddr := ToPhysical(vaddr)
	return b.writePhysicalWord(paddr, vaddr, v)
}

// readPhysicalWord/writePhysicalWord dispatch word-granularity MMIO
// accesses to the routed device, little-endian composed from RAM/BIOS/
// scratchpad where applicable.
func (b *Bus) readPhysicalWord(paddr, vaddr uint32) (uint32, error) {
	switch {
	case paddr < ramSize:
		return leWord(b.ram[paddr:]), nil
	case paddr >= 0x1F800000 && paddr < 0x1F800000+scratchpadSize:
		return leWord(b.scratchpad[paddr-0x1F800000:]), nil
	case paddr >= 0x1FC00000 && paddr < 0x1FC00000+biosSize:
		return leWord(b.bios[paddr-0x1FC00000:]), nil
	case paddr >= 0x1F801070 && paddr < 0x1F801078:
		return b.dispatchRead(b.IRQ, paddr-0x1F801070), nil
	case paddr >= 0x1F801080 && paddr < 0x1F801100:
		return b.dispatchRead(b.DMA, paddr-0x1F801080), nil
	case paddr >= 0x1F801100 && paddr < 0x1F801130:
		return b.dispatchRead(b.Timers, paddr-0x1F801100), nil
	case paddr >= 0x1F801800 && paddr < 0x1F801804:
		return b.dispatchRead(b.Cdrom, paddr-0x1F801800), nil
	case paddr >= 0x1F801810 && paddr < 0x1F801818:
		return b.dispatchRead(b.GPU, paddr-0x1F801810), nil
	case paddr >= 0x1F801C00 && paddr < 0x1F801E80:
		return b.dispatchRead(b.SPU, paddr-0x1F801C00), nil
	case isStub(paddr):
		b.warnOnce(paddr, "stub region read")
		return 0, nil
	default:
		device.AbortAddr("read from unmapped MMIO", vaddr)
		return 0, nil
	}
}

func (b *Bus) writePhysicalWord(paddr, vaddr, v uint32) error {
	switch {
	case paddr < ramSize:
		putLEWord(b.ram[paddr:], v)
		return nil
	case paddr >= 0x1F800000 && paddr < 0x1F800000+scratchpadSize:
		putLEWord(b.scratchpad[paddr-0x1F800000:], v)
		return nil
	case paddr >= 0x1FC00000 && paddr < 0x1FC00000+biosSize:
		// BIOS is read-only; writes are dropped.
		return nil
	case paddr >= 0x1F801070 && paddr < 0x1F801078:
		b.dispatchWrite(b.IRQ, paddr-0x1F801070, v)
		return nil
	case paddr >= 0x1F801080 && paddr < 0x1F801100:
		b.dispatchWrite(b.DMA, paddr-0x1F801080, v)
		return nil
	case paddr >= 0x1F801100 && paddr < 0x1F801130:
		b.dispatchWrite(b.Timers, paddr-0x1F801100, v)
		return nil
	case paddr >= 0x1F801800 && paddr < 0x1F801804:
		b.dispatchWrite(b.Cdrom, paddr-0x1F801800, v)
		return nil
	case paddr >= 0x1F801810 && paddr < 0x1F801818:
		b.dispatchWrite(b.GPU, paddr-0x1F801810, v)
		return nil
	case paddr >= 0x1F801C00 && paddr < 0x1F801E80:
		b.dispatchWrite(b.SPU, paddr-0x1F801C00, v)
		return nil
	case isStub(paddr):
		b.warnOnce(paddr, "stub region write")
		return nil
	default:
		device.AbortAddr("write to unmapped MMIO", vaddr)
		return nil
	}
}

func (b *Bus) dispatchRead(dev WordDevice, offset uint32) uint32 {
	if dev == nil {
		return 0
	}
	return dev.ReadWord(offset)
}

func (b *Bus) dispatchWrite(dev WordDevice, offset uint32, v uint32) {
	if dev == nil {
		return
	}
	dev.WriteWord(offset, v)
}

// isStub reports whether paddr falls in a catch-all region that logs
// and returns zero: memctl, ramsize, cachectl, expansion1/2, SIO,
// lightgun/joypad I/O ports.
func isStub(paddr uint32) bool {
	switch {
	case paddr >= 0x1F000000 && paddr < 0x1F000100: // expansion1
		return true
	case paddr >= 0x1F801000 && paddr < 0x1F801024: // memctl
		return true
	case paddr >= 0x1F801040 && paddr < 0x1F801060: // joypad/SIO ports
		return true
	case paddr >= 0x1F801060 && paddr < 0x1F801064: // ramsize
		return true
	case paddr >= 0x1F802000 && paddr < 0x1F802042: // expansion2
		return true
	case paddr == 0xFFFE0130: // cachectl
		return true
	default:
		return false
	}
}

func (b *Bus) warnOnce(paddr uint32, msg string) {
	if b.warned[paddr] {
		return
	}
	b.warned[paddr] = true
	slog.Debug(msg, "addr", paddr)
}

// readByte/writeByte handle sub-word access; RAM/scratchpad/BIOS allow
// it directly, everything else must route through a word-only device
// and a narrower access there is a fidelity-contract violation.
func (b *Bus) readByte(paddr uint32) (uint8, error) {
	switch {
	case paddr < ramSize:
		return b.ram[paddr], nil
	case paddr >= 0x1F800000 && paddr < 0x1F800000+scratchpadSize:
		return b.scratchpad[paddr-0x1F800000], nil
	case paddr >= 0x1FC00000 && paddr < 0x1FC00000+biosSize:
		return b.bios[paddr-0x1FC00000], nil
	case isStub(paddr):
		b.warnOnce(paddr, "stub region read")
		return 0, nil
	case paddr >= 0x1F801070 && paddr < 0x1F801830:
		device.Abort("byte/half access to a word-only device register")
		return 0, nil
	default:
		device.AbortAddr("read from unmapped MMIO", paddr)
		return 0, nil
	}
}

func (b *Bus) writeByte(paddr uint32, v uint8) error {
	switch {
	case paddr < ramSize:
		b.ram[paddr] = v
		return nil
	case paddr >= 0x1F800000 && paddr < 0x1F800000+scratchpadSize:
		b.scratchpad[paddr-0x1F800000] = v
		return nil
	case paddr >= 0x1FC00000 && paddr < 0x1FC00000+biosSize:
		return nil // BIOS writes ignored
	case isStub(paddr):
		b.warnOnce(paddr, "stub region write")
		return nil
	case paddr >= 0x1F801070 && paddr < 0x1F801830:
		device.Abort("byte/half access to a word-only device register")
		return nil
	default:
		device.AbortAddr("write to unmapped MMIO", paddr)
		return nil
	}
}

// RAMWord/RAMWriteWord give DMA and the side-load path direct,
// alignment-free word access into RAM, masked the way real DMA
// addressing masks (spec.md §4.5: "& 0x1FFFFC").
func (b *Bus) RAMWord(addr uint32) uint32 {
	addr &= 0x1FFFFC
	return leWord(b.ram[addr:])
}

func (b *Bus) RAMWriteWord(addr uint32, v uint32) {
	addr &= 0x1FFFFC
	putLEWord(b.ram[addr:], v)
}

// RAMBytes exposes a slice of RAM for the PSX-EXE side-load path to
// copy a payload into.
func (b *Bus) RAMBytes(addr uint32, length int) []byte {
	addr &= 0x1FFFFF
	end := addr + uint32(length)
	if end > ramSize {
		end = ramSize
	}
	return b.ram[addr:end]
}

func leWord(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLEWord(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
