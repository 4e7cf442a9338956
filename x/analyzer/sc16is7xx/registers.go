package sc16is7xx

import "fmt"

// register names indexed by address; a pair holds the read and write names
// when they differ.
//
// (6) accessible only when EFR[4] = 1 and MCR[2] = 1
// (9) accessible only when LCR[7] = 1 and LCR is not 0xBF
// (10) accessible only when LCR is 0xBF
var registers = [16][2]string{
	0x00: {"RHR / DLL(9)", "THR / DLL(9)"},
	0x01: {"IER", "IER"},
	0x02: {"IIR / EFR(10)", "FCR / EFR(10)"},
	0x03: {"LCR", "LCR"},
	0x04: {"MCR / XON1(10)", "MCR / XON1(10)"},
	0x05: {"LSR / XON2(10)", "LSR / XON2(10)"},
	0x06: {"MSR / TCR(6) / XOFF1(10)", "MSR / TCR(6) / XOFF1(10)"},
	0x07: {"SPR / TLR(6) / XOFF2(10)", "SPR / TLR(6) / XOFF2(10)"},
	0x08: {"TXLVL", "TXLVL"},
	0x09: {"RXLVL", "RXLVL"},
	0x0A: {"IODir", "IODir"},
	0x0B: {"IOState", "IOState"},
	0x0C: {"IOIntEna", "IOIntEna"},
	0x0D: {"<Reserved>", "<Reserved>"},
	0x0E: {"IOControl", "IOControl"},
	0x0F: {"EFCR", "EFCR"},
}

var uartChannels = map[uint64]string{
	0b00: "A",
	0b01: "B",
}

// command is the decoded first byte of an SC16IS7xx SPI transaction.
type command struct {
	read     bool
	register uint64
	channel  string
	raw      uint64
}

// isWrite reports the direction bit of a command byte, which is meaningful
// even when the channel bits are not.
func isWrite(value uint64) bool { return value&0x80 == 0 }

// parseCommand decodes the register-address byte. ok is false when the
// channel bits name no UART, which usually means the byte was not a command.
func parseCommand(value uint64) (command, bool) {
	ch, ok := uartChannels[(value>>1)&0x3]
	if !ok {
		return command{}, false
	}
	return command{
		read:     !isWrite(value),
		register: (value >> 3) & 0xf,
		channel:  ch,
		raw:      value,
	}, true
}

func (c command) registerName() string {
	if c.read {
		return registers[c.register][0]
	}
	return registers[c.register][1]
}

func (c command) shortOp() string {
	if c.read {
		return "R"
	}
	return "W"
}

func (c command) longOp() string {
	if c.read {
		return "Read"
	}
	return "Write"
}

// candidates lists the renderings of a command, widest first.
func (c command) candidates() []string {
	return []string{
		fmt.Sprintf("%s %s of channel %s", c.longOp(), c.registerName(), c.channel),
		fmt.Sprintf("%s %s [%s]", c.shortOp(), c.registerName(), c.channel),
		fmt.Sprintf("%s 0x%x %s", c.shortOp(), c.register, c.channel),
		fmt.Sprintf("0x%x", c.raw),
	}
}
