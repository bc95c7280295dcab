package classify

// Per-technology command and response tables. These are immutable static
// data: lookup only, never mutated after init.

// nfcACmd maps the first payload octet of an NFC-A poll frame to its
// command mnemonic.
var nfcACmd = map[byte]string{
	0x1A: "AUTH",       // MIFARE Ultralight C authentication
	0x1B: "PWD_AUTH",   // MIFARE Ultralight EV1
	0x26: "REQA",       // ISO/IEC 14443
	0x30: "READ",       // MIFARE Ultralight EV1
	0x39: "READ_CNT",   // MIFARE Ultralight EV1
	0x3A: "FAST_READ",  // MIFARE Ultralight EV1
	0x3C: "READ_SIG",   // MIFARE Ultralight EV1
	0x3E: "TEARING",    // MIFARE Ultralight EV1
	0x4B: "VCSL",       // MIFARE Ultralight EV1
	0x50: "HLTA",       // ISO/IEC 14443
	0x52: "WUPA",       // ISO/IEC 14443
	0x60: "AUTH",       // MIFARE Classic
	0x61: "AUTH",       // MIFARE Classic EV1
	0x93: "SEL1",       // ISO/IEC 14443
	0x95: "SEL2",       // ISO/IEC 14443
	0x97: "SEL3",       // ISO/IEC 14443
	0xA0: "COMP_WRITE", // MIFARE Ultralight EV1
	0xA2: "WRITE",      // MIFARE Ultralight EV1
	0xA5: "INCR_CNT",   // MIFARE Ultralight EV1
	0xE0: "RATS",       // ISO/IEC 14443-4 activation
}

// nfcAResp maps the command octet of the preceding poll frame to the
// response mnemonic of the listen frame that answers it.
var nfcAResp = map[byte]string{
	0x26: "ATQA",
	0x52: "ATQA",
}

var nfcBCmd = map[byte]string{
	0x05: "REQB",
	0x1D: "ATTRIB",
	0x50: "HLTB",
}

var nfcBResp = map[byte]string{
	0x05: "ATQB",
}

// NFC-F frames carry the command code in the second payload octet.
var nfcFCmd = map[byte]string{
	0x00: "REQC",
}

var nfcFResp = map[byte]string{
	0x00: "ATQC",
}

// NFC-V commands per ISO/IEC 15693-3, keyed on the second payload octet.
var nfcVCmd = map[byte]string{
	0x01: "Inventory",
	0x02: "StayQuiet",
	0x20: "ReadBlock",
	0x21: "WriteBlock",
	0x22: "LockBlock",
	0x23: "ReadBlocks",
	0x24: "WriteBlocks",
	0x25: "Select",
	0x26: "Reset",
	0x27: "WriteAFI",
	0x28: "LockAFI",
	0x29: "WriteDSFID",
	0x2A: "LockDSFID",
	0x2B: "SysInfo",
	0x2C: "GetSecurity",
}
