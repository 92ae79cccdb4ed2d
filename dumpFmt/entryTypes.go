// entryTypes.go - AOS/VS FSTAT entry-type catalogue

// Based on info from System Call Dictionary 093-000241 p.2-162 and PARU.32.SR
// This file is part of LoadK.

// Copyright (C) 2021 Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package dumpFmt

import "fmt"

// FSTAT entry-type codes from PARU.32.SR
const (
	Flnk = 0
	Fsdf = 1
	Fmtf = 2
	Fgfn = 3
	Fdir = 12
	Fldu = 13
	Fcpd = 14
	Fudf = 16
	Fupf = 17
	Fstf = 67
	Ftxt = 68
	Flog = 69
	Fprv = 74
	Fprg = 87
)

// FstatEntryType describes one entry-type code: its DG mnemonic, a label for
// report output, and the two flags that drive reconstruction.
type FstatEntryType struct {
	Code       int
	DgMnemonic string
	Desc       string
	IsDir      bool
	HasPayload bool
}

// KnownFstatEntryTypes is the immutable catalogue of the entry types we
// recognise in an FSB.
var KnownFstatEntryTypes = map[int]FstatEntryType{
	Flnk: {Flnk, "FLNK", "Link", false, false},
	Fsdf: {Fsdf, "FSDF", "System Data File", false, true},
	Fmtf: {Fmtf, "FMTF", "Mag Tape File", false, true},
	Fgfn: {Fgfn, "FGFN", "Generic File", false, true},
	Fdir: {Fdir, "FDIR", "Directory", true, false},
	Fldu: {Fldu, "FLDU", "LDU Directory", true, false},
	Fcpd: {Fcpd, "FCPD", "Control Point Dir", true, false},
	Fudf: {Fudf, "FUDF", "User Data File", false, true},
	Fupf: {Fupf, "FUPF", "User Profile", false, true},
	Fstf: {Fstf, "FSTF", "Symbol Table", false, true},
	Ftxt: {Ftxt, "FTXT", "Text File", false, true},
	Flog: {Flog, "FLOG", "System Log File", false, true},
	Fprv: {Fprv, "FPRV", "Program File", false, true},
	Fprg: {Fprg, "FPRG", "Program File", false, true},
}

// LookupEntryType resolves an entry-type code. Codes we do not recognise are
// treated as opaque extractable files rather than rejected, so dumps from
// later OS revisions still load.
func LookupEntryType(code int) FstatEntryType {
	if et, known := KnownFstatEntryTypes[code]; known {
		return et
	}
	return FstatEntryType{code, "?", "Unknown File", false, true}
}

// EntryTypeFromFSB resolves the entry type encoded in a File Status Block;
// the code is the second byte of the FSTAT packet.
func EntryTypeFromFSB(fsb []byte) (FstatEntryType, error) {
	if len(fsb) < 2 {
		return FstatEntryType{}, fmt.Errorf("%w: FSB too short (%d bytes) to carry an entry type",
			ErrFormat, len(fsb))
	}
	return LookupEntryType(int(fsb[1])), nil
}
