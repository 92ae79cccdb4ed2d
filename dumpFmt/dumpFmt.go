// dumpFmt.go - AOS/VS DUMP_II/III on-stream format

// Based on info from AOS/VS Systems Internals Reference Manual (AOS/VS Rev. 5.00)
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

import (
	"errors"
	"fmt"
	"io"
)

type (
	// WordT - a DG Word is 16-bit unsigned
	WordT uint16
	// DwordT - a DG Double-Word is 32-bit unsigned
	DwordT uint32
)

// Record types found in a DUMP_II/III stream.
const (
	StartDumpType = iota
	FsbType
	NbType
	UdaType
	AclType
	LinkType
	StartBlockType
	DataBlockType
	EndBlockType
	EndDumpType
)

const (
	// MaxRecordLength - the record length field carries 10 bits:
	// 2 from the first header byte, 8 from the second
	MaxRecordLength = 1023
	// MaxBlockSize - largest data block DUMP_II/III will emit
	MaxBlockSize = 32768
	// DiskBlockBytes - AOS/VS disk block size, the unit of gap padding
	DiskBlockBytes = 512
)

// Parse errors. Both kinds are fatal to a load - the format is strictly
// sequential and there is no way to resynchronise after either.
var (
	ErrFormat    = errors.New("invalid DUMP_II/III format")
	ErrTruncated = errors.New("unexpected end of dump stream")
)

// RecordHeader is the unpacked form of the 2-byte header that precedes
// every record in the stream.
type RecordHeader struct {
	RecordType   int
	RecordLength int
}

// SOD - the Start Of Dump record contents
type SOD struct {
	Header                                    RecordHeader
	DumpFormatRevision                        WordT
	DumpTimeSecs, DumpTimeMins, DumpTimeHours WordT
	DumpTimeDay, DumpTimeMonth, DumpTimeYear  WordT
}

// DataHeader describes one data block: where the chunk lands in the file
// being reconstructed, how long it is, and how many alignment filler bytes
// precede it on the stream.
type DataHeader struct {
	ByteAddress    DwordT
	ByteLength     DwordT
	AlignmentCount WordT
}

// ReadBytes reads exactly n bytes from the stream, or fails with an
// ErrTruncated-wrapped error. There is no partial-record recovery.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: wanted %d bytes: %v", ErrTruncated, n, err)
	}
	return b, nil
}

// ReadWord reads a big-endian DG Word.
func ReadWord(r io.Reader) (WordT, error) {
	b, err := ReadBytes(r, 2)
	if err != nil {
		return 0, err
	}
	return WordT(b[0])<<8 | WordT(b[1]), nil
}

// ReadDword reads a big-endian DG Double-Word.
func ReadDword(r io.Reader) (DwordT, error) {
	b, err := ReadBytes(r, 4)
	if err != nil {
		return 0, err
	}
	return DwordT(b[0])<<24 | DwordT(b[1])<<16 | DwordT(b[2])<<8 | DwordT(b[3]), nil
}

// ReadHeader unpacks the next record header: the type selector occupies the
// top six bits of the first byte, the 10-bit length the remainder.
func ReadHeader(r io.Reader) (RecordHeader, error) {
	var hdr RecordHeader
	b, err := ReadBytes(r, 2)
	if err != nil {
		return hdr, err
	}
	hdr.RecordType = int(b[0]) >> 2
	hdr.RecordLength = int(b[0]&0x03)<<8 | int(b[1])
	return hdr, nil
}

// EncodeHeader is the exact inverse of ReadHeader. Lengths above
// MaxRecordLength are not representable in the packed header.
func EncodeHeader(recType, recLen int) [2]byte {
	return [2]byte{
		byte(recType<<2) | byte(recLen>>8)&0x03,
		byte(recLen),
	}
}

// ReadSOD reads the Start Of Dump data words following an already-consumed
// record header. The seven words are raw and unvalidated; the declared
// record length is not checked against them.
func ReadSOD(r io.Reader, hdr RecordHeader) (SOD, error) {
	var (
		sod SOD
		err error
	)
	sod.Header = hdr
	words := []*WordT{
		&sod.DumpFormatRevision,
		&sod.DumpTimeSecs, &sod.DumpTimeMins, &sod.DumpTimeHours,
		&sod.DumpTimeDay, &sod.DumpTimeMonth, &sod.DumpTimeYear,
	}
	for _, w := range words {
		if *w, err = ReadWord(r); err != nil {
			return sod, err
		}
	}
	return sod, nil
}

// ReadDataHeader reads the address/length/alignment prefix of a data block.
func ReadDataHeader(r io.Reader) (DataHeader, error) {
	var (
		dh  DataHeader
		err error
	)
	if dh.ByteAddress, err = ReadDword(r); err != nil {
		return dh, err
	}
	if dh.ByteLength, err = ReadDword(r); err != nil {
		return dh, err
	}
	if dh.ByteLength > MaxBlockSize {
		return dh, fmt.Errorf("%w: data block of %d bytes exceeds maximum of %d",
			ErrFormat, dh.ByteLength, MaxBlockSize)
	}
	if dh.AlignmentCount, err = ReadWord(r); err != nil {
		return dh, err
	}
	return dh, nil
}
