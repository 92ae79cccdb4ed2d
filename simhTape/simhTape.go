// simhTape.go - sequential access to SimH-encoded tape images

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

package simhTape

import (
	"errors"
	"fmt"
	"io"
)

// SimH Tape Image Markers
const (
	MtrTmk    = 0          // tape mark
	MtrEom    = 0xFFFFFFFF // end of medium
	MtrGap    = 0xFFFFFFFE // primary gap
	MtrMaxLen = 0x00FFFFFF // max len is 24b
	MtrErf    = 0x80000000 // error flag
	MaxRecLen = 32768
)

// ErrImage is wrapped around all tape-image format problems.
var ErrImage = errors.New("bad SimH tape image")

// Reader presents one file on a SimH tape image as a plain sequential byte
// stream: record headers, trailers and erase gaps are consumed transparently
// and a tape mark ends the file with io.EOF. Call NextFile to move on to the
// following tape file.
type Reader struct {
	img   io.Reader
	rec   []byte // unread remainder of the current record
	atTmk bool
	atEom bool
}

// NewReader wraps an open tape image, positioned at its start.
func NewReader(img io.Reader) *Reader {
	return &Reader{img: img}
}

// Read implements io.Reader over the current tape file.
func (r *Reader) Read(p []byte) (int, error) {
	if len(r.rec) == 0 {
		if err := r.nextRecord(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.rec)
	r.rec = r.rec[n:]
	return n, nil
}

// NextFile discards the rest of the current tape file and positions the
// reader at the first record of the next one. It returns io.EOF once the
// end of the medium is reached.
func (r *Reader) NextFile() error {
	for !r.atTmk && !r.atEom {
		if err := r.nextRecord(); err != nil && err != io.EOF {
			return err
		}
		r.rec = nil
	}
	if r.atEom {
		return io.EOF
	}
	r.atTmk = false
	// read ahead so an immediate end of medium (or the old double-mark
	// end-of-tape convention) is reported here, not on the next Read
	return r.nextRecord()
}

func (r *Reader) nextRecord() error {
	if r.atTmk || r.atEom {
		return io.EOF
	}
	for {
		hdr, err := readMeta(r.img)
		if err != nil {
			return err
		}
		switch hdr {
		case MtrTmk:
			r.atTmk = true
			return io.EOF
		case MtrEom:
			r.atEom = true
			return io.EOF
		case MtrGap:
			continue
		default:
			if hdr&MtrErf != 0 {
				return fmt.Errorf("%w: record error flag set", ErrImage)
			}
			recLen := int(hdr & MtrMaxLen)
			if recLen > MaxRecLen {
				return fmt.Errorf("%w: record of %d bytes exceeds maximum of %d", ErrImage, recLen, MaxRecLen)
			}
			rec := make([]byte, recLen)
			if _, err = io.ReadFull(r.img, rec); err != nil {
				return fmt.Errorf("%w: short record: %v", ErrImage, err)
			}
			var trailer uint32
			if trailer, err = readMeta(r.img); err != nil {
				return err
			}
			if trailer != hdr {
				return fmt.Errorf("%w: header %d has non-matching trailer %d", ErrImage, hdr, trailer)
			}
			r.rec = rec
			return nil
		}
	}
}

// readMeta reads a four byte (one doubleword) header, trailer, or other
// metadata marker. SimH metadata is little-endian, unlike the tape contents.
func readMeta(img io.Reader) (uint32, error) {
	hdrBytes := make([]byte, 4)
	if _, err := io.ReadFull(img, hdrBytes); err != nil {
		return 0, fmt.Errorf("%w: could not read metadata marker: %v", ErrImage, err)
	}
	var hdr uint32
	hdr = uint32(hdrBytes[3]) << 24
	hdr |= uint32(hdrBytes[2]) << 16
	hdr |= uint32(hdrBytes[1]) << 8
	hdr |= uint32(hdrBytes[0])
	return hdr, nil
}

// WriteMeta writes a 4-byte header/trailer or other metadata marker.
func WriteMeta(img io.Writer, hdr uint32) error {
	hdrBytes := make([]byte, 4)
	hdrBytes[3] = byte(hdr >> 24)
	hdrBytes[2] = byte(hdr >> 16)
	hdrBytes[1] = byte(hdr >> 8)
	hdrBytes[0] = byte(hdr)
	if _, err := img.Write(hdrBytes); err != nil {
		return fmt.Errorf("could not write metadata marker: %v", err)
	}
	return nil
}

// WriteRecord writes one data record wrapped in its header and trailer.
func WriteRecord(img io.Writer, rec []byte) error {
	if err := WriteMeta(img, uint32(len(rec))); err != nil {
		return err
	}
	if n, err := img.Write(rec); err != nil || n != len(rec) {
		return fmt.Errorf("could not write complete record (wrote %d of %d bytes): %v", n, len(rec), err)
	}
	return WriteMeta(img, uint32(len(rec)))
}

// ScanImage reads a whole tape image ensuring headers, record sizes and
// trailers match, and reports the files found. If csv is true the report is
// CSV-formatted.
func ScanImage(img io.Reader, csv bool) (res string, err error) {
	var (
		fileSize, markCount, fileCount, recNum int
		header, trailer                        uint32
	)
	fileCount = -1

recLoop:
	for {
		if header, err = readMeta(img); err != nil {
			return res, err
		}
		switch header {
		case MtrTmk:
			if fileSize > 0 {
				fileCount++
				if csv {
					res += fmt.Sprintf("file%d,%d\n", fileCount, fileSize/recNum)
				} else {
					res += fmt.Sprintf("\nFile %d : %12d bytes in %6d block(s) avg. block size %d",
						fileCount, fileSize, recNum, fileSize/recNum)
				}
				fileSize = 0
				recNum = 0
			}
			markCount++
			if markCount == 3 {
				if csv {
					res += "EOT,0"
				} else {
					res += "\nTriple Mark (old End Of Tape indicator)"
				}
				break recLoop
			}
		case MtrEom:
			res += "\nEnd of Medium"
			break recLoop
		case MtrGap:
			res += "\nErase Gap"
			markCount = 0
		default:
			recNum++
			markCount = 0
			rec := make([]byte, int(header&MtrMaxLen))
			if _, err = io.ReadFull(img, rec); err != nil {
				return res, fmt.Errorf("%w: short record: %v", ErrImage, err)
			}
			if trailer, err = readMeta(img); err != nil {
				return res, err
			}
			if header == trailer {
				fileSize += int(header)
			} else {
				res += "\nNon-matching trailer found."
			}
		}
	}
	return res, nil
}
