// loader.go - DUMP_II/III parsing session and filesystem reconstruction

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

package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/SMerrony/LoadK/dumpFmt"
)

// ErrFilesystem is the kind wrapped around directory/file/link creation and
// write failures. These are fatal unless Options.IgnoreErrors is set.
var ErrFilesystem = errors.New("filesystem operation failed")

// Options control a load session.
type Options struct {
	Extract      bool   // materialise files, directories and links
	IgnoreErrors bool   // log filesystem failures and carry on
	Summary      bool   // one line per entry with type and path
	Verbose      bool   // per-record tracing
	BaseDir      string // extraction root, and the floor we never ascend past
	Out          io.Writer
}

// session holds the mutable state built up record by record. The format is
// strictly sequential, so there is exactly one of everything: one pending
// FSB, one working directory, at most one open output file.
type session struct {
	opts          Options
	in            io.Reader
	out           io.Writer
	sawSOD        bool
	fsbBlob       []byte
	loadIt        bool
	lastName      string
	inFile        bool
	writeFile     *os.File
	totalFileSize int
	workingDir    string
}

// LoadDump reads one complete dump from r, reconstructing or reporting its
// contents according to opts. It returns nil after the End-of-Dump record,
// or the first fatal error.
func LoadDump(r io.Reader, opts Options) error {
	sess := &session{
		opts:       opts,
		in:         r,
		out:        opts.Out,
		workingDir: opts.BaseDir,
	}
	if sess.out == nil {
		sess.out = os.Stdout
	}
	defer func() {
		// a fatal error can leave the current output file open
		if sess.writeFile != nil {
			sess.writeFile.Close()
		}
	}()
	for {
		hdr, err := dumpFmt.ReadHeader(r)
		if err != nil {
			return err
		}
		if opts.Verbose {
			fmt.Fprintf(sess.out, "Found record of type: %d, length: %d\n", hdr.RecordType, hdr.RecordLength)
		}
		if hdr.RecordType > dumpFmt.EndDumpType {
			return fmt.Errorf("%w: unknown record type %d", dumpFmt.ErrFormat, hdr.RecordType)
		}
		if !sess.sawSOD && hdr.RecordType != dumpFmt.StartDumpType {
			return fmt.Errorf("%w: this does not appear to be an AOS/VS DUMP_II or DUMP_III stream",
				dumpFmt.ErrFormat)
		}
		switch hdr.RecordType {
		case dumpFmt.StartDumpType:
			if err = sess.processSOD(hdr); err != nil {
				return err
			}
		case dumpFmt.FsbType:
			if err = sess.processFSB(hdr); err != nil {
				return err
			}
		case dumpFmt.NbType:
			if err = sess.processNameBlock(hdr); err != nil {
				return err
			}
		case dumpFmt.UdaType:
			// throw away for now
			if _, err = dumpFmt.ReadBytes(r, hdr.RecordLength); err != nil {
				return err
			}
		case dumpFmt.AclType:
			var aclBlob []byte
			if aclBlob, err = dumpFmt.ReadBytes(r, hdr.RecordLength); err != nil {
				return err
			}
			if opts.Verbose {
				fmt.Fprintf(sess.out, " ACL: %s\n", strings.TrimRight(string(aclBlob), "\x00"))
			}
		case dumpFmt.LinkType:
			if err = sess.processLink(hdr); err != nil {
				return err
			}
		case dumpFmt.StartBlockType:
			// nothing to do - the record is just its header
		case dumpFmt.DataBlockType:
			if err = sess.processDataBlock(); err != nil {
				return err
			}
		case dumpFmt.EndBlockType:
			if err = sess.processEndBlock(); err != nil {
				return err
			}
		case dumpFmt.EndDumpType:
			if opts.Summary {
				fmt.Fprintln(sess.out, "=== End of Dump ===")
			}
			return nil
		}
	}
}

func (s *session) processSOD(hdr dumpFmt.RecordHeader) error {
	if s.sawSOD {
		return fmt.Errorf("%w: second Start-Of-Dump record in stream", dumpFmt.ErrFormat)
	}
	sod, err := dumpFmt.ReadSOD(s.in, hdr)
	if err != nil {
		return err
	}
	s.sawSOD = true
	if s.opts.Summary {
		fmt.Fprintf(s.out, "AOS/VS dump version  : %d\n", sod.DumpFormatRevision)
		fmt.Fprintf(s.out, "Dump date (y-m-d)    : %d-%d-%d\n",
			sod.DumpTimeYear, sod.DumpTimeMonth, sod.DumpTimeDay)
		fmt.Fprintf(s.out, "Dump time (hh:mm:ss) : %02d:%02d:%02d\n",
			sod.DumpTimeHours, sod.DumpTimeMins, sod.DumpTimeSecs)
	}
	return nil
}

func (s *session) processFSB(hdr dumpFmt.RecordHeader) error {
	blob, err := dumpFmt.ReadBytes(s.in, hdr.RecordLength)
	if err != nil {
		return err
	}
	s.fsbBlob = blob
	s.loadIt = false
	return nil
}

func (s *session) processNameBlock(hdr dumpFmt.RecordHeader) error {
	nameBytes, err := dumpFmt.ReadBytes(s.in, hdr.RecordLength)
	if err != nil {
		return err
	}
	fileName := strings.ToUpper(strings.TrimRight(string(nameBytes), "\x00"))
	entryType, err := dumpFmt.EntryTypeFromFSB(s.fsbBlob)
	if err != nil {
		return err
	}
	s.lastName = fileName
	s.loadIt = false
	entryPath := s.entryPath(fileName)

	switch {
	case entryType.IsDir:
		s.pushDir(fileName)
		if s.opts.Extract {
			if mkErr := os.MkdirAll(s.workingDir, os.ModePerm); mkErr != nil {
				if err = s.fsFail("create directory", s.workingDir, mkErr); err != nil {
					return err
				}
			}
		}
	case entryType.HasPayload:
		// the file session spans from here to the matching End Block,
		// whether or not any data blocks arrive - an empty file must
		// still be closed there, not treated as a directory pop
		s.inFile = true
		s.loadIt = s.opts.Extract
		if s.opts.Extract {
			f, crErr := os.Create(entryPath)
			if crErr != nil {
				s.loadIt = false
				if err = s.fsFail("create file", entryPath, crErr); err != nil {
					return err
				}
			} else {
				s.writeFile = f
			}
		}
	}

	if s.opts.Summary {
		fmt.Fprintf(s.out, "%-12s: %-48s", entryType.Desc, entryPath)
		switch {
		case entryType.Code == dumpFmt.Flnk:
			// the Link record that follows completes this line
		case entryType.HasPayload && !s.opts.Verbose:
			fmt.Fprint(s.out, "\t")
		default:
			fmt.Fprintln(s.out)
		}
	}
	return nil
}

func (s *session) processLink(hdr dumpFmt.RecordHeader) error {
	raw, err := dumpFmt.ReadBytes(s.in, hdr.RecordLength)
	if err != nil {
		return err
	}
	// AOS/VS link resolution names use ':' separators and arrive in
	// whatever case the dump recorded.
	target := strings.TrimRight(string(raw), "\x00")
	target = strings.ToUpper(strings.ReplaceAll(target, ":", string(os.PathSeparator)))
	if s.opts.Summary {
		fmt.Fprintf(s.out, " -> %s\n", target)
	}
	if s.opts.Extract {
		linkPath := s.entryPath(s.lastName)
		targetPath := s.entryPath(target)
		if lnErr := os.Symlink(targetPath, linkPath); lnErr != nil {
			return s.fsFail("create symbolic link", linkPath, lnErr)
		}
	}
	return nil
}

func (s *session) processDataBlock() error {
	dhb, err := dumpFmt.ReadDataHeader(s.in)
	if err != nil {
		return err
	}
	if s.opts.Summary && s.opts.Verbose {
		fmt.Fprintf(s.out, " Data block: %d (bytes)\n", dhb.ByteLength)
	}

	// skip any alignment bytes - usually just one
	if dhb.AlignmentCount > 0 {
		if s.opts.Verbose {
			fmt.Fprintf(s.out, "  Skipping %d alignment byte(s)\n", dhb.AlignmentCount)
		}
		if _, err = dumpFmt.ReadBytes(s.in, int(dhb.AlignmentCount)); err != nil {
			return err
		}
	}

	data, err := dumpFmt.ReadBytes(s.in, int(dhb.ByteLength))
	if err != nil {
		return err
	}

	if s.opts.Extract && s.loadIt && s.writeFile != nil {
		if int(dhb.ByteAddress) > s.totalFileSize+1 {
			if err = s.padToAddress(int(dhb.ByteAddress)); err != nil {
				return err
			}
		}
		if _, wrErr := s.writeFile.Write(data); wrErr != nil {
			if err = s.fsFail("write to file", s.writeFile.Name(), wrErr); err != nil {
				return err
			}
		}
	}
	s.totalFileSize += int(dhb.ByteLength)
	s.inFile = true
	return nil
}

// padToAddress reconstructs a zero-filled gap the dump omitted. Only whole
// disk blocks are emitted: the gap is truncated by integer division, as
// DUMP_II loaders have always done, so a non-block-aligned skip under-pads.
func (s *session) padToAddress(addr int) error {
	blocks := (addr - s.totalFileSize) / dumpFmt.DiskBlockBytes
	if blocks == 0 {
		return nil
	}
	if s.opts.Verbose {
		fmt.Fprintf(s.out, "  Padding with %d zero block(s)\n", blocks)
	}
	zeros := make([]byte, dumpFmt.DiskBlockBytes)
	for b := 0; b < blocks; b++ {
		if _, wrErr := s.writeFile.Write(zeros); wrErr != nil {
			return s.fsFail("write padding to file", s.writeFile.Name(), wrErr)
		}
		s.totalFileSize += dumpFmt.DiskBlockBytes
	}
	return nil
}

func (s *session) processEndBlock() error {
	if s.inFile {
		if s.writeFile != nil {
			if clErr := s.writeFile.Close(); clErr != nil {
				if err := s.fsFail("close file", s.writeFile.Name(), clErr); err != nil {
					return err
				}
			}
			s.writeFile = nil
		}
		if s.opts.Summary {
			fmt.Fprintf(s.out, " %12d bytes\n", s.totalFileSize)
		}
		s.totalFileSize = 0
		s.inFile = false
	} else {
		// not in the middle of a file, so this closes a directory level
		s.popDir()
		if s.opts.Verbose {
			fmt.Fprintf(s.out, "Popped dir - new dir is: %s\n", s.workingDir)
		}
	}
	if s.opts.Verbose {
		fmt.Fprintln(s.out, "End Block processed")
	}
	return nil
}

func (s *session) pushDir(name string) {
	if s.workingDir == "" {
		s.workingDir = name
	} else {
		s.workingDir += "/" + name
	}
}

// popDir ascends one level, but never above the base directory - a
// malformed dump with excess End Blocks must not climb out of the
// extraction root.
func (s *session) popDir() {
	if s.workingDir == s.opts.BaseDir {
		return
	}
	if lastSlashPos := strings.LastIndex(s.workingDir, "/"); lastSlashPos != -1 {
		s.workingDir = s.workingDir[:lastSlashPos]
	} else {
		s.workingDir = s.opts.BaseDir
	}
}

func (s *session) entryPath(name string) string {
	if s.workingDir == "" {
		return name
	}
	return s.workingDir + "/" + name
}

// fsFail reports a filesystem failure and decides whether it kills the run.
func (s *session) fsFail(what, path string, err error) error {
	log.Printf("ERROR: Could not %s <%s> due to %v", what, path, err)
	if s.opts.IgnoreErrors {
		return nil
	}
	return fmt.Errorf("%w: could not %s <%s>: %v", ErrFilesystem, what, path, err)
}
