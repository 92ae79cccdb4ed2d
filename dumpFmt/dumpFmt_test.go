package dumpFmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	// every encodable (type, length) pair must survive a round trip
	for recType := 0; recType < 64; recType++ {
		for _, recLen := range []int{0, 1, 255, 256, 512, MaxRecordLength} {
			enc := EncodeHeader(recType, recLen)
			hdr, err := ReadHeader(bytes.NewReader(enc[:]))
			if err != nil {
				t.Fatalf("Unexpected error decoding type %d length %d: %v", recType, recLen, err)
			}
			if hdr.RecordType != recType || hdr.RecordLength != recLen {
				t.Errorf("Expected (%d, %d), got (%d, %d)", recType, recLen, hdr.RecordType, hdr.RecordLength)
			}
			reEnc := EncodeHeader(hdr.RecordType, hdr.RecordLength)
			if reEnc != enc {
				t.Errorf("Re-encoding (%d, %d) gave % X, expected % X", recType, recLen, reEnc, enc)
			}
		}
	}
}

func TestReadHeaderBitPacking(t *testing.T) {
	// type selector is the top 6 bits of byte 0, length the remaining 10 bits
	hdr, err := ReadHeader(bytes.NewReader([]byte{0x1D, 0x02}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hdr.RecordType != DataBlockType {
		t.Errorf("Expected type %d, got %d", DataBlockType, hdr.RecordType)
	}
	if hdr.RecordLength != 258 {
		t.Errorf("Expected length 258, got %d", hdr.RecordLength)
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte{0x04}))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
}

func TestReadWord(t *testing.T) {
	w, err := ReadWord(bytes.NewReader([]byte{0x12, 0x34}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w != 0x1234 {
		t.Errorf("Expected 0x1234, got 0x%X", w)
	}
}

func TestReadDword(t *testing.T) {
	dw, err := ReadDword(bytes.NewReader([]byte{0x12, 0x34, 0x56, 0x78}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dw != 0x12345678 {
		t.Errorf("Expected 0x12345678, got 0x%X", dw)
	}
}

func TestReadSOD(t *testing.T) {
	payload := []byte{
		0, 16, // revision
		0, 30, // secs
		0, 45, // mins
		0, 11, // hours
		0, 25, // day
		0, 12, // month
		7, 0xC7, // year (1991)
	}
	sod, err := ReadSOD(bytes.NewReader(payload), RecordHeader{StartDumpType, 14})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sod.DumpFormatRevision != 16 {
		t.Errorf("Expected revision 16, got %d", sod.DumpFormatRevision)
	}
	if sod.DumpTimeYear != 1991 || sod.DumpTimeMonth != 12 || sod.DumpTimeDay != 25 {
		t.Errorf("Unexpected date: %d-%d-%d", sod.DumpTimeYear, sod.DumpTimeMonth, sod.DumpTimeDay)
	}
	if sod.DumpTimeHours != 11 || sod.DumpTimeMins != 45 || sod.DumpTimeSecs != 30 {
		t.Errorf("Unexpected time: %d:%d:%d", sod.DumpTimeHours, sod.DumpTimeMins, sod.DumpTimeSecs)
	}
}

func TestReadSODTruncated(t *testing.T) {
	_, err := ReadSOD(bytes.NewReader([]byte{0, 16, 0, 30}), RecordHeader{StartDumpType, 14})
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
}

func TestReadDataHeader(t *testing.T) {
	raw := []byte{
		0, 0, 2, 0, // address 512
		0, 0, 0, 5, // length 5
		0, 1, // one alignment byte
	}
	dh, err := ReadDataHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dh.ByteAddress != 512 || dh.ByteLength != 5 || dh.AlignmentCount != 1 {
		t.Errorf("Unexpected data header: %+v", dh)
	}
}

func TestReadDataHeaderOversized(t *testing.T) {
	raw := []byte{
		0, 0, 0, 0,
		0, 1, 0, 0, // length 65536 - over the 32768 limit
		0, 0,
	}
	_, err := ReadDataHeader(bytes.NewReader(raw))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("Expected ErrFormat, got %v", err)
	}
}

func TestReadBytesExact(t *testing.T) {
	b, err := ReadBytes(bytes.NewReader([]byte{1, 2, 3}), 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(b) != 3 || b[2] != 3 {
		t.Errorf("Unexpected bytes: %v", b)
	}
	if _, err = ReadBytes(bytes.NewReader([]byte{1, 2, 3}), 4); !errors.Is(err, ErrTruncated) {
		t.Errorf("Expected ErrTruncated for short stream, got %v", err)
	}
}
