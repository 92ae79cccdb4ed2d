package dumpFmt

import (
	"errors"
	"testing"
)

func TestGetKnownEntryTypes(t *testing.T) {
	fmtf := KnownFstatEntryTypes[2]
	if "FMTF" != fmtf.DgMnemonic {
		t.Errorf("Expected 'FMTF', got '%s'", fmtf.DgMnemonic)
	}
}

func TestLookupEntryTypeFlags(t *testing.T) {
	if et := LookupEntryType(Fdir); !et.IsDir || et.HasPayload {
		t.Errorf("FDIR should be a payload-free directory, got %+v", et)
	}
	if et := LookupEntryType(Flnk); et.IsDir || et.HasPayload {
		t.Errorf("FLNK should carry no payload, got %+v", et)
	}
	if et := LookupEntryType(Ftxt); et.IsDir || !et.HasPayload {
		t.Errorf("FTXT should be a payload-bearing file, got %+v", et)
	}
}

func TestLookupUnknownEntryType(t *testing.T) {
	et := LookupEntryType(99)
	if et.Desc != "Unknown File" {
		t.Errorf("Expected 'Unknown File', got '%s'", et.Desc)
	}
	if !et.HasPayload {
		t.Error("Unknown entry types must still be extractable")
	}
	if et.IsDir {
		t.Error("Unknown entry types must not be treated as directories")
	}
}

func TestEntryTypeFromFSB(t *testing.T) {
	fsb := make([]byte, 50)
	fsb[1] = Fstf
	et, err := EntryTypeFromFSB(fsb)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if et.DgMnemonic != "FSTF" {
		t.Errorf("Expected 'FSTF', got '%s'", et.DgMnemonic)
	}
}

func TestEntryTypeFromShortFSB(t *testing.T) {
	if _, err := EntryTypeFromFSB([]byte{0}); !errors.Is(err, ErrFormat) {
		t.Errorf("Expected ErrFormat for short FSB, got %v", err)
	}
}
