// loadk.go - load or report the contents of an AOS/VS DUMP_II/III file

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

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/SMerrony/LoadK/loader"
	"github.com/SMerrony/LoadK/simhTape"
)

const versionString = "1.0"

// program flags (options)...
var (
	extract, ignoreErrors, summary, verbose, version bool
	dump, tapeImage, baseDir                         string
)

func init() {
	flag.StringVar(&dump, "dumpFile", "", "DUMP_II or DUMP_III file to read/load")
	flag.StringVar(&dump, "d", "", "DUMP_II or DUMP_III file to read/load")
	flag.StringVar(&tapeImage, "tapeImage", "", "SimH tape image holding the dump as its first tape file")
	flag.StringVar(&tapeImage, "t", "", "SimH tape image holding the dump as its first tape file")
	flag.StringVar(&baseDir, "baseDir", ".", "directory to extract into")
	flag.StringVar(&baseDir, "b", ".", "directory to extract into")
	flag.BoolVar(&extract, "extract", false, "extract the files from the DUMP_II/III into the base directory")
	flag.BoolVar(&extract, "e", false, "extract the files from the DUMP_II/III into the base directory")
	flag.BoolVar(&ignoreErrors, "ignoreErrors", false, "do not exit if a file cannot be created")
	flag.BoolVar(&ignoreErrors, "i", false, "do not exit if a file cannot be created")
	flag.BoolVar(&summary, "summary", true, "concise summary of the DUMP_II/III file contents")
	flag.BoolVar(&summary, "s", true, "concise summary of the DUMP_II/III file contents")
	flag.BoolVar(&verbose, "verbose", false, "be rather wordy about what loadk is doing")
	flag.BoolVar(&verbose, "v", false, "be rather wordy about what loadk is doing")
	flag.BoolVar(&version, "version", false, "show the version number of loadk and exit")
	flag.BoolVar(&version, "V", false, "show the version number of loadk and exit")
	flag.Parse()
	if !version && dump == "" && tapeImage == "" {
		flag.PrintDefaults()
	}
}

func main() {
	if version {
		fmt.Printf("loadk version %s\n", versionString)
		return
	}

	var (
		in      io.Reader
		srcName string
	)
	switch {
	case dump != "":
		dumpFile, err := os.Open(dump)
		if err != nil {
			log.Fatalf("ERROR: Could not open dump file <%s> due to %v", dump, err)
		}
		defer dumpFile.Close()
		in, srcName = dumpFile, dump
	case tapeImage != "":
		imgFile, err := os.Open(tapeImage)
		if err != nil {
			log.Fatalf("ERROR: Could not open tape image <%s> due to %v", tapeImage, err)
		}
		defer imgFile.Close()
		in, srcName = simhTape.NewReader(imgFile), tapeImage
	default:
		return
	}

	if summary {
		fmt.Printf("Summary of dump file : %s\n", srcName)
	}

	opts := loader.Options{
		Extract:      extract,
		IgnoreErrors: ignoreErrors,
		Summary:      summary,
		Verbose:      verbose,
		BaseDir:      baseDir,
		Out:          os.Stdout,
	}
	if err := loader.LoadDump(in, opts); err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
