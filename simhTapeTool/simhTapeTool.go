// simhTapeTool is a utility for manipulating SimH-encoded images of tapes for AOS/VS systems.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/SMerrony/LoadK/simhTape"
)

var (
	createFlag     = flag.String("create", "", "Create a new SimH Tape Image file")
	csvFlag        = flag.Bool("csv", false, "Use/Generate CSV-format data")
	definitionFlag = flag.String("definition", "", "Use a definition file")
	extractFlag    = flag.String("extractFiles", "", "Split each file out of a SimH Tape Image")
	scanFlag       = flag.String("scan", "", "Scan a SimH Tape Image file for correctness")
)

func main() {
	flag.Parse()

	switch {
	case *scanFlag != "":
		scanImage(*scanFlag)
	case *extractFlag != "":
		extractFiles(*extractFlag)
	case *createFlag != "":
		if !*csvFlag || *definitionFlag == "" {
			log.Fatal("ERROR: Must specify --csv and provide a --definition file to create new image")
		}
		createImage()
	default:
		flag.PrintDefaults()
	}
}

func scanImage(imgFileName string) {
	imgFile, err := os.Open(imgFileName)
	if err != nil {
		log.Fatalf("ERROR: Could not open tape image file <%s> due to %v", imgFileName, err)
	}
	defer imgFile.Close()
	res, err := simhTape.ScanImage(imgFile, *csvFlag)
	if err != nil {
		log.Fatalf("ERROR: Scan failed due to %v", err)
	}
	fmt.Printf("%s\n", res)
}

// extractFiles splits each tape file out of the image into fileN alongside it.
func extractFiles(imgFileName string) {
	imgFile, err := os.Open(imgFileName)
	if err != nil {
		log.Fatalf("ERROR: Could not open tape image file <%s> due to %v", imgFileName, err)
	}
	defer imgFile.Close()
	rdr := simhTape.NewReader(imgFile)
	for fileNum := 0; ; fileNum++ {
		outName := fmt.Sprintf("file%d", fileNum)
		outFile, err := os.Create(outName)
		if err != nil {
			log.Fatalf("ERROR: Could not create output file <%s> due to %v", outName, err)
		}
		nb, err := io.Copy(outFile, rdr)
		outFile.Close()
		if err != nil {
			log.Fatalf("ERROR: Could not extract tape file %d due to %v", fileNum, err)
		}
		if nb == 0 {
			os.Remove(outName)
		} else {
			fmt.Printf("Extracted %s (%d bytes)\n", outName, nb)
		}
		if err = rdr.NextFile(); err != nil {
			if err == io.EOF {
				break
			}
			log.Fatalf("ERROR: Could not advance to next tape file due to %v", err)
		}
	}
}

func createImage() {
	defCSVfile, err := os.Open(*definitionFlag)
	if err != nil {
		log.Fatalf("ERROR: Could not access CSV Definition file %s", *definitionFlag)
	}
	defer defCSVfile.Close()
	csvReader := csv.NewReader(defCSVfile)
	imgFile, err := os.Create(*createFlag)
	if err != nil {
		log.Fatalf("ERROR: Could not create new image file %s", *createFlag)
	}
	defer imgFile.Close()
	for {
		defRec, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal("ERROR: Could not parse CSV definition file")
		}
		// 1st field of defRec is the src file name, 2nd field is the block size
		thisSrcFile, err := os.Open(defRec[0])
		if err != nil {
			log.Fatalf("ERROR: Could not open input file %s", defRec[0])
		}
		thisBlkSize, err := strconv.Atoi(defRec[1])
		if err != nil {
			log.Fatalf("ERROR: Could not parse block size for input file %s", defRec[0])
		}
		switch thisBlkSize {
		case 2048, 4096, 8192, 16384:
			block := make([]byte, thisBlkSize)
			for {
				bytesRead, err := thisSrcFile.Read(block)
				if err != nil && err != io.EOF {
					log.Fatal(err)
				}
				if bytesRead > 0 {
					if err = simhTape.WriteRecord(imgFile, block[:bytesRead]); err != nil {
						log.Fatalf("ERROR: Error writing image file due to %v", err)
					}
				}
				if bytesRead == 0 || err == io.EOF { // End of this file
					if err = simhTape.WriteMeta(imgFile, simhTape.MtrTmk); err != nil {
						log.Fatalf("ERROR: Error writing image file due to %v", err)
					}
					break
				}
			} // loop round for next block
		default:
			log.Fatalf("ERROR: Unsupported block size %d for input file %s", thisBlkSize, defRec[0])
		}
		thisSrcFile.Close()
	}
	if err = simhTape.WriteMeta(imgFile, simhTape.MtrEom); err != nil {
		log.Fatalf("ERROR: Error writing image file due to %v", err)
	}
}
