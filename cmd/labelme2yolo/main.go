// Converts LabelMe annotation files to YOLO label files, as bounding boxes or as polygons for
// segmentation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/sensorable/labelme2yolo"
)

var (
	jsonDirPath   string // The input directory with the LabelMe files.
	outputDirPath string // The output directory for YOLO label files.
	imageDirPath  string // The image directory that LabelMe image paths are relative to.
	jsonName      string // Convert only this LabelMe file.
	valSize       float64

	toSeg           bool // Write polygons instead of bounding boxes.
	numWorkers      int  // The number of files converted concurrently.
	exifOrientation bool // Apply the EXIF orientation when reading image sizes.
	writeDataset    bool // Write the dataset descriptor.

	tfRecordFilePath         string // The optional TFRecord output file.
	tfRecordLabelMapFilePath string // The TFRecord label map file.
	numShardFiles            int    // The number of TFRecord shard files to create.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  -json-dir <dir> -output-dir <dir> [-images-dir <dir>]"+
			" [-json-name <file>] [-seg]")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	// Path arguments.
	flag.StringVar(&jsonDirPath, "json-dir", jsonDirPath,
		"The `path` to the directory with the LabelMe json files")
	flag.StringVar(&outputDirPath, "output-dir", outputDirPath,
		"The `path` to the directory where the YOLO txt files are saved")
	flag.StringVar(&imageDirPath, "images-dir", imageDirPath,
		"The `path` to the images directory (image paths are relative to the json files if empty)")
	flag.StringVar(&jsonName, "json-name", jsonName,
		"Convert only this json `file` in -json-dir")
	flag.Float64Var(&valSize, "val-size", 0,
		"The validation dataset `fraction`; datasets are not split by this tool")

	// Conversion arguments.
	flag.BoolVar(&toSeg, "seg", toSeg,
		"Convert to polygons for a YOLO segmentation dataset")
	flag.IntVar(&numWorkers, "workers", 0,
		"The number of files converted concurrently (zero for twice the number of CPUs)")
	flag.BoolVar(&exifOrientation, "exif-orientation", true,
		"Apply the EXIF orientation of images when reading their size (false reads the image headers only)")
	flag.BoolVar(&writeDataset, "dataset-yaml", true,
		"Write "+labelme2yolo.DatasetFileName+" to the output directory")

	// TFRecord arguments.
	flag.StringVar(&tfRecordFilePath, "tfrecord", tfRecordFilePath,
		"The `path` to an additional TFRecord output file (bounding boxes only)")
	flag.StringVar(&tfRecordLabelMapFilePath, "tfrecord-label-map-file", tfRecordLabelMapFilePath,
		"The TFRecord label map file `path`")
	flag.IntVar(&numShardFiles, "num-shards", 1,
		"The number of TFRecord shard files to create")

	// Parse and validate flags.
	flag.Parse()

	if jsonDirPath == "" || outputDirPath == "" {
		printUsageAndExit("Missing json or output directory path argument")
	}
	if toSeg && tfRecordFilePath != "" {
		printUsageAndExit("Argument -tfrecord is not supported with -seg")
	}
	if tfRecordFilePath != "" && tfRecordLabelMapFilePath == "" {
		printUsageAndExit("Missing TFRecord label map path argument")
	}
	if numWorkers < 0 {
		printUsageAndExit("Invalid value for -workers: ", numWorkers)
	}
	if valSize < 0 || valSize >= 1 {
		printUsageAndExit("Invalid -val-size, must be in [0.0, 1.0): ", valSize)
	} else if valSize > 0 {
		log.Print("Warning: -val-size is ignored, the labels are not split")
	}

	// Clean path arguments.
	jsonDirPath = filepath.Clean(jsonDirPath)
	outputDirPath = filepath.Clean(outputDirPath)
	if imageDirPath != "" {
		imageDirPath = filepath.Clean(imageDirPath)
	}
	if jsonDirPath == outputDirPath {
		printUsageAndExit("The json input and output paths cannot be identical")
	}
}

func main() {
	opts := labelme2yolo.Options{
		LabelDir:             jsonDirPath,
		OutputDir:            outputDirPath,
		ImageDir:             imageDirPath,
		Mode:                 labelme2yolo.ModeBox,
		Workers:              numWorkers,
		TFRecordPath:         tfRecordFilePath,
		TFRecordLabelMapPath: tfRecordLabelMapFilePath,
		NumShards:            numShardFiles,
	}
	if toSeg {
		opts.Mode = labelme2yolo.ModePolygon
	}
	if !exifOrientation {
		opts.Sizer = labelme2yolo.HeaderSizer{}
	}

	converter, err := labelme2yolo.NewConverter(opts)
	if err != nil {
		log.Fatal("Failed to prepare the conversion: ", err)
	}

	var report *labelme2yolo.Report
	if jsonName == "" {
		report, err = converter.Convert(context.Background())
	} else {
		report, err = converter.ConvertOne(context.Background(), jsonName)
	}
	if err != nil {
		log.Fatal("Conversion failed: ", err)
	}

	if writeDataset {
		path, err := converter.WriteDataset()
		if err != nil {
			log.Fatal("Failed to write the dataset descriptor: ", err)
		}
		log.Print("Wrote the dataset descriptor to ", path)
	}

	log.Printf("Converted %d files to %s (%d labels, %v mode), skipped %d, failed %d",
		len(report.Converted), outputDirPath, converter.Labels().Len(), opts.Mode,
		len(report.Skipped), len(report.Failed))

	if len(report.Failed) > 0 {
		failed := make([]string, 0, len(report.Failed))
		for path := range report.Failed {
			failed = append(failed, path)
		}
		sort.Strings(failed)
		for _, path := range failed {
			log.Printf("Failed: %s: %v", path, report.Failed[path])
		}
		os.Exit(1)
	}
}
