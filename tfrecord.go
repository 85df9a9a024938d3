package labelme2yolo

// TFRecord object detection specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	tensorflow "github.com/ryszard/tfutils/proto/tensorflow/core/example"
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// tfRecordFeatures builds the object detection features for a converted file from its box
// records. TFRecord class IDs are the registry IDs plus one, as zero is reserved for the
// background class.
func tfRecordFeatures(f ConvertedFile, labels *LabelRegistry) (TFFeatureMap, error) {
	// Get the image format.
	_, format, err := decodeImageConfig(f.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the image metadata: %v", err)
	}

	// Read the image data.
	imgData, err := os.ReadFile(f.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read the image: %v", err)
	}

	m := make(TFFeatureMap, 16)
	m["image/height"] = f.Height
	m["image/width"] = f.Width
	m["image/filename"] = f.ImagePath
	m["image/source_id"] = f.Source
	m["image/encoded"] = imgData
	m["image/format"] = format

	numLabels := len(f.Records)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, r := range f.Records {
		if len(r.Coords) != 4 {
			return nil, fmt.Errorf("record %d is not a bounding box", i)
		}
		cx, cy, w, h := r.Coords[0], r.Coords[1], r.Coords[2], r.Coords[3]
		xmins[i] = float32(cx - w/2)
		ymins[i] = float32(cy - h/2)
		xmaxs[i] = float32(cx + w/2)
		ymaxs[i] = float32(cy + h/2)
		classes[i] = labels.Name(r.LabelID)
		classIDs[i] = int64(r.LabelID + 1)
	}
	m["image/object/bbox/xmin"] = xmins
	m["image/object/bbox/ymin"] = ymins
	m["image/object/bbox/xmax"] = xmaxs
	m["image/object/bbox/ymax"] = ymaxs
	m["image/object/class/text"] = classes
	m["image/object/class/label"] = classIDs

	return m, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write of the converted files
// to one or more TFRecord files stored under recordFilePath (with suffixes added when
// numShards>1). numShards is capped at the number of files. Files that cannot be converted are logged and left out.
//
// The label map for the registry is written to labelMapPath.
func WriteTFRecord(recordFilePath, labelMapPath string, data []ConvertedFile,
	labels *LabelRegistry, numShards int) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	// Every shard named in the suffix must exist, so there are never more shards than files.
	if numShards > len(data) {
		numShards = len(data)
	}
	if numShards <= 0 {
		numShards = 1
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	closeShard := func() error {
		if shardFile == nil {
			return nil
		}
		err := shardFile.Close()
		shardFile = nil
		return err
	}
	defer closeWithErrCheck(closerFunc(closeShard), &err)

	shardIdx := -1
	written := 0

	// Convert and serialise one data element at a time. Files are spread evenly over the
	// shards, and each shard gets at least one.
	for i, f := range data {
		// Check if a new shard file needs to be opened for writing.
		if idx := i * numShards / len(data); idx != shardIdx {
			shardIdx = idx

			if err := closeShard(); err != nil {
				return err
			}

			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			sf, err := os.Create(shardPath)
			if err != nil {
				return fmt.Errorf("failed to create shard at %q: %v", shardPath, err)
			}
			shardFile = sf
		}

		features, err := tfRecordFeatures(f, labels)
		if err != nil {
			log.Printf("Failed to convert %q: %v", f.Source, err)
			continue
		}

		if err := writeTFRecordExample(shardFile, example.New(features)); err != nil {
			return fmt.Errorf("failed to write example for %q: %v", f.Source, err)
		}
		written++
	}
	log.Printf("Wrote %d examples to %d TFRecord shards", written, shardIdx+1)

	return saveTFRecordLabelMap(labelMapPath, labels)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the registry as a StringIntLabelMap in prototxt format to path,
// ordered by ID.
func saveTFRecordLabelMap(path string, labels *LabelRegistry) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %v", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for id, name := range labels.Names() {
		fmt.Fprintf(w, "item {\n  name: %s\n  id: %d\n}\n", strconv.Quote(name), id+1)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write the label map %q: %v", path, err)
	}

	return nil
}

// closerFunc adapts a function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
