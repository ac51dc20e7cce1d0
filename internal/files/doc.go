// Package files provides file system helpers for the pipeline.
//
// Discovery finds raw inputs and processed tables by pattern. Manager writes
// processed outputs atomically so a failed run never leaves a half written
// table behind. ExtractZip unpacks the compressed news archive into the raw
// directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.BaseDir)
//	docs, err := discovery.FindFilesByPattern(paths.RawDir, "source_d_*.json")
//
//	manager := files.NewManager(paths, logger)
//	err = manager.WriteAtomic(paths.FinalDataset, func(w io.Writer) error {
//	    return writer.Write(w, table)
//	})
package files
