// Package storage maps image identifiers to files in a flat output directory.
//
// Each identifier owns exactly one file, <output_dir>/<id>.png. The presence
// of that file is the only record that an identifier has been fetched; the
// manager keeps no index and never inspects file content.
//
// Writes go through a temporary file and a rename by default so that an
// interrupted download never leaves a partial image at the final path.
//
// Usage:
//
//	store, err := storage.NewManager("data/images")
//	if err != nil {
//	    return err
//	}
//
//	if !store.Exists(row.ID) {
//	    if err := store.Save(row.ID, resp.Body); err != nil {
//	        return err
//	    }
//	}
package storage
