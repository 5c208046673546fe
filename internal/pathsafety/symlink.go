package pathsafety

import "path/filepath"

// resolveSymlinks follows any symlinks in resolved and returns the real
// path. If resolved does not exist, it is returned unchanged: containment
// was already checked against the lexical path, and a not-yet-created
// output file has no symlink destination to verify.
func resolveSymlinks(resolved string) (string, error) {
	real, err := filepath.EvalSymlinks(resolved)
	if err != nil {
		return resolved, nil
	}
	return filepath.Clean(real), nil
}
