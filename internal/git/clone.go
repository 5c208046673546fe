package git

import (
	"context"
	"fmt"
	"os/exec"
)

// Clone shallow-clones url into destDir so the verify command can operate on
// a remote repository by URL (spec.md §6 "--git <url>"). It returns nil on
// success. destDir must not already exist.
func Clone(ctx context.Context, url, destDir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, destDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git: clone %s: %w: %s", url, err, string(out))
	}
	return nil
}
