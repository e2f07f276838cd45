// Package git clones and checks out repositories into the sandbox
// workspace (spec §4.4, C-collaborator: "Git checkout beyond the error
// classification it must feed back to callers" is explicitly out of
// scope, so this package stays a thin os/exec wrapper around the real
// git binary with no history-rewriting or submodule handling of its own).
package git

import (
	"bytes"
	"context"
	"os/exec"

	sberrors "sandboxd/internal/errors"
	"sandboxd/internal/guard"
)

// CheckoutOptions configures a clone.
type CheckoutOptions struct {
	URL    string
	Dir    string
	Branch string
}

// CheckoutResult reports what ended up on disk.
type CheckoutResult struct {
	Dir    string `json:"dir"`
	Branch string `json:"branch,omitempty"`
}

// Checkout clones opts.URL into opts.Dir, optionally checking out
// opts.Branch, and classifies any git failure through
// errors.MapGitError using the captured stderr (spec §4.6 git rules).
// Grounded on the teacher's process.RunCommandTool shape: os/exec plus
// a captured stderr buffer, nothing richer.
func Checkout(ctx context.Context, opts CheckoutOptions) (*CheckoutResult, error) {
	if err := guard.ValidatePath("git_checkout", opts.Dir); err != nil {
		return nil, err
	}
	if opts.URL == "" {
		return nil, sberrors.New(sberrors.KindValidation, "INVALID_REPOSITORY_URL", 400, "git_checkout", "repository url must not be empty")
	}

	var cloneStderr bytes.Buffer
	cloneCmd := exec.CommandContext(ctx, "git", "clone", opts.URL, opts.Dir)
	cloneCmd.Stderr = &cloneStderr
	if err := cloneCmd.Run(); err != nil {
		return nil, sberrors.MapGitError("clone", cloneStderr.String(), opts.Branch)
	}

	if opts.Branch != "" {
		var checkoutStderr bytes.Buffer
		checkoutCmd := exec.CommandContext(ctx, "git", "checkout", opts.Branch)
		checkoutCmd.Dir = opts.Dir
		checkoutCmd.Stderr = &checkoutStderr
		if err := checkoutCmd.Run(); err != nil {
			return nil, sberrors.MapGitError("checkout", checkoutStderr.String(), opts.Branch)
		}
	}

	return &CheckoutResult{Dir: opts.Dir, Branch: opts.Branch}, nil
}
