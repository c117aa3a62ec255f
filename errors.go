package pyrmon

import "errors"

// Failures that abort a run. They wrap the underlying cause, test them with errors.Is.
var (
	ErrToolNotFound   = errors.New("pyright not found, install it with: npm install -g pyright")
	ErrParse          = errors.New("unable to parse pyright output")
	ErrFilesystem     = errors.New("unable to write results")
	ErrTargetNotFound = errors.New("file not found")
)
