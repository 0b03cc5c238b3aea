package pipeline

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/m-mizutani/goerr/v2"
)

// TagPlaceholder is replaced with the matrix tag value in step
// commands. Substitution happens after tokenization, so a tag
// containing spaces still arrives as a single argument.
const TagPlaceholder = "{tag}"

// SplitCommand tokenizes a step command line using shell quoting
// rules. The result is executed directly, no shell is spawned.
func SplitCommand(command string) ([]string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to tokenize command", goerr.V("command", command))
	}
	if len(argv) == 0 {
		return nil, goerr.New("command is empty", goerr.V("command", command))
	}
	return argv, nil
}

// ExpandTag replaces every tag placeholder in argv with the tag value
// and returns a new slice
func ExpandTag(argv []string, tag string) []string {
	expanded := make([]string, len(argv))
	for i, arg := range argv {
		expanded[i] = strings.ReplaceAll(arg, TagPlaceholder, tag)
	}
	return expanded
}
