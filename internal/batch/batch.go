// Package batch groups a flat file list into bounded-size work units.
package batch

import (
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/config"
)

// Batch is a bounded group of files processed together in one isolated
// transformation call. Not mutated after creation.
type Batch struct {
	// Name is the display name, including a "(i/n)" suffix when a group
	// was split into multiple chunks
	Name string

	// Directory is the group key the files share ("" in flat mode)
	Directory string

	// Files are the batch members, in input order
	Files []string
}

// Build partitions files into batches of at most maxSize.
//
// Flat mode chunks files in input order. Directory mode groups files by a
// normalization of their leading path segments first, preserving group
// insertion order, then chunks each group independently.
//
// Every input file appears in exactly one output batch; empty input yields
// empty output.
func Build(files []string, maxSize int, groupBy config.GroupBy) []Batch {
	if len(files) == 0 {
		return nil
	}
	if maxSize < 1 {
		maxSize = 1
	}

	if groupBy == config.GroupByFlat {
		return chunk("files", "", files, maxSize)
	}

	// Group by normalized directory, insertion-ordered.
	var order []string
	groups := make(map[string][]string)
	for _, f := range files {
		key := groupKey(f)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	var batches []Batch
	for _, key := range order {
		batches = append(batches, chunk(key, key, groups[key], maxSize)...)
	}
	return batches
}

// collapseToOne are top-level directories whose subpackages are close
// enough that one agent invocation handles them coherently.
var collapseToOne = map[string]bool{
	"lib":        true,
	"components": true,
	"hooks":      true,
	"utils":      true,
	"styles":     true,
	"types":      true,
}

// routeRoots are directories whose nesting mirrors URL routes; two
// segments keep route siblings together without merging whole apps.
var routeRoots = map[string]bool{
	"app":   true,
	"pages": true,
	"src":   true,
}

// groupKey normalizes a file path to its batch group.
func groupKey(path string) string {
	segments := strings.Split(path, "/")
	if len(segments) == 1 {
		return "root"
	}

	first := segments[0]
	switch {
	case collapseToOne[first]:
		return first
	case routeRoots[first] && len(segments) > 2:
		return first + "/" + segments[1]
	default:
		return first
	}
}

// chunk splits one group into consecutive batches of at most maxSize,
// suffixing names with "(i/n)" when more than one chunk results.
func chunk(name, directory string, files []string, maxSize int) []Batch {
	total := (len(files) + maxSize - 1) / maxSize

	batches := make([]Batch, 0, total)
	for i := 0; i < len(files); i += maxSize {
		end := i + maxSize
		if end > len(files) {
			end = len(files)
		}

		display := name
		if total > 1 {
			display = fmt.Sprintf("%s (%d/%d)", name, len(batches)+1, total)
		}

		batches = append(batches, Batch{
			Name:      display,
			Directory: directory,
			Files:     files[i:end],
		})
	}
	return batches
}
