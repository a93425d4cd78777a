package typegen

// OutputFile is one generated file, held in memory until it is written.
type OutputFile struct {
	// Path is relative to the output root and slash separated, e.g. "geo/point.ts"
	Path    string
	Content []byte

	// Source is the schema file the output was rendered from; empty for
	// index files and the reflection metadata
	Source string
}

// Result describes a generation run.
type Result struct {
	// Files holds every rendered file: schema files in graph order, then
	// index files, then the reflection metadata
	Files []OutputFile

	// Failed lists the schema files (or output paths, for files without a
	// schema source) whose emission or write failed
	Failed []string

	// Written and Unchanged partition the files Generate put on disk
	Written   []string
	Unchanged []string
}

// File returns the rendered file at path.
func (r *Result) File(path string) (OutputFile, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return OutputFile{}, false
}

// Paths lists the output paths of every rendered file.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// failedName is how a failure of f is reported in Result.Failed.
func (f OutputFile) failedName() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Path
}
