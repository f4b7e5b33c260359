package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet owns every source file of one compilation.
// Files are added before jobs start; afterwards the set is read-only and
// safe for concurrent readers.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> id
	baseDir string
}

// NewFileSet creates an empty FileSet rooted at baseDir.
// Namespaces of added files are computed relative to baseDir.
func NewFileSet(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// BaseDir возвращает базовую директорию проекта.
func (fileSet *FileSet) BaseDir() string {
	return fileSet.baseDir
}

// Add stores normalized content, computes the line index and hash and
// derives the namespace from the path. Adding the same path twice is an error.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) (FileID, error) {
	normalizedPath := normalizePath(path)
	if _, ok := fileSet.index[normalizedPath]; ok {
		return 0, fmt.Errorf("file %q added twice", normalizedPath)
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		return 0, fmt.Errorf("file %q too large: %w", normalizedPath, err)
	}
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		return 0, fmt.Errorf("len files overflow: %w", err)
	}
	id := FileID(lenFiles)
	fileSet.files = append(fileSet.files, File{
		ID:        id,
		Path:      normalizedPath,
		Namespace: NamespaceOf(fileSet.baseDir, normalizedPath),
		Content:   content,
		LineIdx:   buildLineIndex(content),
		Hash:      sha256.Sum256(content),
		Flags:     flags,
	})
	fileSet.index[normalizedPath] = id
	return id, nil
}

// AddNamespaced adds a file whose namespace is fixed by the caller (the prelude).
func (fileSet *FileSet) AddNamespaced(path, namespace string, content []byte) (FileID, error) {
	id, err := fileSet.Add(path, content, FileVirtual)
	if err != nil {
		return 0, err
	}
	fileSet.files[id].Namespace = namespace
	return id, nil
}

// Load reads a file from disk and adds it.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.Add(path, content, 0)
}

// Get returns the file metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Len returns the number of files.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Files returns the files in insertion order.
func (fileSet *FileSet) Files() []File {
	return fileSet.files
}

// GetByPath возвращает *File по пути, если был загружен в этот FileSet.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenLineIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		return ""
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return ""
	}

	var start, end uint32
	switch {
	case lineNum == 1:
		start = 0
	case (lineNum - 2) < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}
	if (lineNum - 1) < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}
	if start > lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}
	return string(f.Content[start:end])
}
