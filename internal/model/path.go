package model

// Path represents a file system path of a report file or directory.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}
