package form

import "iter"

// Data is a single entry of the form. Filename is empty for regular fields.
type Data struct {
	Name     string
	Filename string
	Type     string
	Charset  string
	Value    string
}

// IsFile reports whether the entry was uploaded as a file.
func (d Data) IsFile() bool {
	return len(d.Filename) > 0
}

// Form keeps the entries in order of their appearance in the stream.
type Form []Data

// Name returns the first entry with the name.
func (f Form) Name(name string) (Data, bool) {
	for data := range f.Names(name) {
		return data, true
	}

	return Data{}, false
}

// Value returns the value of the first entry with the name or an empty string.
func (f Form) Value(name string) string {
	data, _ := f.Name(name)
	return data.Value
}

// Names iterates over all the entries with the name.
func (f Form) Names(name string) iter.Seq[Data] {
	return f.filter(func(data Data) bool {
		return data.Name == name
	})
}

// File returns the first entry with the filename.
func (f Form) File(filename string) (Data, bool) {
	for data := range f.Files(filename) {
		return data, true
	}

	return Data{}, false
}

// Files iterates over all the entries with the filename.
func (f Form) Files(filename string) iter.Seq[Data] {
	return f.filter(func(data Data) bool {
		return data.Filename == filename
	})
}

func (f Form) filter(match func(Data) bool) iter.Seq[Data] {
	return func(yield func(Data) bool) {
		for _, entry := range f {
			if match(entry) && !yield(entry) {
				break
			}
		}
	}
}
