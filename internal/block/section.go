package block

// SectionBlock is a DataBlock with the section fixed. It has no storage of
// its own.
type SectionBlock struct {
	block   *DataBlock
	section string
}

// SectionReader is the read side of a SectionBlock.
type SectionReader interface {
	Name() string
	Has(name string) bool
	Get(name string, def ...any) (any, error)
	GetType(name string, t Type, def ...any) (any, error)
	Keys() []string
	Items() map[string]any
	GetBool(name string, def ...bool) (bool, error)
	GetInt(name string, def ...int) (int, error)
	GetFloat(name string, def ...float64) (float64, error)
	GetNumber(name string, def ...float64) (float64, error)
	GetDouble(name string, def ...float64) (float64, error)
	GetString(name string, def ...string) (string, error)
	GetIntArray1D(name string, def ...Array[int64]) (Array[int64], error)
	GetFloatArray1D(name string, def ...Array[float64]) (Array[float64], error)
	GetFloatArray2D(name string, def ...Array[float64]) (Array[float64], error)
	GetJSON(name string, opts ...JSONOption) (any, error)
}

type readOnlySection struct{ SectionReader }

// Section binds b and section.
func Section(b *DataBlock, section string) SectionBlock {
	return SectionBlock{block: b, section: section}
}

// Name returns the bound section.
func (s SectionBlock) Name() string { return s.section }

// ReadOnly returns a view of s without its write methods. The view cannot be
// asserted back to a SectionBlock.
func (s SectionBlock) ReadOnly() SectionReader { return readOnlySection{s} }

// Block returns the underlying block.
func (s SectionBlock) Block() *DataBlock { return s.block }

func (s SectionBlock) Has(name string) bool { return s.block.Has(s.section, name) }

func (s SectionBlock) Get(name string, def ...any) (any, error) {
	return s.block.Get(s.section, name, def...)
}

func (s SectionBlock) GetType(name string, t Type, def ...any) (any, error) {
	return s.block.GetType(s.section, name, t, def...)
}

func (s SectionBlock) Set(name string, value any) { s.block.Set(s.section, name, value) }

func (s SectionBlock) Put(name string, value any) error {
	return s.block.Put(s.section, name, value)
}

func (s SectionBlock) Replace(name string, value any) error {
	return s.block.Replace(s.section, name, value)
}

func (s SectionBlock) Delete(name string) error { return s.block.Delete(s.section, name) }

// Keys returns the names stored in the section, sorted.
func (s SectionBlock) Keys() []string {
	keys := s.block.Keys(s.section)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Name
	}
	return names
}

// Items returns name -> value for the section.
func (s SectionBlock) Items() map[string]any {
	items := s.block.Items(s.section)
	out := make(map[string]any, len(items))
	for _, it := range items {
		out[it.Key.Name] = it.Value
	}
	return out
}

func (s SectionBlock) GetBool(name string, def ...bool) (bool, error) {
	return s.block.GetBool(s.section, name, def...)
}

func (s SectionBlock) GetInt(name string, def ...int) (int, error) {
	return s.block.GetInt(s.section, name, def...)
}

func (s SectionBlock) GetFloat(name string, def ...float64) (float64, error) {
	return s.block.GetFloat(s.section, name, def...)
}

func (s SectionBlock) GetNumber(name string, def ...float64) (float64, error) {
	return s.block.GetNumber(s.section, name, def...)
}

func (s SectionBlock) GetDouble(name string, def ...float64) (float64, error) {
	return s.block.GetDouble(s.section, name, def...)
}

func (s SectionBlock) GetString(name string, def ...string) (string, error) {
	return s.block.GetString(s.section, name, def...)
}

func (s SectionBlock) GetIntArray1D(name string, def ...Array[int64]) (Array[int64], error) {
	return s.block.GetIntArray1D(s.section, name, def...)
}

func (s SectionBlock) GetFloatArray1D(name string, def ...Array[float64]) (Array[float64], error) {
	return s.block.GetFloatArray1D(s.section, name, def...)
}

func (s SectionBlock) GetFloatArray2D(name string, def ...Array[float64]) (Array[float64], error) {
	return s.block.GetFloatArray2D(s.section, name, def...)
}

func (s SectionBlock) GetJSON(name string, opts ...JSONOption) (any, error) {
	return s.block.GetJSON(s.section, name, opts...)
}
