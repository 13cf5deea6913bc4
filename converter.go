package formfill

// Converter turns a raw extracted value into a field's declared type.
//
// Crackers hand Convert whatever they extracted: the default TextCracker
// passes the message text as a string, while custom crackers may pass
// already-typed values. Implementations should accept both where it makes
// sense. A Converter must be safe for concurrent use, and must never
// return (nil, nil): the state machine reads a nil value as "no answer",
// which is the timeout and cancellation path, never the success path.
type Converter interface {
	Convert(raw any) (any, error)
}

// ConverterFunc adapts a plain function to the Converter interface.
type ConverterFunc func(raw any) (any, error)

// Convert calls f.
func (f ConverterFunc) Convert(raw any) (any, error) {
	return f(raw)
}

// ConverterResolver resolves the Converter for a declared value type.
//
// Resolution happens exactly once per field, inside Builder.Build; the
// returned Converter is then pinned to the field for the form's lifetime.
type ConverterResolver interface {
	Resolve(t ValueType) (Converter, bool)
}
