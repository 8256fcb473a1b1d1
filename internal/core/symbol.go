package core

// SymbolType classifies a Symbol extracted from a chunk.
type SymbolType string

const (
	SymbolTypeClass     SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeFunction  SymbolType = "function"
	SymbolTypeMethod    SymbolType = "method"
	SymbolTypeProperty  SymbolType = "property"
	SymbolTypeVariable  SymbolType = "variable"
	SymbolTypeImport    SymbolType = "import"
)

// Symbol is a named declaration extracted from a file's chunks. Symbols
// reference, but do not own, their chunk and file.
type Symbol struct {
	Id            SymbolId
	FileId        FileId
	ChunkId       ChunkId
	Type          SymbolType
	Name          string
	QualifiedName *string
	Signature     *string
	StartLine     int
	EndLine       int
	Language      string
}

// NewSymbol constructs a Symbol referencing the given file and chunk.
func NewSymbol(fileId FileId, chunkId ChunkId, symbolType SymbolType, name string, startLine, endLine int, language string) *Symbol {
	return &Symbol{
		Id:        NewSymbolId(),
		FileId:    fileId,
		ChunkId:   chunkId,
		Type:      symbolType,
		Name:      name,
		StartLine: startLine,
		EndLine:   endLine,
		Language:  language,
	}
}
