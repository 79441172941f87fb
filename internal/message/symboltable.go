package message

import binpkg "github.com/robert-malhotra/h5flat/internal/binary"

// SymbolTable is the symbol table message (0x0011) of an old style group:
// the v1 B-tree holding its entries and the local heap holding their names.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binpkg.Reader) (*SymbolTable, error) {
	f := newFields("symbol table", data, r)
	st := &SymbolTable{BTreeAddress: f.address(), LocalHeapAddress: f.address()}
	if f.err != nil {
		return nil, f.err
	}
	return st, nil
}
