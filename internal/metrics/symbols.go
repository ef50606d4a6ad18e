package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const SymbolsSuffix = ".symbols"

var ErrInvalidSymbols = errors.New("invalid symbols file")

// Symbol is one line of nm output.
type Symbol struct {
	Address uintptr // relative to the executable's base address
	Type    byte
	Name    string
}

// SymbolTable resolves handler addresses to names.
type SymbolTable struct {
	syms []Symbol // sorted by address
}

// ParseSymbols reads lines in the format
//
//	0000000000049393 t ngx_cleanup_environment_variable
//
// Undefined symbols (no address column) are skipped.
func ParseSymbols(r io.Reader) (*SymbolTable, error) {
	var syms []Symbol

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		fields := strings.Fields(sc.Text())
		switch len(fields) {
		case 0, 2:
			continue
		case 3:
		default:
			return nil, fmt.Errorf("%w: line %d: expected 3 fields, got %d", ErrInvalidSymbols, lineNo, len(fields))
		}

		addr, err := strconv.ParseUint(fields[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad address %q: %v", ErrInvalidSymbols, lineNo, fields[0], err)
		}
		if len(fields[1]) != 1 {
			return nil, fmt.Errorf("%w: line %d: bad symbol type %q", ErrInvalidSymbols, lineNo, fields[1])
		}
		syms = append(syms, Symbol{Address: uintptr(addr), Type: fields[1][0], Name: fields[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read symbols: %w", err)
	}

	sort.Slice(syms, func(i, j int) bool { return syms[i].Address < syms[j].Address })
	return &SymbolTable{syms: syms}, nil
}

func LoadSymbols(path string) (*SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbols file: %w", err)
	}
	defer f.Close()
	return ParseSymbols(f)
}

// DefaultSymbolsPath is the running executable's path plus ".symbols".
func DefaultSymbolsPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable: %w", err)
	}
	return exe + SymbolsSuffix, nil
}

func (t *SymbolTable) Len() int { return len(t.syms) }

// Find returns the symbol at exactly addr.
func (t *SymbolTable) Find(addr uintptr) (Symbol, bool) {
	i := sort.Search(len(t.syms), func(i int) bool { return t.syms[i].Address >= addr })
	if i < len(t.syms) && t.syms[i].Address == addr {
		return t.syms[i], true
	}
	return Symbol{}, false
}
