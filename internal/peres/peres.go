// Package peres reads named entries of one resource type out of a PE
// binary's resource section.
//
// The parser is portable: it walks the .rsrc directory tree directly from
// the section bytes instead of going through the OS loader, so it works
// against any PE file on any host. The parsed state lives behind the File
// type; callers never see the raw directory layout.
package peres

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
)

const (
	resourceDirSize   = 16
	resourceEntrySize = 8
	dataEntrySize     = 16

	// high bit of a directory entry field selects string-name / subdirectory
	highBit = 0x80000000
)

// File holds the named resources of a single type from one PE binary.
type File struct {
	names []string          // enumeration order, as stored
	data  map[string][]byte // upper-cased name -> content
}

// Open parses the resource section of the PE binary at path and collects
// all named resources of resourceType. Resource names are matched
// case-insensitively, as the OS loader stores them upper-cased.
func Open(path, resourceType string) (*File, error) {
	pf, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("peres: open %q: %w", path, err)
	}
	defer pf.Close()

	sect := pf.Section(".rsrc")
	if sect == nil {
		return nil, fmt.Errorf("peres: %q has no resource section", path)
	}

	raw, err := sect.Data()
	if err != nil {
		return nil, fmt.Errorf("peres: read resource section of %q: %w", path, err)
	}

	p := &parser{raw: raw, sectionRVA: sect.VirtualAddress}
	f := &File{data: make(map[string][]byte)}
	if err := p.collect(f, resourceType); err != nil {
		return nil, fmt.Errorf("peres: parse resource section of %q: %w", path, err)
	}

	sort.Strings(f.names)
	return f, nil
}

// Names returns the resource names in sorted order, cased as stored.
func (f *File) Names() []string {
	return f.names
}

// Lookup returns the content of the named resource. Matching is
// case-insensitive. The returned bytes alias the parsed section and must
// be treated as read-only.
func (f *File) Lookup(name string) ([]byte, bool) {
	data, ok := f.data[strings.ToUpper(name)]
	return data, ok
}

// Len returns the number of named resources of the requested type.
func (f *File) Len() int {
	return len(f.names)
}

type parser struct {
	raw        []byte
	sectionRVA uint32
}

type dirEntry struct {
	nameField uint32
	offField  uint32
}

func (p *parser) collect(f *File, resourceType string) error {
	types, err := p.dirEntries(0)
	if err != nil {
		return err
	}

	for _, typeEntry := range types {
		if typeEntry.nameField&highBit == 0 {
			// integer-ID type, not addressable by name
			continue
		}
		typeName, err := p.dirString(typeEntry.nameField &^ highBit)
		if err != nil {
			return err
		}
		if !strings.EqualFold(typeName, resourceType) {
			continue
		}
		if typeEntry.offField&highBit == 0 {
			return fmt.Errorf("type %q: expected a name directory", typeName)
		}
		return p.collectNames(f, typeEntry.offField&^highBit)
	}

	// type absent: a valid, empty result
	return nil
}

func (p *parser) collectNames(f *File, dirOff uint32) error {
	names, err := p.dirEntries(dirOff)
	if err != nil {
		return err
	}

	for _, nameEntry := range names {
		if nameEntry.nameField&highBit == 0 {
			continue
		}
		name, err := p.dirString(nameEntry.nameField &^ highBit)
		if err != nil {
			return err
		}

		content, err := p.firstData(nameEntry.offField)
		if err != nil {
			return fmt.Errorf("resource %q: %w", name, err)
		}

		f.names = append(f.names, name)
		f.data[strings.ToUpper(name)] = content
	}
	return nil
}

// firstData resolves a name-level entry to its content, descending through
// the language directory when present and taking the first variant.
func (p *parser) firstData(offField uint32) ([]byte, error) {
	for i := 0; i < 2; i++ {
		if offField&highBit == 0 {
			return p.dataEntry(offField)
		}
		langs, err := p.dirEntries(offField &^ highBit)
		if err != nil {
			return nil, err
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("empty language directory")
		}
		offField = langs[0].offField
	}
	return nil, fmt.Errorf("resource directory nested too deep")
}

func (p *parser) dirEntries(off uint32) ([]dirEntry, error) {
	if err := p.bounds(off, resourceDirSize); err != nil {
		return nil, err
	}
	named := binary.LittleEndian.Uint16(p.raw[off+12:])
	ids := binary.LittleEndian.Uint16(p.raw[off+14:])
	total := uint32(named) + uint32(ids)

	if err := p.bounds(off+resourceDirSize, total*resourceEntrySize); err != nil {
		return nil, err
	}

	entries := make([]dirEntry, 0, total)
	for i := uint32(0); i < total; i++ {
		base := off + resourceDirSize + i*resourceEntrySize
		entries = append(entries, dirEntry{
			nameField: binary.LittleEndian.Uint32(p.raw[base:]),
			offField:  binary.LittleEndian.Uint32(p.raw[base+4:]),
		})
	}
	return entries, nil
}

func (p *parser) dirString(off uint32) (string, error) {
	if err := p.bounds(off, 2); err != nil {
		return "", err
	}
	length := uint32(binary.LittleEndian.Uint16(p.raw[off:]))
	if err := p.bounds(off+2, length*2); err != nil {
		return "", err
	}

	chars := make([]uint16, length)
	for i := range chars {
		chars[i] = binary.LittleEndian.Uint16(p.raw[off+2+uint32(i)*2:])
	}
	return string(utf16.Decode(chars)), nil
}

func (p *parser) dataEntry(off uint32) ([]byte, error) {
	if err := p.bounds(off, dataEntrySize); err != nil {
		return nil, err
	}
	rva := binary.LittleEndian.Uint32(p.raw[off:])
	size := binary.LittleEndian.Uint32(p.raw[off+4:])

	if rva < p.sectionRVA {
		return nil, fmt.Errorf("data RVA %#x precedes resource section", rva)
	}
	start := rva - p.sectionRVA
	if err := p.bounds(start, size); err != nil {
		return nil, err
	}
	return p.raw[start : start+size : start+size], nil
}

func (p *parser) bounds(off, n uint32) error {
	end := uint64(off) + uint64(n)
	if end > uint64(len(p.raw)) {
		return fmt.Errorf("offset %#x+%d exceeds section size %d", off, n, len(p.raw))
	}
	return nil
}
