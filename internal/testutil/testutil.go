// Package testutil builds archive and PE fixtures for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"testing"
	"unicode/utf16"

	"github.com/cavaliergopher/cpio"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// WriteTar writes a ustar archive containing the given files.
// Entries are written in sorted path order for reproducible fixtures.
func WriteTar(t testing.TB, path string, files map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		hdr := &tar.Header{
			Name:   name,
			Mode:   0o644,
			Size:   int64(len(files[name])),
			Format: tar.FormatUSTAR,
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// WriteZip writes a zip archive containing the given files.
func WriteZip(t testing.TB, path string, files map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// WriteCpio writes an SVR4 cpio archive containing the given files.
func WriteCpio(t testing.TB, path string, files map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	cw := cpio.NewWriter(&buf)
	for _, name := range sortedKeys(files) {
		hdr := &cpio.Header{
			Name: name,
			Mode: cpio.TypeReg | 0o644,
			Size: int64(len(files[name])),
		}
		require.NoError(t, cw.WriteHeader(hdr))
		_, err := cw.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, cw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// ZstdCompress returns data as a single zstd frame, the physical form the
// compression layer stores and expects.
func ZstdCompress(t testing.TB, data []byte) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

// WritePE writes a minimal PE binary whose .rsrc section carries the given
// named resources under resourceType. The layout is the standard resource
// directory tree: type -> name -> language -> data.
func WritePE(t testing.TB, path, resourceType string, resources map[string][]byte) {
	t.Helper()

	const (
		sectionRVA  = 0x1000
		rawDataOff  = 0x80
		peHeaderOff = 0x40
	)

	rsrc := buildResourceSection(resourceType, resources, sectionRVA)

	buf := make([]byte, rawDataOff+len(rsrc))

	// DOS stub: magic plus the PE header offset
	copy(buf[0:], "MZ")
	binary.LittleEndian.PutUint32(buf[0x3C:], peHeaderOff)

	// PE signature and file header
	copy(buf[peHeaderOff:], "PE\x00\x00")
	fh := buf[peHeaderOff+4:]
	binary.LittleEndian.PutUint16(fh[0:], 0x8664) // machine: amd64
	binary.LittleEndian.PutUint16(fh[2:], 1)      // one section
	binary.LittleEndian.PutUint16(fh[16:], 0)     // no optional header
	binary.LittleEndian.PutUint16(fh[18:], 0x2002)

	// section header for .rsrc
	sh := buf[peHeaderOff+4+20:]
	copy(sh[0:], ".rsrc\x00\x00\x00")
	binary.LittleEndian.PutUint32(sh[8:], uint32(len(rsrc)))  // virtual size
	binary.LittleEndian.PutUint32(sh[12:], sectionRVA)        // virtual address
	binary.LittleEndian.PutUint32(sh[16:], uint32(len(rsrc))) // raw size
	binary.LittleEndian.PutUint32(sh[20:], rawDataOff)
	binary.LittleEndian.PutUint32(sh[36:], 0x40000040)

	copy(buf[rawDataOff:], rsrc)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

const (
	resDirSize   = 16
	resEntrySize = 8
	resDataSize  = 16
	resHighBit   = 0x80000000
)

func buildResourceSection(resourceType string, resources map[string][]byte, sectionRVA uint32) []byte {
	names := sortedKeys(resources)
	n := len(names)

	// region layout, in order: root dir, name dir, language dirs, data
	// entries, strings, content
	rootOff := uint32(0)
	nameDirOff := rootOff + resDirSize + resEntrySize
	langDirsOff := nameDirOff + resDirSize + uint32(n)*resEntrySize
	dataEntriesOff := langDirsOff + uint32(n)*(resDirSize+resEntrySize)
	stringsOff := dataEntriesOff + uint32(n)*resDataSize

	strings := new(bytes.Buffer)
	strOffsets := make([]uint32, n+1)
	strOffsets[0] = stringsOff
	appendDirString(strings, resourceType)
	for i, name := range names {
		strOffsets[i+1] = stringsOff + uint32(strings.Len())
		appendDirString(strings, name)
	}

	contentOff := stringsOff + uint32(strings.Len())
	content := new(bytes.Buffer)
	contentOffsets := make([]uint32, n)
	for i, name := range names {
		contentOffsets[i] = contentOff + uint32(content.Len())
		content.Write(resources[name])
	}

	out := new(bytes.Buffer)

	// root directory: one named type entry
	writeDirHeader(out, 1, 0)
	writeDirEntry(out, strOffsets[0]|resHighBit, nameDirOff|resHighBit)

	// name directory
	writeDirHeader(out, uint16(n), 0)
	for i := range names {
		langOff := langDirsOff + uint32(i)*(resDirSize+resEntrySize)
		writeDirEntry(out, strOffsets[i+1]|resHighBit, langOff|resHighBit)
	}

	// one language directory per name, ID 0x409, pointing at the data entry
	for i := range names {
		writeDirHeader(out, 0, 1)
		writeDirEntry(out, 0x409, dataEntriesOff+uint32(i)*resDataSize)
	}

	// data entries
	for i, name := range names {
		binary.Write(out, binary.LittleEndian, sectionRVA+contentOffsets[i])
		binary.Write(out, binary.LittleEndian, uint32(len(resources[name])))
		binary.Write(out, binary.LittleEndian, uint32(0))
		binary.Write(out, binary.LittleEndian, uint32(0))
	}

	out.Write(strings.Bytes())
	out.Write(content.Bytes())
	return out.Bytes()
}

func writeDirHeader(out *bytes.Buffer, named, ids uint16) {
	binary.Write(out, binary.LittleEndian, uint32(0)) // characteristics
	binary.Write(out, binary.LittleEndian, uint32(0)) // timestamp
	binary.Write(out, binary.LittleEndian, uint16(0)) // major version
	binary.Write(out, binary.LittleEndian, uint16(0)) // minor version
	binary.Write(out, binary.LittleEndian, named)
	binary.Write(out, binary.LittleEndian, ids)
}

func writeDirEntry(out *bytes.Buffer, nameField, offField uint32) {
	binary.Write(out, binary.LittleEndian, nameField)
	binary.Write(out, binary.LittleEndian, offField)
}

func appendDirString(out *bytes.Buffer, s string) {
	chars := utf16.Encode([]rune(s))
	binary.Write(out, binary.LittleEndian, uint16(len(chars)))
	for _, c := range chars {
		binary.Write(out, binary.LittleEndian, c)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
