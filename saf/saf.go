/*
 * saf.go, part of molbuild.
 *
 * Copyright 2024 A. Villar <avillar{at}protonDOTme>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

/*Package saf reads and writes the structure archive format: a compressed
JSON serialization of a full compound tree, hierarchy, labels, element
symbols, absolute coordinates and unconsumed port frames included. A
reloaded tree is a first-class citizen: it keeps accepting positional
additions and its restored ports join through ForceOverlap like freshly
created ones.

The compression is chosen from the file name: a .safg suffix selects
gzip, .saff selects flate, anything else (canonically .saf) the
considerably faster and tighter zstd.*/
package saf

import (
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/avillar/molbuild"
	v3 "github.com/avillar/molbuild/v3"
	"github.com/klauspost/compress/zstd"
)

//ErrArchive reports a file that could not be read, decompressed or
//parsed as a structure archive.
const ErrArchive = molbuild.Kind("unreadable archive")

//Error is the error type of the archive layer. It carries the name of
//the offending file and shares the kind vocabulary of the core, so
//molbuild.IsKind dispatches on it.
type Error struct {
	kind     molbuild.Kind
	filename string
	message  string
	deco     []string
}

func newError(kind molbuild.Kind, caller, filename, format string, a ...interface{}) Error {
	return Error{kind, filename, fmt.Sprintf(format, a...), []string{caller}}
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return fmt.Sprintf("saf: %s: file %s: %s", string(err.kind), err.filename, err.message)
}

//Kind returns the class of the failure.
func (err Error) Kind() molbuild.Kind {
	return err.kind
}

//FileName returns the name of the file on which the error happened.
func (err Error) FileName() string {
	return err.filename
}

//Decorate adds dec to the decoration slice of the error and returns the
//resulting slice. An empty string just returns the current value.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//node is the on-disk record of one compound. Ports are stored on the
//node they are anchored to, in absolute coordinates.
type node struct {
	Name     string      `json:"name"`
	Particle bool        `json:"particle,omitempty"`
	Element  string      `json:"element,omitempty"`
	Pos      *[3]float64 `json:"pos,omitempty"`
	Ports    []port      `json:"ports,omitempty"`
	Children []node      `json:"children,omitempty"`
}

type port struct {
	Name string     `json:"name"`
	Pos  [3]float64 `json:"pos"`
	Dir  [3]float64 `json:"dir"`
	Up   [3]float64 `json:"up"`
}

func triplet(m *v3.Matrix) [3]float64 {
	return [3]float64{m.At(0, 0), m.At(0, 1), m.At(0, 2)}
}

func vector(t [3]float64) *v3.Matrix {
	return v3.Vec(t[0], t[1], t[2])
}

//record serializes the subtree rooted at c.
func record(c *molbuild.Compound) node {
	n := node{Name: c.Name()}
	if c.IsParticle() {
		n.Particle = true
		n.Element = c.Element()
		p := triplet(c.Pos())
		n.Pos = &p
	}
	for _, p := range c.AnchoredPorts() {
		n.Ports = append(n.Ports, port{
			Name: p.Name(),
			Pos:  triplet(p.Pos()),
			Dir:  triplet(p.Dir()),
			Up:   triplet(p.Up()),
		})
	}
	for _, ch := range c.Children() {
		n.Children = append(n.Children, record(ch))
	}
	return n
}

//rebuild reconstructs a compound from its record, without a parent.
func rebuild(n *node) (*molbuild.Compound, error) {
	var c *molbuild.Compound
	if n.Particle {
		pos := [3]float64{}
		if n.Pos != nil {
			pos = *n.Pos
		}
		c = molbuild.NewParticle(n.Element, pos[0], pos[1], pos[2])
		if n.Name != "" {
			//a particle archived as a root keeps its recorded name;
			//non-roots are relabeled by the parent's Add anyway.
			c.Rename(n.Name)
		}
	} else {
		c = molbuild.NewCompound(n.Name)
		for i := range n.Children {
			ch, err := rebuild(&n.Children[i])
			if err != nil {
				return nil, err
			}
			if err := c.Add(ch, n.Children[i].Name); err != nil {
				return nil, err
			}
		}
	}
	for _, p := range n.Ports {
		if _, err := molbuild.NewPortAt(c, p.Name, vector(p.Pos), vector(p.Dir), vector(p.Up)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

//compressor wraps w in the compression selected by the file name.
func compressor(name string, w io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(name, ".safg"):
		return gzip.NewWriter(w), nil
	case strings.HasSuffix(name, ".saff"):
		return flate.NewWriter(w, flate.DefaultCompression)
	default:
		return zstd.NewWriter(w)
	}
}

//decompressor wraps r in the decompression selected by the file name.
func decompressor(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".safg"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".saff"):
		return flate.NewReader(r), nil
	default:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	}
}

//Write serializes the tree rooted at c into the named file, compressed
//according to the file name's suffix. Consumed ports are not written: an
//archive only records the joins still available.
func Write(name string, c *molbuild.Compound) error {
	f, err := os.Create(name)
	if err != nil {
		return newError(ErrArchive, "Write", name, "%v", err)
	}
	defer f.Close()
	zw, err := compressor(name, f)
	if err != nil {
		return newError(ErrArchive, "Write", name, "%v", err)
	}
	n := record(c)
	if err := json.NewEncoder(zw).Encode(&n); err != nil {
		zw.Close()
		return newError(ErrArchive, "Write", name, "%v", err)
	}
	if err := zw.Close(); err != nil {
		return newError(ErrArchive, "Write", name, "%v", err)
	}
	return nil
}

//Read reconstructs a compound tree from the named archive. The result is
//an independent root, ready for further building.
func Read(name string) (*molbuild.Compound, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newError(ErrArchive, "Read", name, "%v", err)
	}
	defer f.Close()
	zr, err := decompressor(name, f)
	if err != nil {
		return nil, newError(ErrArchive, "Read", name, "%v", err)
	}
	defer zr.Close()
	var n node
	if err := json.NewDecoder(zr).Decode(&n); err != nil {
		return nil, newError(ErrArchive, "Read", name, "%v", err)
	}
	c, err := rebuild(&n)
	if err != nil {
		return nil, newError(ErrArchive, "Read", name, "rebuilding: %v", err)
	}
	if c.NParticles() == 0 {
		log.Printf("saf: file %s holds a tree with no particles", name)
	}
	return c, nil
}

//FileLoader resolves prototype names against a directory of archives,
//implementing the molbuild.Loader interface. A name without a recognized
//suffix gets the canonical .saf appended.
type FileLoader struct {
	dir string
}

//NewFileLoader returns a loader rooted at the given directory.
func NewFileLoader(dir string) *FileLoader {
	return &FileLoader{dir: dir}
}

//Load implements molbuild.Loader.
func (L *FileLoader) Load(name string) (*molbuild.Compound, error) {
	if !strings.HasSuffix(name, ".saf") && !strings.HasSuffix(name, ".safg") && !strings.HasSuffix(name, ".saff") {
		name += ".saf"
	}
	return Read(filepath.Join(L.dir, name))
}
