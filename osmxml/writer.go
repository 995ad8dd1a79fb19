// Copyright 2017-26 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package osmxml

import (
	"encoding/xml"
	"fmt"
	"io"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// DefaultGenerator is the generator attribute written unless replaced with
// WithGenerator.
const DefaultGenerator = "osmstream"

// Writer is an osmstream.Target writing an OSM XML document.  Elements are
// written as they are added; Close writes the closing tag.
type Writer struct {
	wrtr io.Writer
	cfg  writerOptions
	enc  *xml.Encoder

	closed bool
}

var _ osmstream.Target = (*Writer)(nil)

func NewWriter(wrtr io.Writer, opts ...WriterOption) *Writer {
	cfg := writerOptions{
		generator: DefaultGenerator,
		indent:    "  ",
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Writer{wrtr: wrtr, cfg: cfg}
}

func root(generator string) xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: "osm"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "version"}, Value: "0.6"},
			{Name: xml.Name{Local: "generator"}, Value: generator},
		},
	}
}

// Initialize writes the XML declaration and the opening osm tag.
func (w *Writer) Initialize() error {
	if w.enc != nil {
		return osmstream.ErrAlreadyInitialized
	}

	if _, err := io.WriteString(w.wrtr, xml.Header); err != nil {
		return fmt.Errorf("error writing xml header: %w", err)
	}

	w.enc = xml.NewEncoder(w.wrtr)
	w.enc.Indent("", w.cfg.indent)

	if err := w.enc.EncodeToken(root(w.cfg.generator)); err != nil {
		return fmt.Errorf("error writing osm element: %w", err)
	}

	return nil
}

func (w *Writer) encode(v any) error {
	if w.enc == nil {
		return osmstream.ErrNotInitialized
	}

	if w.closed {
		return fmt.Errorf("osm xml writer is closed")
	}

	return w.enc.Encode(v)
}

func (w *Writer) AddNode(n *model.Node) error {
	return w.encode(toNode(n))
}

func (w *Writer) AddWay(way *model.Way) error {
	return w.encode(toWay(way))
}

func (w *Writer) AddRelation(r *model.Relation) error {
	return w.encode(toRelation(r))
}

// Close writes the closing osm tag and flushes.  It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.enc == nil || w.closed {
		return nil
	}

	w.closed = true

	if err := w.enc.EncodeToken(root(w.cfg.generator).End()); err != nil {
		return fmt.Errorf("error closing osm element: %w", err)
	}

	if err := w.enc.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w.wrtr, "\n")

	return err
}
