// Package block decomposes a page into an ordered sequence of typed blocks,
// extracts their media assets and groups them into sections.
package block

import (
	"strings"

	"lpforge/internal/lperr"
)

// Type is the classification of a block. Exactly one per block.
type Type string

const (
	TypeText       Type = "text"
	TypeHeading    Type = "heading"
	TypeImage      Type = "image"
	TypeVideo      Type = "video"
	TypeWidget     Type = "widget"
	TypeCTALink    Type = "cta_link"
	TypeSpacer     Type = "spacer"
	TypeQuiz       Type = "quiz"
	TypeReview     Type = "review"
	TypeFV         Type = "fv"
	TypeComparison Type = "comparison"
)

// AssetKind distinguishes image and video assets.
type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
)

// Variant is an alternate-format source of the same asset, e.g. a webp
// source inside a picture element.
type Variant struct {
	Type string `json:"type,omitempty"`
	Src  string `json:"src"`
}

// AssetRef is one media resource referenced by a block. It is derived from
// the block's html and goes stale as soon as that html is rewritten.
type AssetRef struct {
	Kind       AssetKind `json:"kind"`
	PrimarySrc string    `json:"primarySrc"`
	Variants   []Variant `json:"variants,omitempty"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
}

// Block is one top-level element of the page. HTML is authoritative; every
// other field is derived from it and must be recomputed when it changes.
type Block struct {
	Index        int        `json:"index"`
	Type         Type       `json:"type"`
	HTML         string     `json:"html"`
	Text         string     `json:"text,omitempty"`
	Style        string     `json:"style,omitempty"`
	Href         string     `json:"href,omitempty"`
	Assets       []AssetRef `json:"assets,omitempty"`
	WidgetType   string     `json:"widgetType,omitempty"`
	VendorPartID string     `json:"vendorPartId,omitempty"`
	VendorClass  string     `json:"vendorClass,omitempty"`
	VideoSrc     string     `json:"videoSrc,omitempty"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	FontSize     float64    `json:"fontSize,omitempty"`
	HasStrong    bool       `json:"hasStrong,omitempty"`
	HasColor     bool       `json:"hasColor,omitempty"`
}

// Flatten concatenates block html in index order.
func Flatten(blocks []Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(blk.HTML)
	}
	return b.String()
}

// Reindex sets every block's index to its array position.
func Reindex(blocks []Block) []Block {
	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks
}

// Insert places b at position at (0..len) and reindexes.
func Insert(blocks []Block, at int, b Block) ([]Block, error) {
	if at < 0 || at > len(blocks) {
		return blocks, lperr.IndexOutOfRange(at, len(blocks)+1)
	}
	out := make([]Block, 0, len(blocks)+1)
	out = append(out, blocks[:at]...)
	out = append(out, b)
	out = append(out, blocks[at:]...)
	return Reindex(out), nil
}

// Delete removes the block at position at and reindexes.
func Delete(blocks []Block, at int) ([]Block, error) {
	if at < 0 || at >= len(blocks) {
		return blocks, lperr.IndexOutOfRange(at, len(blocks))
	}
	out := make([]Block, 0, len(blocks)-1)
	out = append(out, blocks[:at]...)
	out = append(out, blocks[at+1:]...)
	return Reindex(out), nil
}

// Move relocates the block at from so it ends up at position to.
func Move(blocks []Block, from, to int) ([]Block, error) {
	if from < 0 || from >= len(blocks) {
		return blocks, lperr.IndexOutOfRange(from, len(blocks))
	}
	if to < 0 || to >= len(blocks) {
		return blocks, lperr.IndexOutOfRange(to, len(blocks))
	}
	moved := blocks[from]
	rest := make([]Block, 0, len(blocks)-1)
	rest = append(rest, blocks[:from]...)
	rest = append(rest, blocks[from+1:]...)
	out := make([]Block, 0, len(blocks))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	return Reindex(out), nil
}
