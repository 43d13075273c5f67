package builder

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"lpforge/internal/dom"
)

// IDSource supplies fresh identifier material: a six-digit part number and
// an alphanumeric class suffix.
type IDSource interface {
	PartNumber() int
	ClassSuffix() string
}

type randomIDs struct{}

// RandomIDs draws identifiers from random UUIDs.
func RandomIDs() IDSource { return randomIDs{} }

func (randomIDs) PartNumber() int {
	u := uuid.New()
	return int(binary.BigEndian.Uint32(u[:4])%900000) + 100000
}

func (randomIDs) ClassSuffix() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")[:8]
}

// Remap records one regenerated identifier pair.
type Remap struct {
	OldID    string `json:"oldId,omitempty"`
	OldClass string `json:"oldClass,omitempty"`
	NewID    string `json:"newId,omitempty"`
	NewClass string `json:"newClass,omitempty"`
}

// usedIDs tracks ids and classes present in one build so fresh values never collide.
type usedIDs struct {
	ids     map[string]bool
	classes map[string]bool
}

func newUsedIDs(doc *goquery.Document) usedIDs {
	u := usedIDs{ids: map[string]bool{}, classes: map[string]bool{}}
	if doc == nil {
		return u
	}
	doc.Find("[id], [class]").Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("id"); ok {
			u.ids[id] = true
		}
		for _, c := range strings.Fields(s.AttrOr("class", "")) {
			u.classes[c] = true
		}
	})
	return u
}

func (u usedIDs) fresh(gen func() string) string {
	for {
		if id := gen(); !u.ids[id] {
			u.ids[id] = true
			return id
		}
	}
}

func (u usedIDs) freshClass(gen func() string) string {
	for {
		if c := gen(); !u.classes[c] {
			u.classes[c] = true
			return c
		}
	}
}

// remapper holds the identifier mapping of a single build call.
type remapper struct {
	pairs   map[string]Remap
	idMap   map[string]string
	classes map[string]string
	order   []Remap
}

func newRemapper() *remapper {
	return &remapper{
		pairs:   map[string]Remap{},
		idMap:   map[string]string{},
		classes: map[string]string{},
	}
}

// regenerate gives every part-id element a fresh id and class suffix. Each
// distinct (old id, old class) pair is allocated once, so repeated pairs get
// identical replacements. Elements carrying only a part class reuse the
// class mapping. Style blocks are rewritten with the same mapping.
func (b *Builder) regenerate(doc *goquery.Document, used usedIDs) []Remap {
	rm := newRemapper()
	doc.Find("[id], [class]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		classAttr := s.AttrOr("class", "")
		oldClass := b.d.PartClass(classAttr)
		idPrefix, isPart := b.d.PartIDPrefix(id)
		switch {
		case isPart:
			key := id + "\x00" + oldClass
			r, ok := rm.pairs[key]
			if !ok {
				r = Remap{OldID: id, OldClass: oldClass}
				r.NewID = used.fresh(func() string { return idPrefix + itoa(b.ids.PartNumber()) })
				if oldClass != "" {
					r.NewClass = rm.classFor(oldClass, b, used)
				}
				rm.pairs[key] = r
				rm.order = append(rm.order, r)
				if _, seen := rm.idMap[id]; !seen {
					rm.idMap[id] = r.NewID
				}
			}
			s.SetAttr("id", r.NewID)
			if oldClass != "" {
				s.SetAttr("class", replaceToken(classAttr, oldClass, r.NewClass))
			}
		case oldClass != "":
			newClass := rm.classFor(oldClass, b, used)
			s.SetAttr("class", replaceToken(classAttr, oldClass, newClass))
		}
	})
	if len(rm.idMap) > 0 || len(rm.classes) > 0 {
		rewriteStyleBlocks(doc, rm.idMap, rm.classes)
	}
	return rm.order
}

// classFor returns the replacement of oldClass, allocating it on first use.
func (rm *remapper) classFor(oldClass string, b *Builder, used usedIDs) string {
	if c, ok := rm.classes[oldClass]; ok {
		return c
	}
	prefix, _ := b.d.PartClassPrefix(oldClass)
	c := used.freshClass(func() string { return prefix + b.ids.ClassSuffix() })
	rm.classes[oldClass] = c
	return c
}

func replaceToken(classAttr, oldToken, newToken string) string {
	fields := strings.Fields(classAttr)
	for i, f := range fields {
		if f == oldToken {
			fields[i] = newToken
		}
	}
	return strings.Join(fields, " ")
}

// rewriteStyleBlocks replaces the text of every style element whose
// selectors mention a remapped id or class.
func rewriteStyleBlocks(doc *goquery.Document, ids, classes map[string]string) {
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		css := dom.NodeRawText(n)
		rewritten := RewriteSelectors(css, ids, classes)
		if rewritten == css {
			return
		}
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: rewritten})
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
