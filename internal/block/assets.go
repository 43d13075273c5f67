package block

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

// ExtractAssets returns the image and video assets under sel in document
// order. Lazy-load attributes win over eager ones so pages that were
// scraped before and after lazy-loading kicked in resolve the same source.
func ExtractAssets(sel *goquery.Selection, d dialect.Compiled) []AssetRef {
	out := []AssetRef{}
	selfAndFind(sel, "picture, img, video").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "picture":
			if ref, ok := pictureAsset(s, d); ok {
				out = append(out, ref)
			}
		case "img":
			if s.ParentsFiltered("picture").Length() > 0 {
				return
			}
			if src := ImageSource(s, d); src != "" {
				out = append(out, AssetRef{
					Kind:       AssetImage,
					PrimarySrc: src,
					Width:      intAttr(s, "width"),
					Height:     intAttr(s, "height"),
				})
			}
		case "video":
			out = append(out, videoAsset(s, d))
		}
	})
	return out
}

// ImageSource resolves an img element's current source, lazy attribute first.
func ImageSource(img *goquery.Selection, d dialect.Compiled) string {
	return dom.FirstAttr(img, d.LazySrcAttr, "src")
}

// VideoSource resolves the source of the first video under sel: the first
// nested source's lazy attribute, then its eager src, then the video's own
// attributes.
func VideoSource(sel *goquery.Selection, d dialect.Compiled) string {
	video := selfAndFind(sel, "video").First()
	if video.Length() == 0 {
		return ""
	}
	if src := dom.FirstAttr(video.Find("source").First(), d.LazySrcAttr, "src"); src != "" {
		return src
	}
	return dom.FirstAttr(video, d.LazySrcAttr, "src")
}

func pictureAsset(picture *goquery.Selection, d dialect.Compiled) (AssetRef, bool) {
	img := picture.Find("img").First()
	ref := AssetRef{
		Kind:       AssetImage,
		PrimarySrc: ImageSource(img, d),
		Width:      intAttr(img, "width"),
		Height:     intAttr(img, "height"),
	}
	picture.Find("source").Each(func(_ int, src *goquery.Selection) {
		value := dom.FirstAttr(src, d.LazySrcsetAttr, "srcset", d.LazySrcAttr, "src")
		if u := firstSrcsetURL(value); u != "" {
			ref.Variants = append(ref.Variants, Variant{Type: src.AttrOr("type", ""), Src: u})
		}
	})
	if ref.PrimarySrc == "" && len(ref.Variants) == 0 {
		return ref, false
	}
	return ref, true
}

func videoAsset(video *goquery.Selection, d dialect.Compiled) AssetRef {
	ref := AssetRef{
		Kind:       AssetVideo,
		PrimarySrc: VideoSource(video, d),
		Width:      intAttr(video, "width"),
		Height:     intAttr(video, "height"),
	}
	video.Find("source").Each(func(i int, src *goquery.Selection) {
		if i == 0 {
			return
		}
		if u := dom.FirstAttr(src, d.LazySrcAttr, "src"); u != "" {
			ref.Variants = append(ref.Variants, Variant{Type: src.AttrOr("type", ""), Src: u})
		}
	})
	return ref
}

// firstSrcsetURL returns the URL of the first srcset candidate.
func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func intAttr(s *goquery.Selection, key string) int {
	v := strings.TrimSuffix(strings.TrimSpace(s.AttrOr(key, "")), "px")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// selfAndFind matches selector against sel itself, then its descendants,
// keeping document order.
func selfAndFind(sel *goquery.Selection, selector string) *goquery.Selection {
	return sel.Filter(selector).AddSelection(sel.Find(selector))
}
