package builder

import (
	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/block"
	"lpforge/internal/dialect"
)

// substituteImages swaps image sources found in imageMap. Inside a picture
// every format variant is pointed at the single replacement.
func (b *Builder) substituteImages(doc *goquery.Document, imageMap map[string]string) int {
	replaced := 0
	doc.Find("picture").Each(func(_ int, pic *goquery.Selection) {
		img := pic.Find("img").First()
		newSrc, ok := imageMap[block.ImageSource(img, b.d)]
		if !ok || img.Length() == 0 {
			return
		}
		b.setImageSource(img, newSrc)
		pic.Find("source").Each(func(_ int, src *goquery.Selection) {
			src.SetAttr(b.d.LazySrcsetAttr, newSrc)
			if _, ok := src.Attr("srcset"); ok {
				src.SetAttr("srcset", newSrc)
			}
		})
		replaced++
	})
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if img.ParentsFiltered("picture").Length() > 0 {
			return
		}
		newSrc, ok := imageMap[block.ImageSource(img, b.d)]
		if !ok {
			return
		}
		b.setImageSource(img, newSrc)
		replaced++
	})
	return replaced
}

// setImageSource always writes the lazy attribute and rewrites an eager src
// only where one was present.
func (b *Builder) setImageSource(img *goquery.Selection, newSrc string) {
	img.SetAttr(b.d.LazySrcAttr, newSrc)
	if _, ok := img.Attr("src"); ok {
		img.SetAttr("src", newSrc)
	}
}

// normalizeLazy applies the dialect's lazy-load conventions to every image
// and video.
func (b *Builder) normalizeLazy(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		img.AddClass(b.d.LazyClass)
		if _, ok := img.Attr(b.d.LazySrcAttr); ok {
			return
		}
		if src := img.AttrOr("src", ""); src != "" {
			img.SetAttr(b.d.LazySrcAttr, src)
		}
	})
	doc.Find("video").Each(func(_ int, video *goquery.Selection) {
		for _, c := range b.d.VideoClasses {
			video.AddClass(c)
		}
		for _, a := range dialect.VideoPlaybackAttrs {
			video.SetAttr(a.Key, a.Val)
		}
		video.Find("source").Each(func(_ int, src *goquery.Selection) {
			if _, ok := src.Attr(b.d.LazySrcAttr); ok {
				return
			}
			if eager, ok := src.Attr("src"); ok {
				src.SetAttr(b.d.LazySrcAttr, eager)
				src.RemoveAttr("src")
			}
		})
	})
}
