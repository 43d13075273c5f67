package dialect

import "strings"

// Fingerprint guesses a widget type from class names that must all appear
// somewhere in the widget subtree.
type Fingerprint struct {
	Type    string   `json:"type" yaml:"type"`
	Classes []string `json:"classes" yaml:"classes"`
}

// Heuristics are the empirically chosen thresholds and keyword lists used by
// classification and CTA judgment. They were tuned against one site's design
// system and are expected to misfire on others, so every value is overridable.
type Heuristics struct {
	HeadingMaxChars     int           `json:"heading_max_chars,omitempty" yaml:"heading_max_chars,omitempty"`
	HeadingMinFontPx    float64       `json:"heading_min_font_px,omitempty" yaml:"heading_min_font_px,omitempty"`
	AlertColors         []string      `json:"alert_colors,omitempty" yaml:"alert_colors,omitempty"`
	FinePrintMaxPx      float64       `json:"fine_print_max_px,omitempty" yaml:"fine_print_max_px,omitempty"`
	FooterKeywords      []string      `json:"footer_keywords,omitempty" yaml:"footer_keywords,omitempty"`
	QuizKeywords        []string      `json:"quiz_keywords,omitempty" yaml:"quiz_keywords,omitempty"`
	ReviewClassKeywords []string      `json:"review_class_keywords,omitempty" yaml:"review_class_keywords,omitempty"`
	ReviewTextKeywords  []string      `json:"review_text_keywords,omitempty" yaml:"review_text_keywords,omitempty"`
	ComparisonKeywords  []string      `json:"comparison_keywords,omitempty" yaml:"comparison_keywords,omitempty"`
	WidgetFingerprints  []Fingerprint `json:"widget_fingerprints,omitempty" yaml:"widget_fingerprints,omitempty"`
	FlashWidgetTypes    []string      `json:"flash_widget_types,omitempty" yaml:"flash_widget_types,omitempty"`
	DisclaimerMaxItems  int           `json:"disclaimer_max_items,omitempty" yaml:"disclaimer_max_items,omitempty"`
	DisclaimerMaxChars  int           `json:"disclaimer_max_chars,omitempty" yaml:"disclaimer_max_chars,omitempty"`
	ReviewLeadChars     int           `json:"review_lead_chars,omitempty" yaml:"review_lead_chars,omitempty"`
	CandidateMinChars   int           `json:"candidate_min_chars,omitempty" yaml:"candidate_min_chars,omitempty"`
	CandidateMaxChars   int           `json:"candidate_max_chars,omitempty" yaml:"candidate_max_chars,omitempty"`
	CandidateLimit      int           `json:"candidate_limit,omitempty" yaml:"candidate_limit,omitempty"`
}

// Widget types produced by the fingerprinting in the block classifier.
const (
	WidgetFlash       = "flash"
	WidgetMarginReset = "margin_reset"
	WidgetDisclaimer  = "disclaimer"
	WidgetCustom      = "custom"
)

// DefaultHeuristics returns the reference thresholds: 50 characters and 21px
// for headings, 12px for fine print.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		HeadingMaxChars:  50,
		HeadingMinFontPx: 21,
		AlertColors: []string{
			"red", "#f00", "#ff0000", "#e60012", "#ff0033", "#e50012", "#dd0000",
			"rgb(255,0,0)",
		},
		FinePrintMaxPx: 12,
		FooterKeywords: []string{
			"privacy", "policy", "terms", "tokushoho", "law", "company", "contact", "unsubscribe",
			"プライバシー", "個人情報", "利用規約", "特定商取引", "特商法", "会社概要", "運営会社", "お問い合わせ",
		},
		QuizKeywords:        []string{"quiz", "question", "questionnaire", "shindan", "diagnosis", "choice"},
		ReviewClassKeywords: []string{"review", "testimonial", "voice", "kuchikomi", "comment"},
		ReviewTextKeywords:  []string{"口コミ", "レビュー", "お客様の声", "利用者の声", "review", "testimonial"},
		ComparisonKeywords:  []string{"comparison", "compare", "ranking", "hikaku", "比較", "ランキング"},
		WidgetFingerprints: []Fingerprint{
			{Type: WidgetFlash, Classes: []string{"flash", "flash-text"}},
			{Type: WidgetFlash, Classes: []string{"blink", "attention"}},
			{Type: "countdown", Classes: []string{"countdown", "countdown-timer"}},
			{Type: "accordion", Classes: []string{"accordion", "accordion-body"}},
		},
		FlashWidgetTypes:   []string{WidgetFlash},
		DisclaimerMaxItems: 3,
		DisclaimerMaxChars: 120,
		ReviewLeadChars:    30,
		CandidateMinChars:  2,
		CandidateMaxChars:  30,
		CandidateLimit:     20,
	}
}

// WithDefaults fills every zero field from DefaultHeuristics.
func (h Heuristics) WithDefaults() Heuristics {
	def := DefaultHeuristics()
	if h.HeadingMaxChars <= 0 {
		h.HeadingMaxChars = def.HeadingMaxChars
	}
	if h.HeadingMinFontPx <= 0 {
		h.HeadingMinFontPx = def.HeadingMinFontPx
	}
	if len(h.AlertColors) == 0 {
		h.AlertColors = def.AlertColors
	}
	if h.FinePrintMaxPx <= 0 {
		h.FinePrintMaxPx = def.FinePrintMaxPx
	}
	if len(h.FooterKeywords) == 0 {
		h.FooterKeywords = def.FooterKeywords
	}
	if len(h.QuizKeywords) == 0 {
		h.QuizKeywords = def.QuizKeywords
	}
	if len(h.ReviewClassKeywords) == 0 {
		h.ReviewClassKeywords = def.ReviewClassKeywords
	}
	if len(h.ReviewTextKeywords) == 0 {
		h.ReviewTextKeywords = def.ReviewTextKeywords
	}
	if len(h.ComparisonKeywords) == 0 {
		h.ComparisonKeywords = def.ComparisonKeywords
	}
	if len(h.WidgetFingerprints) == 0 {
		h.WidgetFingerprints = def.WidgetFingerprints
	}
	if len(h.FlashWidgetTypes) == 0 {
		h.FlashWidgetTypes = def.FlashWidgetTypes
	}
	if h.DisclaimerMaxItems <= 0 {
		h.DisclaimerMaxItems = def.DisclaimerMaxItems
	}
	if h.DisclaimerMaxChars <= 0 {
		h.DisclaimerMaxChars = def.DisclaimerMaxChars
	}
	if h.ReviewLeadChars <= 0 {
		h.ReviewLeadChars = def.ReviewLeadChars
	}
	if h.CandidateMinChars <= 0 {
		h.CandidateMinChars = def.CandidateMinChars
	}
	if h.CandidateMaxChars <= 0 {
		h.CandidateMaxChars = def.CandidateMaxChars
	}
	if h.CandidateLimit <= 0 {
		h.CandidateLimit = def.CandidateLimit
	}
	return h
}

// IsAlertColor reports whether a declared CSS color is on the alert-red allow-list.
// Comparison ignores case and whitespace.
func (h Heuristics) IsAlertColor(color string) bool {
	norm := normalizeColor(color)
	for _, c := range h.AlertColors {
		if normalizeColor(c) == norm {
			return true
		}
	}
	return false
}

// IsFlashWidget reports whether a widget type starts a new section.
func (h Heuristics) IsFlashWidget(widgetType string) bool {
	for _, t := range h.FlashWidgetTypes {
		if t == widgetType {
			return true
		}
	}
	return false
}

func normalizeColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	c = strings.TrimSuffix(c, "!important")
	return strings.Join(strings.Fields(c), "")
}

// ContainsAny reports whether s contains any of the keywords, case-insensitively.
func ContainsAny(s string, keywords []string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
