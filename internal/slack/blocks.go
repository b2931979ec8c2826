package slack

// Block kinds used in report messages.
const (
	BlockTypeHeader  = "header"
	BlockTypeContext = "context"
	BlockTypeDivider = "divider"
	BlockTypeSection = "section"

	textTypePlain    = "plain_text"
	textTypeMarkdown = "mrkdwn"
)

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji *bool  `json:"emoji,omitempty"`
}

// Button is a Block Kit link button accessory.
type Button struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
	URL  string `json:"url"`
}

// Block is one renderable unit of a message. The Type field tags the variant;
// only the fields that variant uses are populated.
type Block struct {
	Type      string  `json:"type"`
	Text      *Text   `json:"text,omitempty"`
	Elements  []Text  `json:"elements,omitempty"`
	Accessory *Button `json:"accessory,omitempty"`
}

// HeaderBlock builds a plain-text header block.
func HeaderBlock(text string) Block {
	noEmoji := false
	return Block{
		Type: BlockTypeHeader,
		Text: &Text{Type: textTypePlain, Text: text, Emoji: &noEmoji},
	}
}

// ContextBlock builds a context block with one markdown element.
func ContextBlock(text string) Block {
	return Block{
		Type:     BlockTypeContext,
		Elements: []Text{{Type: textTypeMarkdown, Text: text}},
	}
}

// DividerBlock builds a divider.
func DividerBlock() Block {
	return Block{Type: BlockTypeDivider}
}

// SectionBlock builds a markdown section.
func SectionBlock(markdown string) Block {
	return Block{
		Type: BlockTypeSection,
		Text: &Text{Type: textTypeMarkdown, Text: markdown},
	}
}

// LinkSectionBlock builds a markdown section with a link button accessory.
func LinkSectionBlock(markdown, label, url string) Block {
	block := SectionBlock(markdown)
	block.Accessory = &Button{
		Type: "button",
		Text: Text{Type: textTypePlain, Text: label},
		URL:  url,
	}
	return block
}
