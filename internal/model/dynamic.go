package model

import "strings"

// DynamicKind discriminates the fixed set of dynamic variants.
type DynamicKind string

// Supported dynamic kinds.
const (
	KindVideo   DynamicKind = "video"
	KindDraw    DynamicKind = "draw"
	KindWord    DynamicKind = "word"
	KindArticle DynamicKind = "article"
	KindForward DynamicKind = "forward"
)

// ValidFilterTypes is the set of category tags accepted in a subscription's
// type filter. "lottery" and "live" are tags with no dynamic kind of their
// own: lotteries arrive as draw dynamics, live is the broadcast signal.
var ValidFilterTypes = map[string]bool{
	"forward": true,
	"lottery": true,
	"video":   true,
	"article": true,
	"draw":    true,
	"live":    true,
}

// Author is the author block every dynamic carries.
type Author struct {
	Name    string
	Avatar  string
	Pendant string
}

// RichNodeType discriminates rich-text node variants.
type RichNodeType string

// Rich-text node types.
const (
	NodeText    RichNodeType = "text"
	NodeTopic   RichNodeType = "topic"
	NodeMention RichNodeType = "at"
	NodeEmoji   RichNodeType = "emoji"
)

// RichNode is one segment of a dynamic's body text.
type RichNode struct {
	Type     RichNodeType
	Text     string
	JumpURL  string
	ImageURL string
}

// RichText is body text plus the reference nodes embedded in it.
type RichText struct {
	Text  string
	Nodes []RichNode
}

// Topic is the optional topic a dynamic is attached to.
type Topic struct {
	Name    string
	JumpURL string
}

// VideoMajor is the payload of a video dynamic.
type VideoMajor struct {
	Title string
	BVID  string
	Cover string
}

// OpusMajor is the payload of draw, word and article dynamics.
type OpusMajor struct {
	Title   string
	Summary RichText
	JumpURL string
	Pics    []string
}

// Dynamic is one published item from a tracked owner. Exactly one payload
// field matching Kind is set; Forward wraps the reposted original.
type Dynamic struct {
	ID      string
	Kind    DynamicKind
	Author  Author
	Desc    *RichText
	Topic   *Topic
	Video   *VideoMajor
	Opus    *OpusMajor
	Forward *Dynamic
}

// FilterTag returns the category tag the type filter matches against.
func (d *Dynamic) FilterTag() string {
	switch d.Kind {
	case KindWord:
		// Plain-text dynamics are filtered under the draw tag, the
		// closest category subscribers can name.
		return "draw"
	default:
		return string(d.Kind)
	}
}

// TextContent returns the plain text the regex filter matches against:
// body text plus any title.
func (d *Dynamic) TextContent() string {
	var b strings.Builder
	if d.Desc != nil {
		b.WriteString(d.Desc.Text)
	}
	switch {
	case d.Video != nil:
		b.WriteString(" ")
		b.WriteString(d.Video.Title)
	case d.Opus != nil:
		if d.Opus.Title != "" {
			b.WriteString(" ")
			b.WriteString(d.Opus.Title)
		}
		if d.Opus.Summary.Text != "" {
			b.WriteString(" ")
			b.WriteString(d.Opus.Summary.Text)
		}
	}
	if d.Forward != nil {
		b.WriteString(" ")
		b.WriteString(d.Forward.TextContent())
	}
	return strings.TrimSpace(b.String())
}
