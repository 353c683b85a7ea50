// Package render builds presentation data for dynamics and drives the
// HTML-to-image backend with bounded retries.
package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"bilidyn/internal/model"
)

// maxImages caps the image grid of a single card.
const maxImages = 9

// Model is the uniform structure the card templates consume, independent
// of the originating dynamic's variant.
type Model struct {
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar"`
	Pendant   string   `json:"pendant"`
	Text      string   `json:"text"`
	ImageURLs []string `json:"image_urls"`
	QRCode    string   `json:"qrcode"`
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Forward   *Model   `json:"forward"`
	Banner    string   `json:"banner"`
	UID       string   `json:"uid"`
}

// BuildRenderData maps one dynamic onto the template model. For forwards
// the wrapped dynamic is built recursively with isForward set, which
// suppresses the deep link and QR code at the nested level.
func (r *Renderer) BuildRenderData(item *model.Dynamic, isForward bool) *Model {
	m := &Model{
		Name:      item.Author.Name,
		Avatar:    item.Author.Avatar,
		Pendant:   item.Author.Pendant,
		Type:      string(item.Kind),
		Banner:    r.banner,
		ImageURLs: []string{},
	}

	switch item.Kind {
	case model.KindVideo:
		if item.Video != nil {
			m.Title = item.Video.Title
			m.ImageURLs = []string{item.Video.Cover}
			rich := renderRichText(item.Desc, item.Topic)
			m.Text = "投稿了新视频<br>" + rich
			if !isForward {
				r.attachLink(m, "https://www.bilibili.com/video/"+item.Video.BVID)
			}
		}
	case model.KindDraw, model.KindWord, model.KindArticle:
		if item.Opus != nil {
			m.Title = item.Opus.Title
			m.Text = renderRichText(&item.Opus.Summary, item.Topic)
			if n := len(item.Opus.Pics); n > 0 {
				if n > maxImages {
					n = maxImages
				}
				m.ImageURLs = append([]string{}, item.Opus.Pics[:n]...)
			}
			if len(m.ImageURLs) == 0 && r.fallbackImage && r.logo != "" {
				m.ImageURLs = []string{r.logo}
			}
			if !isForward {
				r.attachLink(m, absoluteURL(item.Opus.JumpURL))
			}
		} else {
			m.Text = renderRichText(item.Desc, item.Topic)
			if !isForward {
				r.attachLink(m, "https://t.bilibili.com/"+item.ID)
			}
		}
	case model.KindForward:
		m.Text = renderRichText(item.Desc, item.Topic)
		if item.Forward != nil {
			m.Forward = r.BuildRenderData(item.Forward, true)
		}
		if !isForward {
			r.attachLink(m, "https://t.bilibili.com/"+item.ID)
		}
	}
	return m
}

// attachLink sets the deep link and its scannable code. A QR encoding
// failure degrades to a link-only card.
func (r *Renderer) attachLink(m *Model, url string) {
	if url == "" {
		return
	}
	m.URL = url
	code, err := qrToDataURI(url)
	if err != nil {
		r.log.Warn("encode qrcode", "url", url, "error", err)
		return
	}
	m.QRCode = code
}

func qrToDataURI(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Low, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// renderRichText resolves the body's embedded references against the topic
// table into the HTML fragment the templates consume.
func renderRichText(desc *model.RichText, topic *model.Topic) string {
	var b strings.Builder
	if topic != nil && topic.Name != "" {
		fmt.Fprintf(&b, "<a href='%s'># %s</a><br>", topic.JumpURL, html.EscapeString(topic.Name))
	}
	if desc == nil {
		return b.String()
	}
	if len(desc.Nodes) == 0 {
		b.WriteString(html.EscapeString(desc.Text))
		return b.String()
	}
	for _, node := range desc.Nodes {
		switch node.Type {
		case model.NodeTopic, model.NodeMention:
			fmt.Fprintf(&b, "<a href='%s'>%s</a>", node.JumpURL, html.EscapeString(node.Text))
		case model.NodeEmoji:
			fmt.Fprintf(&b, "<img src='%s'>", node.ImageURL)
		default:
			b.WriteString(html.EscapeString(node.Text))
		}
	}
	return b.String()
}

// imageToBase64 inlines a local image file as a data URI. Missing files
// return the empty string so cards render without the optional asset.
func imageToBase64(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	mime := "image/png"
	if strings.HasSuffix(strings.ToLower(path), ".jpg") || strings.HasSuffix(strings.ToLower(path), ".jpeg") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// absoluteURL upgrades the upstream's protocol-relative jump URLs.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
