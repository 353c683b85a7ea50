package feedsource

import "bilidyn/internal/model"

// Upstream dynamic type tags.
const (
	tagVideo   = "DYNAMIC_TYPE_AV"
	tagDraw    = "DYNAMIC_TYPE_DRAW"
	tagWord    = "DYNAMIC_TYPE_WORD"
	tagArticle = "DYNAMIC_TYPE_ARTICLE"
	tagForward = "DYNAMIC_TYPE_FORWARD"
)

// Upstream rich-text node type tags.
const (
	nodeTagTopic   = "RICH_TEXT_NODE_TYPE_TOPIC"
	nodeTagMention = "RICH_TEXT_NODE_TYPE_AT"
	nodeTagEmoji   = "RICH_TEXT_NODE_TYPE_EMOJI"
)

type wireItem struct {
	IDStr   string      `json:"id_str"`
	Type    string      `json:"type"`
	Modules wireModules `json:"modules"`
	Orig    *wireItem   `json:"orig"`
}

type wireModules struct {
	Author  wireAuthor  `json:"module_author"`
	Dynamic wireDynamic `json:"module_dynamic"`
}

type wireAuthor struct {
	Name    string `json:"name"`
	Face    string `json:"face"`
	Pendant struct {
		Image string `json:"image"`
	} `json:"pendant"`
}

type wireDynamic struct {
	Desc  *wireRich  `json:"desc"`
	Topic *wireTopic `json:"topic"`
	Major *wireMajor `json:"major"`
}

type wireRich struct {
	Text  string     `json:"text"`
	Nodes []wireNode `json:"rich_text_nodes"`
}

type wireNode struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	JumpURL string `json:"jump_url"`
	Emoji   *struct {
		IconURL string `json:"icon_url"`
	} `json:"emoji"`
}

type wireTopic struct {
	Name    string `json:"name"`
	JumpURL string `json:"jump_url"`
}

type wireMajor struct {
	Archive *wireArchive `json:"archive"`
	Opus    *wireOpus    `json:"opus"`
}

type wireArchive struct {
	Title string `json:"title"`
	BVID  string `json:"bvid"`
	Cover string `json:"cover"`
}

type wireOpus struct {
	Title   string   `json:"title"`
	Summary wireRich `json:"summary"`
	JumpURL string   `json:"jump_url"`
	Pics    []struct {
		URL string `json:"url"`
	} `json:"pics"`
}

// toModel converts one upstream item into the domain union. Unsupported
// dynamic types map to nil and are skipped.
func (w *wireItem) toModel() *model.Dynamic {
	var kind model.DynamicKind
	switch w.Type {
	case tagVideo:
		kind = model.KindVideo
	case tagDraw:
		kind = model.KindDraw
	case tagWord:
		kind = model.KindWord
	case tagArticle:
		kind = model.KindArticle
	case tagForward:
		kind = model.KindForward
	default:
		return nil
	}

	item := &model.Dynamic{
		ID:   w.IDStr,
		Kind: kind,
		Author: model.Author{
			Name:    w.Modules.Author.Name,
			Avatar:  w.Modules.Author.Face,
			Pendant: w.Modules.Author.Pendant.Image,
		},
		Desc:  w.Modules.Dynamic.Desc.toModel(),
		Topic: w.Modules.Dynamic.Topic.toModel(),
	}

	if major := w.Modules.Dynamic.Major; major != nil {
		if major.Archive != nil {
			item.Video = &model.VideoMajor{
				Title: major.Archive.Title,
				BVID:  major.Archive.BVID,
				Cover: major.Archive.Cover,
			}
		}
		if major.Opus != nil {
			opus := &model.OpusMajor{
				Title:   major.Opus.Title,
				Summary: *major.Opus.Summary.toRichText(),
				JumpURL: major.Opus.JumpURL,
			}
			for _, pic := range major.Opus.Pics {
				opus.Pics = append(opus.Pics, pic.URL)
			}
			item.Opus = opus
		}
	}

	if kind == model.KindForward && w.Orig != nil {
		item.Forward = w.Orig.toModel()
	}
	return item
}

func (w *wireRich) toModel() *model.RichText {
	if w == nil {
		return nil
	}
	return w.toRichText()
}

func (w *wireRich) toRichText() *model.RichText {
	rt := &model.RichText{Text: w.Text}
	for _, n := range w.Nodes {
		node := model.RichNode{Text: n.Text, JumpURL: n.JumpURL}
		switch n.Type {
		case nodeTagTopic:
			node.Type = model.NodeTopic
		case nodeTagMention:
			node.Type = model.NodeMention
		case nodeTagEmoji:
			node.Type = model.NodeEmoji
			if n.Emoji != nil {
				node.ImageURL = n.Emoji.IconURL
			}
		default:
			node.Type = model.NodeText
		}
		rt.Nodes = append(rt.Nodes, node)
	}
	return rt
}

func (w *wireTopic) toModel() *model.Topic {
	if w == nil || w.Name == "" {
		return nil
	}
	return &model.Topic{Name: w.Name, JumpURL: w.JumpURL}
}
