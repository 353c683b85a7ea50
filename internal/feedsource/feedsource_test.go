package feedsource

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bilidyn/internal/model"
)

type mockHTTP struct {
	status  int
	body    string
	lastReq *http.Request
}

func (m *mockHTTP) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

const dynamicsFixture = `{
  "code": 0,
  "message": "0",
  "data": {
    "items": [
      {
        "id_str": "d3",
        "type": "DYNAMIC_TYPE_AV",
        "modules": {
          "module_author": {"name": "creator", "face": "https://cdn/a.png", "pendant": {"image": "https://cdn/p.png"}},
          "module_dynamic": {
            "desc": {"text": "new upload", "rich_text_nodes": [{"type": "RICH_TEXT_NODE_TYPE_TEXT", "text": "new upload"}]},
            "major": {"archive": {"title": "a video", "bvid": "BV1", "cover": "https://cdn/c.jpg"}}
          }
        }
      },
      {
        "id_str": "d2",
        "type": "DYNAMIC_TYPE_FORWARD",
        "modules": {
          "module_author": {"name": "reposter", "face": "", "pendant": {}},
          "module_dynamic": {"desc": {"text": "look"}}
        },
        "orig": {
          "id_str": "d1",
          "type": "DYNAMIC_TYPE_DRAW",
          "modules": {
            "module_author": {"name": "painter", "face": "", "pendant": {}},
            "module_dynamic": {
              "topic": {"name": "daily", "jump_url": "//search/daily"},
              "major": {"opus": {"title": "", "summary": {"text": "pics"}, "jump_url": "//t/d1", "pics": [{"url": "https://cdn/1.jpg"}]}}
            }
          }
        }
      },
      {
        "id_str": "d0",
        "type": "DYNAMIC_TYPE_LIVE_RCMD",
        "modules": {"module_author": {"name": "x", "face": "", "pendant": {}}, "module_dynamic": {}}
      }
    ]
  }
}`

func TestDynamics(t *testing.T) {
	client := &mockHTTP{body: dynamicsFixture}
	c := New(client, "SESSDATA=abc")

	items, err := c.Dynamics(context.Background(), 42)
	if err != nil {
		t.Fatalf("dynamics: %v", err)
	}

	want := []*model.Dynamic{
		{
			ID:   "d3",
			Kind: model.KindVideo,
			Author: model.Author{
				Name: "creator", Avatar: "https://cdn/a.png", Pendant: "https://cdn/p.png",
			},
			Desc: &model.RichText{
				Text:  "new upload",
				Nodes: []model.RichNode{{Type: model.NodeText, Text: "new upload"}},
			},
			Video: &model.VideoMajor{Title: "a video", BVID: "BV1", Cover: "https://cdn/c.jpg"},
		},
		{
			ID:     "d2",
			Kind:   model.KindForward,
			Author: model.Author{Name: "reposter"},
			Desc:   &model.RichText{Text: "look"},
			Forward: &model.Dynamic{
				ID:     "d1",
				Kind:   model.KindDraw,
				Author: model.Author{Name: "painter"},
				Topic:  &model.Topic{Name: "daily", JumpURL: "//search/daily"},
				Opus: &model.OpusMajor{
					Summary: model.RichText{Text: "pics"},
					JumpURL: "//t/d1",
					Pics:    []string{"https://cdn/1.jpg"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	if got := client.lastReq.Header.Get("Cookie"); got != "SESSDATA=abc" {
		t.Errorf("cookie header = %q", got)
	}
}

func TestDynamicsAPIError(t *testing.T) {
	client := &mockHTTP{body: `{"code": -352, "message": "risk control", "data": null}`}
	c := New(client, "")

	if _, err := c.Dynamics(context.Background(), 42); err == nil {
		t.Fatal("api error swallowed")
	}
}

func TestDynamicsHTTPError(t *testing.T) {
	client := &mockHTTP{status: http.StatusTooManyRequests, body: ""}
	c := New(client, "")

	if _, err := c.Dynamics(context.Background(), 42); err == nil {
		t.Fatal("http error swallowed")
	}
}

func TestLiveStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "live",
			body: `{"code": 0, "message": "ok", "data": {"liveStatus": 1, "roomid": 7}}`,
			want: true,
		},
		{
			name: "offline",
			body: `{"code": 0, "message": "ok", "data": {"liveStatus": 0}}`,
			want: false,
		},
		{
			name: "rounds are not live",
			body: `{"code": 0, "message": "ok", "data": {"liveStatus": 2}}`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&mockHTTP{body: tt.body}, "")
			got, err := c.LiveStatus(context.Background(), 42)
			if err != nil {
				t.Fatalf("live status: %v", err)
			}
			if got != tt.want {
				t.Errorf("LiveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
