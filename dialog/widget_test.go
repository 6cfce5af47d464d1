package dialog

import (
	"context"
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		in     string
		widget string
		item   string
		ok     bool
	}{
		{"d:publish", "publish", "", true},
		{"d:pick_category:cat-7", "pick_category", "cat-7", true},
		{"d:pick:with:colons", "pick", "with:colons", true},
		{"publish", "", "", false},
		{"d:", "", "", false},
	}
	for _, tc := range cases {
		widget, item, ok := parseCallbackData(tc.in)
		if widget != tc.widget || item != tc.item || ok != tc.ok {
			t.Fatalf("parseCallbackData(%q) = (%q, %q, %v)", tc.in, widget, item, ok)
		}
	}
}

type previewData struct {
	CanPublish bool
}

func TestKeyboardVisibilityAndSelectColumns(t *testing.T) {
	screen := &Screen{
		State:    "preview",
		Template: Tmpl("preview", "x"),
		Widgets: []Widget{
			&Button{ID: "publish", Label: "Опубликовать", When: func(data any) bool {
				return data.(previewData).CanPublish
			}},
			&Button{ID: "back", Label: "Назад"},
			&Select{ID: "pick", Columns: 2, Items: func(data any) []SelectItem {
				return []SelectItem{{ID: "1", Label: "a"}, {ID: "2", Label: "b"}, {ID: "3", Label: "c"}}
			}},
		},
	}
	d, err := NewDialog("prev", "preview", screen)
	if err != nil {
		t.Fatalf("NewDialog() error = %v", err)
	}

	reg := NewRegistry()
	if err := reg.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	states, err := state.NewStore(state.StoreOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	rt, err := NewRuntime(Options{Registry: reg, Transport: &fakeTransport{}, States: states, EntryDialog: "prev"})
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}

	sess := rt.sessionFor(context.Background(), 1)
	frame := &Frame{DialogID: "prev", State: "preview"}
	sess.push(frame)
	c := &Ctx{Context: context.Background(), rt: rt, sess: sess}

	kb := rt.keyboard(c, frame, screen, previewData{CanPublish: false})
	// publish hidden, back shown, select 3 items over 2 columns = 2 rows.
	if len(kb) != 3 {
		t.Fatalf("keyboard rows = %d, want 3", len(kb))
	}
	if kb[0][0].Text != "Назад" {
		t.Fatalf("first row = %+v", kb[0])
	}
	if len(kb[1]) != 2 || len(kb[2]) != 1 {
		t.Fatalf("select rows = %d,%d want 2,1", len(kb[1]), len(kb[2]))
	}
	if kb[1][0].CallbackData != "d:pick:1" {
		t.Fatalf("select callback = %q", kb[1][0].CallbackData)
	}

	kb = rt.keyboard(c, frame, screen, previewData{CanPublish: true})
	if len(kb) != 4 || kb[0][0].CallbackData != "d:publish" {
		t.Fatalf("keyboard with publish visible = %+v", kb)
	}
}

func TestCheckboxDefaultAndSet(t *testing.T) {
	cb := &Checkbox{ID: "vk", Label: "ВКонтакте", Default: true}
	f := &Frame{}
	if !cb.IsChecked(f) {
		t.Fatalf("default not applied")
	}
	cb.SetChecked(f, false)
	if cb.IsChecked(f) {
		t.Fatalf("SetChecked(false) ignored")
	}
}

var _ transport.Transport = (*fakeTransport)(nil)
