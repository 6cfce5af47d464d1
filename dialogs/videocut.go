package dialogs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/textutil"
)

// Video cut dialog states.
const (
	stateCutList        dialog.State = "cut_list"
	stateCutURL         dialog.State = "cut_url"
	stateCutPreview     dialog.State = "cut_preview"
	stateCutTitle       dialog.State = "cut_title"
	stateCutDescription dialog.State = "cut_description"
	stateCutTags        dialog.State = "cut_tags"
	stateCutSuccess     dialog.State = "cut_success"
)

type cutData struct {
	Cuts   []content.VideoCut
	Index  int
	Sess   *editor.VideoCutSession
	Flags  editor.Flags
	YTLink string
}

func cdata(c *dialog.Ctx) *cutData {
	return c.Frame().Data.(*cutData)
}

func (d *cutData) current() *content.VideoCut {
	if d.Index < 0 || d.Index >= len(d.Cuts) {
		return nil
	}
	return &d.Cuts[d.Index]
}

func newVideoCutDialog(deps Deps) (*dialog.Dialog, error) {
	type listView struct {
		Count      int
		Word       string
		Empty      bool
		Generating int
		Items      []dialog.SelectItem
	}

	listScreen := &dialog.Screen{
		State: stateCutList,
		OnEnter: func(c *dialog.Ctx) error {
			d := cdata(c)
			d.Sess = nil
			d.Index = -1
			return nil
		},
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			cuts, err := deps.Content.VideoCuts(c.Context, c.User.OrganizationID)
			if err != nil {
				return nil, err
			}
			view := listView{}
			d.Cuts = d.Cuts[:0]
			for _, cut := range cuts {
				if cut.Status == content.StatusModeration && cut.Name == "" {
					// Still being generated on the server side.
					view.Generating++
					continue
				}
				if cut.Status == content.StatusDraft || cut.Status == content.StatusRejected ||
					cut.Status == content.StatusModeration {
					d.Cuts = append(d.Cuts, cut)
				}
			}
			view.Count = len(d.Cuts)
			view.Word = textutil.VideoWord(len(d.Cuts))
			view.Empty = len(d.Cuts) == 0
			for i, cut := range d.Cuts {
				label := fmt.Sprintf("%d. %s", i+1, textutil.Truncate(cut.Name, 40))
				if cut.Status == content.StatusRejected {
					label = "❌ " + label
				}
				view.Items = append(view.Items, dialog.SelectItem{ID: strconv.Itoa(i), Label: label})
			}
			return view, nil
		},
		Template: dialog.Tmpl("cut_list", `<b>Видео-нарезки</b>
{{if .Empty}}
Нарезок пока нет. Пришлите ссылку на YouTube — мы нарежем видео на короткие ролики.
{{- else}}
У вас {{.Count}} {{.Word}} в работе.
{{- end}}
{{- if gt .Generating 0}}

⏳ Ещё {{.Generating}} в обработке.
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Select{
				ID: "pick", Columns: 1,
				Items: func(data any) []dialog.SelectItem { return data.(listView).Items },
				OnSelect: func(c *dialog.Ctx, itemID string) error {
					d := cdata(c)
					i, err := strconv.Atoi(itemID)
					if err != nil || i < 0 || i >= len(d.Cuts) {
						c.Toast("Эта нарезка уже недоступна")
						return nil
					}
					d.Index = i
					d.Sess = editor.NewVideoCutSession(d.Cuts[i])
					return c.SwitchTo(stateCutPreview)
				},
			},
			&dialog.Button{
				ID: "create", Label: "➕ Новая нарезка",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutURL) },
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	type flagView struct{ Flag string }

	urlScreen := &dialog.Screen{
		State: stateCutURL,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			flag := flagText(d.Flags)
			d.Flags.Clear()
			return flagView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("cut_url", `<b>Новая нарезка</b>

Пришлите ссылку на видео YouTube.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "youtube_url",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := cdata(c)
					d.Flags.Clear()
					url := strings.TrimSpace(text)
					if !d.Flags.CheckYouTubeURL(url) {
						return c.Show()
					}
					stop := c.StartAction("typing")
					defer stop()
					if err := deps.Content.GenerateVideoCut(c.Context, c.User.OrganizationID, c.User.AccountID, url); err != nil {
						return err
					}
					c.Toast("Видео в обработке")
					return c.SwitchTo(stateCutList, dialog.ShowSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutList) },
			},
		},
	}

	type previewView struct {
		Title       string
		Description string
		Tags        string
		HasChanges  bool
		CanUndo     bool
		Flag        string
	}

	previewScreen := &dialog.Screen{
		State: stateCutPreview,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return previewView{
				Title:       d.Sess.Working.Title,
				Description: d.Sess.Working.Description,
				Tags:        strings.Join(d.Sess.Working.Tags, ", "),
				HasChanges:  d.Sess.HasChanges(),
				CanUndo:     d.Sess.HasSnapshot(),
				Flag:        flag,
			}, nil
		},
		Template: dialog.Tmpl("cut_preview", `<b>{{.Title}}</b>

{{.Description}}
{{- if .Tags}}

🏷 {{.Tags}}
{{- end}}
{{- if .HasChanges}}

<i>Есть несохранённые изменения.</i>
{{- end}}
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "edit_title", Label: "✏️ Название",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutTitle) },
			},
			&dialog.Button{
				ID: "edit_description", Label: "📄 Описание",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutDescription) },
			},
			&dialog.Button{
				ID: "edit_tags", Label: "🏷 Теги",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutTags) },
			},
			&dialog.Button{
				ID: "undo", Label: "↩️ Отменить правку",
				When: func(data any) bool { return data.(previewView).CanUndo },
				OnClick: func(c *dialog.Ctx) error {
					if err := cdata(c).Sess.RestorePrevious(); err != nil {
						c.Toast("Нечего отменять")
						return nil
					}
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "save", Label: "💾 Сохранить",
				When: func(data any) bool { return data.(previewView).HasChanges },
				OnClick: func(c *dialog.Ctx) error {
					d := cdata(c)
					cut := d.current()
					if cut == nil {
						return errors.New("dialogs: no current video cut")
					}
					d.Sess.Working.ApplyTo(cut)
					if err := deps.Content.UpdateVideoCut(c.Context, *cut); err != nil {
						return err
					}
					d.Sess.Original = d.Sess.Working
					d.Sess.Prev = nil
					c.Toast("Сохранено")
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "publish", Label: "🚀 Опубликовать на YouTube",
				OnClick: func(c *dialog.Ctx) error {
					d := cdata(c)
					cut := d.current()
					if cut == nil {
						return errors.New("dialogs: no current video cut")
					}
					stop := c.StartAction("typing")
					defer stop()
					d.Sess.Working.YouTubeSelected = true
					d.Sess.Working.ApplyTo(cut)
					if err := deps.Content.UpdateVideoCut(c.Context, *cut); err != nil {
						return err
					}
					if err := deps.Content.ModerateVideoCut(c.Context, cut.ID, content.StatusApproved, ""); err != nil {
						return err
					}
					published, err := deps.Content.PublishVideoCut(c.Context, cut.ID)
					if err != nil {
						return err
					}
					d.YTLink = published.YouTubeLink
					return c.SwitchTo(stateCutSuccess, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ К списку",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutList) },
			},
		},
	}

	titleScreen := &dialog.Screen{
		State: stateCutTitle,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return flagView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("cut_title", `<b>Название ролика</b>

Пришлите новое название (5–500 символов).
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "title",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := cdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckTitle(text) {
						return c.Show()
					}
					d.Sess.SetTitle(text)
					return c.SwitchTo(stateCutPreview)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutPreview) },
			},
		},
	}

	descriptionScreen := &dialog.Screen{
		State: stateCutDescription,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return flagView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("cut_description", `<b>Описание ролика</b>

Пришлите новое описание (5–2200 символов).
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "description",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := cdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckDescription(text) {
						return c.Show()
					}
					d.Sess.SetDescription(text)
					return c.SwitchTo(stateCutPreview)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutPreview) },
			},
		},
	}

	tagsScreen := &dialog.Screen{
		State: stateCutTags,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := cdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return flagView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("cut_tags", `<b>Теги</b>

Пришлите теги через запятую (не больше 15).
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "tags",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := cdata(c)
					d.Sess.Flags.Clear()
					tags := editor.ParseTags(text)
					if !d.Sess.Flags.CheckTags(tags) {
						return c.Show()
					}
					d.Sess.SetTags(tags)
					return c.SwitchTo(stateCutPreview)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCutPreview) },
			},
		},
	}

	successScreen := &dialog.Screen{
		State: stateCutSuccess,
		Getter: func(c *dialog.Ctx) (any, error) {
			return struct{ Link string }{cdata(c).YTLink}, nil
		},
		Template: dialog.Tmpl("cut_success", `🎉 <b>Нарезка опубликована!</b>
{{if .Link}}
YouTube: {{.Link}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "to_list", Label: "🎬 К нарезкам",
				OnClick: func(c *dialog.Ctx) error {
					return c.SwitchTo(stateCutList, dialog.ShowSend)
				},
			},
			&dialog.Button{
				ID: "to_menu", Label: "🏠 В меню",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	dlg, err := dialog.NewDialog(DialogVideoCut, stateCutList,
		listScreen, urlScreen, previewScreen,
		titleScreen, descriptionScreen, tagsScreen, successScreen)
	if err != nil {
		return nil, err
	}
	dlg.NewData = func(startData map[string]any) any { return &cutData{Index: -1} }
	return dlg, nil
}
