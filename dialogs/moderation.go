package dialogs

import (
	"errors"
	"fmt"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/htmlutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// Moderation dialog states.
const (
	stateModQueue   dialog.State = "queue"
	stateModCard    dialog.State = "card"
	stateModComment dialog.State = "reject_comment"
)

type modData struct {
	Pubs  []content.Publication
	Index int
	Flags editor.Flags
}

func mdata(c *dialog.Ctx) *modData {
	return c.Frame().Data.(*modData)
}

func (d *modData) current() *content.Publication {
	if d.Index < 0 || d.Index >= len(d.Pubs) {
		return nil
	}
	return &d.Pubs[d.Index]
}

func newModerationDialog(deps Deps) (*dialog.Dialog, error) {
	type queueView struct {
		Count int
		Empty bool
	}

	loadQueue := func(c *dialog.Ctx) error {
		d := mdata(c)
		pubs, err := deps.Content.Publications(c.Context, c.User.OrganizationID)
		if err != nil {
			return err
		}
		d.Pubs = d.Pubs[:0]
		for _, p := range pubs {
			if p.Status == content.StatusModeration {
				d.Pubs = append(d.Pubs, p)
			}
		}
		if d.Index >= len(d.Pubs) {
			d.Index = 0
		}
		return nil
	}

	queueScreen := &dialog.Screen{
		State: stateModQueue,
		OnEnter: func(c *dialog.Ctx) error {
			// Role gate: non-moderators bounce straight back.
			if c.User.AccountID == "" {
				return c.Finish(nil)
			}
			emp, err := deps.Employees.Get(c.Context, c.User.AccountID)
			if err != nil || !emp.Role.CanModerate() {
				return c.Finish(nil)
			}
			return nil
		},
		Getter: func(c *dialog.Ctx) (any, error) {
			if err := loadQueue(c); err != nil {
				return nil, err
			}
			d := mdata(c)
			return queueView{Count: len(d.Pubs), Empty: len(d.Pubs) == 0}, nil
		},
		Template: dialog.Tmpl("mod_queue", `<b>Модерация</b>
{{if .Empty}}
Очередь пуста — всё проверено.
{{- else}}
На проверке: {{.Count}}.
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "review", Label: "🔍 Смотреть",
				When: func(data any) bool { return !data.(queueView).Empty },
				OnClick: func(c *dialog.Ctx) error {
					mdata(c).Index = 0
					return c.SwitchTo(stateModCard)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ В меню",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	type cardView struct {
		Text     string
		Position string
		Many     bool
		Empty    bool
	}

	cardScreen := &dialog.Screen{
		State: stateModCard,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := mdata(c)
			pub := d.current()
			if pub == nil {
				return cardView{Empty: true}, nil
			}
			return cardView{
				Text:     pub.Text,
				Position: fmt.Sprintf("%d/%d", d.Index+1, len(d.Pubs)),
				Many:     len(d.Pubs) > 1,
			}, nil
		},
		Template: dialog.Tmpl("mod_card", `{{if .Empty}}Очередь модерации опустела.{{else}}<b>Публикация {{.Position}}</b>

{{.Text}}{{end}}`),
		Media: func(c *dialog.Ctx, data any) *transport.Media {
			pub := mdata(c).current()
			if pub == nil || pub.ImageURL == "" {
				return nil
			}
			return &transport.Media{URL: pub.ImageURL, Name: pub.ImageName}
		},
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "prev", Label: "⬅️",
				When: func(data any) bool { return data.(cardView).Many },
				OnClick: func(c *dialog.Ctx) error {
					d := mdata(c)
					d.Index = (d.Index - 1 + len(d.Pubs)) % len(d.Pubs)
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "next", Label: "➡️",
				When: func(data any) bool { return data.(cardView).Many },
				OnClick: func(c *dialog.Ctx) error {
					d := mdata(c)
					d.Index = (d.Index + 1) % len(d.Pubs)
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "approve", Label: "✅ Одобрить",
				When: func(data any) bool { return !data.(cardView).Empty },
				OnClick: func(c *dialog.Ctx) error {
					d := mdata(c)
					pub := d.current()
					if pub == nil {
						return errors.New("dialogs: no publication under review")
					}
					if err := deps.Content.ModeratePublication(c.Context, pub.ID, content.StatusApproved, ""); err != nil {
						return err
					}
					if _, err := deps.Content.PublishPublication(c.Context, pub.ID); err != nil {
						return err
					}
					c.Toast("Одобрено и опубликовано")
					return c.SwitchTo(stateModQueue)
				},
			},
			&dialog.Button{
				ID: "reject", Label: "❌ Отклонить",
				When: func(data any) bool { return !data.(cardView).Empty },
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateModComment) },
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ К очереди",
				OnClick: func(c *dialog.Ctx) error {
					return c.SwitchTo(stateModQueue, dialog.ShowDeleteAndSend)
				},
			},
		},
	}

	type commentView struct {
		Preview string
		Flag    string
	}

	commentScreen := &dialog.Screen{
		State: stateModComment,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := mdata(c)
			flag := flagText(d.Flags)
			d.Flags.Clear()
			view := commentView{Flag: flag}
			if pub := d.current(); pub != nil {
				view.Preview = htmlutil.StripTags(pub.Text)
				if len([]rune(view.Preview)) > 100 {
					view.Preview = string([]rune(view.Preview)[:100]) + "…"
				}
			}
			return view, nil
		},
		Template: dialog.Tmpl("mod_comment", `<b>Отклонение</b>

«{{.Preview}}»

Напишите автору, что нужно исправить (10–500 символов).
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "comment",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := mdata(c)
					d.Flags.Clear()
					if !d.Flags.CheckRejectComment(text) {
						return c.Show()
					}
					pub := d.current()
					if pub == nil {
						return errors.New("dialogs: no publication under review")
					}
					if err := deps.Content.ModeratePublication(c.Context, pub.ID, content.StatusRejected, text); err != nil {
						return err
					}
					return c.SwitchTo(stateModQueue, dialog.ShowSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateModCard) },
			},
		},
	}

	dlg, err := dialog.NewDialog(DialogModeration, stateModQueue,
		queueScreen, cardScreen, commentScreen)
	if err != nil {
		return nil, err
	}
	dlg.NewData = func(startData map[string]any) any { return &modData{} }
	return dlg, nil
}
