package dialogs

import (
	"errors"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// Category brief states.
const (
	stateCatChat dialog.State = "chat"
	stateCatDone dialog.State = "created"
)

const catGreeting = "Создаём новую рубрику. Если у вас есть Telegram-канал с " +
	"публикациями в нужном стиле — пришлите его @username, я изучу посты. " +
	"Или просто опишите, о чём и как должна писать рубрика."

type catData struct {
	Sess      brief.Session
	LastReply string
	CatName   string
}

func catdata(c *dialog.Ctx) *catData {
	return c.Frame().Data.(*catData)
}

func newCategoryDialog(deps Deps) (*dialog.Dialog, error) {
	stepTurn := func(c *dialog.Ctx, text string) error {
		d := catdata(c)
		stop := c.StartAction("typing")
		defer stop()

		turn := briefTurn(c.Event, text)
		reply, err := deps.Brief.Step(c.Context, &d.Sess, brief.CategorySystemPrompt, turn)
		if err != nil {
			return err
		}

		if reply.FinalCategory != nil {
			cat := content.Category{
				OrganizationID:   c.User.OrganizationID,
				Name:             mapString(reply.FinalCategory, "name"),
				Description:      mapString(reply.FinalCategory, "description"),
				TextStylePrompt:  mapString(reply.FinalCategory, "text_style_prompt"),
				ImageStylePrompt: mapString(reply.FinalCategory, "image_style_prompt"),
			}
			if cat.Name == "" {
				return errors.New("dialogs: brief produced category without a name")
			}
			if _, err := deps.Content.CreateCategory(c.Context, cat); err != nil {
				return err
			}
			if err := deps.History.Delete(d.Sess.ChatID); err != nil {
				c.Logger().Warn("brief_history_delete_failed", "chat_id", d.Sess.ChatID, "error", err)
			}
			d.CatName = cat.Name
			return c.SwitchTo(stateCatDone, dialog.ShowSend)
		}

		if reply.MessageToUser != "" {
			d.LastReply = reply.MessageToUser
		}
		return c.SwitchTo(stateCatChat, dialog.ShowSend)
	}

	chatScreen := &dialog.Screen{
		State: stateCatChat,
		OnEnter: func(c *dialog.Ctx) error {
			d := catdata(c)
			if d.Sess.ChatID != "" {
				return nil
			}
			chat, err := deps.History.Create(c.User.ID)
			if err != nil {
				return err
			}
			d.Sess = brief.Session{
				ChatID:         chat.ID,
				OrganizationID: c.User.OrganizationID,
				Stage:          brief.StageAwaitChannels,
			}
			d.LastReply = catGreeting
			return nil
		},
		Getter: func(c *dialog.Ctx) (any, error) {
			return struct{ Reply string }{catdata(c).LastReply}, nil
		},
		Template: dialog.Tmpl("cat_chat", `{{.Reply}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "answer",
				OnInput: func(c *dialog.Ctx, text string) error {
					return stepTurn(c, text)
				},
			},
			&dialog.MediaInput{
				ID: "answer_voice",
				OnInput: func(c *dialog.Ctx, _ transport.Event) error {
					text, ok, err := transcribeVoice(c, deps)
					if err != nil || !ok {
						return err
					}
					return stepTurn(c, text)
				},
			},
			&dialog.Button{
				ID: "cancel", Label: "❌ Прервать",
				OnClick: func(c *dialog.Ctx) error {
					d := catdata(c)
					if d.Sess.ChatID != "" {
						if err := deps.History.Delete(d.Sess.ChatID); err != nil {
							c.Logger().Warn("brief_history_delete_failed", "chat_id", d.Sess.ChatID, "error", err)
						}
					}
					return c.Finish(nil)
				},
			},
		},
	}

	doneScreen := &dialog.Screen{
		State: stateCatDone,
		Getter: func(c *dialog.Ctx) (any, error) {
			return struct{ Name string }{catdata(c).CatName}, nil
		},
		Template: dialog.Tmpl("cat_done", `🎉 Рубрика <b>{{.Name}}</b> готова!

Теперь можно генерировать публикации в этом стиле.`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "to_publications", Label: "📝 К публикациям",
				OnClick: func(c *dialog.Ctx) error {
					return c.Start(DialogPublication, "", dialog.StartResetStack, nil)
				},
			},
			&dialog.Button{
				ID: "to_menu", Label: "🏠 В меню",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	dlg, err := dialog.NewDialog(DialogCategory, stateCatChat, chatScreen, doneScreen)
	if err != nil {
		return nil, err
	}
	dlg.NewData = func(startData map[string]any) any { return &catData{} }
	return dlg, nil
}
