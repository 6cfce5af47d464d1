package dialogs

import (
	"errors"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/employee"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/organization"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// Organization brief states.
const (
	stateOrgChat dialog.State = "chat"
	stateOrgDone dialog.State = "created"
)

const orgGreeting = "Привет! Я помогу настроить вашу организацию. " +
	"Расскажите о вашем бизнесе: чем занимаетесь, для кого, в каком тоне пишете. " +
	"Можно текстом, голосом или переслать пост из вашего канала."

type orgData struct {
	Sess      brief.Session
	LastReply string
	OrgName   string
}

func odata(c *dialog.Ctx) *orgData {
	return c.Frame().Data.(*orgData)
}

func newOrganizationDialog(deps Deps) (*dialog.Dialog, error) {
	stepTurn := func(c *dialog.Ctx, text string) error {
		d := odata(c)
		stop := c.StartAction("typing")
		defer stop()

		turn := briefTurn(c.Event, text)
		reply, err := deps.Brief.Step(c.Context, &d.Sess, brief.OrganizationSystemPrompt, turn)
		if err != nil {
			return err
		}

		if reply.OrganizationData != nil {
			org := organization.Organization{
				Name:        mapString(reply.OrganizationData, "name"),
				Description: mapString(reply.OrganizationData, "description"),
				Audience:    mapString(reply.OrganizationData, "audience"),
				ToneOfVoice: mapStrings(reply.OrganizationData, "tone_of_voice"),
				Products:    mapStrings(reply.OrganizationData, "products"),
				Locale:      mapString(reply.OrganizationData, "locale"),
			}
			if org.Name == "" || org.Description == "" {
				return errors.New("dialogs: brief produced organization without name or description")
			}
			orgID, err := deps.Organizations.Create(c.Context, org)
			if err != nil {
				return err
			}
			if err := deps.Employees.Create(c.Context, employee.Employee{
				AccountID:      c.User.AccountID,
				OrganizationID: orgID,
				Name:           c.User.TgUsername,
				Role:           employee.RoleAdmin,
			}); err != nil {
				return err
			}
			st := c.User
			st.OrganizationID = orgID
			if err := c.SaveUser(st); err != nil {
				return err
			}
			if err := deps.History.Delete(d.Sess.ChatID); err != nil {
				c.Logger().Warn("brief_history_delete_failed", "chat_id", d.Sess.ChatID, "error", err)
			}
			d.OrgName = org.Name
			if err := c.SwitchTo(stateOrgDone, dialog.ShowSend); err != nil {
				return err
			}
			if err := c.Show(); err != nil {
				return err
			}
			// The first category brief opens right away; the card above
			// stays in the chat as the creation receipt.
			if err := c.Start(DialogCategory, "", dialog.StartResetStack, nil); err != nil {
				return err
			}
			c.Frame().ShowMode = dialog.ShowSend
			return nil
		}

		if reply.MessageToUser != "" {
			d.LastReply = reply.MessageToUser
		}
		return c.SwitchTo(stateOrgChat, dialog.ShowSend)
	}

	chatScreen := &dialog.Screen{
		State: stateOrgChat,
		OnEnter: func(c *dialog.Ctx) error {
			d := odata(c)
			if d.Sess.ChatID != "" {
				return nil
			}
			chat, err := deps.History.Create(c.User.ID)
			if err != nil {
				return err
			}
			d.Sess = brief.Session{ChatID: chat.ID, Stage: brief.StageAwaitChannels}
			d.LastReply = orgGreeting
			return nil
		},
		Getter: func(c *dialog.Ctx) (any, error) {
			return struct{ Reply string }{odata(c).LastReply}, nil
		},
		Template: dialog.Tmpl("org_chat", `{{.Reply}}`),
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
					d := odata(c)
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

	// The creation receipt carries no buttons: the first category brief
	// starts immediately after it.
	doneScreen := &dialog.Screen{
		State: stateOrgDone,
		Getter: func(c *dialog.Ctx) (any, error) {
			return struct{ Name string }{odata(c).OrgName}, nil
		},
		Template: dialog.Tmpl("org_done", `🎉 Организация <b>{{.Name}}</b> создана!

Теперь создадим первую рубрику — стиль, в котором бот будет писать ваши посты.`),
	}

	dlg, err := dialog.NewDialog(DialogOrganization, stateOrgChat, chatScreen, doneScreen)
	if err != nil {
		return nil, err
	}
	dlg.NewData = func(startData map[string]any) any { return &orgData{} }
	return dlg, nil
}
