package dialogs

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/htmlutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/textutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// Publication dialog states.
const (
	stateListView        dialog.State = "list_view"
	stateCategorySelect  dialog.State = "category_select"
	stateTextReference   dialog.State = "text_reference"
	stateEditPreview     dialog.State = "edit_preview"
	stateEditTextMenu    dialog.State = "edit_text_menu"
	stateEditText        dialog.State = "edit_text"
	stateEditImageMenu   dialog.State = "edit_image_menu"
	stateUploadImage     dialog.State = "upload_image"
	stateNewImageConfirm dialog.State = "new_image_confirm"
	stateCombineChoice   dialog.State = "combine_images_choice"
	stateCombineUpload   dialog.State = "combine_images_upload"
	stateCombinePrompt   dialog.State = "combine_images_prompt"
	stateReferenceGen    dialog.State = "reference_image_generation"
	stateImageGenMode    dialog.State = "image_generation_mode_select"
	stateNetworkSelect   dialog.State = "social_network_select"
	stateTextTooLong     dialog.State = "text_too_long_alert"
	stateSuccess         dialog.State = "publication_success"
)

// pubData is the publication dialog's frame data.
type pubData struct {
	Pubs       []content.Publication
	Index      int
	Categories []content.Category

	// CategoryID drives the generate-new flow; Notice is a one-shot message
	// for screens that have no editing session to carry flags.
	CategoryID string
	Notice     string

	Sess *editor.Session

	TgLink string
	VkLink string
}

func (d *pubData) current() *content.Publication {
	if d.Index < 0 || d.Index >= len(d.Pubs) {
		return nil
	}
	return &d.Pubs[d.Index]
}

func pdata(c *dialog.Ctx) *pubData {
	return c.Frame().Data.(*pubData)
}

func sessionMedia(sess *editor.Session) *transport.Media {
	if sess == nil {
		return nil
	}
	img, ok := sess.Working.CurrentImage()
	if !ok {
		return nil
	}
	if img.URL != "" {
		return &transport.Media{URL: img.URL, Name: img.Name}
	}
	return &transport.Media{FileID: img.FileID, Name: img.Name}
}

// afterTextEdit routes to the length alert when the new text no longer fits
// next to the attached image, otherwise back to the preview.
func afterTextEdit(c *dialog.Ctx) error {
	d := pdata(c)
	if !editor.FitsTelegram(d.Sess.Working.Text, d.Sess.Working.HasImage()) {
		return c.SwitchTo(stateTextTooLong)
	}
	return c.SwitchTo(stateEditPreview)
}

// handleGenError maps a generation failure onto the session flags when it is
// a balance refusal, re-rendering the same screen; other errors propagate to
// the runtime boundary.
func handleGenError(c *dialog.Ctx, sess *editor.Session, err error) error {
	if errors.Is(err, editor.ErrInsufficientBalance) {
		sess.Flags.InsufficientBalance = true
		return c.Show()
	}
	return err
}

func newPublicationDialog(deps Deps) (*dialog.Dialog, error) {
	// syncImage pushes image changes the record update cannot express: an
	// uploaded photo travels to the backend as bytes, a removed photo as a
	// delete. URL-mode images ride on the record itself.
	syncImage := func(c *dialog.Ctx, sess *editor.Session, pubID string) error {
		img, ok := sess.Working.CurrentImage()
		switch {
		case ok && img.URL == "" && img.FileID != "":
			data, dlName, err := c.Transport().Download(c.Context, img.FileID)
			if err != nil {
				return err
			}
			name := img.Name
			if name == "" {
				name = dlName
			}
			return deps.Content.UploadPublicationImage(c.Context, pubID, data, name)
		case !sess.Working.HasImage() && sess.Original.HasImage():
			return deps.Content.DeletePublicationImage(c.Context, pubID)
		}
		return nil
	}

	// --- list_view ---

	type listView struct {
		Count int
		Word  string
		Empty bool
		Items []dialog.SelectItem
	}

	listScreen := &dialog.Screen{
		State: stateListView,
		OnEnter: func(c *dialog.Ctx) error {
			// Leaving an editing session behind would let a stale frame
			// mutate a publication picked later.
			d := pdata(c)
			d.Sess = nil
			d.Index = -1
			return nil
		},
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			pubs, err := deps.Content.Publications(c.Context, c.User.OrganizationID)
			if err != nil {
				return nil, err
			}
			// Editable entries only; published items live in the archive.
			d.Pubs = d.Pubs[:0]
			for _, p := range pubs {
				if p.Status == content.StatusDraft || p.Status == content.StatusRejected {
					d.Pubs = append(d.Pubs, p)
				}
			}
			view := listView{
				Count: len(d.Pubs),
				Word:  textutil.PublicationWord(len(d.Pubs)),
				Empty: len(d.Pubs) == 0,
			}
			for i, p := range d.Pubs {
				label := fmt.Sprintf("%d. %s", i+1, textutil.Truncate(htmlutil.StripTags(p.Text), 40))
				if p.Status == content.StatusRejected {
					label = "❌ " + label
				}
				view.Items = append(view.Items, dialog.SelectItem{ID: strconv.Itoa(i), Label: label})
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_list", `<b>Публикации</b>
{{if .Empty}}
Черновиков пока нет. Создайте первую публикацию.
{{- else}}
У вас {{.Count}} {{.Word}} в работе.
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Select{
				ID: "pick", Columns: 1,
				Items: func(data any) []dialog.SelectItem { return data.(listView).Items },
				OnSelect: func(c *dialog.Ctx, itemID string) error {
					d := pdata(c)
					i, err := strconv.Atoi(itemID)
					if err != nil || i < 0 || i >= len(d.Pubs) {
						c.Toast("Эта публикация уже недоступна")
						return nil
					}
					d.Index = i
					d.Sess = editor.NewSession(d.Pubs[i])
					return c.SwitchTo(stateEditPreview)
				},
			},
			&dialog.Button{
				ID: "create", Label: "➕ Создать публикацию",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCategorySelect) },
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	// --- category_select / text_reference: the generate-new flow ---

	type categoryView struct {
		Items []dialog.SelectItem
		Empty bool
	}

	categoryScreen := &dialog.Screen{
		State: stateCategorySelect,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			cats, err := deps.Content.Categories(c.Context, c.User.OrganizationID)
			if err != nil {
				return nil, err
			}
			d.Categories = cats
			view := categoryView{Empty: len(cats) == 0}
			for _, cat := range cats {
				view.Items = append(view.Items, dialog.SelectItem{ID: cat.ID, Label: cat.Name})
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_category", `<b>Новая публикация</b>
{{if .Empty}}
Нет ни одной рубрики. Сначала создайте рубрику в главном меню.
{{- else}}
Выберите рубрику:
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Select{
				ID: "category", Columns: 2,
				Items: func(data any) []dialog.SelectItem { return data.(categoryView).Items },
				OnSelect: func(c *dialog.Ctx, itemID string) error {
					pdata(c).CategoryID = itemID
					return c.SwitchTo(stateTextReference)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateListView) },
			},
		},
	}

	generateNew := func(c *dialog.Ctx, reference string) error {
		d := pdata(c)
		stop := c.StartAction("typing")
		defer stop()

		text, err := deps.Editor.GenerateText(c.Context, c.User.OrganizationID, d.CategoryID, reference)
		if errors.Is(err, editor.ErrInsufficientBalance) {
			d.Notice = "Недостаточно средств на балансе организации для этой операции."
			return c.Show()
		}
		if err != nil {
			return err
		}
		id, err := deps.Content.CreatePublication(c.Context, content.Publication{
			OrganizationID: c.User.OrganizationID,
			CategoryID:     d.CategoryID,
			CreatorID:      c.User.AccountID,
			Text:           text,
			Status:         content.StatusDraft,
		})
		if err != nil {
			return err
		}
		pub := content.Publication{
			ID:             id,
			OrganizationID: c.User.OrganizationID,
			CategoryID:     d.CategoryID,
			Text:           text,
			Status:         content.StatusDraft,
		}
		d.Pubs = append(d.Pubs, pub)
		d.Index = len(d.Pubs) - 1
		d.Sess = editor.NewSession(pub)
		return c.SwitchTo(stateEditPreview, dialog.ShowSend)
	}

	referenceScreen := &dialog.Screen{
		State: stateTextReference,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			notice := d.Notice
			d.Notice = ""
			return struct{ Notice string }{notice}, nil
		},
		Template: dialog.Tmpl("pub_reference", `<b>Новая публикация</b>

О чём написать? Опишите тему одним сообщением — текстом или голосом.
{{- if .Notice}}

⚠️ {{.Notice}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "reference",
				OnInput: func(c *dialog.Ctx, text string) error {
					return generateNew(c, text)
				},
			},
			&dialog.MediaInput{
				ID: "reference_voice",
				OnInput: func(c *dialog.Ctx, ev transport.Event) error {
					if ev.Kind != transport.EventVoice && ev.Kind != transport.EventAudio {
						return nil
					}
					audio, name, err := c.Transport().Download(c.Context, ev.FileID)
					if err != nil {
						return err
					}
					text, err := deps.Editor.TranscribeAudio(c.Context, c.User.OrganizationID, audio, name)
					if err != nil {
						return err
					}
					return generateNew(c, text)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCategorySelect) },
			},
		},
	}

	// --- edit_preview ---

	type previewView struct {
		Text       string
		Length     int
		MaxLen     int
		HasChanges bool
		CanUndo    bool
		Variants   string
		Flag       string
	}

	previewScreen := &dialog.Screen{
		State: stateEditPreview,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			view := previewView{
				Text:       d.Sess.Working.Text,
				Length:     htmlutil.PlainLength(d.Sess.Working.Text),
				MaxLen:     editor.PublishMax(d.Sess.Working.HasImage()),
				HasChanges: d.Sess.HasChanges(),
				CanUndo:    d.Sess.HasSnapshot(),
				Flag:       flag,
			}
			if n := len(d.Sess.Working.Images); n > 1 {
				view.Variants = fmt.Sprintf("%d/%d", d.Sess.Working.ImageIndex+1, n)
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_preview", `{{.Text}}

<i>{{.Length}}/{{.MaxLen}} символов{{if .Variants}} · вариант {{.Variants}}{{end}}{{if .HasChanges}} · есть несохранённые изменения{{end}}</i>
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Media: func(c *dialog.Ctx, data any) *transport.Media {
			return sessionMedia(pdata(c).Sess)
		},
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "edit_text", Label: "✏️ Текст",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditTextMenu) },
			},
			&dialog.Button{
				ID: "edit_image", Label: "🖼 Изображение",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditImageMenu) },
			},
			&dialog.Button{
				ID: "undo", Label: "↩️ Отменить правку",
				When: func(data any) bool { return data.(previewView).CanUndo },
				OnClick: func(c *dialog.Ctx) error {
					if err := pdata(c).Sess.RestorePrevious(); err != nil {
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
					d := pdata(c)
					pub := d.current()
					if pub == nil {
						return errors.New("dialogs: no current publication")
					}
					d.Sess.Working.ApplyTo(pub)
					if err := deps.Content.UpdatePublication(c.Context, *pub); err != nil {
						return err
					}
					if err := syncImage(c, d.Sess, pub.ID); err != nil {
						return err
					}
					d.Sess.Original = d.Sess.Working
					d.Sess.Prev = nil
					c.Toast("Сохранено")
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "publish", Label: "🚀 Опубликовать",
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					if !editor.FitsTelegram(d.Sess.Working.Text, d.Sess.Working.HasImage()) {
						return c.SwitchTo(stateTextTooLong)
					}
					return c.SwitchTo(stateNetworkSelect)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ К списку",
				OnClick: func(c *dialog.Ctx) error {
					return c.SwitchTo(stateListView, dialog.ShowDeleteAndSend)
				},
			},
		},
	}

	// --- edit_text_menu / edit_text ---

	type textMenuView struct{ Flag string }

	regenerate := func(c *dialog.Ctx, prompt string) error {
		d := pdata(c)
		stop := c.StartAction("typing")
		defer stop()
		text, err := deps.Editor.RegenerateText(c.Context, c.User.OrganizationID,
			d.Sess.Working.CategoryID, d.Sess.Working.Text, prompt)
		if err != nil {
			return handleGenError(c, d.Sess, err)
		}
		d.Sess.SetText(text)
		return afterTextEdit(c)
	}

	textMenuScreen := &dialog.Screen{
		State: stateEditTextMenu,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return textMenuView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("pub_text_menu", `<b>Редактирование текста</b>

Напишите промпт — что изменить в тексте, — или выберите действие.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "regen_prompt",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckPrompt(text) {
						return c.Show()
					}
					return regenerate(c, text)
				},
			},
			&dialog.Button{
				ID: "write_own", Label: "✍️ Написать самому",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditText) },
			},
			&dialog.Button{
				ID: "regen", Label: "🔄 Перегенерировать",
				OnClick: func(c *dialog.Ctx) error { return regenerate(c, "") },
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditPreview) },
			},
		},
	}

	editTextScreen := &dialog.Screen{
		State: stateEditText,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return textMenuView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("pub_edit_text", `<b>Свой текст</b>

Пришлите новый текст публикации одним сообщением (50–4000 символов). Можно голосом.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "own_text",
				OnInput: func(c *dialog.Ctx, text string) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckText(text) {
						return c.Show()
					}
					d.Sess.SetText(text)
					return afterTextEdit(c)
				},
			},
			&dialog.MediaInput{
				ID: "own_voice",
				OnInput: func(c *dialog.Ctx, ev transport.Event) error {
					if ev.Kind != transport.EventVoice && ev.Kind != transport.EventAudio {
						return nil
					}
					d := pdata(c)
					audio, name, err := c.Transport().Download(c.Context, ev.FileID)
					if err != nil {
						return err
					}
					text, err := deps.Editor.TranscribeAudio(c.Context, c.User.OrganizationID, audio, name)
					if err != nil {
						return err
					}
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckText(text) {
						return c.Show()
					}
					d.Sess.SetText(text)
					return afterTextEdit(c)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditTextMenu) },
			},
		},
	}

	// --- edit_image_menu and generation screens ---

	type imageMenuView struct {
		HasImage bool
		Variants string
		Flag     string
	}

	adoptAndConfirm := func(c *dialog.Ctx, urls []string) error {
		d := pdata(c)
		if len(urls) == 0 {
			return errors.New("dialogs: generation returned no images")
		}
		d.Sess.AdoptGenerated(urls)
		if !editor.FitsTelegram(d.Sess.Working.Text, true) {
			return c.SwitchTo(stateTextTooLong)
		}
		return c.SwitchTo(stateNewImageConfirm, dialog.ShowSend)
	}

	imageMenuScreen := &dialog.Screen{
		State: stateEditImageMenu,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			view := imageMenuView{HasImage: d.Sess.Working.HasImage(), Flag: flag}
			if n := len(d.Sess.Working.Images); n > 1 {
				view.Variants = fmt.Sprintf("%d/%d", d.Sess.Working.ImageIndex+1, n)
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_image_menu", `<b>Изображение</b>
{{if .HasImage}}
Текущее фото прикреплено{{if .Variants}} (вариант {{.Variants}}){{end}}.
{{- else}}
У публикации нет фото.
{{- end}}
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Media: func(c *dialog.Ctx, data any) *transport.Media {
			return sessionMedia(pdata(c).Sess)
		},
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "gen", Label: "✨ Сгенерировать",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateImageGenMode) },
			},
			&dialog.Button{
				ID: "upload", Label: "📎 Загрузить",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateUploadImage) },
			},
			&dialog.Button{
				ID: "combine", Label: "🧩 Объединить фото",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Combine.Clear()
					return c.SwitchTo(stateCombineChoice)
				},
			},
			&dialog.Button{
				ID: "prev_variant", Label: "⬅️ Вариант",
				When: func(data any) bool { return data.(imageMenuView).Variants != "" },
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.PrevImage()
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "next_variant", Label: "Вариант ➡️",
				When: func(data any) bool { return data.(imageMenuView).Variants != "" },
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.NextImage()
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "remove", Label: "🗑 Убрать фото",
				When: func(data any) bool { return data.(imageMenuView).HasImage },
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.RemoveImage()
					return c.SwitchTo(stateEditPreview, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditPreview) },
			},
		},
	}

	genModeScreen := &dialog.Screen{
		State: stateImageGenMode,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return textMenuView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("pub_gen_mode", `<b>Генерация изображения</b>

Сгенерировать по тексту поста, по вашему промпту или по референсу?
Промпт можно прислать сообщением.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "gen_prompt",
				OnInput: func(c *dialog.Ctx, prompt string) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckPrompt(prompt) {
						return c.Show()
					}
					stop := c.StartAction("upload_photo")
					defer stop()
					urls, err := deps.Editor.GenerateImage(c.Context, c.User.OrganizationID,
						d.Sess.Working.CategoryID, d.Sess.Working.Text, prompt, nil)
					if err != nil {
						return handleGenError(c, d.Sess, err)
					}
					return adoptAndConfirm(c, urls)
				},
			},
			&dialog.Button{
				ID: "from_text", Label: "📝 По тексту поста",
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					stop := c.StartAction("upload_photo")
					defer stop()
					urls, err := deps.Editor.GenerateImage(c.Context, c.User.OrganizationID,
						d.Sess.Working.CategoryID, d.Sess.Working.Text, "", nil)
					if err != nil {
						return handleGenError(c, d.Sess, err)
					}
					return adoptAndConfirm(c, urls)
				},
			},
			&dialog.Button{
				ID: "with_reference", Label: "🖼 По референсу",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Reference.Clear()
					return c.SwitchTo(stateReferenceGen)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditImageMenu) },
			},
		},
	}

	type referenceView struct {
		HasReference bool
		HasPrompt    bool
		Flag         string
	}

	referenceGenScreen := &dialog.Screen{
		State: stateReferenceGen,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return referenceView{
				HasReference: d.Sess.Reference.Image != nil,
				HasPrompt:    d.Sess.Reference.Prompt != "",
				Flag:         flag,
			}, nil
		},
		Template: dialog.Tmpl("pub_reference_gen", `<b>Генерация по референсу</b>
{{if .HasReference}}
Референс получен.{{if .HasPrompt}} Промпт получен.{{end}} Можно генерировать — или пришлите промпт.
{{- else}}
Пришлите фото-референс. Потом можно добавить промпт.
{{- end}}
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.MediaInput{
				ID: "reference_photo",
				OnInput: func(c *dialog.Ctx, ev transport.Event) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckUpload(ev.MimeType, ev.FileSize) {
						return c.Show()
					}
					data, name, err := c.Transport().Download(c.Context, ev.FileID)
					if err != nil {
						return err
					}
					d.Sess.Reference.Image = &editor.UploadedImage{Data: data, Name: name}
					return c.Show()
				},
			},
			&dialog.TextInput{
				ID: "reference_prompt",
				OnInput: func(c *dialog.Ctx, prompt string) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckPrompt(prompt) {
						return c.Show()
					}
					d.Sess.Reference.Prompt = prompt
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "generate", Label: "✨ Сгенерировать",
				When: func(data any) bool { return data.(referenceView).HasReference },
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					stop := c.StartAction("upload_photo")
					defer stop()
					urls, err := deps.Editor.GenerateImage(c.Context, c.User.OrganizationID,
						d.Sess.Working.CategoryID, d.Sess.Working.Text,
						d.Sess.Reference.Prompt, d.Sess.Reference.Image)
					if err != nil {
						return handleGenError(c, d.Sess, err)
					}
					d.Sess.Reference.Clear()
					return adoptAndConfirm(c, urls)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Reference.Clear()
					return c.SwitchTo(stateImageGenMode)
				},
			},
		},
	}

	uploadScreen := &dialog.Screen{
		State: stateUploadImage,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return textMenuView{Flag: flag}, nil
		},
		Template: dialog.Tmpl("pub_upload", `<b>Загрузка фото</b>

Пришлите фотографию (до 10 МБ).
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.MediaInput{
				ID: "photo",
				OnInput: func(c *dialog.Ctx, ev transport.Event) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckUpload(ev.MimeType, ev.FileSize) {
						return c.Show()
					}
					if !editor.FitsTelegram(d.Sess.Working.Text, true) {
						d.Sess.AttachUpload(ev.FileID, ev.FileName)
						return c.SwitchTo(stateTextTooLong)
					}
					d.Sess.AttachUpload(ev.FileID, ev.FileName)
					return c.SwitchTo(stateEditPreview, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditImageMenu) },
			},
		},
	}

	// --- new_image_confirm ---

	type confirmView struct{ Variants string }

	confirmScreen := &dialog.Screen{
		State: stateNewImageConfirm,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			view := confirmView{}
			if n := len(d.Sess.Working.Images); n > 1 {
				view.Variants = fmt.Sprintf("%d/%d", d.Sess.Working.ImageIndex+1, n)
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_confirm", `<b>Новое изображение</b>{{if .Variants}} ({{.Variants}}){{end}}

Оставить этот вариант?`),
		Media: func(c *dialog.Ctx, data any) *transport.Media {
			return sessionMedia(pdata(c).Sess)
		},
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "prev", Label: "⬅️",
				When: func(data any) bool { return data.(confirmView).Variants != "" },
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.PrevImage()
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "next", Label: "➡️",
				When: func(data any) bool { return data.(confirmView).Variants != "" },
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.NextImage()
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "accept", Label: "✅ Принять",
				OnClick: func(c *dialog.Ctx) error {
					return c.SwitchTo(stateEditImageMenu, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "reject", Label: "❌ Отклонить",
				OnClick: func(c *dialog.Ctx) error {
					if err := pdata(c).Sess.RestorePrevious(); err != nil {
						c.Toast("Нечего отклонять")
						return nil
					}
					return c.SwitchTo(stateEditImageMenu, dialog.ShowDeleteAndSend)
				},
			},
		},
	}

	// --- combine flow ---

	type combineView struct {
		HasCurrent bool
		Staged     int
		CanCombine bool
		Flag       string
	}

	combineGetter := func(c *dialog.Ctx) (any, error) {
		d := pdata(c)
		flag := flagText(d.Sess.Flags)
		d.Sess.Flags.Clear()
		_, hasCurrent := d.Sess.Working.CurrentImage()
		return combineView{
			HasCurrent: hasCurrent,
			Staged:     len(d.Sess.Combine.Images),
			CanCombine: d.Sess.Combine.CanCombine(),
			Flag:       flag,
		}, nil
	}

	combineChoiceScreen := &dialog.Screen{
		State:  stateCombineChoice,
		Getter: combineGetter,
		Template: dialog.Tmpl("pub_combine_choice", `<b>Объединение фото</b>

Начать с текущего фото или загрузить все фото заново?
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "with_current", Label: "📌 С текущим фото",
				When: func(data any) bool { return data.(combineView).HasCurrent },
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					img, ok := d.Sess.Working.CurrentImage()
					if !ok {
						c.Toast("Текущего фото нет")
						return nil
					}
					var staged editor.UploadedImage
					var err error
					if img.URL != "" {
						staged, err = deps.Editor.FetchImage(c.Context, img.URL)
					} else {
						var data []byte
						var name string
						data, name, err = c.Transport().Download(c.Context, img.FileID)
						staged = editor.UploadedImage{Data: data, Name: name}
					}
					if err != nil {
						return err
					}
					d.Sess.Combine.Clear()
					d.Sess.Combine.Add(staged)
					return c.SwitchTo(stateCombineUpload)
				},
			},
			&dialog.Button{
				ID: "from_scratch", Label: "🆕 Загрузить заново",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Combine.Clear()
					return c.SwitchTo(stateCombineUpload)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditImageMenu) },
			},
		},
	}

	combineUploadScreen := &dialog.Screen{
		State:  stateCombineUpload,
		Getter: combineGetter,
		Template: dialog.Tmpl("pub_combine_upload", `<b>Объединение фото</b>

Загружено: {{.Staged}}/3. Пришлите ещё фото{{if .CanCombine}} или нажмите «Готово»{{end}}.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.MediaInput{
				ID: "combine_photo",
				OnInput: func(c *dialog.Ctx, ev transport.Event) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckUpload(ev.MimeType, ev.FileSize) {
						return c.Show()
					}
					data, name, err := c.Transport().Download(c.Context, ev.FileID)
					if err != nil {
						return err
					}
					if !d.Sess.Combine.Add(editor.UploadedImage{Data: data, Name: name}) {
						d.Sess.Flags.CombineFull = true
					}
					return c.Show()
				},
			},
			&dialog.Button{
				ID: "done", Label: "✅ Готово",
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					if !d.Sess.Combine.CanCombine() {
						d.Sess.Flags.CombineTooFew = true
						return c.Show()
					}
					return c.SwitchTo(stateCombinePrompt)
				},
			},
			&dialog.Button{
				ID: "cancel", Label: "❌ Отмена",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Combine.Clear()
					return c.SwitchTo(stateEditImageMenu)
				},
			},
		},
	}

	runCombine := func(c *dialog.Ctx) error {
		d := pdata(c)
		stop := c.StartAction("upload_photo")
		defer stop()
		urls, err := deps.Editor.CombineImages(c.Context, c.User.OrganizationID,
			d.Sess.Working.CategoryID, &d.Sess.Combine)
		if err != nil {
			return handleGenError(c, d.Sess, err)
		}
		d.Sess.Combine.Clear()
		return adoptAndConfirm(c, urls)
	}

	combinePromptScreen := &dialog.Screen{
		State:  stateCombinePrompt,
		Getter: combineGetter,
		Template: dialog.Tmpl("pub_combine_prompt", `<b>Объединение фото</b>

Опишите, как объединить фотографии, — или пропустите этот шаг.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.TextInput{
				ID: "combine_prompt",
				OnInput: func(c *dialog.Ctx, prompt string) error {
					d := pdata(c)
					d.Sess.Flags.Clear()
					if !d.Sess.Flags.CheckPrompt(prompt) {
						return c.Show()
					}
					d.Sess.Combine.Prompt = prompt
					return runCombine(c)
				},
			},
			&dialog.Button{
				ID: "skip", Label: "⏭ Пропустить",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.Combine.Prompt = ""
					return runCombine(c)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateCombineUpload) },
			},
		},
	}

	// --- social_network_select ---

	type networkView struct {
		TgAvailable bool
		VkAvailable bool
		Flag        string
	}

	networkScreen := &dialog.Screen{
		State: stateNetworkSelect,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			networks, err := deps.Content.SocialNetworks(c.Context, c.User.OrganizationID)
			if err != nil {
				return nil, err
			}
			view := networkView{Flag: flag}
			for _, n := range networks {
				switch n.Type {
				case "telegram":
					view.TgAvailable = n.Enabled
				case "vkontakte":
					view.VkAvailable = n.Enabled
				}
			}
			return view, nil
		},
		Template: dialog.Tmpl("pub_networks", `<b>Куда публикуем?</b>

Отметьте площадки и подтвердите.
{{- if .Flag}}

⚠️ {{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Checkbox{
				ID: "telegram_checkbox", Label: "Telegram", Default: true,
				When: func(data any) bool { return data.(networkView).TgAvailable },
			},
			&dialog.Checkbox{
				ID: "vkontakte_checkbox", Label: "ВКонтакте",
				When: func(data any) bool { return data.(networkView).VkAvailable },
			},
			&dialog.Button{
				ID: "confirm", Label: "🚀 Опубликовать",
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					if tg, ok := c.Find("telegram_checkbox").(*dialog.Checkbox); ok {
						d.Sess.Working.TgSelected = tg.IsChecked(c.Frame())
					}
					if vk, ok := c.Find("vkontakte_checkbox").(*dialog.Checkbox); ok {
						d.Sess.Working.VkSelected = vk.IsChecked(c.Frame())
					}
					if d.Sess.Working.SelectedNetworks() == 0 {
						c.Toast("Выберите хотя бы одну площадку")
						return nil
					}
					pub := d.current()
					if pub == nil {
						return errors.New("dialogs: no current publication")
					}
					stop := c.StartAction("typing")
					defer stop()
					d.Sess.Working.ApplyTo(pub)
					if err := deps.Content.UpdatePublication(c.Context, *pub); err != nil {
						return err
					}
					if err := syncImage(c, d.Sess, pub.ID); err != nil {
						return err
					}
					if err := deps.Content.ModeratePublication(c.Context, pub.ID, content.StatusApproved, ""); err != nil {
						return err
					}
					published, err := deps.Content.PublishPublication(c.Context, pub.ID)
					if err != nil {
						return err
					}
					d.TgLink = published.TelegramLink
					d.VkLink = published.VkontakteLink
					return c.SwitchTo(stateSuccess, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "back", Label: "⬅️ Назад",
				OnClick: func(c *dialog.Ctx) error { return c.SwitchTo(stateEditPreview) },
			},
		},
	}

	// --- text_too_long_alert ---

	type tooLongView struct {
		Length int
		MaxLen int
		Flag   string
	}

	tooLongScreen := &dialog.Screen{
		State: stateTextTooLong,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			flag := flagText(d.Sess.Flags)
			d.Sess.Flags.Clear()
			return tooLongView{
				Length: htmlutil.PlainLength(d.Sess.Working.Text),
				MaxLen: editor.PublishMaxWithImage,
				Flag:   flag,
			}, nil
		},
		Template: dialog.Tmpl("pub_too_long", `⚠️ <b>Текст не помещается</b>

Сейчас {{.Length}} символов, а вместе с фото Telegram разрешает {{.MaxLen}}.
Сжать текст, убрать фото или вернуть как было?
{{- if .Flag}}

{{.Flag}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "compress", Label: "✂️ Сжать текст",
				OnClick: func(c *dialog.Ctx) error {
					d := pdata(c)
					stop := c.StartAction("typing")
					defer stop()
					text, err := deps.Editor.CompressText(c.Context, c.User.OrganizationID,
						d.Sess.Working.CategoryID, d.Sess.Working.Text, d.Sess.Working.HasImage())
					if err != nil {
						return handleGenError(c, d.Sess, err)
					}
					d.Sess.SetText(text)
					return c.SwitchTo(stateEditPreview, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "remove_photo", Label: "🖼 Убрать фото",
				OnClick: func(c *dialog.Ctx) error {
					pdata(c).Sess.RemoveImage()
					return c.SwitchTo(stateEditPreview, dialog.ShowDeleteAndSend)
				},
			},
			&dialog.Button{
				ID: "restore", Label: "↩️ Вернуть как было",
				OnClick: func(c *dialog.Ctx) error {
					if err := pdata(c).Sess.RestorePrevious(); err != nil {
						c.Toast("Нечего возвращать")
						return nil
					}
					return c.SwitchTo(stateEditPreview, dialog.ShowDeleteAndSend)
				},
			},
		},
	}

	// --- publication_success ---

	successScreen := &dialog.Screen{
		State: stateSuccess,
		Getter: func(c *dialog.Ctx) (any, error) {
			d := pdata(c)
			return struct {
				TgLink string
				VkLink string
			}{d.TgLink, d.VkLink}, nil
		},
		Template: dialog.Tmpl("pub_success", `🎉 <b>Опубликовано!</b>
{{if .TgLink}}
Telegram: {{.TgLink}}
{{- end}}
{{- if .VkLink}}
ВКонтакте: {{.VkLink}}
{{- end}}`),
		Widgets: []dialog.Widget{
			&dialog.Button{
				ID: "to_list", Label: "📝 К публикациям",
				OnClick: func(c *dialog.Ctx) error {
					return c.SwitchTo(stateListView, dialog.ShowSend)
				},
			},
			&dialog.Button{
				ID: "to_menu", Label: "🏠 В меню",
				OnClick: func(c *dialog.Ctx) error { return c.Finish(nil) },
			},
		},
	}

	dlg, err := dialog.NewDialog(DialogPublication, stateListView,
		listScreen, categoryScreen, referenceScreen,
		previewScreen, textMenuScreen, editTextScreen,
		imageMenuScreen, genModeScreen, referenceGenScreen, uploadScreen,
		confirmScreen, combineChoiceScreen, combineUploadScreen, combinePromptScreen,
		networkScreen, tooLongScreen, successScreen)
	if err != nil {
		return nil, err
	}
	dlg.NewData = func(startData map[string]any) any { return &pubData{Index: -1} }
	return dlg, nil
}
