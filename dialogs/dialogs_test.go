package dialogs

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/employee"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/organization"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/chathistory"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// --- fakes ---

type sentMessage struct {
	ID   int64
	Text string
}

type fakeTransport struct {
	mu     sync.Mutex
	nextID int64
	sends  []sentMessage

	// renders is every Send and Edit body in chronological order.
	renders []string
}

func (f *fakeTransport) Send(ctx context.Context, msg transport.Message) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sends = append(f.sends, sentMessage{ID: f.nextID, Text: msg.Text})
	f.renders = append(f.renders, msg.Text)
	return f.nextID, nil
}

func (f *fakeTransport) Edit(ctx context.Context, messageID int64, msg transport.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders = append(f.renders, msg.Text)
	return nil
}

func (f *fakeTransport) Delete(ctx context.Context, chatID, messageID int64) error { return nil }

func (f *fakeTransport) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	return nil
}

func (f *fakeTransport) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	return []byte("jpeg-bytes"), "photo.jpg", nil
}

func (f *fakeTransport) StartAction(ctx context.Context, chatID int64, action string) func() {
	return func() {}
}

func (f *fakeTransport) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.renders) == 0 {
		return ""
	}
	return f.renders[len(f.renders)-1]
}

type moderateCall struct {
	ID      string
	Status  content.PublicationStatus
	Comment string
}

type imageUpload struct {
	ID   string
	Name string
	Size int
}

type fakeContent struct {
	pubs       []content.Publication
	cats       []content.Category
	cuts       []content.VideoCut
	networks   []content.SocialNetwork
	published  content.Publication
	updates    []content.Publication
	moderates  []moderateCall
	publishes  []string
	created    []content.Category
	genCutURLs []string
	uploads    []imageUpload
	imgDeletes []string
}

func (f *fakeContent) Publications(ctx context.Context, orgID string) ([]content.Publication, error) {
	return f.pubs, nil
}

func (f *fakeContent) Categories(ctx context.Context, orgID string) ([]content.Category, error) {
	return f.cats, nil
}

func (f *fakeContent) CreatePublication(ctx context.Context, pub content.Publication) (string, error) {
	return "pub-new", nil
}

func (f *fakeContent) UpdatePublication(ctx context.Context, pub content.Publication) error {
	f.updates = append(f.updates, pub)
	return nil
}

func (f *fakeContent) PublishPublication(ctx context.Context, id string) (content.Publication, error) {
	f.publishes = append(f.publishes, id)
	return f.published, nil
}

func (f *fakeContent) ModeratePublication(ctx context.Context, id string, status content.PublicationStatus, comment string) error {
	f.moderates = append(f.moderates, moderateCall{ID: id, Status: status, Comment: comment})
	return nil
}

func (f *fakeContent) SocialNetworks(ctx context.Context, orgID string) ([]content.SocialNetwork, error) {
	return f.networks, nil
}

func (f *fakeContent) CreateCategory(ctx context.Context, cat content.Category) (string, error) {
	f.created = append(f.created, cat)
	return "cat-new", nil
}

func (f *fakeContent) UploadPublicationImage(ctx context.Context, id string, image []byte, filename string) error {
	f.uploads = append(f.uploads, imageUpload{ID: id, Name: filename, Size: len(image)})
	return nil
}

func (f *fakeContent) DeletePublicationImage(ctx context.Context, id string) error {
	f.imgDeletes = append(f.imgDeletes, id)
	return nil
}

func (f *fakeContent) VideoCuts(ctx context.Context, orgID string) ([]content.VideoCut, error) {
	return f.cuts, nil
}

func (f *fakeContent) GenerateVideoCut(ctx context.Context, orgID, creatorID, url string) error {
	f.genCutURLs = append(f.genCutURLs, url)
	return nil
}

func (f *fakeContent) UpdateVideoCut(ctx context.Context, cut content.VideoCut) error { return nil }

func (f *fakeContent) PublishVideoCut(ctx context.Context, id string) (content.VideoCut, error) {
	return content.VideoCut{YouTubeLink: "https://youtu.be/published"}, nil
}

func (f *fakeContent) ModerateVideoCut(ctx context.Context, id string, status content.PublicationStatus, comment string) error {
	return nil
}

type fakeEditor struct {
	generated     string
	compressed    string
	compressCalls []bool // hasImage per call
	genErr        error
}

func (f *fakeEditor) GenerateText(ctx context.Context, orgID, catID, ref string) (string, error) {
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.generated, nil
}

func (f *fakeEditor) RegenerateText(ctx context.Context, orgID, catID, text, prompt string) (string, error) {
	return f.generated, nil
}

func (f *fakeEditor) CompressText(ctx context.Context, orgID, catID, text string, hasImage bool) (string, error) {
	f.compressCalls = append(f.compressCalls, hasImage)
	return f.compressed, nil
}

func (f *fakeEditor) GenerateImage(ctx context.Context, orgID, catID, text, prompt string, ref *editor.UploadedImage) ([]string, error) {
	return []string{"https://cdn.example.com/gen1.png", "https://cdn.example.com/gen2.png"}, nil
}

func (f *fakeEditor) EditImage(ctx context.Context, orgID, prompt string, img editor.UploadedImage) ([]string, error) {
	return []string{"https://cdn.example.com/edited.png"}, nil
}

func (f *fakeEditor) CombineImages(ctx context.Context, orgID, catID string, buf *editor.CombineBuffer) ([]string, error) {
	return []string{"https://cdn.example.com/combined.png"}, nil
}

func (f *fakeEditor) TranscribeAudio(ctx context.Context, orgID string, audio []byte, name string) (string, error) {
	return "расшифровка голоса", nil
}

func (f *fakeEditor) FetchImage(ctx context.Context, url string) (editor.UploadedImage, error) {
	return editor.UploadedImage{Data: []byte("cdn-bytes"), Name: "cdn.png"}, nil
}

type fakeEmployees struct {
	role    employee.Role
	created []employee.Employee
}

func (f *fakeEmployees) Get(ctx context.Context, accountID string) (employee.Employee, error) {
	return employee.Employee{AccountID: accountID, Role: f.role}, nil
}

func (f *fakeEmployees) Create(ctx context.Context, e employee.Employee) error {
	f.created = append(f.created, e)
	return nil
}

type fakeOrgs struct {
	created []organization.Organization
}

func (f *fakeOrgs) Create(ctx context.Context, org organization.Organization) (string, error) {
	f.created = append(f.created, org)
	return "org-new", nil
}

func (f *fakeOrgs) Get(ctx context.Context, id string) (organization.Organization, error) {
	return organization.Organization{ID: id, Name: "Пекарня"}, nil
}

type fakeBrief struct {
	replies []brief.Reply
	turns   []string
}

func (f *fakeBrief) Step(ctx context.Context, sess *brief.Session, systemPrompt, userText string) (brief.Reply, error) {
	f.turns = append(f.turns, userText)
	if len(f.replies) == 0 {
		return brief.Reply{MessageToUser: "Расскажите подробнее."}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type fakeHistory struct {
	deleted []string
}

func (f *fakeHistory) Create(stateID string) (chathistory.Chat, error) {
	return chathistory.Chat{ID: "chat-1", StateID: stateID}, nil
}

func (f *fakeHistory) Delete(chatID string) error {
	f.deleted = append(f.deleted, chatID)
	return nil
}

// --- harness ---

type env struct {
	rt     *dialog.Runtime
	ft     *fakeTransport
	states *state.Store

	content   *fakeContent
	editor    *fakeEditor
	employees *fakeEmployees
	orgs      *fakeOrgs
	brief     *fakeBrief
	history   *fakeHistory
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		ft:        &fakeTransport{},
		content:   &fakeContent{},
		editor:    &fakeEditor{generated: "сгенерированный текст", compressed: "сжатый текст"},
		employees: &fakeEmployees{role: employee.RoleAdmin},
		orgs:      &fakeOrgs{},
		brief:     &fakeBrief{},
		history:   &fakeHistory{},
	}
	states, err := state.NewStore(state.StoreOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("state.NewStore() error = %v", err)
	}
	e.states = states

	reg := dialog.NewRegistry()
	err = Register(reg, Deps{
		Content:       e.content,
		Editor:        e.editor,
		Employees:     e.employees,
		Organizations: e.orgs,
		Brief:         e.brief,
		History:       e.history,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	rt, err := dialog.NewRuntime(dialog.Options{
		Registry:    reg,
		Transport:   e.ft,
		States:      states,
		EntryDialog: DialogMainMenu,
	})
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}
	e.rt = rt
	return e
}

func (e *env) seedUser(t *testing.T, chatID int64, orgID, accountID string) {
	t.Helper()
	st, err := e.states.Ensure(chatID, "tester")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	st.OrganizationID = orgID
	st.AccountID = accountID
	if err := e.states.Save(st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func (e *env) start(chatID int64) {
	e.rt.Deliver(context.Background(), transport.Event{
		ChatID: chatID, UserID: chatID, Kind: transport.EventCommand, Command: "start",
	})
}

func (e *env) tap(chatID int64, widget string) {
	e.rt.Deliver(context.Background(), transport.Event{
		ChatID: chatID, UserID: chatID, Kind: transport.EventCallback,
		CallbackID: "cb", CallbackData: "d:" + widget,
	})
}

func (e *env) text(chatID int64, text string) {
	e.rt.Deliver(context.Background(), transport.Event{
		ChatID: chatID, UserID: chatID, Kind: transport.EventText, Text: text,
	})
}

func (e *env) photo(chatID int64, fileID, name string) {
	e.rt.Deliver(context.Background(), transport.Event{
		ChatID: chatID, UserID: chatID, Kind: transport.EventPhoto,
		FileID: fileID, FileName: name, MimeType: "image/jpeg", FileSize: 1 << 20,
	})
}

// --- publication flow ---

func validText() string {
	return strings.Repeat("Хороший пост о хлебе. ", 5)
}

func TestPublishFlowUpdatesModeratesAndPublishes(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.pubs = []content.Publication{
		{ID: "pub-1", OrganizationID: "org-1", CategoryID: "cat-1", Text: validText(), Status: content.StatusDraft, TgSource: true},
	}
	e.content.networks = []content.SocialNetwork{{Type: "telegram", Enabled: true}}
	e.content.published = content.Publication{TelegramLink: "https://t.me/bakery/42"}

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "publish")
	e.tap(1, "confirm")

	if len(e.content.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(e.content.updates))
	}
	if !e.content.updates[0].TgSource {
		t.Fatalf("published without tg_source")
	}
	if len(e.content.moderates) != 1 || e.content.moderates[0].Status != content.StatusApproved {
		t.Fatalf("moderates = %+v, want one approved", e.content.moderates)
	}
	if len(e.content.publishes) != 1 || e.content.publishes[0] != "pub-1" {
		t.Fatalf("publishes = %v", e.content.publishes)
	}
	if got := e.ft.lastText(); !strings.Contains(got, "https://t.me/bakery/42") {
		t.Fatalf("success screen = %q, want published link", got)
	}
}

func TestSaveUploadsAttachedPhotoToBackend(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.pubs = []content.Publication{
		{ID: "pub-1", OrganizationID: "org-1", CategoryID: "cat-1", Text: validText(), Status: content.StatusDraft},
	}

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "edit_image")
	e.tap(1, "upload")
	e.photo(1, "file-42", "cover.jpg")
	e.tap(1, "save")

	if len(e.content.uploads) != 1 {
		t.Fatalf("uploads = %+v, want 1", e.content.uploads)
	}
	up := e.content.uploads[0]
	if up.ID != "pub-1" || up.Name != "cover.jpg" {
		t.Fatalf("upload = %+v", up)
	}
	if up.Size != len("jpeg-bytes") {
		t.Fatalf("uploaded %d bytes, want the downloaded file", up.Size)
	}
}

func TestSaveAfterRemovePhotoDeletesBackendImage(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.pubs = []content.Publication{
		{
			ID: "pub-1", OrganizationID: "org-1", CategoryID: "cat-1",
			Text: validText(), ImageURL: "https://cdn.example.com/img.png",
			Status: content.StatusDraft,
		},
	}

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "edit_image")
	e.tap(1, "remove")
	e.tap(1, "save")

	if len(e.content.imgDeletes) != 1 || e.content.imgDeletes[0] != "pub-1" {
		t.Fatalf("image deletes = %v, want [pub-1]", e.content.imgDeletes)
	}
	if len(e.content.uploads) != 0 {
		t.Fatalf("unexpected uploads: %+v", e.content.uploads)
	}
}

func TestPublishWithImageTooLongOffersCompression(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.pubs = []content.Publication{
		{
			ID: "pub-1", OrganizationID: "org-1", CategoryID: "cat-1",
			Text:     strings.Repeat("а", 1100),
			ImageURL: "https://cdn.example.com/img.png",
			Status:   content.StatusDraft,
		},
	}

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "publish")

	if got := e.ft.lastText(); !strings.Contains(got, "не помещается") {
		t.Fatalf("expected length alert, got %q", got)
	}

	e.tap(1, "compress")

	if len(e.editor.compressCalls) != 1 || !e.editor.compressCalls[0] {
		t.Fatalf("compressCalls = %v, want one call with image", e.editor.compressCalls)
	}
	if got := e.ft.lastText(); !strings.Contains(got, "сжатый текст") {
		t.Fatalf("preview after compression = %q", got)
	}
}

func TestShortTextIsRejectedWithFlag(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.pubs = []content.Publication{
		{ID: "pub-1", OrganizationID: "org-1", Text: validText(), Status: content.StatusDraft},
	}

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "edit_text")
	e.tap(1, "write_own")
	e.text(1, "мало")

	if got := e.ft.lastText(); !strings.Contains(got, "слишком короткий") {
		t.Fatalf("expected short-text flag, got %q", got)
	}
	if len(e.content.updates) != 0 {
		t.Fatalf("rejected text reached the backend")
	}
}

func TestUndoRestoresTextAfterRegeneration(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	original := validText()
	e.content.pubs = []content.Publication{
		{ID: "pub-1", OrganizationID: "org-1", Text: original, Status: content.StatusDraft},
	}
	e.editor.generated = strings.Repeat("Совсем другой текст. ", 5)

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "pick:0")
	e.tap(1, "edit_text")
	e.tap(1, "regen")

	if got := e.ft.lastText(); !strings.Contains(got, "Совсем другой текст") {
		t.Fatalf("preview after regen = %q", got)
	}

	e.tap(1, "undo")

	if got := e.ft.lastText(); !strings.Contains(got, "Хороший пост о хлебе") {
		t.Fatalf("preview after undo = %q, want original text", got)
	}
}

func TestInsufficientBalanceSurfacesAsFlagNotApology(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.content.cats = []content.Category{{ID: "cat-1", Name: "Новости"}}
	e.editor.genErr = editor.ErrInsufficientBalance

	e.start(1)
	e.tap(1, "publications")
	e.tap(1, "create")
	e.tap(1, "category:cat-1")
	e.text(1, "Напиши про новую витрину")

	got := e.ft.lastText()
	if !strings.Contains(got, "Недостаточно средств") {
		t.Fatalf("expected balance notice, got %q", got)
	}
	if strings.Contains(got, dialog.ApologyText) {
		t.Fatalf("balance refusal rendered as generic apology")
	}
}

// --- moderation flow ---

func TestModerationRejectRequiresCommentAndRecordsIt(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.employees.role = employee.RoleModerator
	e.content.pubs = []content.Publication{
		{ID: "pub-9", OrganizationID: "org-1", Text: validText(), Status: content.StatusModeration},
	}

	e.start(1)
	e.tap(1, "moderation")
	e.tap(1, "review")
	e.tap(1, "reject")
	e.text(1, "коротко") // under the 10-char minimum

	if len(e.content.moderates) != 0 {
		t.Fatalf("rejection went through with an invalid comment")
	}

	e.text(1, "Слишком рекламный тон, перепишите нейтральнее")

	if len(e.content.moderates) != 1 {
		t.Fatalf("moderates = %d, want 1", len(e.content.moderates))
	}
	call := e.content.moderates[0]
	if call.Status != content.StatusRejected || call.ID != "pub-9" {
		t.Fatalf("moderate call = %+v", call)
	}
	if !strings.Contains(call.Comment, "рекламный тон") {
		t.Fatalf("comment not forwarded: %q", call.Comment)
	}
}

func TestModerationIsClosedToPlainEmployees(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.employees.role = employee.RoleEmployee
	e.content.pubs = []content.Publication{
		{ID: "pub-9", OrganizationID: "org-1", Text: validText(), Status: content.StatusModeration},
	}

	e.start(1)
	e.tap(1, "moderation")

	// The dialog bounces straight back to the menu.
	if got := e.ft.lastText(); !strings.Contains(got, "Главное меню") {
		t.Fatalf("employee reached moderation: %q", got)
	}
}

// --- video cuts ---

func TestVideoCutURLValidation(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")

	e.start(1)
	e.tap(1, "video_cuts")
	e.tap(1, "create")
	e.text(1, "https://example.com/watch?v=nope")

	if len(e.content.genCutURLs) != 0 {
		t.Fatalf("invalid URL reached the backend: %v", e.content.genCutURLs)
	}
	if got := e.ft.lastText(); !strings.Contains(got, "YouTube") {
		t.Fatalf("expected URL flag, got %q", got)
	}

	e.text(1, "https://youtu.be/dQw4w9WgXcQ")

	if len(e.content.genCutURLs) != 1 {
		t.Fatalf("genCutURLs = %v, want one accepted URL", e.content.genCutURLs)
	}
}

// --- brief flows ---

func TestOrganizationBriefCreatesOrgAndAdmin(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "", "acc-1")
	e.brief.replies = []brief.Reply{
		{MessageToUser: "Чем занимается ваша компания?"},
		{OrganizationData: map[string]any{
			"name":        "Пекарня №1",
			"description": "Свежий хлеб каждый день",
		}},
	}

	e.start(1)
	e.tap(1, "create_org")
	e.text(1, "Мы печём хлеб")
	e.text(1, "Пекарня №1, свежий хлеб")

	if len(e.orgs.created) != 1 || e.orgs.created[0].Name != "Пекарня №1" {
		t.Fatalf("orgs created = %+v", e.orgs.created)
	}
	if len(e.employees.created) != 1 || e.employees.created[0].Role != employee.RoleAdmin {
		t.Fatalf("employees created = %+v, want one admin", e.employees.created)
	}
	st, err := e.states.Get(1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if st.OrganizationID != "org-new" {
		t.Fatalf("user organization = %q, want org-new", st.OrganizationID)
	}
	if len(e.history.deleted) != 1 {
		t.Fatalf("brief history not cleaned up")
	}
}

func TestOrganizationBriefAutoStartsCategoryBrief(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "", "acc-1")
	e.brief.replies = []brief.Reply{
		{OrganizationData: map[string]any{
			"name":        "Пекарня №1",
			"description": "Свежий хлеб каждый день",
		}},
	}

	e.start(1)
	e.tap(1, "create_org")
	e.text(1, "Пекарня №1, свежий хлеб")

	// The creation receipt stays in the chat and the category greeting
	// follows as its own message, no tap in between.
	var receipt bool
	for _, r := range e.ft.renders {
		if strings.Contains(r, "создана") {
			receipt = true
		}
	}
	if !receipt {
		t.Fatalf("creation receipt not rendered: %v", e.ft.renders)
	}
	if got := e.ft.lastText(); !strings.Contains(got, "Создаём новую рубрику") {
		t.Fatalf("category greeting not shown: %q", got)
	}

	// The next message is already a category brief turn.
	turnsBefore := len(e.brief.turns)
	e.text(1, "Пишем о хлебе, тепло и коротко")
	if len(e.brief.turns) != turnsBefore+1 {
		t.Fatalf("category brief did not receive the turn")
	}
}

func TestCategoryBriefCreatesCategory(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	e.brief.replies = []brief.Reply{
		{FinalCategory: map[string]any{
			"name":              "Новости пекарни",
			"description":       "Анонсы и новинки",
			"text_style_prompt": "Тепло и коротко",
		}},
	}

	e.start(1)
	e.tap(1, "new_category")
	e.text(1, "@bakery_channel")

	if len(e.content.created) != 1 {
		t.Fatalf("categories created = %d, want 1", len(e.content.created))
	}
	cat := e.content.created[0]
	if cat.Name != "Новости пекарни" || cat.OrganizationID != "org-1" {
		t.Fatalf("created category = %+v", cat)
	}
	if cat.TextStylePrompt != "Тепло и коротко" {
		t.Fatalf("style prompt not forwarded: %q", cat.TextStylePrompt)
	}
}

func TestForwardedMessageKeepsPrefixInBriefTurn(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")

	e.start(1)
	e.tap(1, "new_category")
	e.rt.Deliver(context.Background(), transport.Event{
		ChatID: 1, UserID: 1, Kind: transport.EventText,
		Text: "Вот пример нашего поста", ForwardedFrom: "Bakery Channel",
	})

	if len(e.brief.turns) != 1 {
		t.Fatalf("brief turns = %d, want 1", len(e.brief.turns))
	}
	turn := e.brief.turns[0]
	if !strings.Contains(turn, "[Пересланное сообщение]:") || !strings.Contains(turn, "Bakery Channel") {
		t.Fatalf("forwarded turn = %q", turn)
	}
}

// --- alerts ---

func TestAlertViewConsumesStoredAlerts(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "org-1", "acc-1")
	st, err := e.states.Get(1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := e.states.AddAlert(st.ID, state.AlertPublicationRejected, map[string]any{"comment": "Перепишите заголовок"}); err != nil {
		t.Fatalf("AddAlert() error = %v", err)
	}

	e.start(1)
	if got := e.ft.lastText(); !strings.Contains(got, "1") {
		t.Fatalf("menu does not show alert count: %q", got)
	}

	e.tap(1, "alerts_open")
	if got := e.ft.lastText(); !strings.Contains(got, "Перепишите заголовок") {
		t.Fatalf("alert view = %q", got)
	}

	alerts, err := e.states.Alerts(st.ID)
	if err != nil {
		t.Fatalf("Alerts() error = %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts not consumed: %d left", len(alerts))
	}
}
