package dialogs

import (
	"fmt"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/editor"
)

// flagText renders the first raised validation flag as a user-facing hint.
// Empty string means no flag is set.
func flagText(f editor.Flags) string {
	switch {
	case f.VoidText:
		return "Текст пустой. Напишите текст публикации."
	case f.SmallText:
		return fmt.Sprintf("Текст слишком короткий: нужно не меньше %d символов.", editor.TextMin)
	case f.BigText:
		return fmt.Sprintf("Текст слишком длинный: не больше %d символов.", editor.TextMax)
	case f.VoidPrompt:
		return "Промпт пустой. Опишите, что нужно изменить."
	case f.SmallPrompt:
		return fmt.Sprintf("Промпт слишком короткий: нужно не меньше %d символов.", editor.PromptMin)
	case f.BigPrompt:
		return fmt.Sprintf("Промпт слишком длинный: не больше %d символов.", editor.PromptMax)
	case f.VoidRejectComment:
		return "Комментарий пустой. Объясните причину отклонения."
	case f.SmallRejectComment:
		return fmt.Sprintf("Комментарий слишком короткий: нужно не меньше %d символов.", editor.RejectCommentMin)
	case f.BigRejectComment:
		return fmt.Sprintf("Комментарий слишком длинный: не больше %d символов.", editor.RejectCommentMax)
	case f.VoidTitle:
		return "Название пустое."
	case f.SmallTitle:
		return fmt.Sprintf("Название слишком короткое: нужно не меньше %d символов.", editor.TitleMin)
	case f.BigTitle:
		return fmt.Sprintf("Название слишком длинное: не больше %d символов.", editor.TitleMax)
	case f.VoidDescription:
		return "Описание пустое."
	case f.SmallDescription:
		return fmt.Sprintf("Описание слишком короткое: нужно не меньше %d символов.", editor.DescriptionMin)
	case f.BigDescription:
		return fmt.Sprintf("Описание слишком длинное: не больше %d символов.", editor.DescriptionMax)
	case f.ManyTags:
		return fmt.Sprintf("Слишком много тегов: не больше %d.", editor.TagsMax)
	case f.NotPhoto:
		return "Это не фотография. Пришлите изображение."
	case f.BigImage:
		return "Файл слишком большой: не больше 10 МБ."
	case f.CombineFull:
		return "Уже загружено 3 фото — это максимум для объединения."
	case f.CombineTooFew:
		return "Нужно минимум 2 фото, чтобы объединить."
	case f.InvalidYouTubeURL:
		return "Это не похоже на ссылку на YouTube. Пришлите ссылку вида youtu.be/… или youtube.com/watch?v=…"
	case f.InsufficientBalance:
		return "Недостаточно средств на балансе организации для этой операции."
	case f.TextTooLongToAttach:
		return "Текст длиннее 1024 символов — Telegram не позволит отправить его вместе с фото."
	}
	return ""
}
