package bot

const (
	textStart = "👋 Привет! Я бот-напоминалка.\n\n" +
		"Команды:\n" +
		"/new - создать напоминание\n" +
		"/list - список напоминаний\n" +
		"/delete - удалить напоминание\n" +
		"/cancel - отменить текущее действие\n\n" +
		"🕔 Время указывается по Екатеринбургу"

	textExamples = "Примеры:\n" +
		"• через 5 минут купить молоко\n" +
		"• через 2 часа сделать домашку\n" +
		"• в 18:30 позвонить маме\n" +
		"• завтра в 10:00 встреча\n" +
		"• 20.12 в 15:00 забрать посылку"

	textNewPrompt = "✍️ Напиши текст напоминания с указанием времени:\n\n" +
		textExamples + "\n\n" +
		"🕔 Я установлю напоминание по времени Екатеринбурга"

	textParseFailed = "❌ Не удалось определить время или текст напоминания. " +
		"Попробуй еще раз:\n\n" + textExamples

	textCreated = "✅ Напоминание установлено на:\n" +
		"🕔 %s (время Екатеринбурга)\n\n" +
		"📝 Текст: %s"

	textNoReminders       = "У вас пока нет напоминаний."
	textNoActiveReminders = "У вас пока нет активных напоминаний."
	textNothingToDelete   = "Нет активных напоминаний для удаления."
	textListHeader        = "📋 Ваши напоминания (время Екатеринбурга):\n\n"
	textListEntry         = "%d. %s\n⏰ %s\nID: %d\n\n"
	textDeletePrompt      = "✏️ Напишите номер ID напоминания, которое хотите удалить.\n\n" +
		"❌ Если передумали, напишите отмена."
	textDeleteCancelled = "❌ Удаление отменено."
	textDeleteBadID     = "❌ Введите корректный ID или напишите отмена."
	textDeleted         = "✅ Напоминание #%d удалено."
	textNotFound        = "❌ Напоминание не найдено."

	textRemindAgainPrompt = "⏰ Когда напомнить?\n\n" +
		"Пример:\n" +
		"через 10 минут\n" +
		"через 2 часа\n" +
		"в 18:30"
	textDelayParseFailed = "❌ Не удалось распознать время. Пример:\n" +
		"через 10 минут или через 2 часа"
	textRescheduled = "✅ Хорошо! Напомню ещё раз.\n🕒 %s (Екатеринбург)"

	textCancelled     = "❌ Действие отменено."
	textNothingCancel = "Нечего отменять."
	textUnknown       = "🤔 Не понимаю. Чтобы создать напоминание, отправьте /new"

	textReminder        = "🔔 Напоминание: %s"
	textRepeatButton    = "🔁 Повторить"
	callbackRemindAgain = "remind_again:"

	textBlocked = "❌ Вы заблокированы!\n" +
		"Причина: %s\n\n" +
		"По вопросам разблокировки обратитесь к администратору."
	textNoReason     = "Не указана"
	textAccessDenied = "❌ Доступ запрещен"
	textInternal     = "❌ Произошла ошибка. Попробуйте позже."

	textAdminMenu = "👨‍💼 Админ панель:\n\n" +
		"/admin_users - список пользователей\n" +
		"/admin_reminders - все напоминания\n" +
		"/block_user - заблокировать пользователя\n" +
		"/unblock_user - разблокировать пользователя"
	textUsersHeader       = "👥 Пользователи:\n\n"
	textNoUsers           = "👥 Пользователей пока нет."
	textStatusBlocked     = "🚫 Заблокирован"
	textStatusActive      = "✅ Активен"
	textAllRemindersHead  = "📋 Все напоминания:\n\n"
	textNoAllReminders    = "📋 Напоминаний пока нет."
	textStatusSent        = "✅ Отправлено"
	textStatusPending     = "⏰ Ожидает"
	textBlockPromptID     = "Введите ID пользователя для блокировки:"
	textBlockBadID        = "❌ Некорректный ID пользователя"
	textBlockPromptReason = "Введите причину блокировки:"
	textUserBlocked       = "✅ Пользователь %d заблокирован\nПричина: %s"
	textUserNotFound      = "❌ Пользователь не найден"
	textUnblockUsage      = "Используйте: /unblock_user USER_ID"
	textUserUnblocked     = "✅ Пользователь %d разблокирован"
	textUnblockNotFound   = "❌ Пользователь не найден или не заблокирован"
)

// cancelWords end the delete dialog.
var cancelWords = map[string]bool{
	"отмена": true,
	"cancel": true,
	"назад":  true,
}
