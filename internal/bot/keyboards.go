package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const (
	btnYesterday = "📉 Вчора"
	btnDate      = "📅 Конкретна дата"
	btnPeriod    = "🗓 За період"
	btnCancel    = "🔙 Скасувати"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYesterday),
			tgbotapi.NewKeyboardButton(btnDate),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPeriod),
		),
	)
}

func statusKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Перевірити обмін"),
			tgbotapi.NewKeyboardButton("Очікує обмін"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Обмін підтверджено"),
			tgbotapi.NewKeyboardButton("Виконано"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Відмінено"),
			tgbotapi.NewKeyboardButton("ТТН сформовано"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Запаковано"),
			tgbotapi.NewKeyboardButton("Відправлено"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Всі"),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}
