package bot

import "fmt"

func (b *Bot) welcomeText() string {
	return fmt.Sprintf(
		"👋 <b>Добро пожаловать в %s</b>\n\n"+
			"📘 <b>Краткая презентация + инструкция</b>\n"+
			"Узнай, как создать свой цифровой продукт с ИИ за один вечер 🚀\n\n"+
			"💡 <b>Набор поможет вам:</b>\n"+
			"• Автоматизировать рутину и сэкономить время\n"+
			"• Создавать контент и идеи для бизнеса\n"+
			"• Запустить собственного Telegram-бота без кода\n"+
			"• Начать зарабатывать на продаже AI-решений\n\n"+
			"🚀 <b>Что вы получите:</b>\n"+
			"• 100 ChatGPT-промптов для бизнеса\n"+
			"• Шаблон Telegram-бота с CRM\n"+
			"• Пошаговый PDF-гайд по запуску (10 минут)\n\n"+
			"💵 <b>Стоимость:</b> %d ₽\n\n"+
			"Как получить:\n"+
			"1️⃣ Нажмите «Оплата по СБП (QR)» и оплатите\n"+
			"2️⃣ Нажмите «✅ Я оплатил(а)»\n"+
			"3️⃣ Отправьте скриншот чека для подтверждения\n\n"+
			"⏱ Проверка занимает обычно 5–15 минут",
		b.cfg.Brand.Name, b.cfg.SBP.PriceRub)
}

func (b *Bot) verifiedHomeText() string {
	return fmt.Sprintf(
		"🎉 <b>Доступ к %s активирован!</b>\n\n"+
			"Поздравляем — теперь у вас есть полный комплект для создания собственного цифрового продукта с ИИ 💼\n\n"+
			"🚀 <b>В вашем наборе:</b>\n"+
			"• 100 готовых ChatGPT-промптов для бизнеса и контента\n"+
			"• Шаблон Telegram-бота с CRM и автоответами\n"+
			"• PDF-гайд по запуску за 10 минут\n"+
			"• README-файл с инструкциями и рекомендациями\n\n"+
			"💡 Всё, что нужно для старта уже у вас — даже отдельный ChatGPT-аккаунт не нужен.\n"+
			"Используйте встроенного ИИ прямо в этом боте, чтобы тестировать и применять промпты.\n\n"+
			"👇 Что можно сделать прямо сейчас:\n"+
			"• «🔄 Получить файлы снова» — переотправим материалы\n"+
			"• «🤖 ИИ-помощник» — два режима: консультант по набору и универсальный реализатор промптов\n"+
			"• «💬 Поддержка» — помощь и консультации\n"+
			"• «❓ FAQ» — ответы на популярные вопросы\n\n"+
			"🚀 Начните с открытия PDF-гайда — там пошагово показано, как запустить шаблонного бота.",
		b.cfg.Brand.Name)
}

const helpText = "❓ <b>Помощь</b>\n\n" +
	"• /start — начать заново\n" +
	"• «Я оплатил(а)» — прислать чек на проверку\n" +
	"• «Поддержка» — задать вопрос\n\n" +
	"После подтверждения платежа получите:\n" +
	"• 100 промптов (PDF)\n" +
	"• Презентацию продукта (PDF)\n" +
	"• Шаблон бота (Python файл)\n"

const aboutText = "ℹ️ <b>О наборе AI Business Kit</b>\n\n" +
	"Набор материалов и кода для быстрого старта:\n" +
	"• 100 промптов для бизнеса\n" +
	"• Пошаговое руководство\n" +
	"• Шаблон Telegram-бота с CRM\n\n" +
	"Поддержка по вопросам: нажмите «Написать в поддержку»."

const faqText = "❓ <b>FAQ</b>\n\n" +
	"1) Токен — @BotFather → /newbot\n" +
	"2) Свой ID — @myidbot / @userinfobot\n" +
	"3) Шаблон — pip install aiogram → python bot_template.py\n" +
	"4) Демо товары — уже в базе шаблона\n" +
	"5) Ответ пользователю — кнопка «✉️» в уведомлении или команда /reply\n"

const supportIntroText = "💬 <b>Служба поддержки</b>\n\n" +
	"Опишите вопрос — ответим в этом чате.\n" +
	"Если срочно — нажмите «Связаться с менеджером»."

const supportComposeText = "✉️ Напишите сообщение (можно фото/документ/голосовое) — оператор получит его и ответит здесь."

const verificationText = "📸 <b>Подтверждение оплаты</b>\n\n" +
	"Отправьте <b>скриншот чека оплаты</b> по СБП. Должны быть видны:\n" +
	"• Дата и время платежа\n" +
	"• Сумма и статус (успешно/выполнено)\n" +
	"• Получатель\n" +
	"• Комментарий с вашим <b>Order#</b> (если поле доступно в банке)\n\n" +
	"Если у вас ещё нет QR — нажмите «Оплата по СБП (QR)» в меню.\n"

const replyUsageText = "✉️ <b>Ответ пользователю</b>\n\n" +
	"Способы отправки:\n" +
	"• Команда: <code>/reply USER_ID Текст</code>\n" +
	"• Ответом на уведомление от бота: <code>/reply Текст</code>\n" +
	"• Можно прикреплять медиа и подпись — всё уйдёт пользователю.\n\n" +
	"Примеры:\n" +
	"<code>/reply 641521378 Привет! Ваш доступ открыт ✅</code>\n" +
	"<code>(Reply на уведомление) /reply Спасибо за обращение!</code>"

func (b *Bot) managerInfoText() string {
	tag := b.cfg.Brand.SupportTG
	switch {
	case tag == "":
		tag = "— не указан —"
	case tag[0] != '@':
		tag = "@" + tag
	}
	return "👨‍💼 <b>Контакт менеджера поддержки</b>\n\n" +
		"📩 <b>" + tag + "</b>\n\n" +
		"Рекомендуем обращаться по вопросам:\n" +
		"• 💳 Оплата и подтверждение доступа\n" +
		"• 📂 Повторная выдача файлов\n" +
		"• ⚙️ Технические неполадки бота\n\n" +
		"💡 <i>Начни сообщение с фразы:</i>\n" +
		"«" + b.cfg.Brand.Name + " — ... (суть вопроса)»"
}
