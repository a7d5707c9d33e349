package telegram

// User-facing texts. Menu button labels double as routing keys for plain
// text messages, so they must stay in sync with the reply keyboard.
const (
	btnSetup    = "⚙️ Setup"
	btnList     = "📋 My schedule"
	btnStop     = "🛑 Stop"
	btnHelp     = "❓ Help"
	btnContacts = "📨 Contacts"

	btnNext = "Next ▶️"

	msgMenu = "Hi! I send compliments on the days and time you pick.\n" +
		"Use the menu below or the /setup command to get started."

	msgChooseDays = "Choose compliment days:"

	msgChooseTime = "Now send me the delivery time as <code>HH:MM</code> (for example <code>09:30</code>)."

	msgBadTime = "That doesn't look like a valid time. " +
		"Please send it as <code>HH:MM</code>, e.g. <code>9:05</code> or <code>21:40</code>."

	msgStorageFailed = "I couldn't save your schedule, please try again with /setup."

	msgStopped = "From now on I stop making compliments! I hope to see you soon ^^"

	msgNothingToStop = "You have no compliment schedule, nothing to stop."

	msgEmptyList = "You have no compliment schedule yet. Run /setup to create one."

	msgNoDays = "Oh, you won't receive compliments :(\n" +
		"Run /setup again and pick at least one day."

	msgHelp = "I deliver a compliment to this chat on a weekly schedule.\n\n" +
		"/setup — pick weekdays and a time\n" +
		"/list — show your current schedule\n" +
		"/stop — cancel compliments\n" +
		"/contacts — how to reach my author"

	msgContacts = "Bugs and ideas are welcome: https://github.com/RedBullDogE/compliment-bot"
)

const (
	markOn  = "✅"
	markOff = "❌"
)

// dayLabels are the short captions on the day-selection keyboard, Monday
// first to match schedule.Weekdays indexing.
var dayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
