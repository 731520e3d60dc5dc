package i18n

// swahiliMessages holds all Kiswahili translations.
var swahiliMessages = map[string]string{
	// Chat
	"chat.greeting":     "Habari! 👋 Tafadhali andika swali au pakia faili ili kuanza kuzungumza na Vinnie AI. 💡",
	"chat.offline":      "Vinnie AI haipatikani kwa sasa. Tafadhali jaribu tena baadaye.",
	"chat.stream_error": "\n\n[Hitilafu ya huduma: %s]",

	// Identity
	"auth.duplicate_user":      "Mtumiaji tayari yupo! Tafadhali ingia.",
	"auth.invalid_credentials": "Jina la mtumiaji au nenosiri si sahihi",
	"auth.registered":          "Karibu, %s! 🚀",
	"auth.logged_in":           "Karibu tena, %s! 👍",
	"auth.logged_out":          "Umetoka kwenye akaunti.",

	// Language
	"lang.unsupported": "Lugha haitumiki: %s",
}
