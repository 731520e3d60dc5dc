package i18n

// englishMessages holds all English translations.
var englishMessages = map[string]string{
	// Chat
	"chat.greeting":     "Hi! 👋 Please enter a question or upload a file to start chatting with Vinnie AI. 💡",
	"chat.offline":      "Vinnie AI is offline right now. Please try again later.",
	"chat.stream_error": "\n\n[Service error: %s]",

	// Identity
	"auth.duplicate_user":      "User already exists! Please log in.",
	"auth.invalid_credentials": "Invalid username or password",
	"auth.registered":          "Welcome aboard, %s! 🚀",
	"auth.logged_in":           "Welcome back, %s! 👍",
	"auth.logged_out":          "You have been logged out.",

	// Language
	"lang.unsupported": "Unsupported language: %s",
}
