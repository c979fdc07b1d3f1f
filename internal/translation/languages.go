package translation

import "strings"

// SupportedLanguages maps target language codes to the names used in prompts
var SupportedLanguages = map[string]string{
	"zh":    "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"en":    "English",
	"ja":    "Japanese",
	"ko":    "Korean",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"it":    "Italian",
	"pt":    "Portuguese",
	"ru":    "Russian",
	"bg":    "Bulgarian",
	"ar":    "Arabic",
	"th":    "Thai",
	"vi":    "Vietnamese",
}

// LanguageName returns the prompt name of code and whether it is supported
func LanguageName(code string) (string, bool) {
	name, ok := SupportedLanguages[strings.ToLower(strings.TrimSpace(code))]
	return name, ok
}

// BuildPrompt returns the system and user messages for translating text
func BuildPrompt(text, targetLanguage string) (system, user string) {
	name, ok := LanguageName(targetLanguage)
	if !ok {
		name = targetLanguage
	}
	system = "You are a professional translator for short user interface texts captured from the screen. " +
		"Keep line breaks. Respond with only the translation, nothing else."
	user = "Translate the following text to " + name + ":\n\n" + text
	return system, user
}
