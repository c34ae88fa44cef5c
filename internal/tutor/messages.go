package tutor

import (
	"fmt"
	"strings"

	"github.com/spotlight2/coach/internal/preferences"
)

// VoicePrefix marks a user message that came from speech.
const VoicePrefix = "🎤 "

type phrasebook struct {
	welcome       string
	cleared       string
	apology       string
	sttFailed     string
	micDenied     string
	processing    string
	languageLabel string
}

var phrases = map[preferences.Language]phrasebook{
	preferences.English: {
		welcome:       "Hello! I'm your private Spotlight 2 tutor. Ask me about any unit, grammar rule, vocabulary, or say 'quiz me' to practice! 📚",
		cleared:       "Chat cleared! What would you like to learn? 📚",
		apology:       "Sorry, I couldn't reach your tutor right now. Please try again in a moment.",
		sttFailed:     "Voice-to-text failed. Please try again or type your question.",
		micDenied:     "I can't hear you: microphone access was denied. Allow the microphone in your browser settings, or type your question.",
		processing:    "Processing voice...",
		languageLabel: "English",
	},
	preferences.French: {
		welcome:       "Bonjour ! Je suis ton tuteur personnel Spotlight 2. Pose-moi une question sur une unité, une règle de grammaire, du vocabulaire, ou dis « interroge-moi » pour t'entraîner ! 📚",
		cleared:       "Conversation effacée ! Qu'aimerais-tu apprendre ? 📚",
		apology:       "Désolé, impossible de joindre ton tuteur pour le moment. Réessaie dans un instant.",
		sttFailed:     "La transcription de la voix a échoué. Réessaie ou écris ta question.",
		micDenied:     "Je ne t'entends pas : l'accès au micro a été refusé. Autorise le micro dans ton navigateur ou écris ta question.",
		processing:    "Traitement de la voix...",
		languageLabel: "French",
	},
	preferences.Arabic: {
		welcome:       "مرحبًا! أنا مدربك الخاص لمنهج Spotlight 2. اسألني عن أي وحدة أو قاعدة لغوية أو قل 'اختبرني' للتدريب! 📚",
		cleared:       "تم مسح المحادثة! ماذا تريد أن تتعلم؟ 📚",
		apology:       "عذرًا، يبدو أن هناك مشكلة في الاتصال بالمدرب.",
		sttFailed:     "فشل تحويل الصوت إلى نص.",
		micDenied:     "لا أستطيع سماعك: تم رفض الوصول إلى الميكروفون. اسمح بالميكروفون في إعدادات المتصفح أو اكتب سؤالك.",
		processing:    "جاري معالجة الصوت...",
		languageLabel: "Arabic",
	},
}

func phrasesFor(lang preferences.Language) phrasebook {
	if p, ok := phrases[lang]; ok {
		return p
	}
	return phrases[preferences.Default]
}

// Welcome is the first message of a new conversation.
func Welcome(lang preferences.Language) string { return phrasesFor(lang).welcome }

// Greeting is the single message left after a clear.
func Greeting(lang preferences.Language) string { return phrasesFor(lang).cleared }

// Apology replaces a pending reply that failed.
func Apology(lang preferences.Language) string { return phrasesFor(lang).apology }

// TranscriptionApology replaces a pending reply whose audio could not be read.
func TranscriptionApology(lang preferences.Language) string { return phrasesFor(lang).sttFailed }

// PermissionNotice tells the learner the microphone is blocked.
func PermissionNotice(lang preferences.Language) string { return phrasesFor(lang).micDenied }

// Suggestions are starter prompts shown on an empty chat.
var Suggestions = []string{
	"Help me with Unit 1: Jobs",
	"Explain some vs any grammar rule",
	"Translate 'thank you' to French",
	"Quiz me on health vocabulary",
	"What are demonstrative pronouns?",
	"Tell me about Morocco's geography",
}

const persona = `You are "Spotlight Coach", a world-class AI English Tutor specialized in the "Spotlight 2" Moroccan curriculum (8th Grade).

Your objective:
1. Help students with 9 main units: Jobs, Health, Food, Technology, Fashion, Nature, Leisure, School, and Travel.
2. If they ask about Unit 1, focus on jobs like Nurse, Mechanic, Journalist.
3. If they ask about Unit 2, focus on Moroccan food like Harira, Tagine, and countables/uncountables.
4. Keep answers encouraging, visual (use some emojis), and concise.
5. Provide translations if requested.
6. Current UI language is %s. Respond in a way that matches their context. If they speak Arabic, answer primarily in Arabic with English examples. If they speak French, answer primarily in French with English examples.

The student asks: "%s"`

// ComposePrompt prepends the tutor persona to the learner's text.
func ComposePrompt(ex Exchange) string {
	return fmt.Sprintf(persona, phrasesFor(ex.Language).languageLabel, strings.TrimSpace(ex.RequestText))
}
