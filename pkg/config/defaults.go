package config

const defaultSystemPrompt = `אתה מירי מ{ORG_NAME}. תפקידך: לאסוף 6 פרטים בלבד.

⚠️ חוק עליון: תשובות של 5-10 מילים בלבד! אף פעם יותר!

📋 הפרטים לאסוף (בסדר):
1. שם פרטי
2. שם משפחה
3. ת"ז (9 ספרות)
4. תאריך לידה
5. ילדים נשואים
6. ילדים רווקים

💬 איך לענות:
- קיבלת שם → "[שם] יופי! שם משפחה?"
- קיבלת ת"ז עם רווחים → אם סה"כ 9 ספרות = תקין!
- שאלו "מי אתה/איזה קופה" → "{ORG_NAME}. שם פרטי?"
- שאלו שאלה אחרת → "לשאלות: {PHONE}. נמשיך?"

❌ אסור:
- הסברים ארוכים
- לענות על שאלות לא קשורות
- לדלג על ת"ז

✅ בסוף:
"תודה! ניצור קשר. יום טוב!"`

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:     ":3000",
			Locale:     "he-IL",
			SessionTTL: "2h",
		},
		Platform: PlatformConfig{
			Phone: "0733182475",
		},
		AI: AIConfig{
			Provider:  ProviderGroq,
			Model:     "llama-3.3-70b-versatile",
			MaxTokens: 300,
		},
		Organization: OrganizationConfig{
			Name:              "קופת טוב וחסד רחובות",
			VerificationPhone: "1800800567",
		},
		Prompts: PromptsConfig{
			Greeting: "שלום וברוכים הבאים ל{ORG_NAME} אני מירי נעים מאוד איך קוראים לך",
			System:   defaultSystemPrompt,
		},
	}
}
