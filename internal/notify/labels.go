package notify

// DefaultLocale is used for users without a preferred language.
const DefaultLocale = "bg"

var labels = map[string]map[string]string{
	"bg": {
		"invite.title":              "Нова задача за вас",
		"category.plumbing":         "ВиК услуги",
		"category.electrical":       "Електроуслуги",
		"category.cleaning":         "Почистване",
		"category.handyman":         "Майстор за дома",
		"category.moving":           "Хамалски услуги",
		"category.painting":         "Боядисване",
		"category.renovation":       "Ремонти",
		"category.appliance-repair": "Ремонт на уреди",
		"category.gardening":        "Градинарство",
		"category.it-services":      "IT услуги",
		"category.tutoring":         "Уроци",
		"category.other":            "Други",
	},
	"en": {
		"invite.title":              "A new task for you",
		"category.plumbing":         "Plumbing",
		"category.electrical":       "Electrical",
		"category.cleaning":         "Cleaning",
		"category.handyman":         "Handyman",
		"category.moving":           "Moving",
		"category.painting":         "Painting",
		"category.renovation":       "Renovation",
		"category.appliance-repair": "Appliance repair",
		"category.gardening":        "Gardening",
		"category.it-services":      "IT services",
		"category.tutoring":         "Tutoring",
		"category.other":            "Other",
	},
	"ru": {
		"invite.title":              "Новая задача для вас",
		"category.plumbing":         "Сантехника",
		"category.electrical":       "Электрика",
		"category.cleaning":         "Уборка",
		"category.handyman":         "Мастер на час",
		"category.moving":           "Переезды",
		"category.painting":         "Покраска",
		"category.renovation":       "Ремонт",
		"category.appliance-repair": "Ремонт техники",
		"category.gardening":        "Садоводство",
		"category.it-services":      "IT услуги",
		"category.tutoring":         "Репетиторство",
		"category.other":            "Другое",
	},
}

// Labels translates notification labels. Unknown locales fall back to
// DefaultLocale and unknown keys are returned as is.
type Labels struct{}

func NewLabels() Labels {
	return Labels{}
}

func (Labels) Translate(key, locale string) string {
	if s, ok := labels[locale][key]; ok {
		return s
	}

	if s, ok := labels[DefaultLocale][key]; ok {
		return s
	}

	return key
}
