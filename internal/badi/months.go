package badi

// Month describes one of the twenty entries of the Badí' month table.
type Month struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Arabic      string `json:"arabic"`
	Meaning     string `json:"meaning"`
	Translation string `json:"translation"`
}

// months is in calendar order: Ayyám-i-Há sits between Mulk and 'Alá'.
var months = [...]Month{
	{Number: 1, Name: "Bahá", Arabic: "بهاء", Meaning: "Splendour", Translation: "Splendor"},
	{Number: 2, Name: "Jalál", Arabic: "جلال", Meaning: "Glory", Translation: "Glory"},
	{Number: 3, Name: "Jamál", Arabic: "جمال", Meaning: "Beauty", Translation: "Beauty"},
	{Number: 4, Name: "'Aẓamat", Arabic: "عظمة", Meaning: "Grandeur", Translation: "Grandeur"},
	{Number: 5, Name: "Núr", Arabic: "نور", Meaning: "Light", Translation: "Light"},
	{Number: 6, Name: "Raḥmat", Arabic: "رحمة", Meaning: "Mercy", Translation: "Mercy"},
	{Number: 7, Name: "Kalimát", Arabic: "كلمات", Meaning: "Words", Translation: "Words"},
	{Number: 8, Name: "Kamál", Arabic: "كمال", Meaning: "Perfection", Translation: "Perfection"},
	{Number: 9, Name: "Asmá'", Arabic: "أسماء", Meaning: "Names", Translation: "Names"},
	{Number: 10, Name: "'Izzat", Arabic: "عزة", Meaning: "Might", Translation: "Might"},
	{Number: 11, Name: "Mashíyyat", Arabic: "مشية", Meaning: "Will", Translation: "Will"},
	{Number: 12, Name: "'Ilm", Arabic: "علم", Meaning: "Knowledge", Translation: "Knowledge"},
	{Number: 13, Name: "Qudrat", Arabic: "قدرة", Meaning: "Power", Translation: "Power"},
	{Number: 14, Name: "Qawl", Arabic: "قول", Meaning: "Speech", Translation: "Speech"},
	{Number: 15, Name: "Masá'il", Arabic: "مسائل", Meaning: "Questions", Translation: "Questions"},
	{Number: 16, Name: "Sharaf", Arabic: "شرف", Meaning: "Honour", Translation: "Honor"},
	{Number: 17, Name: "Sulṭán", Arabic: "سلطان", Meaning: "Sovereignty", Translation: "Sovereignty"},
	{Number: 18, Name: "Mulk", Arabic: "ملك", Meaning: "Dominion", Translation: "Dominion"},
	{Number: 0, Name: "Ayyám-i-Há", Arabic: "أيام الهاء", Meaning: "Intercalary Days", Translation: "Days of Há"},
	{Number: 19, Name: "'Alá'", Arabic: "علاء", Meaning: "Loftiness", Translation: "Loftiness"},
}

// Months returns a copy of the month table in calendar order.
func Months() []Month {
	out := make([]Month, len(months))
	copy(out, months[:])
	return out
}

func MonthByNumber(number int) (Month, bool) {
	for _, m := range months {
		if m.Number == number {
			return m, true
		}
	}
	return Month{}, false
}
