package scoring

// careTypeSkills 护理类型到所需专长的映射
var careTypeSkills = map[string][]string{
	"Wound Dressing":            {"Wound Care", "Nursing Care"},
	"Physical Therapy":          {"Physical Therapy", "Rehabilitation"},
	"Medication Administration": {"Nursing Care", "Medication Management"},
	"Nursing Care":              {"Nursing Care"},
	"Occupational Therapy":      {"Occupational Therapy"},
	"Home Health Aide":          {"Home Health", "Elderly Care"},
	"Speech Therapy":            {"Speech Therapy"},
	"Respiratory Care":          {"Respiratory Care"},
	"Palliative Care":           {"Palliative Care", "Nursing Care"},
	"Post-operative Care":       {"Post-operative Care", "Nursing Care"},
	"Chronic Disease Management": {"Chronic Disease Management"},
	"Elderly Care":              {"Elderly Care"},
	"Diabetic Care":             {"Diabetic Care"},
	"Cardiac Care":              {"Cardiac Care"},

	"Home Visit - General Checkup":             {"Nursing Care"},
	"Home Visit - Blood Pressure Monitoring":   {"Cardiovascular Assessment"},
	"Home Visit - Wound Care":                  {"Wound Care"},
	"Home Visit - Medication Management":       {"Medication Management"},
	"Home Visit - Post-Surgery Follow-up":      {"Post-operative Care"},
	"Hospital at Home - Acute Care":            {"Acute Care", "Nursing Care"},
	"Hospital at Home - Chronic Disease Management": {"Chronic Disease Management"},
	"Hospital at Home - Rehabilitation":             {"Rehabilitation"},
	"Hospital at Home - Palliative Care":            {"Palliative Care"},
	"Hospital at Home - Post-Hospitalization Recovery": {"Post-operative Care"},
}

// SkillsForCareType 返回护理类型所需的专长列表，未知类型返回通用护理
func SkillsForCareType(careNeeded string) []string {
	if skills, ok := careTypeSkills[careNeeded]; ok {
		return skills
	}
	return []string{"General Care"}
}
