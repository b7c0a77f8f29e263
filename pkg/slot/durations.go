package slot

// DefaultCareDuration 未知护理类型的默认访视时长（分钟）
const DefaultCareDuration = 45

// careDurations 各护理类型的访视时长（分钟）
var careDurations = map[string]int{
	"Wound Dressing":               45,
	"Wound Care Specialist":        45,
	"Post-operative Care":          60,
	"IV Therapy Specialist":        45,
	"Medication Administration":    30,
	"Palliative Care":              60,
	"Respiratory Care":             45,
	"Diabetic Care":                40,
	"Elderly Care":                 50,
	"Home Health Aide":             45,
	"Nursing Care":                 50,
	"Physical Therapy":             60,
	"Chronic Disease Management":   45,
	"Home Visit - General Checkup": 30,
	"Cardiac Care":                 45,
}

// CareDuration 返回访视时长（分钟）
// 患者显式指定的时长优先，否则按护理类型查表
func CareDuration(careNeeded string, override int) int {
	if override > 0 {
		return override
	}
	if d, ok := careDurations[careNeeded]; ok {
		return d
	}
	return DefaultCareDuration
}
