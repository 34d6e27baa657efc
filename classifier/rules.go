package classifier

import (
	"strings"

	"github.com/jane4246/coffee-advisory/models"
)

// Result carries the diagnosis fields produced for a symptom report.
type Result struct {
	DiseaseName   string
	Description   string
	Severity      string
	Treatment     string
	Prevention    string
	Confidence    string
	AnalysisNotes string
}

var (
	leafRust = Result{
		DiseaseName:   "Coffee Leaf Rust (Hemileia vastatrix)",
		Description:   "Fungal disease causing yellow-orange powdery spots on leaf undersides",
		Severity:      models.SeverityHigh,
		Treatment:     "Apply copper-based fungicide immediately. Use systemic fungicides like propiconazole. Improve plant nutrition with potassium and phosphorus fertilizers.",
		Prevention:    "Plant rust-resistant varieties (e.g., Ruiru 11, Batian). Maintain proper plant spacing for air circulation. Regular pruning and removal of infected leaves.",
		Confidence:    "0.75",
		AnalysisNotes: "Text Analysis: Symptoms strongly suggest Coffee Leaf Rust based on yellow/powder description. High confidence match.",
	}
	berryDisease = Result{
		DiseaseName:   "Coffee Berry Disease (Colletotrichum kahawae)",
		Description:   "Fungal infection causing dark sunken lesions on green berries",
		Severity:      models.SeverityHigh,
		Treatment:     "Apply copper fungicides during flowering and early berry development. Remove and destroy infected berries immediately.",
		Prevention:    "Use certified disease-free seedlings. Ensure good drainage and avoid overhead irrigation during flowering.",
		Confidence:    "0.80",
		AnalysisNotes: "Text Analysis: Brown/black symptoms on berries indicate Coffee Berry Disease. High confidence match.",
	}
	brownEyeSpot = Result{
		DiseaseName:   "Coffee Brown Eye Spot",
		Description:   "Fungal disease causing brown spots with light centers on leaves",
		Severity:      models.SeverityMedium,
		Treatment:     "Apply copper-based fungicides. Improve air circulation around plants.",
		Prevention:    "Maintain proper plant spacing. Remove fallen leaves. Avoid overhead watering.",
		Confidence:    "0.65",
		AnalysisNotes: "Text Analysis: Brown/black leaf symptoms suggest Coffee Brown Eye Spot. Moderate confidence.",
	}
	wiltDisease = Result{
		DiseaseName:   "Coffee Wilt Disease (Fusarium xylarioides)",
		Description:   "Fungal infection affecting vascular system causing wilting and branch dieback",
		Severity:      models.SeverityHigh,
		Treatment:     "Remove affected plants immediately to prevent spread. Improve soil drainage. Apply organic soil amendments.",
		Prevention:    "Use disease-resistant varieties. Improve soil drainage. Practice crop rotation. Use certified disease-free seedlings.",
		Confidence:    "0.85",
		AnalysisNotes: "Text Analysis: Wilting symptoms strongly indicate Coffee Wilt Disease. Immediate action required.",
	}
	berryBorer = Result{
		DiseaseName:   "Coffee Berry Borer (Hypothenemus hampei)",
		Description:   "Small beetles boring circular holes in coffee berries",
		Severity:      models.SeverityMedium,
		Treatment:     "Use pheromone traps to monitor and capture adults. Apply organic insecticides like neem oil or Beauveria bassiana.",
		Prevention:    "Harvest ripe berries promptly. Clean farm of fallen berries. Use shade trees to create unfavorable conditions for borers.",
		Confidence:    "0.90",
		AnalysisNotes: "Text Analysis: Hole/boring symptoms clearly indicate Coffee Berry Borer. Very high confidence.",
	}
	powderyMildew = Result{
		DiseaseName:   "Powdery Mildew",
		Description:   "Fungal disease causing white powdery growth on leaves",
		Severity:      models.SeverityLow,
		Treatment:     "Apply sulfur-based fungicides. Improve air circulation around plants.",
		Prevention:    "Maintain proper plant spacing. Avoid overhead watering. Remove affected plant parts.",
		Confidence:    "0.70",
		AnalysisNotes: "Text Analysis: White powder symptoms indicate Powdery Mildew. Good confidence match.",
	}
	unidentified = Result{
		DiseaseName:   "Unidentified Condition",
		Description:   "Unable to identify specific disease from provided symptoms",
		Severity:      models.SeverityMedium,
		Treatment:     "Contact your local agricultural extension officer for proper identification. Take clear photos of affected plant parts.",
		Prevention:    "Maintain good plant hygiene, proper spacing, and regular monitoring of plant health.",
		Confidence:    "0.3",
		AnalysisNotes: "Text Analysis: Symptoms require more specific description for accurate diagnosis. Consider providing additional details or taking photos.",
	}
)

type rule struct {
	name  string
	match func(s string) bool
	pick  func(s string) Result
}

func fixed(r Result) func(string) Result {
	return func(string) Result { return r }
}

// textRules are evaluated in order against lower-cased symptoms; first match wins.
var textRules = []rule{
	{
		name: "rust",
		match: func(s string) bool {
			if containsAny(s, "yellow", "orange", "rust") {
				return true
			}
			// white powder is mildew, handled further down
			return strings.Contains(s, "powder") && !strings.Contains(s, "white")
		},
		pick: fixed(leafRust),
	},
	{
		name:  "brown-black",
		match: func(s string) bool { return containsAny(s, "brown", "black", "dark", "spot") },
		pick: func(s string) Result {
			if containsAny(s, "berry", "fruit") {
				return berryDisease
			}
			return brownEyeSpot
		},
	},
	{
		name:  "wilt",
		match: func(s string) bool { return containsAny(s, "wilt", "droop", "dying", "weak") },
		pick:  fixed(wiltDisease),
	},
	{
		name:  "borer",
		match: func(s string) bool { return containsAny(s, "hole", "insect", "bore", "bug", "pest", "eaten") },
		pick:  fixed(berryBorer),
	},
	{
		name:  "powdery-white",
		match: func(s string) bool { return strings.Contains(s, "white") && strings.Contains(s, "powder") },
		pick:  fixed(powderyMildew),
	},
}

// ClassifyText maps free-text symptoms to a canned diagnosis.
func ClassifyText(symptoms string) Result {
	r, _ := matchText(symptoms)
	return r
}

// matchText also returns the name of the rule that fired, or "" for the
// fallback.
func matchText(symptoms string) (Result, string) {
	s := strings.ToLower(symptoms)
	for _, rl := range textRules {
		if rl.match(s) {
			return rl.pick(s), rl.name
		}
	}
	return unidentified, ""
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
