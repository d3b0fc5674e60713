package constant

const (
	ClinicalQuestionPrompt = `%sClinical Question: %s

Provide a clinical response that includes:
1. Evidence-based answer
2. Clinical considerations
3. Relevant guidelines or recommendations
4. Important warnings or contraindications

Finish with a short disclaimer telling the reader to consult your doctor.`

	GeneralMedicalPrompt = `Medical Query: %s

Provide helpful medical information while:
1. Staying evidence-based
2. Avoiding specific medical advice
3. Recommending healthcare providers where appropriate

This is for educational purposes.`

	LiteratureSummaryPrompt = `Analyze this medical research article and list 3 to 5 key findings relevant to the query: "%s"

Article Title: %s
Authors: %s
Journal: %s
Abstract: %s

Output one finding per line, each starting with "- ".`

	TreatmentComparisonPrompt = `Compare the following treatments: %s
Query context: %s

Respond with valid JSON only:
{"disease_condition": "...", "efficacy_metrics": {"<treatment>": "..."}, "side_effects": {"<treatment>": ["..."]}, "recommendation": "...", "confidence_level": "low|medium|high"}`
)
