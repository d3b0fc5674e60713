package constant

// Medical vocabulary used by the full relevance filter. Matched as substrings of words.
var DefaultMedicalKeywords = []string{
	// conditions
	"diabetes", "hypertension", "cancer", "covid", "pneumonia", "asthma",
	"arthritis", "depression", "anxiety", "migraine", "copd", "alzheimer",
	"disease", "syndrome", "disorder", "condition", "illness", "symptom",

	// treatments and interventions
	"treatment", "therapy", "medication", "drug", "surgery", "procedure",
	"intervention", "protocol", "regimen", "dosage", "administration",
	"cure", "heal", "remedy", "medicine", "pharmaceutical",

	// research
	"clinical trial", "study", "research", "meta-analysis", "systematic review",
	"randomized", "controlled", "placebo", "efficacy", "safety",
	"evidence", "data", "analysis", "findings", "results",

	// outcomes
	"mortality", "morbidity", "outcome", "prognosis", "diagnosis", "biomarker",
	"side effects", "adverse events", "complications", "recovery",
	"symptoms", "pain", "relief", "improvement",

	// care settings
	"patient", "healthcare", "clinical", "hospital", "physician", "nurse",
	"pharmacist", "medical", "health", "doctor", "clinic",

	// question words keep short clinical questions above the floor
	"what", "how", "why", "when", "where", "can", "should", "compare",
	"effective", "best", "recommend", "suggest", "help", "information",
}

// Coarse lists used inside the session workflow.
var (
	SessionGreetings  = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}
	SessionVagueTerms = []string{"help", "what can you do", "how are you", "what is this"}
	SessionKeywords   = []string{
		"treatment", "therapy", "drug", "medication", "clinical", "trial",
		"disease", "diagnosis", "patient", "efficacy", "side effects",
		"literature", "research", "study", "pubmed", "journal",
	}
)

var DefaultHighImpactJournals = []string{
	"new england journal of medicine", "the lancet", "jama", "nature medicine",
	"science", "cell", "british medical journal", "annals of internal medicine",
}

var DefaultSensitiveTerms = []string{
	"contraindicated", "black box warning", "fatal", "mortality",
	"severe adverse", "emergency", "toxic", "overdose",
}

var DisclaimerPhrases = []string{
	"consult your doctor", "speak with your healthcare provider",
	"this is not medical advice", "for educational purposes",
}

// Common drug names recognised when extracting compared treatments.
var CommonDrugs = []string{
	"aspirin", "ibuprofen", "acetaminophen", "metformin", "insulin",
	"penicillin", "amoxicillin", "warfarin", "simvastatin", "lisinopril",
	"remdesivir", "paxlovid", "hydroxychloroquine", "azithromycin",
}

// Terms pulled from a query to seed a literature search.
var SearchKeywords = []string{
	"treatment", "therapy", "drug", "medication", "clinical trial",
	"efficacy", "safety", "side effects", "dosage", "administration",
	"diagnosis", "prognosis", "biomarker", "outcome", "mortality",
}

const (
	DefaultConfidenceThreshold       = 0.7
	DefaultMedicalRelevanceThreshold = 0.01
	DefaultMaxShortTermItems         = 7
	DefaultMaxConversationTurns      = 10
	DefaultMemoryCleanupDays         = 30
	DefaultRetrievalLimit            = 10

	ReviewerSystem = "system"
)
