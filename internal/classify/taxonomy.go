package classify

// Taxonomy slugs accepted in classification results. Anything a classifier
// returns outside these sets is discarded.
var knownSkills = map[string]struct{}{
	"analytical_skills/coding_skills/text_to_code":              {},
	"analytical_skills/coding_skills/code_optimization":         {},
	"analytical_skills/coding_skills/code_to_docstrings":        {},
	"natural_language_processing/text_generation":               {},
	"natural_language_processing/summarization":                 {},
	"natural_language_processing/translation":                   {},
	"natural_language_processing/sentiment_analysis":            {},
	"data_engineering/data_transformation_pipeline":             {},
	"data_engineering/data_cleaning":                            {},
	"data_engineering/feature_engineering":                      {},
	"blockchain/smart_contract_development":                     {},
	"blockchain/blockchain_analytics":                           {},
	"images_computer_vision/image_classification":               {},
	"images_computer_vision/object_detection":                   {},
	"images_computer_vision/image_generation":                   {},
	"agent_orchestration/task_decomposition":                    {},
	"agent_orchestration/multi_agent_planning":                  {},
	"advanced_reasoning_planning/strategic_planning":            {},
	"advanced_reasoning_planning/chain_of_thought_structuring":  {},
	"retrieval_augmented_generation/document_retrieval":         {},
	"retrieval_augmented_generation/semantic_search":            {},
	"security_privacy/threat_detection":                         {},
}

var knownDomains = map[string]struct{}{
	"technology/software_engineering":            {},
	"technology/software_engineering/devops":     {},
	"technology/artificial_intelligence":         {},
	"technology/data_science":                    {},
	"technology/blockchain":                      {},
	"technology/cybersecurity":                   {},
	"technology/productivity_tools":              {},
	"finance_and_business/finance":               {},
	"finance_and_business/banking":               {},
	"finance_and_business/trading":               {},
	"finance_and_business/investment":            {},
	"finance_and_business/accounting":            {},
	"healthcare/medical_services":                {},
	"healthcare/telemedicine":                    {},
	"education/e_learning":                       {},
	"education/educational_technology":           {},
	"media_and_entertainment/content_creation":   {},
	"media_and_entertainment/social_media":       {},
	"legal/contract_management":                  {},
	"telecommunications/marketing_automation":    {},
	"agriculture/precision_agriculture":          {},
	"transportation/logistics":                   {},
	"real_estate/property_management":            {},
}

// keywordRule pairs a taxonomy slug with the substrings that select it.
type keywordRule struct {
	slug     string
	keywords []string
}

var skillRules = []keywordRule{
	{"analytical_skills/coding_skills/text_to_code", []string{"code generation", "generate code", "write code", "programming"}},
	{"analytical_skills/coding_skills/code_optimization", []string{"optimize", "performance", "refactor"}},
	{"analytical_skills/coding_skills/code_to_docstrings", []string{"documentation", "docstring", "comment"}},
	{"natural_language_processing/text_generation", []string{"text generation", "writing", "content creation", "generate text"}},
	{"natural_language_processing/summarization", []string{"summary", "summarize", "abstract"}},
	{"natural_language_processing/translation", []string{"translate", "translation", "multilingual"}},
	{"natural_language_processing/sentiment_analysis", []string{"sentiment", "emotion", "feeling"}},
	{"data_engineering/data_transformation_pipeline", []string{"data pipeline", "etl", "data processing"}},
	{"data_engineering/data_cleaning", []string{"data cleaning", "clean data", "data quality"}},
	{"data_engineering/feature_engineering", []string{"feature", "feature engineering"}},
	{"blockchain/smart_contract_development", []string{"smart contract", "solidity", "ethereum", "web3"}},
	{"blockchain/blockchain_analytics", []string{"blockchain analytics", "on-chain", "crypto"}},
	{"images_computer_vision/image_classification", []string{"image classification", "classify image"}},
	{"images_computer_vision/object_detection", []string{"object detection", "detect", "recognition"}},
	{"images_computer_vision/image_generation", []string{"image generation", "generate image", "art", "picture"}},
	{"agent_orchestration/task_decomposition", []string{"task decomposition", "break down", "subtask"}},
	{"agent_orchestration/multi_agent_planning", []string{"multi-agent", "coordination", "collaborate"}},
	{"advanced_reasoning_planning/strategic_planning", []string{"strategy", "strategic", "planning"}},
	{"advanced_reasoning_planning/chain_of_thought_structuring", []string{"reasoning", "think", "logic"}},
	{"retrieval_augmented_generation/document_retrieval", []string{"search", "retrieve", "find", "lookup", "rag"}},
	{"retrieval_augmented_generation/semantic_search", []string{"semantic search", "similarity"}},
	{"security_privacy/threat_detection", []string{"security", "threat", "vulnerability", "detect"}},
}

var domainRules = []keywordRule{
	{"technology/software_engineering", []string{"software", "engineering", "development"}},
	{"technology/software_engineering/devops", []string{"devops", "ci/cd", "deployment"}},
	{"technology/artificial_intelligence", []string{"ai", "artificial intelligence", "machine learning", "ml"}},
	{"technology/data_science", []string{"data science", "analytics", "data analysis"}},
	{"technology/blockchain", []string{"blockchain", "crypto", "web3", "defi", "nft"}},
	{"technology/cybersecurity", []string{"security", "cybersecurity", "threat"}},
	{"finance_and_business/finance", []string{"finance", "financial", "money"}},
	{"finance_and_business/banking", []string{"bank", "banking", "payment"}},
	{"finance_and_business/trading", []string{"trading", "trade", "market", "exchange"}},
	{"finance_and_business/investment", []string{"investment", "invest", "portfolio"}},
	{"finance_and_business/accounting", []string{"accounting", "bookkeeping", "ledger"}},
	{"healthcare/medical_services", []string{"medical", "health", "healthcare", "doctor"}},
	{"healthcare/telemedicine", []string{"telemedicine", "remote health"}},
	{"education/e_learning", []string{"education", "learning", "teach", "course"}},
	{"education/educational_technology", []string{"edtech", "educational technology"}},
	{"media_and_entertainment/content_creation", []string{"content", "media", "creator"}},
	{"media_and_entertainment/social_media", []string{"social media", "twitter", "instagram", "tiktok"}},
	{"legal/contract_management", []string{"contract", "legal", "agreement"}},
	{"telecommunications/marketing_automation", []string{"marketing", "campaign", "promotion"}},
	{"technology/productivity_tools", []string{"productivity", "task", "todo", "organize"}},
	{"agriculture/precision_agriculture", []string{"agriculture", "farming", "crop"}},
	{"transportation/logistics", []string{"logistics", "supply chain", "delivery"}},
	{"real_estate/property_management", []string{"real estate", "property", "housing"}},
}

func isKnownSkill(slug string) bool {
	_, ok := knownSkills[slug]
	return ok
}

func isKnownDomain(slug string) bool {
	_, ok := knownDomains[slug]
	return ok
}
