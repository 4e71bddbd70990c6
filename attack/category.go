package attack

import "fmt"

// Category classifies an attack by its OWASP LLM Top 10 risk category.
type Category string

const (
	// CategoryPromptInjection covers direct and indirect prompt injection (LLM01).
	// Examples: system prompt manipulation, instruction smuggling via documents
	CategoryPromptInjection Category = "LLM01"

	// CategoryDataLeak covers sensitive information disclosure (LLM02).
	// Examples: PII leakage, training data extraction
	CategoryDataLeak Category = "LLM02"

	// CategorySupplyChain covers supply chain vulnerabilities (LLM03).
	// Examples: poisoned base models, compromised plugins
	CategorySupplyChain Category = "LLM03"

	// CategoryDataPoisoning covers data and model poisoning (LLM04).
	// Examples: training data manipulation, backdoor triggers
	CategoryDataPoisoning Category = "LLM04"

	// CategoryImproperOutput covers improper output handling (LLM05).
	// Examples: unsanitized markup or code passed downstream
	CategoryImproperOutput Category = "LLM05"

	// CategoryExcessiveAgency covers unauthorized autonomous actions (LLM06).
	// Examples: tool invocation beyond granted permissions
	CategoryExcessiveAgency Category = "LLM06"

	// CategorySystemPromptLeak covers system prompt leakage (LLM07).
	// Examples: verbatim disclosure of hidden instructions
	CategorySystemPromptLeak Category = "LLM07"

	// CategoryVectorWeakness covers vector and embedding weaknesses (LLM08).
	// Examples: embedding inversion, retrieval poisoning
	CategoryVectorWeakness Category = "LLM08"

	// CategoryMisinformation covers misinformation generation (LLM09).
	// Examples: confident fabrication of facts or citations
	CategoryMisinformation Category = "LLM09"

	// CategoryUnboundedConsumption covers unbounded resource consumption (LLM10).
	// Examples: token flooding, denial of wallet
	CategoryUnboundedConsumption Category = "LLM10"
)

// IsValid returns true if the category is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPromptInjection,
		CategoryDataLeak,
		CategorySupplyChain,
		CategoryDataPoisoning,
		CategoryImproperOutput,
		CategoryExcessiveAgency,
		CategorySystemPromptLeak,
		CategoryVectorWeakness,
		CategoryMisinformation,
		CategoryUnboundedConsumption:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable display name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryPromptInjection:
		return "Prompt Injection"
	case CategoryDataLeak:
		return "Sensitive Information Disclosure"
	case CategorySupplyChain:
		return "Supply Chain Vulnerabilities"
	case CategoryDataPoisoning:
		return "Data and Model Poisoning"
	case CategoryImproperOutput:
		return "Improper Output Handling"
	case CategoryExcessiveAgency:
		return "Excessive Agency"
	case CategorySystemPromptLeak:
		return "System Prompt Leakage"
	case CategoryVectorWeakness:
		return "Vector and Embedding Weaknesses"
	case CategoryMisinformation:
		return "Misinformation"
	case CategoryUnboundedConsumption:
		return "Unbounded Consumption"
	default:
		return string(c)
	}
}

// ParseCategory parses a string into a Category value.
// Returns an error if the string is not a valid category.
func ParseCategory(s string) (Category, error) {
	category := Category(s)
	if !category.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return category, nil
}

// AllCategories returns all valid categories in OWASP LLM order.
func AllCategories() []Category {
	return []Category{
		CategoryPromptInjection,
		CategoryDataLeak,
		CategorySupplyChain,
		CategoryDataPoisoning,
		CategoryImproperOutput,
		CategoryExcessiveAgency,
		CategorySystemPromptLeak,
		CategoryVectorWeakness,
		CategoryMisinformation,
		CategoryUnboundedConsumption,
	}
}
