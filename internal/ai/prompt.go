package ai

import "fmt"

const systemPromptTemplate = `You are a medical AI. Analyze the symptoms. Output ONLY valid JSON with these keys: "disease", "probability", "advice", "medicines". For "medicines", list generic names of common over-the-counter drugs applicable for the condition in %s. Return a single string of generic drug names separated by commas (e.g., "Paracetamol, Cetirizine"). Do not say "Here is the JSON". Just output the JSON.`

// SystemPrompt pins the answer to one JSON object with the four result keys.
func SystemPrompt(jurisdiction string) string {
	if jurisdiction == "" {
		jurisdiction = "India"
	}
	return fmt.Sprintf(systemPromptTemplate, jurisdiction)
}

func userPrompt(symptoms string) string {
	return "Symptoms: " + symptoms
}
