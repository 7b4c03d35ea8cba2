package llm

import "fmt"

// ClassificationPrompt generates the prompt for question category classification.
func ClassificationPrompt(title, content string) string {
	return fmt.Sprintf(`You are a question classifier for a truth-verification forum system. Analyze this question and classify it into one of these categories:

1. **fast-changing-tech**: Questions about rapidly evolving technology, frameworks, APIs, or best practices
2. **stable-concept**: Questions about fundamental concepts, algorithms, or principles that don't change often
3. **opinion**: Questions asking for subjective opinions or preferences
4. **policy**: Questions about rules, regulations, or organizational policies

Question Title: %s

Question Content: %s

Return ONLY a JSON object, no other text:
{
  "question_type": "one of the four categories",
  "confidence": 0.0-1.0,
  "reasoning": "brief explanation"
}`, title, content)
}

// AssessmentPrompt generates the prompt for judging whether an answer has
// gone stale relative to its question.
func AssessmentPrompt(questionTitle, questionBody, answerBody string, answerAgeDays int) string {
	return fmt.Sprintf(`You are an answer-freshness assessor for a Q&A forum. Judge whether this answer is likely outdated today.

Question: %s

%s

Answer (written %d days ago):
%s

Consider whether the subject matter changes quickly and whether anything in the answer is likely to have been superseded.

Return ONLY a JSON object, no other text:
{
  "is_outdated": true or false,
  "confidence_delta": -1.0 to 1.0 (negative means evidence the answer is outdated, positive means evidence it still holds),
  "reasoning": "brief explanation"
}`, questionTitle, questionBody, answerAgeDays, answerBody)
}
